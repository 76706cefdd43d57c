package setrel

import (
	"fmt"
	"strings"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/term"
)

// Relation is (inArity, outArity, [Conjunction...]); arity = inArity +
// outArity. Every conjunction must agree on (inArity, outArity).
type Relation struct {
	InArity, OutArity int
	Conjunctions      []*conj.Conjunction
}

// NewRelation builds a Relation from the given conjunctions, all of which
// must agree on (inArity, outArity).
func NewRelation(inArity, outArity int, cs ...*conj.Conjunction) (*Relation, error) {
	for _, c := range cs {
		if c.InArity != inArity || c.OutArity() != outArity {
			return nil, fmt.Errorf("%w: conjunction (in=%d,out=%d) != relation (in=%d,out=%d)",
				ErrArityMismatch, c.InArity, c.OutArity(), inArity, outArity)
		}
	}
	return &Relation{InArity: inArity, OutArity: outArity, Conjunctions: cs}, nil
}

// Arity is InArity + OutArity.
func (r *Relation) Arity() int { return r.InArity + r.OutArity }

// Clone deep-copies the relation.
func (r *Relation) Clone() *Relation {
	out := &Relation{InArity: r.InArity, OutArity: r.OutArity}
	for _, c := range r.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Clone())
	}
	return out
}

// IsEmpty reports whether every conjunction is UNSAT (syntactic check only).
func (r *Relation) IsEmpty() bool {
	for _, c := range r.Conjunctions {
		if !c.IsUnsat() {
			return false
		}
	}
	return true
}

// DropUnsat removes every UNSAT-marked conjunction in place.
func (r *Relation) DropUnsat() {
	kept := r.Conjunctions[:0]
	for _, c := range r.Conjunctions {
		if !c.IsUnsat() {
			kept = append(kept, c)
		}
	}
	r.Conjunctions = kept
}

// Union returns the disjunction of self's and other's conjunctions.
// (InArity, OutArity) must match.
func (r *Relation) Union(other *Relation) (*Relation, error) {
	if r.InArity != other.InArity || r.OutArity != other.OutArity {
		return nil, fmt.Errorf("%w: (%d,%d) != (%d,%d)", ErrArityMismatch, r.InArity, r.OutArity, other.InArity, other.OutArity)
	}
	out := &Relation{InArity: r.InArity, OutArity: r.OutArity}
	for _, c := range r.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Clone())
	}
	for _, c := range other.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Clone())
	}
	return out, nil
}

// Intersect returns the pairwise Cartesian product of self's and other's
// conjunctions. (InArity, OutArity) must match.
func (r *Relation) Intersect(other *Relation) (*Relation, error) {
	if r.InArity != other.InArity || r.OutArity != other.OutArity {
		return nil, fmt.Errorf("%w: (%d,%d) != (%d,%d)", ErrArityMismatch, r.InArity, r.OutArity, other.InArity, other.OutArity)
	}
	out := &Relation{InArity: r.InArity, OutArity: r.OutArity}
	for _, c1 := range r.Conjunctions {
		for _, c2 := range other.Conjunctions {
			out.Conjunctions = append(out.Conjunctions, intersectConjunctions(c1, c2))
		}
	}
	return out, nil
}

// Inverse swaps the input and output prefixes: R: A->B becomes R^-1: B->A.
func (r *Relation) Inverse() *Relation {
	out := &Relation{InArity: r.OutArity, OutArity: r.InArity}
	n := r.Arity()
	perm := make([]int, n)
	for i := 0; i < r.InArity; i++ {
		perm[i] = i + r.OutArity
	}
	for i := 0; i < r.OutArity; i++ {
		perm[r.InArity+i] = i
	}
	for _, c := range r.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Permute(perm, r.OutArity))
	}
	return out
}

// Compose computes r.Compose(s) = R ∘ S, where s: A->B and r: B->C,
// producing A->C: B-tuple variables are unified (by placing them at the
// same slot offset in a combined tuple) and then projected out. s's
// OutArity must equal r's InArity.
func (r *Relation) Compose(s *Relation) (*Relation, error) {
	if s.OutArity != r.InArity {
		return nil, fmt.Errorf("%w: s.OutArity=%d != r.InArity=%d", ErrArityMismatch, s.OutArity, r.InArity)
	}
	inArityS, middle, outArityR := s.InArity, s.OutArity, r.OutArity
	total := inArityS + middle + outArityR

	out := &Relation{InArity: inArityS, OutArity: outArityR}
	for _, sc := range s.Conjunctions {
		sBlock := sc.WithOffsetInto(0, total)
		for _, rc := range r.Conjunctions {
			rBlock := rc.WithOffsetInto(inArityS, total)
			combined := sBlock.Clone()
			combined.MergeInto(rBlock)
			combined.DetectUnsatOrFindEqualities()

			var err error
			for slot := inArityS + middle - 1; slot >= inArityS && !combined.IsUnsat(); slot-- {
				combined, err = combined.ProjectOut(slot)
				if err != nil {
					return nil, err
				}
			}
			if combined.IsUnsat() {
				continue
			}
			combined.InArity = inArityS
			out.Conjunctions = append(out.Conjunctions, combined)
		}
	}
	return out, nil
}

// Apply restricts the relation's input to `set` (whose arity must equal
// r.InArity) and returns the induced output Set (arity r.OutArity).
func (r *Relation) Apply(set *Set) (*Set, error) {
	if set.Arity != r.InArity {
		return nil, fmt.Errorf("%w: set.Arity=%d != r.InArity=%d", ErrArityMismatch, set.Arity, r.InArity)
	}
	out := &Set{Arity: r.OutArity}
	for _, rc := range r.Conjunctions {
		for _, sc := range set.Conjunctions {
			combined := rc.Clone()
			combined.MergeInto(sc)
			combined.DetectUnsatOrFindEqualities()

			var err error
			for slot := r.InArity - 1; slot >= 0 && !combined.IsUnsat(); slot-- {
				combined, err = combined.ProjectOut(slot)
				if err != nil {
					return nil, err
				}
			}
			if combined.IsUnsat() {
				continue
			}
			out.Conjunctions = append(out.Conjunctions, combined)
		}
	}
	return out, nil
}

// ProjectOut existentially quantifies and eliminates tuple slot `slot`
// from every conjunction. See Set.ProjectOut for the solver-escalation
// contract.
func (r *Relation) ProjectOut(slot int) (*Relation, error) {
	newIn, newOut := r.InArity, r.OutArity
	if slot < r.InArity {
		newIn--
	} else {
		newOut--
	}
	out := &Relation{InArity: newIn, OutArity: newOut}
	for _, c := range r.Conjunctions {
		if c.IsUnsat() {
			continue
		}
		projected, err := c.ProjectOut(slot)
		if err != nil {
			return nil, err
		}
		if projected.IsUnsat() {
			continue
		}
		out.Conjunctions = append(out.Conjunctions, projected)
	}
	return out, nil
}

// FindFunction delegates to the single underlying conjunction if the
// relation has exactly one disjunct; a multi-conjunct relation may encode
// a different function per disjunct, which this method does not attempt
// to reconcile (returns nil).
func (r *Relation) FindFunction(slot, lo, hi int) *term.Expression {
	if len(r.Conjunctions) != 1 {
		return nil
	}
	return r.Conjunctions[0].FindFunction(slot, lo, hi)
}

// AllUFCalls returns every distinct UFCall term mentioned anywhere across
// the relation's conjunctions.
func (r *Relation) AllUFCalls() []*term.Term {
	seen := make(map[string]*term.Term)
	order := make([]string, 0)
	for _, c := range r.Conjunctions {
		for _, u := range c.UFCalls() {
			id := u.Identity()
			if _, ok := seen[id]; !ok {
				seen[id] = u
				order = append(order, id)
			}
		}
	}
	out := make([]*term.Term, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

func (r *Relation) String() string {
	parts := make([]string, len(r.Conjunctions))
	for i, c := range r.Conjunctions {
		in := c.Decl.Slots[:c.InArity]
		outSlots := c.Decl.Slots[c.InArity:]
		parts[i] = fmt.Sprintf("{ %v -> %v : %s }", in, outSlots, strings.TrimPrefix(c.String(), c.Decl.String()+" : "))
	}
	return strings.Join(parts, " or ")
}
