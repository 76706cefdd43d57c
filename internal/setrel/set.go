// Package setrel implements Sets and Relations (C4): disjunctions of
// Conjunctions, with a Relation additionally partitioning its tuple into
// an input prefix and an output suffix.
package setrel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
)

// ErrArityMismatch is returned by binary operations (Union, Intersect, ...)
// given operands of incompatible arity — fatal per spec.md §7.
var ErrArityMismatch = errors.New("setrel: arity mismatch")

// ErrComplementNeedsSolver is returned by Set.Complement when the set has
// more than one disjunct: De Morgan negation of a disjunction of
// conjunctions requires full DNF/CNF conversion, which this package
// leaves to the external solver adapter (C11).
var ErrComplementNeedsSolver = errors.New("setrel: complement of a multi-conjunct set requires the solver adapter")

// Set is (arity, [Conjunction...]): all conjunctions share the same arity
// and, for a Set, InArity == Arity (there is no input/output split).
type Set struct {
	Arity        int
	Conjunctions []*conj.Conjunction
}

// New builds a Set from the given conjunctions, all of which must share
// arity.
func New(arity int, cs ...*conj.Conjunction) (*Set, error) {
	for _, c := range cs {
		if c.Arity() != arity {
			return nil, fmt.Errorf("%w: conjunction arity %d != set arity %d", ErrArityMismatch, c.Arity(), arity)
		}
	}
	return &Set{Arity: arity, Conjunctions: cs}, nil
}

// NewFromTupleDecl builds a single-conjunction Set over decl with no
// constraints (the universe of that arity).
func NewFromTupleDecl(decl *tupledecl.Decl) *Set {
	return &Set{Arity: decl.Arity(), Conjunctions: []*conj.Conjunction{conj.New(decl, decl.Arity())}}
}

// Clone deep-copies the set.
func (s *Set) Clone() *Set {
	out := &Set{Arity: s.Arity}
	for _, c := range s.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Clone())
	}
	return out
}

// IsEmpty reports whether every conjunction has been marked UNSAT. This is
// a syntactic check only (it does not invoke the solver); a Set with no
// conjunctions at all is also considered empty.
func (s *Set) IsEmpty() bool {
	for _, c := range s.Conjunctions {
		if !c.IsUnsat() {
			return false
		}
	}
	return true
}

// DropUnsat removes every UNSAT-marked conjunction in place; a disjunction
// with an UNSAT disjunct is equivalent to the disjunction without it.
func (s *Set) DropUnsat() {
	kept := s.Conjunctions[:0]
	for _, c := range s.Conjunctions {
		if !c.IsUnsat() {
			kept = append(kept, c)
		}
	}
	s.Conjunctions = kept
}

// Union returns the disjunction of self's and other's conjunctions. Arity
// must match.
func (s *Set) Union(other *Set) (*Set, error) {
	if s.Arity != other.Arity {
		return nil, fmt.Errorf("%w: %d != %d", ErrArityMismatch, s.Arity, other.Arity)
	}
	out := &Set{Arity: s.Arity}
	for _, c := range s.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Clone())
	}
	for _, c := range other.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, c.Clone())
	}
	return out, nil
}

// Intersect returns the pairwise Cartesian product of self's and other's
// conjunctions, concatenating constraints under shared (positional) tuple
// slots. Arity must match.
func (s *Set) Intersect(other *Set) (*Set, error) {
	if s.Arity != other.Arity {
		return nil, fmt.Errorf("%w: %d != %d", ErrArityMismatch, s.Arity, other.Arity)
	}
	out := &Set{Arity: s.Arity}
	for _, c1 := range s.Conjunctions {
		for _, c2 := range other.Conjunctions {
			merged := intersectConjunctions(c1, c2)
			out.Conjunctions = append(out.Conjunctions, merged)
		}
	}
	return out, nil
}

// intersectConjunctions merges two same-arity conjunctions' constraints
// (both already share positional slot numbering) and runs equality
// propagation.
func intersectConjunctions(c1, c2 *conj.Conjunction) *conj.Conjunction {
	merged := c1.Clone()
	for _, e := range c2.Equalities {
		_ = merged.AddEquality(e.Clone())
	}
	for _, e := range c2.Inequalities {
		_ = merged.AddInequality(e.Clone())
	}
	if c2.IsUnsat() {
		merged.MarkUnsat()
	}
	merged.DetectUnsatOrFindEqualities()
	return merged
}

// ProjectOut existentially quantifies and eliminates tuple slot `slot`
// from every conjunction, dropping any conjunction made UNSAT in the
// process. Returns conj.ErrNeedsSolver if any surviving conjunction needs
// the solver adapter (the slot occurs inside a UFCall argument there);
// in that case a nil Set is returned alongside the error and the receiver
// itself is left unmodified.
func (s *Set) ProjectOut(slot int) (*Set, error) {
	out := &Set{Arity: s.Arity - 1}
	for _, c := range s.Conjunctions {
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

// Complement negates the set. For a single conjunction this is De Morgan:
// ¬(c1 ∧ ... ∧ cn) = ¬c1 ∨ ... ∨ ¬cn, each ¬ci emitted as its own
// single-constraint conjunction. For a union of more than one conjunction
// this returns ErrComplementNeedsSolver (see that var's doc).
func (s *Set) Complement() (*Set, error) {
	if len(s.Conjunctions) > 1 {
		return nil, ErrComplementNeedsSolver
	}
	out := &Set{Arity: s.Arity}
	if len(s.Conjunctions) == 0 {
		// Complement of the empty set is the universe: one conjunction, no constraints.
		decl := universeDecl(s.Arity)
		out.Conjunctions = append(out.Conjunctions, conj.New(decl, s.Arity))
		return out, nil
	}
	c := s.Conjunctions[0]
	for _, e := range c.Equalities {
		// e = 0  negates to  (e >= 1) or (-e >= 1), i.e. e-1>=0 or -e-1>=0.
		pos := e.Clone()
		pos.Flag = term.Inequality
		pos.Add(term.NewConstant(-1))
		neg := e.Clone()
		neg.MultiplyBy(-1)
		neg.Flag = term.Inequality
		neg.Add(term.NewConstant(-1))
		for _, disjunct := range []*term.Expression{pos, neg} {
			nc := conj.New(c.Decl.Clone(), c.InArity)
			_ = nc.AddInequality(disjunct)
			out.Conjunctions = append(out.Conjunctions, nc)
		}
	}
	for _, e := range c.Inequalities {
		// e >= 0  negates to  -e - 1 >= 0  (i.e. e <= -1).
		neg := e.Clone()
		neg.MultiplyBy(-1)
		neg.Add(term.NewConstant(-1))
		neg.Normalize()
		nc := conj.New(c.Decl.Clone(), c.InArity)
		_ = nc.AddInequality(neg)
		out.Conjunctions = append(out.Conjunctions, nc)
	}
	return out, nil
}

func universeDecl(arity int) *tupledecl.Decl {
	names := make([]string, arity)
	for i := range names {
		names[i] = fmt.Sprintf("e%d", i)
	}
	return tupledecl.NewNamed(names...)
}

// AllUFCalls returns every distinct UFCall term mentioned anywhere across
// the set's conjunctions.
func (s *Set) AllUFCalls() []*term.Term {
	seen := make(map[string]*term.Term)
	order := make([]string, 0)
	for _, c := range s.Conjunctions {
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

func (s *Set) String() string {
	parts := make([]string, len(s.Conjunctions))
	for i, c := range s.Conjunctions {
		parts[i] = "{ " + c.String() + " }"
	}
	return strings.Join(parts, " or ")
}
