// Package ufcallmap implements C10: the affine-superset abstraction.
// Every distinct UFCall expression appearing in a Relation is replaced
// by a fresh symbolic Variable ("mangled" from the call's own textual
// form), producing a purely affine Relation an external integer-set
// solver can consume, plus a bidirectional map back to the original
// UFCall terms.
//
// This abstraction is a superset: it forgets the functional semantics of
// the UF (e.g. that a bijective f satisfies f(x)=f(y) => x=y), keeping
// only "same textual call => same mangled variable". Rule instantiation
// (internal/ufenv, C6) must run before this abstraction is applied, or
// the facts it would have derived are lost.
package ufcallmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/term"
)

// Map is the bidirectional association between mangled variable names
// and the original UFCall terms they stand in for.
type Map struct {
	toVar  map[string]string      // UFCall identity -> mangled name
	toCall map[string]*term.Term  // mangled name -> original UFCall term
	order  []string               // mangled names, in assignment order
}

// New returns an empty map.
func New() *Map {
	return &Map{toVar: make(map[string]string), toCall: make(map[string]*term.Term)}
}

// Names returns every mangled variable name, in the order they were assigned.
func (m *Map) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// OriginalOf returns the UFCall term a mangled name stands for.
func (m *Map) OriginalOf(mangled string) (*term.Term, bool) {
	t, ok := m.toCall[mangled]
	return t, ok
}

// NameOf returns the mangled variable name a UFCall term (matched by
// Identity, ignoring coefficient) was assigned, if any. Used by the
// simplification driver (C12 step 7) to check whether a tuple slot feeding
// a UFCall's arguments is still "live" in the affine relation before
// projecting it out.
func (m *Map) NameOf(u *term.Term) (string, bool) {
	name, ok := m.toVar[u.Identity()]
	return name, ok
}

// RemapSlots rewrites every captured original UFCall term's arguments so
// that TupleVariable references use the post-projection slot numbering
// given by mapping (mapping[originalSlot] = currentSlot, or -1 if that
// slot no longer exists). Must be called after any projection that
// removes or shifts tuple slots in the relation these calls were mangled
// from, or Unmangle{Relation,Set} would splice stale, out-of-range slot
// references back into the result (spec.md §8 soundness).
func (m *Map) RemapSlots(mapping []int) {
	for name, t := range m.toCall {
		nt := t.Clone()
		for i, a := range nt.Args {
			nt.Args[i] = a.PermuteSlots(mapping)
		}
		m.toCall[name] = nt
	}
}

// assign registers u (if not already present) and returns its mangled
// name.
func (m *Map) assign(u *term.Term) string {
	id := u.Identity()
	if name, ok := m.toVar[id]; ok {
		return name
	}
	name := Mangle(u)
	// Mangling is specified to be injective over the UFCall expressions
	// of one Relation (spec.md §8); a collision against a distinct call
	// means two structurally different calls rendered identically, a
	// condition the driver must not paper over.
	if existing, ok := m.toCall[name]; ok && existing.Identity() != id {
		panic(fmt.Sprintf("ufcallmap: mangled name collision for %q between %s and %s", name, existing.String(), u.String()))
	}
	m.toVar[id] = name
	m.toCall[name] = u
	m.order = append(m.order, name)
	return name
}

// Mangle renders t's canonical name: replace "(" and ")" with "_",
// replace "+" with "P", "-" with "M", commas with "_", and drop spaces.
// e.g. idx(ip+1) -> idx_ipP1_, col(j) -> col_j_.
func Mangle(t *term.Term) string {
	var raw strings.Builder
	raw.WriteString(t.UFName)
	raw.WriteString("(")
	for i, a := range t.Args {
		if i > 0 {
			raw.WriteString(",")
		}
		raw.WriteString(renderArgument(a))
	}
	raw.WriteString(")")

	var out strings.Builder
	for _, r := range raw.String() {
		switch r {
		case '(':
			out.WriteByte('_')
		case ')':
			out.WriteByte('_')
		case '+':
			out.WriteByte('P')
		case '-':
			out.WriteByte('M')
		case ',':
			out.WriteByte('_')
		case ' ':
			// dropped
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

// renderArgument renders an expression's term list without the
// Equality/Inequality suffix Expression.String adds — only the raw
// "t1 + t2 - t3" form mangling operates on, with the constant addend
// written last (ip+1, not 1+ip).
func renderArgument(e *term.Expression) string {
	terms := make([]*term.Term, 0, len(e.Terms))
	for _, t := range e.Terms {
		if t.Kind != term.Constant {
			terms = append(terms, t)
		}
	}
	for _, t := range e.Terms {
		if t.Kind == term.Constant {
			terms = append(terms, t)
		}
	}
	var sb strings.Builder
	for i, t := range terms {
		s := t.String()
		if i == 0 {
			sb.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			sb.WriteString("-")
			sb.WriteString(s[1:])
		} else {
			sb.WriteString("+")
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

// SuperAffineRelation computes the affine superset of r: every distinct
// UFCall expression is replaced by a fresh mangled Variable, producing a
// purely-affine Relation with the same arity and disjunct structure.
func SuperAffineRelation(r *setrel.Relation) (*setrel.Relation, *Map) {
	m := New()
	out := &setrel.Relation{InArity: r.InArity, OutArity: r.OutArity}
	for _, c := range r.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, superAffineConjunction(c, m))
	}
	return out, m
}

// SuperAffineSet is the Set-valued counterpart of SuperAffineRelation.
func SuperAffineSet(s *setrel.Set) (*setrel.Set, *Map) {
	m := New()
	out := &setrel.Set{Arity: s.Arity}
	for _, c := range s.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, superAffineConjunction(c, m))
	}
	return out, m
}

func superAffineConjunction(c *conj.Conjunction, m *Map) *conj.Conjunction {
	out := c.Clone()
	calls := out.UFCalls()
	// Deterministic order: sort by identity so repeated calls across a
	// Relation assign mangled names reproducibly (spec.md §5 ordering
	// guarantees).
	sort.Slice(calls, func(i, j int) bool { return calls[i].Identity() < calls[j].Identity() })
	for _, u := range calls {
		name := m.assign(u)
		repl := term.NewInequality(term.NewVariable(name))
		for i, e := range out.Equalities {
			out.Equalities[i] = e.SubstituteUFCall(u.Identity(), repl)
		}
		for i, e := range out.Inequalities {
			out.Inequalities[i] = e.SubstituteUFCall(u.Identity(), repl)
		}
	}
	return out
}

// UnmangleRelation reverses SuperAffineRelation: every mangled
// Variable named in m is substituted back for its original UFCall term.
func UnmangleRelation(r *setrel.Relation, m *Map) *setrel.Relation {
	out := &setrel.Relation{InArity: r.InArity, OutArity: r.OutArity}
	for _, c := range r.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, unmangleConjunction(c, m))
	}
	return out
}

// UnmangleSet is the Set-valued counterpart of UnmangleRelation.
func UnmangleSet(s *setrel.Set, m *Map) *setrel.Set {
	out := &setrel.Set{Arity: s.Arity}
	for _, c := range s.Conjunctions {
		out.Conjunctions = append(out.Conjunctions, unmangleConjunction(c, m))
	}
	return out
}

func unmangleConjunction(c *conj.Conjunction, m *Map) *conj.Conjunction {
	out := c.Clone()
	for _, name := range m.Names() {
		original, ok := m.OriginalOf(name)
		if !ok {
			continue
		}
		repl := term.NewInequality(original)
		for i, e := range out.Equalities {
			out.Equalities[i] = e.SubstituteVar(name, repl)
		}
		for i, e := range out.Inequalities {
			out.Inequalities[i] = e.SubstituteVar(name, repl)
		}
	}
	return out
}
