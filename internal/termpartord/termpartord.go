// Package termpartord implements C8, the adapter between term.Term
// identities and a partord.Graph: it hashes distinct Variable,
// TupleVariable, and UFCall terms (coefficient ignored, per
// term.Term.Identity) to dense graph vertex ids, tracks which terms are
// known non-negative, and exposes the same ordering queries as
// partord.Graph but keyed by *term.Term instead of by vertex id.
package termpartord

import (
	"fmt"

	"github.com/sparseopt/iegen/internal/partord"
	"github.com/sparseopt/iegen/internal/term"
)

// Graph wraps a partord.Graph with a term.Term <-> vertex-id mapping.
// The maximum vertex count is fixed at construction (spec.md §4.7); every
// term this simplify pass might ever mention must be inserted before the
// graph is queried.
type Graph struct {
	inner       *partord.Graph
	ids         map[string]int
	terms       []*term.Term
	nonNegative map[string]bool
	done        bool
}

// New returns a graph with capacity for up to maxTerms distinct terms.
func New(maxTerms int) *Graph {
	return &Graph{
		inner:       partord.New(maxTerms),
		ids:         make(map[string]int),
		nonNegative: make(map[string]bool),
	}
}

// InsertTerm registers t (if not already present) and returns its vertex
// id. Calling InsertTerm after DoneInsertingTerms panics: it is a
// programming-error invariant violation, not a recoverable condition.
func (g *Graph) InsertTerm(t *term.Term) int {
	if g.done {
		panic("termpartord: InsertTerm called after DoneInsertingTerms")
	}
	key := t.Identity()
	if id, ok := g.ids[key]; ok {
		return id
	}
	id := len(g.terms)
	if id >= g.inner.N() {
		panic(fmt.Sprintf("termpartord: exceeded fixed vertex capacity %d", g.inner.N()))
	}
	g.ids[key] = id
	g.terms = append(g.terms, t)
	return id
}

// DoneInsertingTerms freezes the term set; no further InsertTerm calls
// are permitted.
func (g *Graph) DoneInsertingTerms() { g.done = true }

// idOf returns the vertex id for a term already inserted, or -1.
func (g *Graph) idOf(t *term.Term) int {
	id, ok := g.ids[t.Identity()]
	if !ok {
		return -1
	}
	return id
}

// MarkNonNegative records that t is known >= 0.
func (g *Graph) MarkNonNegative(t *term.Term) { g.nonNegative[t.Identity()] = true }

// IsNonNegative reports whether t was marked non-negative.
func (g *Graph) IsNonNegative(t *term.Term) bool { return g.nonNegative[t.Identity()] }

// IsUnsat delegates to the wrapped graph.
func (g *Graph) IsUnsat() bool { return g.inner.IsUnsat() }

// Strict asserts a < b, inserting both terms if necessary.
func (g *Graph) Strict(a, b *term.Term) { g.inner.Strict(g.InsertTerm(a), g.InsertTerm(b)) }

// NonStrict asserts a <= b, inserting both terms if necessary.
func (g *Graph) NonStrict(a, b *term.Term) { g.inner.NonStrict(g.InsertTerm(a), g.InsertTerm(b)) }

// EqualAssert asserts a = b, inserting both terms if necessary.
func (g *Graph) EqualAssert(a, b *term.Term) { g.inner.EqualAssert(g.InsertTerm(a), g.InsertTerm(b)) }

// IsStrict reports whether a < b is known; false if either term was
// never inserted.
func (g *Graph) IsStrict(a, b *term.Term) bool {
	ai, bi := g.idOf(a), g.idOf(b)
	if ai < 0 || bi < 0 {
		return false
	}
	return g.inner.IsStrict(ai, bi)
}

// IsNonStrict reports whether a <= b is known.
func (g *Graph) IsNonStrict(a, b *term.Term) bool {
	ai, bi := g.idOf(a), g.idOf(b)
	if ai < 0 || bi < 0 {
		return false
	}
	return g.inner.IsNonStrict(ai, bi)
}

// IsEqual reports whether a = b is known.
func (g *Graph) IsEqual(a, b *term.Term) bool {
	ai, bi := g.idOf(a), g.idOf(b)
	if ai < 0 || bi < 0 {
		return a.Identity() == b.Identity()
	}
	return g.inner.IsEqual(ai, bi)
}

// EqualPairs returns every pair of distinct inserted terms known equal,
// used by the simplification driver to promote discovered equalities
// back into a Conjunction.
func (g *Graph) EqualPairs() [][2]*term.Term {
	var out [][2]*term.Term
	for i := 0; i < len(g.terms); i++ {
		for j := i + 1; j < len(g.terms); j++ {
			if g.inner.IsEqual(i, j) {
				out = append(out, [2]*term.Term{g.terms[i], g.terms[j]})
			}
		}
	}
	return out
}
