// Package partord implements a dense adjacency-matrix partial-ordering
// graph over a small, fixed set of integer vertices (C7). It is the
// lowest layer of the equality/UNSAT discovery stack: internal/termpartord
// (C8) hangs term identities off its vertex ids, and
// internal/digraph (C9) generalizes the same Floyd-Warshall closure idea
// to full expression vertices.
package partord

// Value is a lattice element describing what is known about the
// ordering between two vertices.
type Value int

const (
	// NoOrd is the top element: nothing known.
	NoOrd Value = iota
	NonStrict
	Strict
	Equal
)

func (v Value) String() string {
	switch v {
	case NonStrict:
		return "<="
	case Strict:
		return "<"
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Graph is a dense N x N adjacency matrix of Values, N fixed at
// construction. Vertex count stays small (a handful of UF-call/tuple-slot
// identities per simplification call), so a flat backing buffer beats any
// sparse representation.
type Graph struct {
	n     int
	edges []Value
	unsat bool
}

// New returns a graph over n vertices, all initially NoOrd.
func New(n int) *Graph {
	return &Graph{n: n, edges: make([]Value, n*n)}
}

func (g *Graph) idx(a, b int) int { return a*g.n + b }

// N returns the vertex count.
func (g *Graph) N() int { return g.n }

// IsUnsat reports whether any insertion has produced an illegal update.
func (g *Graph) IsUnsat() bool { return g.unsat }

func (g *Graph) get(a, b int) Value { return g.edges[g.idx(a, b)] }
func (g *Graph) set(a, b int, v Value) { g.edges[g.idx(a, b)] = v }

// update combines the current edge (a,b) with a new asserted value per
// the update lattice of spec §4.6: NoOrd is absorbed by anything;
// NonStrict can be tightened to Strict or Equal; Strict stays Strict when
// combined with NonStrict; Strict combined with Equal (in either order)
// is illegal.
func update(current, asserted Value) (Value, bool) {
	if current == NoOrd {
		return asserted, true
	}
	if asserted == NoOrd {
		return current, true
	}
	if current == asserted {
		return current, true
	}
	switch {
	case current == NonStrict && (asserted == Strict || asserted == Equal):
		return asserted, true
	case asserted == NonStrict && (current == Strict || current == Equal):
		return current, true
	default:
		// Strict vs Equal in either order: illegal.
		return current, false
	}
}

// meet combines two edge values along a transitive chain a->b->c: NoOrd
// dominates (an unknown link breaks the chain), Equal is the identity,
// any Strict in the chain makes the result Strict, otherwise NonStrict.
func meet(ab, bc Value) Value {
	if ab == NoOrd || bc == NoOrd {
		return NoOrd
	}
	if ab == Equal {
		return bc
	}
	if bc == Equal {
		return ab
	}
	if ab == Strict || bc == Strict {
		return Strict
	}
	return NonStrict
}

// insert asserts value between a and b (and, for NonStrict/Strict, the
// mirrored NonStrict/Strict on (b,a) is implied but represented
// separately — callers use the directional helpers below), applies the
// self-loop/inversion edge cases, then runs full transitive closure.
func (g *Graph) insert(a, b int, value Value) {
	if g.unsat {
		return
	}
	if a == b {
		if value != Equal {
			g.unsat = true
		}
		return
	}
	// Inserting Strict(a,b) when (b,a) already carries any non-NoOrd edge
	// is unsat: a<b and some relation b?a can never jointly hold except
	// when that relation is also Strict in the same direction, which
	// insert never asserts backwards.
	if value == Strict && g.get(b, a) != NoOrd {
		g.unsat = true
		return
	}
	next, ok := update(g.get(a, b), value)
	if !ok {
		g.unsat = true
		return
	}
	g.set(a, b, next)
	if value == Equal {
		g.set(b, a, Equal)
	}
	g.closeTransitively()
	g.collapseEqualities()
}

// Strict asserts a < b.
func (g *Graph) Strict(a, b int) { g.insert(a, b, Strict) }

// NonStrict asserts a <= b.
func (g *Graph) NonStrict(a, b int) { g.insert(a, b, NonStrict) }

// EqualAssert asserts a = b.
func (g *Graph) EqualAssert(a, b int) { g.insert(a, b, Equal) }

// closeTransitively runs Floyd-Warshall using meet as both the
// accumulator (edge a->c via k) and the combinator (strongest known fact
// wins via update).
func (g *Graph) closeTransitively() {
	n := g.n
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			aik := g.get(i, k)
			if aik == NoOrd {
				continue
			}
			for j := 0; j < n; j++ {
				akj := g.get(k, j)
				if akj == NoOrd || i == j {
					continue
				}
				via := meet(aik, akj)
				if via == NoOrd {
					continue
				}
				next, ok := update(g.get(i, j), via)
				if !ok {
					g.unsat = true
					return
				}
				g.set(i, j, next)
			}
		}
	}
}

// collapseEqualities folds a<=b && b<=a into a=b, for every pair.
func (g *Graph) collapseEqualities() {
	for a := 0; a < g.n; a++ {
		for b := a + 1; b < g.n; b++ {
			if g.get(a, b) == NonStrict && g.get(b, a) == NonStrict {
				g.set(a, b, Equal)
				g.set(b, a, Equal)
			}
		}
	}
}

// IsStrict reports whether a < b is known.
func (g *Graph) IsStrict(a, b int) bool { return g.get(a, b) == Strict }

// IsNonStrict reports whether a <= b is known (including when a = b is known).
func (g *Graph) IsNonStrict(a, b int) bool {
	v := g.get(a, b)
	return v == NonStrict || v == Strict || v == Equal
}

// IsEqual reports whether a = b is known.
func (g *Graph) IsEqual(a, b int) bool { return a == b || g.get(a, b) == Equal }

// IsNoOrd reports whether nothing is known between a and b.
func (g *Graph) IsNoOrd(a, b int) bool { return a != b && g.get(a, b) == NoOrd }
