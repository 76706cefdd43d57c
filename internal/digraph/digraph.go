// Package digraph implements C9, the transitive-closure graph keyed on
// full expression vertices rather than atomic terms (contrast with
// internal/partord/internal/termpartord, C7/C8). This is what lets the
// simplification driver reason about compound facts like
// `rowptr(i+1) - rowptr(i) >= 1`, where neither side alone is a bare
// term.
package digraph

import (
	"fmt"

	"github.com/sparseopt/iegen/internal/term"
)

// EdgeType is the strength of a known relation between two vertices.
type EdgeType int

const (
	None EdgeType = iota
	Equal
	GreaterEqual
	Greater
)

func (e EdgeType) String() string {
	switch e {
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	case Greater:
		return ">"
	default:
		return "none"
	}
}

// edgeOp picks the stronger of two assertions about the same edge,
// ordered Greater > GreaterEqual > Equal > None.
func edgeOp(a, b EdgeType) EdgeType {
	if a > b {
		return a
	}
	return b
}

// chain combines edges along a transitive path u->k->v: None dominates
// (breaks the chain), Equal is the identity, and a Greater anywhere in
// the chain makes the result Greater; otherwise GreaterEqual.
func chain(uk, kv EdgeType) EdgeType {
	if uk == None || kv == None {
		return None
	}
	if uk == Equal {
		return kv
	}
	if kv == Equal {
		return uk
	}
	if uk == Greater || kv == Greater {
		return Greater
	}
	return GreaterEqual
}

// Graph is a square adjacency matrix of EdgeType over a growable vertex
// list, each vertex a full linear expression (a term.Expression used
// purely as an ordered term list — its Equality/Inequality Flag carries
// no meaning here).
type Graph struct {
	vertices []*term.Expression
	keys     map[string]int
	edges    [][]EdgeType
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{keys: make(map[string]int)}
}

func vertexKey(e *term.Expression) string {
	c := e.Clone()
	c.Flag = term.Equality
	c.Normalize()
	return c.Key()
}

// vertexID returns the id of the vertex matching terms' canonical key,
// creating one (and growing the adjacency matrix) if needed.
func (g *Graph) vertexID(e *term.Expression) int {
	key := vertexKey(e)
	if id, ok := g.keys[key]; ok {
		return id
	}
	id := len(g.vertices)
	norm := e.Clone()
	norm.Flag = term.Equality
	norm.Normalize()
	g.vertices = append(g.vertices, norm)
	g.keys[key] = id
	for i := range g.edges {
		g.edges[i] = append(g.edges[i], None)
	}
	g.edges = append(g.edges, make([]EdgeType, len(g.vertices)))
	return id
}

// NumVertices returns the current vertex count.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// Vertex returns the expression backing vertex id.
func (g *Graph) Vertex(id int) *term.Expression { return g.vertices[id] }

// AddEdge asserts u -> v carries (at least) edge type e, locating or
// creating both vertices first, combining with any existing assertion
// about the same edge via edgeOp.
func (g *Graph) AddEdge(u, v *term.Expression, e EdgeType) {
	ui, vi := g.vertexID(u), g.vertexID(v)
	g.edges[ui][vi] = edgeOp(g.edges[ui][vi], e)
}

// TransitiveClosure runs Floyd-Warshall using chain to combine edges
// along a path and edgeOp to keep the strongest known fact for each pair.
func (g *Graph) TransitiveClosure() {
	n := len(g.vertices)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if g.edges[i][k] == None {
				continue
			}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				via := chain(g.edges[i][k], g.edges[k][j])
				if via == None {
					continue
				}
				g.edges[i][j] = edgeOp(g.edges[i][j], via)
			}
		}
	}
}

// SimplifyGreaterOrEqual rewrites every u >= v edge where v carries a
// nonzero constant term by decrementing that constant by one and
// promoting the edge to Greater — a value-preserving rewrite (u >= v
// with v = expr + c is the same fact as u > expr + (c-1)) that lets
// structurally-similar vertices collapse under a uniform comparison
// operator. It then merges any vertices that became structurally equal
// as a result.
func (g *Graph) SimplifyGreaterOrEqual() map[int]int {
	alias := make(map[int]int)
	n := len(g.vertices)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			if g.edges[u][v] != GreaterEqual {
				continue
			}
			vExpr := g.vertices[v]
			if vExpr.ConstantTerm() == 0 {
				continue
			}
			decremented := decrementConstant(vExpr)
			newV := g.vertexID(decremented)
			g.edges[u][newV] = edgeOp(g.edges[u][newV], Greater)
		}
	}

	// Merge any pair of vertices whose canonical keys now coincide.
	seen := make(map[string]int)
	for id := 0; id < len(g.vertices); id++ {
		if _, merged := alias[id]; merged {
			continue
		}
		key := vertexKey(g.vertices[id])
		if other, ok := seen[key]; ok {
			g.mergeInto(other, id, alias)
		} else {
			seen[key] = id
		}
	}
	return alias
}

func decrementConstant(e *term.Expression) *term.Expression {
	out := term.NewExpression(term.Equality)
	foundConstant := false
	for _, t := range e.Clone().Terms {
		if t.Kind == term.Constant && !foundConstant {
			nt := t.Clone()
			if nt.Coefficient == 1 {
				nt.Value--
			} else if nt.Coefficient == -1 {
				nt.Value++
			}
			out.Terms = append(out.Terms, nt)
			foundConstant = true
			continue
		}
		out.Terms = append(out.Terms, t)
	}
	if !foundConstant {
		out.Add(term.NewConstant(-1))
	}
	out.Normalize()
	return out
}

// mergeInto deletes vertex v, rewriting every incident edge into u (the
// stronger of u's and v's edge wins via edgeOp), and records
// alias[v]=u. Every vertex index above v shifts down by one; alias
// entries for already-merged vertices above v are adjusted to match.
func (g *Graph) mergeInto(u, v int, alias map[int]int) {
	n := len(g.vertices)
	for x := 0; x < n; x++ {
		if x == u || x == v {
			continue
		}
		g.edges[u][x] = edgeOp(g.edges[u][x], g.edges[v][x])
		g.edges[x][u] = edgeOp(g.edges[x][u], g.edges[x][v])
	}
	g.vertices = append(g.vertices[:v], g.vertices[v+1:]...)
	g.edges = append(g.edges[:v], g.edges[v+1:]...)
	for i := range g.edges {
		g.edges[i] = append(g.edges[i][:v], g.edges[i][v+1:]...)
	}
	g.keys = make(map[string]int)
	for id, expr := range g.vertices {
		g.keys[vertexKey(expr)] = id
	}

	shifted := u
	if u > v {
		shifted = u - 1
	}
	alias[v] = shifted
	for k, mapped := range alias {
		if mapped > v {
			alias[k] = mapped - 1
		}
	}
}

// GetExpressions materializes every non-None edge as a constraint
// expression: GreaterEqual/Greater edges as an inequality
// `(terms_of_u) - (terms_of_v) [- 1 for Greater] >= 0`; Equal edges as an
// equality.
func (g *Graph) GetExpressions() []*term.Expression {
	var out []*term.Expression
	n := len(g.vertices)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || g.edges[i][j] == None {
				continue
			}
			out = append(out, g.edgeExpression(i, j, g.edges[i][j]))
		}
	}
	return out
}

func (g *Graph) edgeExpression(i, j int, e EdgeType) *term.Expression {
	u, v := g.vertices[i].Clone(), g.vertices[j].Clone()
	switch e {
	case Equal:
		out := u.Clone()
		out.Flag = term.Equality
		neg := v.Clone()
		neg.MultiplyBy(-1)
		out.AddExpression(neg)
		out.Normalize()
		out.NormalizeSign()
		return out
	case GreaterEqual, Greater:
		out := u.Clone()
		out.Flag = term.Inequality
		neg := v.Clone()
		neg.MultiplyBy(-1)
		out.AddExpression(neg)
		if e == Greater {
			out.Add(term.NewConstant(-1))
		}
		out.Normalize()
		return out
	default:
		panic(fmt.Sprintf("digraph: unexpected edge type %v", e))
	}
}
