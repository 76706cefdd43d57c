package digraph

import (
	"testing"

	"github.com/sparseopt/iegen/internal/term"
)

func expr(terms ...*term.Term) *term.Expression {
	return term.NewInequality(terms...)
}

func TestTransitiveClosureChainsGreater(t *testing.T) {
	g := New()
	a := expr(term.NewVariable("a"))
	b := expr(term.NewVariable("b"))
	c := expr(term.NewVariable("c"))
	g.AddEdge(a, b, Greater)
	g.AddEdge(b, c, GreaterEqual)
	g.TransitiveClosure()

	ai, ci := g.vertexID(a), g.vertexID(c)
	if g.edges[ai][ci] != Greater {
		t.Fatalf("expected a > c to close as Greater, got %v", g.edges[ai][ci])
	}
}

func TestEdgeOpKeepsStrongest(t *testing.T) {
	g := New()
	a := expr(term.NewVariable("a"))
	b := expr(term.NewVariable("b"))
	g.AddEdge(a, b, GreaterEqual)
	g.AddEdge(a, b, Greater)
	ai, bi := g.vertexID(a), g.vertexID(b)
	if g.edges[ai][bi] != Greater {
		t.Fatalf("expected edgeOp to keep the stronger Greater assertion")
	}
}

func TestSimplifyGreaterOrEqualPromotesAndMerges(t *testing.T) {
	g := New()
	u := expr(term.NewVariable("u"))
	vPlusOne := expr(term.NewVariable("v"), term.NewConstant(1))
	g.AddEdge(u, vPlusOne, GreaterEqual)
	g.SimplifyGreaterOrEqual()

	plain := expr(term.NewVariable("v"))
	vi := g.vertexID(plain)
	ui := g.vertexID(u)
	if g.edges[ui][vi] != Greater {
		t.Fatalf("expected u >= v+1 to promote to u > v, got %v", g.edges[ui][vi])
	}
}

func TestGetExpressionsMaterializesInequality(t *testing.T) {
	g := New()
	a := expr(term.NewVariable("a"))
	b := expr(term.NewVariable("b"))
	g.AddEdge(a, b, GreaterEqual)
	out := g.GetExpressions()
	if len(out) != 1 {
		t.Fatalf("expected exactly one materialized constraint, got %d", len(out))
	}
	if out[0].Flag != term.Inequality {
		t.Fatalf("expected an inequality constraint")
	}
}
