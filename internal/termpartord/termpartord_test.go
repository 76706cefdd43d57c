package termpartord

import (
	"testing"

	"github.com/sparseopt/iegen/internal/term"
)

func TestSqueezeDiscoversEquality(t *testing.T) {
	g := New(4)
	i := term.NewVariable("i")
	j := term.NewVariable("j")
	g.NonStrict(i, j)
	g.NonStrict(j, i)
	if !g.IsEqual(i, j) {
		t.Fatalf("expected i = j after mutual <=")
	}
}

func TestInsertAfterDoneInsertingTermsPanics(t *testing.T) {
	g := New(2)
	g.DoneInsertingTerms()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic inserting after DoneInsertingTerms")
		}
	}()
	g.InsertTerm(term.NewVariable("n"))
}

func TestCoefficientIgnoredForIdentity(t *testing.T) {
	g := New(2)
	a := term.NewVariable("n")
	b := term.NewVariable("n")
	b.Coefficient = 5
	id1 := g.InsertTerm(a)
	id2 := g.InsertTerm(b)
	if id1 != id2 {
		t.Fatalf("expected coefficient-differing terms with same identity to share a vertex")
	}
}

func TestNonNegativeMarking(t *testing.T) {
	g := New(2)
	n := term.NewVariable("n")
	if g.IsNonNegative(n) {
		t.Fatalf("expected not marked non-negative initially")
	}
	g.MarkNonNegative(n)
	if !g.IsNonNegative(n) {
		t.Fatalf("expected marked non-negative")
	}
}
