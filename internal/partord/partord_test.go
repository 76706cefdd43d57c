package partord

import "testing"

func TestStrictThenInverseIsUnsat(t *testing.T) {
	g := New(2)
	g.Strict(0, 1)
	g.Strict(1, 0)
	if !g.IsUnsat() {
		t.Fatalf("expected unsat after strict(0,1) then strict(1,0)")
	}
}

func TestNonStrictBothWaysCollapsesToEqual(t *testing.T) {
	g := New(2)
	g.NonStrict(0, 1)
	g.NonStrict(1, 0)
	if !g.IsEqual(0, 1) {
		t.Fatalf("expected isEqual(0,1) after squeeze")
	}
}

func TestTransitivityOfStrict(t *testing.T) {
	g := New(3)
	g.Strict(0, 1)
	g.Strict(1, 2)
	if !g.IsStrict(0, 2) {
		t.Fatalf("expected transitive closure to derive 0 < 2")
	}
}

func TestSelfLoopStrictIsUnsat(t *testing.T) {
	g := New(1)
	g.Strict(0, 0)
	if !g.IsUnsat() {
		t.Fatalf("expected self-loop strict to be unsat")
	}
}

func TestSelfLoopEqualIsFine(t *testing.T) {
	g := New(1)
	g.EqualAssert(0, 0)
	if g.IsUnsat() {
		t.Fatalf("self-loop equal should not be unsat")
	}
}

func TestNonStrictUpgradesToStrict(t *testing.T) {
	g := New(2)
	g.NonStrict(0, 1)
	g.Strict(0, 1)
	if !g.IsStrict(0, 1) {
		t.Fatalf("expected NonStrict upgraded to Strict")
	}
}

func TestStrictThenEqualIsUnsat(t *testing.T) {
	g := New(2)
	g.Strict(0, 1)
	g.EqualAssert(0, 1)
	if !g.IsUnsat() {
		t.Fatalf("expected Strict combined with Equal to be unsat")
	}
}

func TestMixedChainStaysStrict(t *testing.T) {
	g := New(3)
	g.NonStrict(0, 1)
	g.Strict(1, 2)
	if !g.IsStrict(0, 2) {
		t.Fatalf("expected a chain with any strict link to close as strict")
	}
}
