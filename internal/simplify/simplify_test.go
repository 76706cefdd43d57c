package simplify

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/solver"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
	"github.com/sparseopt/iegen/internal/ufenv"
)

func newDriver(t *testing.T) (*Driver, *ufenv.Environment) {
	t.Helper()
	env := ufenv.New()
	return NewDriver(env, solver.NewReference(nil), nil), env
}

func eq(terms ...*term.Term) *term.Expression { return term.NewEquality(terms...) }
func ineq(terms ...*term.Term) *term.Expression { return term.NewInequality(terms...) }
func neg(t *term.Term) *term.Term {
	cp := t.Clone()
	cp.Coefficient = -cp.Coefficient
	return cp
}
func tv(slot int) *term.Term { return term.NewTupleVariable(slot) }
func k(v int) *term.Term     { return term.NewConstant(v) }

func TestSimplifyReturnsNilForUnsatisfiableRelation(t *testing.T) {
	d, _ := newDriver(t)
	decl := tupledecl.NewNamed("i")
	c := conj.New(decl, 1)
	require.NoError(t, c.AddEquality(eq(tv(0), k(-1)))) // i = 1
	require.NoError(t, c.AddEquality(eq(tv(0), k(-2)))) // i = 2, contradiction
	rel, err := setrel.NewRelation(1, 0, c)
	require.NoError(t, err)

	out, err := d.Simplify(rel, set.New[int](0), 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSimplifyProjectsPureAffineOutputSlot(t *testing.T) {
	d, _ := newDriver(t)
	decl := tupledecl.NewNamed("i", "j")
	c := conj.New(decl, 1)
	// j - i - 1 = 0  (j = i + 1), always projectable regardless of i.
	require.NoError(t, c.AddEquality(eq(tv(1), neg(tv(0)), k(-1))))
	rel, err := setrel.NewRelation(1, 1, c)
	require.NoError(t, err)

	preserve := set.New[int](1)
	preserve.Insert(0)
	out, err := d.Simplify(rel, preserve, 0)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 1, out.InArity)
	assert.Equal(t, 0, out.OutArity)
}

func TestSimplifyProjectsIndirectionIndicesGivenUFBounds(t *testing.T) {
	d, env := newDriver(t)
	require.NoError(t, ufenv.DeclareCSRIdx(env, "idx", 20, 100))

	decl := tupledecl.NewNamed("i", "j")
	c := conj.New(decl, 1)

	idxI := term.NewUFCall("idx", ineq(tv(0)))
	idxI1 := term.NewUFCall("idx", ineq(tv(0), k(1)))

	// idx(i) <= j < idx(i+1)
	lower := ineq(tv(1), neg(idxI))
	require.NoError(t, c.AddInequality(lower))
	upper := ineq(idxI1, neg(tv(1)))
	upper.Add(k(-1))
	require.NoError(t, c.AddInequality(upper))

	rel, err := setrel.NewRelation(1, 1, c)
	require.NoError(t, err)

	preserve := set.New[int](0)
	preserve.Insert(0)
	out, err := d.Simplify(rel, preserve, 0)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 0, out.OutArity, "j should have been projected out")
	for _, conjc := range out.Conjunctions {
		for slot := range tupleSlotsAcross(conjc) {
			assert.NotEqual(t, 1, slot, "projected slot j must not remain")
		}
	}
}

// TestSimplifyGaussSeidelCSRPreservesLiveUFCallArgument exercises spec.md
// §8's flagship S1 scenario end-to-end:
//
//	{[i,j]->[i',j'] : i<i' ∧ i=col(j') ∧ 0<=i<N ∧ 0<=i'<N ∧
//	                  idx(i)<=j<idx(i+1) ∧ idx(i')<=j'<idx(i'+1)}
//
// preserving {i,i'}. j is fully eliminable, but j' feeds col(j') which
// survives projection, so j' must remain a live tuple slot rather than
// being spliced back in as a dangling reference to a slot count that no
// longer exists.
func TestSimplifyGaussSeidelCSRPreservesLiveUFCallArgument(t *testing.T) {
	d, env := newDriver(t)
	require.NoError(t, ufenv.DeclareCSRIdx(env, "idx", 20, 100))
	require.NoError(t, ufenv.DeclareCSRCol(env, "col", 100, 20))

	decl := tupledecl.NewNamed("i", "j", "i'", "j'")
	c := conj.New(decl, 2)

	// i < i'
	require.NoError(t, c.AddInequality(ineq(tv(2), neg(tv(0)), k(-1))))

	// i = col(j')
	colJp := term.NewUFCall("col", ineq(tv(3)))
	require.NoError(t, c.AddEquality(eq(tv(0), neg(colJp))))

	// 0 <= i < 20, 0 <= i' < 20
	require.NoError(t, c.AddInequality(ineq(tv(0))))
	require.NoError(t, c.AddInequality(ineq(k(19), neg(tv(0)))))
	require.NoError(t, c.AddInequality(ineq(tv(2))))
	require.NoError(t, c.AddInequality(ineq(k(19), neg(tv(2)))))

	// idx(i) <= j < idx(i+1)
	idxI := term.NewUFCall("idx", ineq(tv(0)))
	idxI1 := term.NewUFCall("idx", ineq(tv(0), k(1)))
	require.NoError(t, c.AddInequality(ineq(tv(1), neg(idxI))))
	upperJ := ineq(idxI1, neg(tv(1)))
	upperJ.Add(k(-1))
	require.NoError(t, c.AddInequality(upperJ))

	// idx(i') <= j' < idx(i'+1)
	idxIp := term.NewUFCall("idx", ineq(tv(2)))
	idxIp1 := term.NewUFCall("idx", ineq(tv(2), k(1)))
	require.NoError(t, c.AddInequality(ineq(tv(3), neg(idxIp))))
	upperJp := ineq(idxIp1, neg(tv(3)))
	upperJp.Add(k(-1))
	require.NoError(t, c.AddInequality(upperJp))

	rel, err := setrel.NewRelation(2, 2, c)
	require.NoError(t, err)

	preserve := set.New[int](2)
	preserve.Insert(0)
	preserve.Insert(2)

	out, err := d.Simplify(rel, preserve, 0)
	require.NoError(t, err)
	require.NotNil(t, out)

	// j was fully eliminable; col(j') keeps j' alive.
	assert.Equal(t, 1, out.InArity, "j should have been projected out")
	assert.Equal(t, 2, out.OutArity, "j' must survive: col(j') still references it")

	arity := out.Arity()
	for _, conjc := range out.Conjunctions {
		for _, call := range conjc.UFCalls() {
			for _, arg := range call.Args {
				for slot := range arg.TupleSlotsMentioned() {
					require.True(t, slot >= 0 && slot < arity,
						"UFCall %s has out-of-range slot %d against arity %d", call.String(), slot, arity)
				}
			}
		}
	}

	foundCol := false
	for _, conjc := range out.Conjunctions {
		for _, call := range conjc.UFCalls() {
			if call.UFName == "col" {
				foundCol = true
				slots := call.Args[0].TupleSlotsMentioned()
				_, ok := slots[2]
				assert.True(t, ok, "col's surviving argument must reference the remapped j' slot (2), got %v", slots)
			}
		}
	}
	assert.True(t, foundCol, "i=col(j') must survive simplification")
}

func tupleSlotsAcross(c *conj.Conjunction) map[int]struct{} {
	out := make(map[int]struct{})
	for _, e := range c.AllExpressions() {
		for s := range e.TupleSlotsMentioned() {
			out[s] = struct{}{}
		}
	}
	return out
}

func boundedSet(name string, n string) *setrel.Set {
	decl := tupledecl.NewNamed(name)
	c := conj.New(decl, 1)
	_ = c.AddInequality(ineq(tv(0)))
	upper := ineq(term.NewVariable(n), neg(tv(0)))
	upper.Add(k(-1))
	_ = c.AddInequality(upper)
	s, err := setrel.New(1, c)
	if err != nil {
		panic(err)
	}
	return s
}

func TestClassifySetEqual(t *testing.T) {
	d, _ := newDriver(t)
	s1 := boundedSet("i", "n")
	s2 := boundedSet("i", "n")
	r1, err := setrel.NewRelation(1, 0, s1.Conjunctions...)
	require.NoError(t, err)
	r2, err := setrel.NewRelation(1, 0, s2.Conjunctions...)
	require.NoError(t, err)

	rel, err := d.Classify(r1, r2)
	require.NoError(t, err)
	assert.Equal(t, SetEqual, rel)
}

func boundedRelation(extra *term.Expression) *setrel.Relation {
	decl := tupledecl.NewNamed("i", "i'")
	c := conj.New(decl, 1)
	_ = c.AddInequality(ineq(tv(0)))
	u0 := ineq(term.NewVariable("n"), neg(tv(0)))
	u0.Add(k(-1))
	_ = c.AddInequality(u0)
	_ = c.AddInequality(ineq(tv(1)))
	u1 := ineq(term.NewVariable("n"), neg(tv(1)))
	u1.Add(k(-1))
	_ = c.AddInequality(u1)
	if extra != nil {
		_ = c.AddInequality(extra)
	}
	r, err := setrel.NewRelation(1, 1, c)
	if err != nil {
		panic(err)
	}
	return r
}

func TestClassifySubSet(t *testing.T) {
	d, _ := newDriver(t)
	r1 := boundedRelation(nil)
	// R2 additionally requires i' < i: a strict subset of R1.
	strict := ineq(tv(0), neg(tv(1)))
	strict.Add(k(-1))
	r2 := boundedRelation(strict)

	rel, err := d.Classify(r2, r1)
	require.NoError(t, err)
	assert.Equal(t, SubSet, rel)

	rel2, err := d.Classify(r1, r2)
	require.NoError(t, err)
	assert.Equal(t, SuperSet, rel2)
}

func TestGistDropsConstraintAlreadyInContext(t *testing.T) {
	d, _ := newDriver(t)
	decl := tupledecl.NewNamed("i")
	c := conj.New(decl, 1)
	require.NoError(t, c.AddInequality(ineq(tv(0))))
	r, err := setrel.NewRelation(1, 0, c)
	require.NoError(t, err)

	ctxC := conj.New(decl.Clone(), 1)
	require.NoError(t, ctxC.AddInequality(ineq(tv(0))))
	ctx, err := setrel.NewRelation(1, 0, ctxC)
	require.NoError(t, err)

	out, err := d.Gist(r, ctx)
	require.NoError(t, err)
	require.Len(t, out.Conjunctions, 1)
	assert.Empty(t, out.Conjunctions[0].Inequalities)
}

// TestPromoteEqualitiesViaDiGraphClosesCompoundEqualityChains exercises the
// DiGraph (C9) closure directly: unlike the bare-term TermPartOrdGraph
// (C8), it must close an equality chain whose sides are themselves
// multi-term expressions (`n = i+j`, `m = n`), deriving `m = i+j` without
// either side ever being a single atomic term.
func TestPromoteEqualitiesViaDiGraphClosesCompoundEqualityChains(t *testing.T) {
	decl := tupledecl.NewNamed("i", "j", "n", "m")
	c := conj.New(decl, 4)
	require.NoError(t, c.AddEquality(eq(tv(2), neg(tv(0)), neg(tv(1))))) // n - i - j = 0
	require.NoError(t, c.AddEquality(eq(tv(3), neg(tv(2)))))             // m - n = 0

	promoteEqualitiesViaDiGraph(c)

	want := term.NewEquality(tv(3), neg(tv(0)), neg(tv(1))) // m - i - j = 0
	want.NormalizeSign()
	found := false
	for _, e := range c.Equalities {
		probe := e.Clone()
		probe.NormalizeSign()
		if probe.Key() == want.Key() {
			found = true
			break
		}
	}
	assert.True(t, found, "expected m - i - j = 0 to be derived, got: %v", c.Equalities)
}
