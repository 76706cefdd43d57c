package setrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
)

func nonneg(slot int) *term.Expression {
	return term.NewInequality(term.NewTupleVariable(slot))
}

func boundedSet(n string) *Set {
	decl := tupledecl.NewNamed("i")
	c := conj.New(decl, 1)
	_ = c.AddInequality(nonneg(0))
	upper := term.NewInequality(term.NewVariable(n), func() *term.Term { x := term.NewTupleVariable(0); x.Coefficient = -1; return x }())
	upper.Add(term.NewConstant(-1))
	_ = c.AddInequality(upper)
	s, err := New(1, c)
	if err != nil {
		panic(err)
	}
	return s
}

func TestUnionArityMismatch(t *testing.T) {
	a := boundedSet("n")
	decl := tupledecl.NewNamed("i", "j")
	b, err := New(2, conj.New(decl, 2))
	require.NoError(t, err)

	_, err = a.Union(b)
	assert.ErrorIs(t, err, ErrArityMismatch)
}

func TestIntersectConcatenatesConstraints(t *testing.T) {
	a := boundedSet("n")
	b := boundedSet("n")
	out, err := a.Intersect(b)
	require.NoError(t, err)
	require.Len(t, out.Conjunctions, 1)
	assert.Len(t, out.Conjunctions[0].Inequalities, 2)
}

func relIdentity(n string) *Relation {
	decl := tupledecl.NewNamed("i", "j")
	c := conj.New(decl, 1)
	_ = c.AddEquality(term.NewEquality(term.NewTupleVariable(0), func() *term.Term { x := term.NewTupleVariable(1); x.Coefficient = -1; return x }()))
	_ = c.AddInequality(nonneg(0))
	upper := term.NewInequality(term.NewVariable(n), func() *term.Term { x := term.NewTupleVariable(0); x.Coefficient = -1; return x }())
	upper.Add(term.NewConstant(-1))
	_ = c.AddInequality(upper)
	r, err := NewRelation(1, 1, c)
	if err != nil {
		panic(err)
	}
	return r
}

func TestInverseSwapsPartition(t *testing.T) {
	r := relIdentity("n")
	inv := r.Inverse()
	assert.Equal(t, r.OutArity, inv.InArity)
	assert.Equal(t, r.InArity, inv.OutArity)
	assert.Equal(t, 1, len(inv.Conjunctions))
}

func TestInverseOfInverseRoundTrips(t *testing.T) {
	r := relIdentity("n")
	inv := r.Inverse()
	back := inv.Inverse()
	assert.Equal(t, r.InArity, back.InArity)
	assert.Equal(t, r.OutArity, back.OutArity)
}

func TestComposeIdentityWithItself(t *testing.T) {
	r := relIdentity("n")
	composed, err := r.Compose(r)
	require.NoError(t, err)
	assert.Equal(t, r.InArity, composed.InArity)
	assert.Equal(t, r.OutArity, composed.OutArity)
	require.Len(t, composed.Conjunctions, 1)
	assert.False(t, composed.Conjunctions[0].IsUnsat())
}

func TestApplyRestrictsInput(t *testing.T) {
	r := relIdentity("n")
	dom := boundedSet("n")
	out, err := r.Apply(dom)
	require.NoError(t, err)
	require.Len(t, out.Conjunctions, 1)
	assert.False(t, out.Conjunctions[0].IsUnsat())
	assert.Equal(t, 1, out.Arity)
}
