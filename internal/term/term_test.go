package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionNormalizeCombinesLikeTerms(t *testing.T) {
	e := NewExpression(Equality)
	e.Add(NewVariable("i"))
	e.Add(NewVariable("i"))
	e.Add(NewConstant(3))
	e.Add(NewConstant(-3))

	require.Len(t, e.Terms, 1)
	assert.Equal(t, "v:i", e.Terms[0].Identity())
	assert.Equal(t, 2, e.Terms[0].Coefficient)
}

func TestExpressionCanonicalOrder(t *testing.T) {
	e := NewExpression(Inequality)
	e.Add(NewUFCall("col", NewEquality(NewVariable("j"))))
	e.Add(NewVariable("n"))
	e.Add(NewTupleVariable(0))
	e.Add(NewConstant(5))

	require.Len(t, e.Terms, 4)
	assert.Equal(t, Constant, e.Terms[0].Kind)
	assert.Equal(t, Variable, e.Terms[1].Kind)
	assert.Equal(t, TupleVariable, e.Terms[2].Kind)
	assert.Equal(t, UFCall, e.Terms[3].Kind)
}

func TestSubstituteReplacesTupleVariableEverywhere(t *testing.T) {
	// e = t_0 + idx(t_0 + 1)
	arg := NewExpression(Equality)
	arg.Add(NewTupleVariable(0))
	arg.Add(NewConstant(1))

	e := NewExpression(Inequality)
	e.Add(NewTupleVariable(0))
	e.Add(NewUFCall("idx", arg))

	repl := NewExpression(Equality)
	repl.Add(NewVariable("i"))

	out := e.Substitute(0, repl)

	// Expect: i + idx(i + 1)
	require.Len(t, out.Terms, 2)
	assert.True(t, out.DependsOn(NewVariable("i")))
	ufcalls := out.UFCalls()
	require.Len(t, ufcalls, 1)
	assert.True(t, ufcalls[0].Args[0].DependsOn(NewVariable("i")))
}

func TestIsAffine(t *testing.T) {
	e := NewExpression(Equality)
	e.Add(NewVariable("n"))
	assert.True(t, e.IsAffine())

	e.Add(NewUFCall("f", NewEquality(NewVariable("n"))))
	assert.False(t, e.IsAffine())
}

func TestNormalizeSignCanonicalizesEqualityPolarity(t *testing.T) {
	e1 := NewEquality(NewVariable("i"), func() *Term { c := NewConstant(-1); return c }())
	e2 := e1.Clone()
	e2.MultiplyBy(-1)

	e1.NormalizeSign()
	e2.NormalizeSign()

	assert.Equal(t, e1.Key(), e2.Key())
}

func TestMultiplyByZeroEmptiesExpression(t *testing.T) {
	e := NewEquality(NewVariable("n"), NewConstant(2))
	e.MultiplyBy(0)
	assert.Empty(t, e.Terms)
}
