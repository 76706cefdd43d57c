package ufenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRejectsDuplicateName(t *testing.T) {
	e := New()
	require.NoError(t, DeclareCSRCol(e, "col", 100, 10))
	err := DeclareCSRCol(e, "col", 100, 10)
	assert.Error(t, err)
}

func TestLookupUndeclaredSymbol(t *testing.T) {
	e := New()
	_, err := e.Lookup("missing")
	assert.ErrorIs(t, err, ErrUndeclaredSymbol)
}

func TestClearResetsEnvironment(t *testing.T) {
	e := New()
	require.NoError(t, DeclareCSRRowptr(e, "rowptr", 5, 20))
	require.NoError(t, e.AddRule(Rule{Type: Param2UF, ParamOp: OpLe, UFOp: OpLe, UF1: "rowptr", UF2: "rowptr"}))
	e.Clear()
	assert.Empty(t, e.Names())
	assert.Empty(t, e.Rules)
	_, err := e.Lookup("rowptr")
	assert.Error(t, err)
}

func TestSetInverseRequiresBijective(t *testing.T) {
	e := New()
	require.NoError(t, DeclareCSRCol(e, "col", 100, 10))
	require.NoError(t, DeclareCSRCol(e, "colInv", 100, 10))
	err := e.SetInverse("col", "colInv")
	assert.Error(t, err)
}

func TestMonotonicityRequiresArityOneDomainAndRange(t *testing.T) {
	e := New()
	domain := boundedRange("i", 0, 3, true)
	rng := boundedRange("j", 0, 3, true)
	err := e.Append("ok", domain, rng, false, MonotonicityNondecreasing)
	assert.NoError(t, err)
}
