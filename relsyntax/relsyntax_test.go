package relsyntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSetBasic(t *testing.T) {
	s, err := ParseSet("{ [i] : 0 <= i && i < n }")
	require.NoError(t, err)
	require.Len(t, s.Conjunctions, 1)
	assert.Equal(t, 1, s.Arity)
	assert.Len(t, s.Conjunctions[0].Inequalities, 2)
}

func TestParseSetChainedComparison(t *testing.T) {
	s, err := ParseSet("{ [i] : 0 <= i < n }")
	require.NoError(t, err)
	require.Len(t, s.Conjunctions, 1)
	assert.Len(t, s.Conjunctions[0].Inequalities, 2)
}

func TestParseRelationWithUFCall(t *testing.T) {
	r, err := ParseRelation("{ [i,j] -> [ip,jp] : i < ip && i = col(jp) && idx(i) <= j < idx(i+1) }")
	require.NoError(t, err)
	require.Len(t, r.Conjunctions, 1)
	assert.Equal(t, 2, r.InArity)
	assert.Equal(t, 2, r.OutArity)
	calls := r.Conjunctions[0].UFCalls()
	assert.GreaterOrEqual(t, len(calls), 2)
}

func TestParseSetDisjunction(t *testing.T) {
	s, err := ParseSet("{ [i] : i = 0 } or { [i] : i = 1 }")
	require.NoError(t, err)
	assert.Len(t, s.Conjunctions, 2)
}

func TestRoundTripSetThroughPrint(t *testing.T) {
	s, err := ParseSet("{ [i] : 0 <= i && i < n }")
	require.NoError(t, err)
	printed := PrintSet(s)
	back, err := ParseSet(printed)
	require.NoError(t, err)
	assert.Equal(t, s.String(), back.String())
}

func TestRoundTripRelationWithUFCallThroughPrint(t *testing.T) {
	r, err := ParseRelation("{ [i] -> [ip] : i < ip && i = col(ip) }")
	require.NoError(t, err)
	printed := PrintRelation(r)
	back, err := ParseRelation(printed)
	require.NoError(t, err)
	assert.Equal(t, r.String(), back.String())
}

func TestParseRejectsArrowInSet(t *testing.T) {
	_, err := ParseSet("{ [i] -> [j] : i = j }")
	assert.Error(t, err)
}
