package iegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrintRoundTripsSet(t *testing.T) {
	s, err := ParseSet("{ [i] : 0 <= i && i < 10 }")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Contains(t, PrintSet(s), "i")
}

func TestEngineSimplifyProjectsPureAffineSlot(t *testing.T) {
	rel, err := ParseRelation("{ [i] -> [j] : j = i + 1 }")
	require.NoError(t, err)

	eng := NewEngine(NewEnvironment(), nil)
	out, err := eng.Simplify(rel, []string{"i"}, 0)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 0, out.OutArity)
}

func TestEngineSimplifyReturnsNilForUnsatisfiableRelation(t *testing.T) {
	rel, err := ParseRelation("{ [i] -> [j] : i = 1 && i = 2 }")
	require.NoError(t, err)

	eng := NewEngine(NewEnvironment(), nil)
	out, err := eng.Simplify(rel, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEngineClassifySetEqual(t *testing.T) {
	r1, err := ParseRelation("{ [i] -> [j] : 0 <= i && i < 10 && j = i }")
	require.NoError(t, err)
	r2, err := ParseRelation("{ [i] -> [j] : 0 <= i && i < 10 && j = i }")
	require.NoError(t, err)

	eng := NewEngine(NewEnvironment(), nil)
	rel, err := eng.Classify(r1, r2)
	require.NoError(t, err)
	assert.Equal(t, SetEqual, rel)
}

func TestResolvePreserveRejectsUnknownName(t *testing.T) {
	rel, err := ParseRelation("{ [i] -> [j] : j = i + 1 }")
	require.NoError(t, err)

	eng := NewEngine(NewEnvironment(), nil)
	_, err = eng.Simplify(rel, []string{"bogus"}, 0)
	assert.Error(t, err)
}
