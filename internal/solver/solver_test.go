package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparseopt/iegen/relsyntax"
)

func TestReadMapToStringRoundTrips(t *testing.T) {
	b := NewReference(nil)
	r, err := b.ReadMap("{ [i] -> [ip] : i < ip }")
	require.NoError(t, err)
	back, err := b.ReadMap(b.ToString(r))
	require.NoError(t, err)
	equal, err := b.PlainIsEqual(r, back)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestIntersectUnionArityMismatchErrors(t *testing.T) {
	b := NewReference(nil)
	a, err := relsyntax.ParseRelation("{ [i] -> [j] : i < j }")
	require.NoError(t, err)
	c, err := relsyntax.ParseRelation("{ [i] -> [j,k] : i < j }")
	require.NoError(t, err)
	_, err = b.Intersect(a, c)
	assert.Error(t, err)
}

func TestComplementOfUniverseIsEmpty(t *testing.T) {
	b := NewReference(nil)
	universe, err := relsyntax.ParseRelation("{ [i] -> [j] : 0 <= 0 }")
	require.NoError(t, err)
	comp, err := b.Complement(universe)
	require.NoError(t, err)
	empty, err := isEmpty(comp)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestPlainIsUniverseDetectsTrivialRelation(t *testing.T) {
	b := NewReference(nil)
	universe, err := relsyntax.ParseRelation("{ [i] -> [j] : 0 <= 0 }")
	require.NoError(t, err)
	isUniv, err := b.PlainIsUniverse(universe)
	require.NoError(t, err)
	assert.True(t, isUniv)

	notUniv, err := relsyntax.ParseRelation("{ [i] -> [j] : i < j }")
	require.NoError(t, err)
	isUniv, err = b.PlainIsUniverse(notUniv)
	require.NoError(t, err)
	assert.False(t, isUniv)
}

func TestPlainIsEqualDetectsEquivalentRewrites(t *testing.T) {
	b := NewReference(nil)
	a, err := relsyntax.ParseRelation("{ [i] -> [j] : i < j }")
	require.NoError(t, err)
	c, err := relsyntax.ParseRelation("{ [i] -> [j] : j - i - 1 >= 0 }")
	require.NoError(t, err)
	equal, err := b.PlainIsEqual(a, c)
	require.NoError(t, err)
	assert.True(t, equal)

	d, err := relsyntax.ParseRelation("{ [i] -> [j] : i > j }")
	require.NoError(t, err)
	equal, err = b.PlainIsEqual(a, d)
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestProjectOutReducesArity(t *testing.T) {
	b := NewReference(nil)
	r, err := relsyntax.ParseRelation("{ [i,k] -> [j] : i < k && k < j }")
	require.NoError(t, err)
	out, err := b.ProjectOut(r, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, out.InArity)
	assert.Equal(t, 1, out.OutArity)
}

func TestCoalesceDropsUnsatAndDuplicates(t *testing.T) {
	b := NewReference(nil)
	r, err := relsyntax.ParseRelation("{ [i] -> [j] : i < j } or { [i] -> [j] : i < j } or { [i] -> [j] : i = 0 && i = 1 }")
	require.NoError(t, err)
	out := b.Coalesce(r)
	assert.Len(t, out.Conjunctions, 1)
}

func TestGistDropsConstraintsAlreadyInContext(t *testing.T) {
	b := NewReference(nil)
	r, err := relsyntax.ParseRelation("{ [i] -> [j] : i < j && i >= 0 }")
	require.NoError(t, err)
	ctx, err := relsyntax.ParseRelation("{ [i] -> [j] : i >= 0 }")
	require.NoError(t, err)
	out, err := b.Gist(r, ctx)
	require.NoError(t, err)
	require.Len(t, out.Conjunctions, 1)
	assert.Len(t, out.Conjunctions[0].Inequalities, 1)
}

func TestAddInstantiationConjoinsConsequentWhenAntecedentAlwaysHolds(t *testing.T) {
	b := NewReference(nil)
	working, err := relsyntax.ParseRelation("{ [i] -> [j] : i < j }")
	require.NoError(t, err)
	antecedent, err := relsyntax.ParseRelation("{ [i] -> [j] : 0 <= 0 }")
	require.NoError(t, err)
	consequent, err := relsyntax.ParseRelation("{ [i] -> [j] : j - i - 1 >= 0 }")
	require.NoError(t, err)

	updated, changed, err := b.AddInstantiation(working, antecedent, consequent)
	require.NoError(t, err)
	assert.True(t, changed)
	equal, err := b.PlainIsEqual(updated, working)
	require.NoError(t, err)
	assert.True(t, equal)
}
