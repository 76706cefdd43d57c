package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
UFS:
  - Name: col
    Domain: "{ [k] : 0 <= k && k < 100 }"
    Range: "{ [j] : 0 <= j && j < 10 }"
    Bijective: "false"
    Monotonicity: "Monotonic_NONE"
User Defined:
  - Name: "col monotonic"
    Type: "UserDefPar2UFC"
    ParamOp: "<="
    UFOp: "<="
    UF1: "col"
    UF2: "col"
"Do Not Project Out":
  - i
"Remove Constraints": 3
Relation: "{ [i] -> [j] : 0 <= i && i < 10 && j = col(i) }"
Expected: "Not Satisfiable"
`

func TestLoadRoundTripsEveryField(t *testing.T) {
	d, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, d.UFS, 1)
	assert.Equal(t, "col", d.UFS[0].Name)
	assert.Equal(t, "false", d.UFS[0].Bijective)
	assert.Equal(t, "Monotonic_NONE", d.UFS[0].Monotonicity)

	require.Len(t, d.UserDefined, 1)
	assert.Equal(t, "UserDefPar2UFC", d.UserDefined[0].Type)
	assert.Equal(t, "col", d.UserDefined[0].UF1)

	assert.Equal(t, []string{"i"}, d.DoNotProjectOut)
	assert.Equal(t, 3, d.RemoveConstraints)
	assert.Contains(t, d.Relation, "col(i)")
	assert.Equal(t, "Not Satisfiable", d.Expected)
}

func TestBuildEnvironmentRegistersDeclaredUFs(t *testing.T) {
	d, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	env, err := BuildEnvironment(d)
	require.NoError(t, err)
	require.Len(t, env.Rules, 1)

	decl, err := env.Lookup("col")
	require.NoError(t, err)
	assert.False(t, decl.Bijective)
}

func TestBuildExpectedRecognizesNotSatisfiable(t *testing.T) {
	d, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	rel, unsat, err := BuildExpected(d)
	require.NoError(t, err)
	assert.True(t, unsat)
	assert.Nil(t, rel)
}

func TestBuildRelationAndPreserveSet(t *testing.T) {
	d, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	rel, err := BuildRelation(d)
	require.NoError(t, err)
	assert.Equal(t, 1, rel.InArity)
	assert.Equal(t, 1, rel.OutArity)

	preserve, err := PreserveSet(d, rel)
	require.NoError(t, err)
	assert.True(t, preserve.Contains(0))
	assert.Equal(t, 1, preserve.Size())
}

func TestBuildEnvironmentCollectsMultipleErrors(t *testing.T) {
	d := &Driver{
		UFS: []UFEntry{
			{Name: "bad1", Domain: "not valid", Range: "{ [j] : 0 <= j }", Monotonicity: "Monotonic_NONE"},
			{Name: "bad2", Domain: "{ [k] : 0 <= k }", Range: "not valid either", Monotonicity: "Monotonic_NONE"},
		},
	}
	_, err := BuildEnvironment(d)
	assert.Error(t, err)
}
