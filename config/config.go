// Package config decodes the driver-config schema of spec.md §6.2 (the
// external collaborator that hands a Relation, a UF environment, and the
// simplification driver's parameters to the core) and materializes it
// into the core's own types: an internal/ufenv.Environment, a
// parsed setrel.Relation, the preserve set, and the removal budget.
//
// Parsing the textual fields (Set/Relation strings) is itself out of the
// core's scope per spec.md §1/§6 ("file-format parsing... treated as an
// external collaborator"); this package is that collaborator, not part
// of the simplification core proper, which is why it lives at the module
// root rather than under internal/.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"
	"gopkg.in/yaml.v3"

	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/ufenv"
	"github.com/sparseopt/iegen/relsyntax"
)

// UFEntry is one entry of the `UFS[]` list of spec.md §6.2.
type UFEntry struct {
	Name         string `yaml:"Name" json:"Name"`
	Domain       string `yaml:"Domain" json:"Domain"`
	Range        string `yaml:"Range" json:"Range"`
	Bijective    string `yaml:"Bijective" json:"Bijective"`
	Monotonicity string `yaml:"Monotonicity" json:"Monotonicity"`
}

// RuleEntry is one entry of the `User Defined[]` list of spec.md §6.2.
type RuleEntry struct {
	Type    string `yaml:"Type" json:"Type"`
	Name    string `yaml:"Name" json:"Name"`
	ParamOp string `yaml:"ParamOp" json:"ParamOp"`
	UFOp    string `yaml:"UFOp" json:"UFOp"`
	UF1     string `yaml:"UF1" json:"UF1"`
	UF2     string `yaml:"UF2" json:"UF2"`
}

// Driver is the decoded form of spec.md §6.2's structured record, before
// any of its textual fields (Domain/Range/Relation/Expected) have been
// parsed into the core's Set/Relation types.
type Driver struct {
	UFS               []UFEntry   `yaml:"UFS" json:"UFS"`
	UserDefined       []RuleEntry `yaml:"User Defined" json:"User Defined"`
	DoNotProjectOut   []string    `yaml:"Do Not Project Out" json:"Do Not Project Out"`
	RemoveConstraints int         `yaml:"Remove Constraints" json:"Remove Constraints"`
	Relation          string      `yaml:"Relation" json:"Relation"`
	Expected          string      `yaml:"Expected" json:"Expected"`
}

// Load decodes data as YAML (which, per spec.md §6.2, also accepts the
// historical JSON format: JSON is a subset of YAML and yaml.v3 parses it
// directly) into a Driver.
func Load(data []byte) (*Driver, error) {
	var d Driver
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("config: decoding driver config: %w", err)
	}
	return &d, nil
}

// LoadJSON decodes data strictly as JSON, for callers that want the
// stdlib decoder's stricter error reporting rather than YAML's more
// permissive one.
func LoadJSON(data []byte) (*Driver, error) {
	var d Driver
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("config: decoding driver config as JSON: %w", err)
	}
	return &d, nil
}

// monotonicityTable maps spec.md §6.2's Monotonicity string constants to
// ufenv.Monotonicity.
var monotonicityTable = map[string]ufenv.Monotonicity{
	"Monotonic_NONE":          ufenv.MonotonicityNone,
	"":                        ufenv.MonotonicityNone,
	"Monotonic_Nondecreasing": ufenv.MonotonicityNondecreasing,
	"Monotonic_Increasing":    ufenv.MonotonicityIncreasing,
}

var opTable = map[string]ufenv.Op{
	"=":  ufenv.OpEq,
	"<":  ufenv.OpLt,
	"<=": ufenv.OpLe,
	">":  ufenv.OpGt,
	">=": ufenv.OpGe,
}

var ruleTypeTable = map[string]ufenv.RuleType{
	"UserDefPar2UFC": ufenv.Param2UF,
	"UserDefUFC2Par": ufenv.UF2Param,
}

// BuildEnvironment parses every UFS[] and User Defined[] entry of d into
// a fresh ufenv.Environment, collecting every failure via go-multierror
// instead of stopping at the first bad entry (spec.md §6.2's UFS[] is
// described as a bulk list to load, matching ufenv.Environment.AppendAll's
// own batch-aggregation contract).
func BuildEnvironment(d *Driver) (*ufenv.Environment, error) {
	env := ufenv.New()
	var result error
	for _, u := range d.UFS {
		domain, err := relsyntax.ParseSet(u.Domain)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("config: UF %q domain: %w", u.Name, err))
			continue
		}
		rng, err := relsyntax.ParseSet(u.Range)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("config: UF %q range: %w", u.Name, err))
			continue
		}
		mono, ok := monotonicityTable[u.Monotonicity]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("config: UF %q unknown monotonicity %q", u.Name, u.Monotonicity))
			continue
		}
		if err := env.Append(u.Name, domain, rng, u.Bijective == "true", mono); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, r := range d.UserDefined {
		ruleType, ok := ruleTypeTable[r.Type]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("config: rule %q unknown type %q", r.Name, r.Type))
			continue
		}
		paramOp, ok := opTable[r.ParamOp]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("config: rule %q unknown ParamOp %q", r.Name, r.ParamOp))
			continue
		}
		ufOp, ok := opTable[r.UFOp]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("config: rule %q unknown UFOp %q", r.Name, r.UFOp))
			continue
		}
		if err := env.AddRule(ufenv.Rule{
			Type: ruleType, ParamOp: paramOp, UFOp: ufOp,
			UF1: r.UF1, UF2: r.UF2, Name: r.Name,
		}); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		return env, result
	}
	return env, nil
}

// BuildRelation parses d.Relation into a Relation.
func BuildRelation(d *Driver) (*setrel.Relation, error) {
	r, err := relsyntax.ParseRelation(d.Relation)
	if err != nil {
		return nil, fmt.Errorf("config: parsing Relation: %w", err)
	}
	return r, nil
}

// ErrNotSatisfiable is an error value naming the "Not Satisfiable"
// expectation. BuildExpected does not return it; it reports that case
// through its expectUnsat result instead.
var ErrNotSatisfiable = fmt.Errorf("config: Expected is \"Not Satisfiable\"")

// BuildExpected parses d.Expected, if present, into a Relation. An empty
// Expected returns (nil, false, nil) meaning "no expectation recorded";
// the literal "Not Satisfiable" returns (nil, true, nil).
func BuildExpected(d *Driver) (rel *setrel.Relation, expectUnsat bool, err error) {
	trimmed := strings.TrimSpace(d.Expected)
	if trimmed == "" {
		return nil, false, nil
	}
	if trimmed == "Not Satisfiable" {
		return nil, true, nil
	}
	r, err := relsyntax.ParseRelation(d.Expected)
	if err != nil {
		return nil, false, fmt.Errorf("config: parsing Expected: %w", err)
	}
	return r, false, nil
}

// PreserveSet resolves d.DoNotProjectOut (tuple-variable names) against
// relation's tuple declaration (taken from its first conjunction; every
// conjunction of a well-formed Relation shares the same slot naming) into
// the slot-index set internal/simplify.Driver.Simplify expects.
func PreserveSet(d *Driver, relation *setrel.Relation) (*set.Set[int], error) {
	preserve := set.New[int](len(d.DoNotProjectOut))
	if len(relation.Conjunctions) == 0 {
		return preserve, nil
	}
	decl := relation.Conjunctions[0].Decl
	for _, name := range d.DoNotProjectOut {
		idx := decl.IndexOf(name)
		if idx < 0 {
			return nil, fmt.Errorf("config: %q in \"Do Not Project Out\" is not a tuple-variable of Relation", name)
		}
		preserve.Insert(idx)
	}
	return preserve, nil
}
