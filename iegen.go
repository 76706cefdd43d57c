// Package iegen is the module's root facade: it re-exports the common
// entry points a caller needs to drive the presburger-plus-UF
// simplification core (internal/simplify) without reaching into
// internal/ itself — parse a Relation, build a UF environment, run the
// simplification pipeline, and (optionally) check the result against a
// driver config's recorded expectation.
//
// Everything here is a thin pass-through; the core algorithms live in
// internal/ per spec.md §1's scoping of the front-end grammar, the
// driver-config schema, and the solver binding as external collaborators.
package iegen

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"

	"github.com/sparseopt/iegen/config"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/simplify"
	"github.com/sparseopt/iegen/internal/solver"
	"github.com/sparseopt/iegen/internal/ufenv"
	"github.com/sparseopt/iegen/relsyntax"
)

// Environment is the UF environment (C5/C6): re-exported so callers never
// need to import internal/ufenv directly.
type Environment = ufenv.Environment

// Relation and Set are the core data model (C4).
type Relation = setrel.Relation
type Set = setrel.Set

// DependenceRelationship classifies how two relations' tuple sets relate.
type DependenceRelationship = simplify.DependenceRelationship

const (
	Disjoint    = simplify.Disjoint
	SetEqual    = simplify.SetEqual
	SubSet      = simplify.SubSet
	SuperSet    = simplify.SuperSet
	Overlapping = simplify.Overlapping
)

// NewEnvironment returns a freshly cleared UF environment (spec.md §4.4).
func NewEnvironment() *Environment { return ufenv.New() }

// ParseRelation and ParseSet parse the textual dialect of spec.md §6.1.
func ParseRelation(src string) (*Relation, error) { return relsyntax.ParseRelation(src) }
func ParseSet(src string) (*Set, error)           { return relsyntax.ParseSet(src) }

// PrintRelation and PrintSet render a Relation/Set back to that dialect.
func PrintRelation(r *Relation) string { return relsyntax.PrintRelation(r) }
func PrintSet(s *Set) string           { return relsyntax.PrintSet(s) }

// Engine bundles an Environment with an external-solver adapter (here,
// the in-process internal/solver.Reference, the only Backend the example
// corpus's dependency surface gives this module a home for — see
// DESIGN.md) and drives the simplification pipeline (C12) against it.
type Engine struct {
	Env    *Environment
	driver *simplify.Driver
}

// NewEngine builds an Engine over env, logging through log (nil is
// accepted; it falls back to a no-op logger).
func NewEngine(env *Environment, log *zap.SugaredLogger) *Engine {
	backend := solver.NewReference(log)
	return &Engine{Env: env, driver: simplify.NewDriver(env, backend, log)}
}

// Simplify runs the full C12 pipeline over r, preserving the tuple slots
// named by preserveNames (resolved against r's own tuple declaration) and
// removing at most maxRemovals heuristically-costly constraints. Returns
// (nil, nil) for an unsatisfiable relation (spec.md §7).
func (eng *Engine) Simplify(r *Relation, preserveNames []string, maxRemovals int) (*Relation, error) {
	preserve, err := resolvePreserve(r, preserveNames)
	if err != nil {
		return nil, err
	}
	return eng.driver.Simplify(r, preserve, maxRemovals)
}

// Classify returns how r1 and r2's tuple sets relate to one another
// (SPEC_FULL.md §4 item 3).
func (eng *Engine) Classify(r1, r2 *Relation) (DependenceRelationship, error) {
	return eng.driver.Classify(r1, r2)
}

// Gist simplifies r relative to context (SPEC_FULL.md §4 item 2).
func (eng *Engine) Gist(r, context *Relation) (*Relation, error) {
	return eng.driver.Gist(r, context)
}

func resolvePreserve(r *Relation, names []string) (*set.Set[int], error) {
	preserve := set.New[int](len(names))
	if len(names) == 0 {
		return preserve, nil
	}
	if len(r.Conjunctions) == 0 {
		return preserve, nil
	}
	decl := r.Conjunctions[0].Decl
	for _, name := range names {
		idx := decl.IndexOf(name)
		if idx < 0 {
			return nil, fmt.Errorf("iegen: %q is not a tuple-variable of the relation", name)
		}
		preserve.Insert(idx)
	}
	return preserve, nil
}

// RunConfig loads, builds and simplifies a driver-config record in one
// call (spec.md §6.2): parse the environment and relation, run Simplify
// with the config's preserve list and removal budget, and — if the config
// recorded an Expected value — check the result against it via Classify.
// expectedMatch is only meaningful when d.Expected was non-empty.
func RunConfig(d *config.Driver, log *zap.SugaredLogger) (result *Relation, expectedMatch bool, err error) {
	env, err := config.BuildEnvironment(d)
	if err != nil {
		return nil, false, err
	}
	relation, err := config.BuildRelation(d)
	if err != nil {
		return nil, false, err
	}
	preserve, err := config.PreserveSet(d, relation)
	if err != nil {
		return nil, false, err
	}

	eng := NewEngine(env, log)
	result, err = eng.driver.Simplify(relation, preserve, d.RemoveConstraints)
	if err != nil {
		return nil, false, err
	}

	expected, expectUnsat, err := config.BuildExpected(d)
	if err != nil {
		return result, false, err
	}
	switch {
	case expectUnsat:
		return result, result == nil, nil
	case expected != nil:
		if result == nil {
			return result, false, nil
		}
		rel, err := eng.Classify(result, expected)
		if err != nil {
			return result, false, err
		}
		return result, rel == SetEqual, nil
	default:
		return result, false, nil
	}
}
