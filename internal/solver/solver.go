// Package solver is the external integer-set solver adapter (C11). It
// serializes Sets/Relations to the textual dialect relsyntax defines and
// parses results back, and exposes the minimal primitive set spec.md §6.3
// requires of the collaborator: read_map, intersect, union, complement,
// gist, project_out, plain_is_equal, plain_is_universe, coalesce,
// to_string.
//
// No real Presburger/ISL solver is wired (none of the example repos embed
// one); Reference is an in-process implementation sufficient for the
// purely affine fragment this engine ever hands it (constraints with no
// remaining UFCall terms, i.e. post affine-superset abstraction). Swapping
// in a real solver later means implementing Backend again, nothing else
// in the module depends on Reference directly.
package solver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sparseopt/iegen/internal/setrel"
)

// ErrSolver wraps any failure the adapter cannot recover from: an
// unsupported construct, or a solver call occurring on a Relation that
// still has a stray UFCall in it (the caller forgot to mangle first).
var ErrSolver = errors.New("solver: external solver error")

// Backend is the narrow interface spec.md §6.3 requires of the external
// integer-set solver collaborator. Every method operates on Relations;
// Sets are treated as Relations with OutArity 0 by the callers that need
// both (see setrel.Set / the simplify package's helpers).
type Backend interface {
	ReadMap(s string) (*setrel.Relation, error)
	ToString(r *setrel.Relation) string
	Intersect(a, b *setrel.Relation) (*setrel.Relation, error)
	Union(a, b *setrel.Relation) (*setrel.Relation, error)
	Complement(r *setrel.Relation) (*setrel.Relation, error)
	ProjectOut(r *setrel.Relation, pos int) (*setrel.Relation, error)
	PlainIsEqual(a, b *setrel.Relation) (bool, error)
	PlainIsUniverse(r *setrel.Relation) (bool, error)
	Coalesce(r *setrel.Relation) *setrel.Relation
	Gist(r, context *setrel.Relation) (*setrel.Relation, error)

	// AddInstantiation is the rule-engine discharge primitive of spec.md
	// §4.10: given a universally quantified rule rendered as two maps
	// (antecedent, consequent), test whether the antecedent is
	// unreachable from the working map or whether the consequent already
	// holds everywhere the antecedent does; if so, the appropriate side
	// is conjoined onto working and the (possibly) updated map is
	// returned alongside whether anything changed.
	AddInstantiation(working, antecedent, consequent *setrel.Relation) (*setrel.Relation, bool, error)
}

// Reference is the in-process Backend. It never shells out; every
// operation is built from setrel/conj's existing affine machinery plus a
// full-elimination emptiness check (see isEmpty in reference.go).
type Reference struct {
	log *zap.SugaredLogger
}

// NewReference builds a Reference adapter. log may be nil, in which case
// a no-op logger is used.
func NewReference(log *zap.SugaredLogger) *Reference {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reference{log: log}
}

func wrapSolverErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrSolver, op, err)
}
