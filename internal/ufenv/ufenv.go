// Package ufenv implements the UF environment (C5) and the
// universally-quantified rule store / single-pass rule engine (C6).
//
// The original source models the environment as process-wide global
// state reset by an explicit clear call (spec.md §5). Per the design
// notes (spec.md §9) that singleton is replaced here by an explicit
// value type: every public API that needs UF semantics takes an
// *Environment parameter instead of reaching into a package-level
// global, so two environments built in two different tests never alias.
package ufenv

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/sparseopt/iegen/internal/setrel"
)

// Monotonicity tags a UF's declared monotonicity; only meaningful when
// both the domain and range have arity 1.
type Monotonicity int

const (
	MonotonicityNone Monotonicity = iota
	MonotonicityNondecreasing
	MonotonicityIncreasing
)

func (m Monotonicity) String() string {
	switch m {
	case MonotonicityNondecreasing:
		return "Nondecreasing"
	case MonotonicityIncreasing:
		return "Increasing"
	default:
		return "None"
	}
}

// UFDecl is (name, domain, range, bijective, monotonicity).
type UFDecl struct {
	Name         string
	Domain       *setrel.Set
	Range        *setrel.Set
	Bijective    bool
	Monotonicity Monotonicity
}

// Environment is the process-scoped registry of §4.4, reimplemented as an
// ordinary value. Its lifetime is the caller's: build one with New,
// mutate it with Append/SetInverse, discard or Clear it when done.
type Environment struct {
	decls    map[string]*UFDecl
	order    []string
	inverses map[string]string
	Rules    []*Rule
}

// New returns a freshly cleared environment.
func New() *Environment {
	e := &Environment{}
	e.Clear()
	return e
}

// Clear resets the environment to empty: no UF declarations, no
// inverses, no rules. Two environments independently constructed (or one
// environment before/after Clear) never share state — there is no
// process-wide singleton to leak across test cases.
func (e *Environment) Clear() {
	e.decls = make(map[string]*UFDecl)
	e.order = nil
	e.inverses = make(map[string]string)
	e.Rules = nil
}

// Append registers a new UF declaration. Names must be unique; domain and
// range must be non-empty-arity Sets (arity >= 1); monotonicity other
// than MonotonicityNone additionally requires both domain and range to
// have arity 1.
func (e *Environment) Append(name string, domain, rng *setrel.Set, bijective bool, monotonicity Monotonicity) error {
	if _, exists := e.decls[name]; exists {
		return fmt.Errorf("ufenv: UF %q already declared", name)
	}
	if domain == nil || domain.Arity < 1 {
		return fmt.Errorf("ufenv: UF %q domain must have arity >= 1", name)
	}
	if rng == nil || rng.Arity < 1 {
		return fmt.Errorf("ufenv: UF %q range must have arity >= 1", name)
	}
	if monotonicity != MonotonicityNone && (domain.Arity != 1 || rng.Arity != 1) {
		return fmt.Errorf("ufenv: UF %q monotonicity only meaningful for arity-1 domain and range", name)
	}
	e.decls[name] = &UFDecl{Name: name, Domain: domain, Range: rng, Bijective: bijective, Monotonicity: monotonicity}
	e.order = append(e.order, name)
	return nil
}

// ErrUndeclaredSymbol is returned (and is fatal for the caller, per
// spec.md §7) when Lookup fails to find a name.
var ErrUndeclaredSymbol = fmt.Errorf("ufenv: undeclared UF symbol")

// Lookup resolves name to its declaration. An unregistered name is
// ErrUndeclaredSymbol — fatal for the caller, since the constraint refers
// to a symbol the environment never learned about.
func (e *Environment) Lookup(name string) (*UFDecl, error) {
	d, ok := e.decls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndeclaredSymbol, name)
	}
	return d, nil
}

// Names returns every declared UF name in declaration order.
func (e *Environment) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// SetInverse declares name2 = name1⁻¹. Both names must already be
// registered and bijective.
func (e *Environment) SetInverse(name1, name2 string) error {
	d1, err := e.Lookup(name1)
	if err != nil {
		return err
	}
	d2, err := e.Lookup(name2)
	if err != nil {
		return err
	}
	if !d1.Bijective || !d2.Bijective {
		return fmt.Errorf("ufenv: SetInverse(%s,%s) requires both UFs to be bijective", name1, name2)
	}
	e.inverses[name1] = name2
	e.inverses[name2] = name1
	return nil
}

// InverseOf returns the name registered as the inverse of name, if any.
func (e *Environment) InverseOf(name string) (string, bool) {
	n, ok := e.inverses[name]
	return n, ok
}

// AppendAll registers a batch of declarations, collecting every failure
// via go-multierror instead of stopping at the first bad entry (see
// SPEC_FULL.md §1, ambient error aggregation). The config package does
// not call it; config.BuildEnvironment aggregates its own Append errors.
func (e *Environment) AppendAll(decls []UFDecl) error {
	var result error
	for _, d := range decls {
		if err := e.Append(d.Name, d.Domain, d.Range, d.Bijective, d.Monotonicity); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}
