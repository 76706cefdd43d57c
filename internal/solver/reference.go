package solver

import (
	"fmt"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
	"github.com/sparseopt/iegen/relsyntax"
)

// ReadMap parses s (the textual Set/Relation dialect relsyntax.ParseRelation
// accepts) into a Relation.
func (b *Reference) ReadMap(s string) (*setrel.Relation, error) {
	r, err := relsyntax.ParseRelation(s)
	if err != nil {
		return nil, wrapSolverErr("read_map", err)
	}
	return r, nil
}

// ToString renders r in the same textual dialect ReadMap parses.
func (b *Reference) ToString(r *setrel.Relation) string {
	return relsyntax.PrintRelation(r)
}

// Intersect delegates to setrel.Relation.Intersect.
func (b *Reference) Intersect(a, c *setrel.Relation) (*setrel.Relation, error) {
	out, err := a.Intersect(c)
	return out, wrapSolverErr("intersect", err)
}

// Union delegates to setrel.Relation.Union.
func (b *Reference) Union(a, c *setrel.Relation) (*setrel.Relation, error) {
	out, err := a.Union(c)
	return out, wrapSolverErr("union", err)
}

// Complement negates r: De Morgan over each conjunction's constraints
// (disjunction of the negation of each conjunct), then Cartesian product
// across conjunctions via Intersect so the result covers every combination
// (¬(A ∨ B) = ¬A ∧ ¬B). Arity (the in/out split) does not affect linear
// constraint negation, so this mirrors setrel.Set.Complement's single-
// conjunction case generalized across many conjuncts via the adapter.
func (b *Reference) Complement(r *setrel.Relation) (*setrel.Relation, error) {
	if len(r.Conjunctions) == 0 {
		u, err := universeRelation(r.InArity, r.OutArity)
		return u, wrapSolverErr("complement", err)
	}
	acc, err := negateConjunction(r.Conjunctions[0], r.InArity, r.OutArity)
	if err != nil {
		return nil, wrapSolverErr("complement", err)
	}
	for _, c := range r.Conjunctions[1:] {
		neg, err := negateConjunction(c, r.InArity, r.OutArity)
		if err != nil {
			return nil, wrapSolverErr("complement", err)
		}
		acc, err = acc.Intersect(neg)
		if err != nil {
			return nil, wrapSolverErr("complement", err)
		}
	}
	return acc, nil
}

// negateConjunction returns ¬c as a (possibly multi-disjunct) Relation:
// each equality `e = 0` contributes two disjuncts (`e-1>=0`, `-e-1>=0`),
// each inequality `e >= 0` contributes one (`-e-1>=0`).
func negateConjunction(c *conj.Conjunction, inArity, outArity int) (*setrel.Relation, error) {
	out := &setrel.Relation{InArity: inArity, OutArity: outArity}
	for _, e := range c.Equalities {
		pos := e.Clone()
		pos.Flag = term.Inequality
		pos.Add(term.NewConstant(-1))
		neg := e.Clone()
		neg.MultiplyBy(-1)
		neg.Flag = term.Inequality
		neg.Add(term.NewConstant(-1))
		for _, disjunct := range []*term.Expression{pos, neg} {
			nc := conj.New(c.Decl.Clone(), inArity)
			if err := nc.AddInequality(disjunct); err != nil {
				return nil, err
			}
			out.Conjunctions = append(out.Conjunctions, nc)
		}
	}
	for _, e := range c.Inequalities {
		neg := e.Clone()
		neg.MultiplyBy(-1)
		neg.Add(term.NewConstant(-1))
		nc := conj.New(c.Decl.Clone(), inArity)
		if err := nc.AddInequality(neg); err != nil {
			return nil, err
		}
		out.Conjunctions = append(out.Conjunctions, nc)
	}
	if len(out.Conjunctions) == 0 {
		// c had no constraints at all (the universe): its negation is empty.
		return &setrel.Relation{InArity: inArity, OutArity: outArity}, nil
	}
	return out, nil
}

func universeRelation(inArity, outArity int) (*setrel.Relation, error) {
	n := inArity + outArity
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("e%d", i)
	}
	decl := tupledecl.NewNamed(names...)
	return setrel.NewRelation(inArity, outArity, conj.New(decl, inArity))
}

// ProjectOut delegates to setrel.Relation.ProjectOut. By the time this
// adapter is invoked the affine-superset abstraction (C10) has already
// replaced every UFCall with a fresh Variable, so conj.ErrNeedsSolver
// should never actually surface here; if it does, that is an adapter
// contract violation by the caller (forgot to mangle) and is reported as
// an ErrSolver rather than silently degrading.
func (b *Reference) ProjectOut(r *setrel.Relation, pos int) (*setrel.Relation, error) {
	out, err := r.ProjectOut(pos)
	if err != nil {
		return nil, wrapSolverErr("project_out", err)
	}
	return out, nil
}

// isEmpty decides satisfiability of r by full Fourier-Motzkin elimination
// of every tuple dimension: a conjunction counts as UNSAT iff, once every
// slot has been projected away, ProjectOut's constant-only contradiction
// check has marked it so. Free Variables (symbolic parameters) are not
// eliminated, so a contradiction that only shows up among parameters is
// not detected and the relation is then reported non-empty. The input is
// expected to be the UFCall-free fragment produced after C10 mangling.
func isEmpty(r *setrel.Relation) (bool, error) {
	work := r.Clone()
	for work.Arity() > 0 {
		var err error
		work, err = work.ProjectOut(0)
		if err != nil {
			return false, err
		}
		if work.IsEmpty() {
			return true, nil
		}
	}
	work.DropUnsat()
	return len(work.Conjunctions) == 0, nil
}

// PlainIsUniverse reports whether r's complement is empty.
func (b *Reference) PlainIsUniverse(r *setrel.Relation) (bool, error) {
	comp, err := b.Complement(r)
	if err != nil {
		return false, wrapSolverErr("plain_is_universe", err)
	}
	empty, err := isEmpty(comp)
	if err != nil {
		return false, wrapSolverErr("plain_is_universe", err)
	}
	return empty, nil
}

// PlainIsEqual reports whether a and b denote the same Relation, decided
// via symmetric difference: (a ∧ ¬b) ∪ (b ∧ ¬a) must be empty.
func (b *Reference) PlainIsEqual(a, c *setrel.Relation) (bool, error) {
	if a.InArity != c.InArity || a.OutArity != c.OutArity {
		return false, nil
	}
	notA, err := b.Complement(a)
	if err != nil {
		return false, wrapSolverErr("plain_is_equal", err)
	}
	notB, err := b.Complement(c)
	if err != nil {
		return false, wrapSolverErr("plain_is_equal", err)
	}
	aMinusB, err := a.Intersect(notB)
	if err != nil {
		return false, wrapSolverErr("plain_is_equal", err)
	}
	bMinusA, err := c.Intersect(notA)
	if err != nil {
		return false, wrapSolverErr("plain_is_equal", err)
	}
	diff, err := aMinusB.Union(bMinusA)
	if err != nil {
		return false, wrapSolverErr("plain_is_equal", err)
	}
	empty, err := isEmpty(diff)
	if err != nil {
		return false, wrapSolverErr("plain_is_equal", err)
	}
	return empty, nil
}

// Coalesce is a sound but incomplete simplification: drop every UNSAT
// disjunct, then drop exact-duplicate disjuncts (same canonical string).
// A full polyhedral coalescing (merging adjacent conjuncts into a single
// wider one) is not attempted — no repo in the example corpus implements
// polyhedral coalescing, and approximating it unsoundly would risk
// changing the represented set, which spec.md's invariants forbid.
func (b *Reference) Coalesce(r *setrel.Relation) *setrel.Relation {
	work := r.Clone()
	for _, c := range work.Conjunctions {
		c.DetectUnsatOrFindEqualities()
	}
	work.DropUnsat()
	seen := make(map[string]bool)
	out := &setrel.Relation{InArity: work.InArity, OutArity: work.OutArity}
	for _, c := range work.Conjunctions {
		k := c.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Conjunctions = append(out.Conjunctions, c)
	}
	return out
}

// Gist returns a simplified r relative to context: per disjunct pair,
// every constraint of r's conjunction that is also present (identical,
// post-normalization Key) in context's conjunction is dropped, since
// intersecting with context already implies it. This is sound (it only
// ever removes a constraint that is syntactically guaranteed redundant
// given context) but incomplete: semantically-implied-yet-differently-
// phrased constraints are not detected.
func (b *Reference) Gist(r, context *setrel.Relation) (*setrel.Relation, error) {
	if r.InArity != context.InArity || r.OutArity != context.OutArity {
		return nil, wrapSolverErr("gist", ErrSolver)
	}
	out := &setrel.Relation{InArity: r.InArity, OutArity: r.OutArity}
	for _, c := range r.Conjunctions {
		simplified := c.Clone()
		for _, ctxC := range context.Conjunctions {
			implied := make(map[string]bool)
			for _, e := range ctxC.Equalities {
				implied[e.Key()] = true
			}
			for _, e := range ctxC.Inequalities {
				implied[e.Key()] = true
			}
			simplified.Equalities = filterExpressions(simplified.Equalities, implied)
			simplified.Inequalities = filterExpressions(simplified.Inequalities, implied)
		}
		out.Conjunctions = append(out.Conjunctions, simplified)
	}
	return out, nil
}

func filterExpressions(es []*term.Expression, implied map[string]bool) []*term.Expression {
	out := make([]*term.Expression, 0, len(es))
	for _, e := range es {
		if implied[e.Key()] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// AddInstantiation implements the rule-discharge primitive of spec.md
// §4.10. It tests, in order:
//
//  1. whether (antecedent ∧ ¬working) is empty — i.e. the antecedent
//     never holds outside what working already captures, so the
//     consequent can be safely conjoined onto working everywhere; or
//  2. whether (consequent ∧ working) already equals working — i.e. the
//     consequent already holds throughout working, so the antecedent
//     contributes nothing new and is conjoined instead (the weaker of
//     the two directions is always safe to add).
//
// If neither test fires, working is returned unchanged with changed=false.
func (b *Reference) AddInstantiation(working, antecedent, consequent *setrel.Relation) (*setrel.Relation, bool, error) {
	notWorking, err := b.Complement(working)
	if err != nil {
		return working, false, wrapSolverErr("add_instantiation", err)
	}
	lhs, err := antecedent.Intersect(notWorking)
	if err != nil {
		return working, false, wrapSolverErr("add_instantiation", err)
	}
	emptyLHS, err := isEmpty(lhs)
	if err != nil {
		return working, false, wrapSolverErr("add_instantiation", err)
	}
	if emptyLHS {
		updated, err := working.Intersect(consequent)
		if err != nil {
			return working, false, wrapSolverErr("add_instantiation", err)
		}
		return updated, true, nil
	}

	rhs, err := consequent.Intersect(working)
	if err != nil {
		return working, false, wrapSolverErr("add_instantiation", err)
	}
	rhsEqualsWorking, err := b.PlainIsEqual(rhs, working)
	if err != nil {
		return working, false, wrapSolverErr("add_instantiation", err)
	}
	if rhsEqualsWorking {
		updated, err := working.Intersect(antecedent)
		if err != nil {
			return working, false, wrapSolverErr("add_instantiation", err)
		}
		return updated, true, nil
	}
	return working, false, nil
}
