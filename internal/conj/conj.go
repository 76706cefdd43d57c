// Package conj implements the Conjunction (C3): a tuple declaration plus a
// set of equality and inequality expressions over its variables and UF
// calls — the atomic satisfiable unit of a Set/Relation.
package conj

import (
	"fmt"
	"strings"

	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
)

// Conjunction is (tupleDecl, inArity, equalities, inequalities). Every
// TupleVariable term appearing in any expression must have index
// < tupleDecl.Arity(); InArity <= tupleDecl.Arity() and the remaining
// slots form the output.
type Conjunction struct {
	Decl         *tupledecl.Decl
	InArity      int
	Equalities   []*term.Expression
	Inequalities []*term.Expression
	unsat        bool
}

// New builds an empty conjunction over decl, with the given input arity.
func New(decl *tupledecl.Decl, inArity int) *Conjunction {
	return &Conjunction{Decl: decl, InArity: inArity}
}

// Arity is the tuple declaration's arity.
func (c *Conjunction) Arity() int { return c.Decl.Arity() }

// OutArity is Arity() - InArity.
func (c *Conjunction) OutArity() int { return c.Arity() - c.InArity }

// IsUnsat reports whether constraint propagation has already derived a
// contradiction in this conjunction.
func (c *Conjunction) IsUnsat() bool { return c.unsat }

// MarkUnsat forces the UNSAT flag; used by callers (e.g. the simplify
// driver) that detect contradictions through other means (solver calls).
func (c *Conjunction) MarkUnsat() { c.unsat = true }

// Clone deep-copies the conjunction.
func (c *Conjunction) Clone() *Conjunction {
	out := &Conjunction{
		Decl:    c.Decl.Clone(),
		InArity: c.InArity,
		unsat:   c.unsat,
	}
	for _, e := range c.Equalities {
		out.Equalities = append(out.Equalities, e.Clone())
	}
	for _, e := range c.Inequalities {
		out.Inequalities = append(out.Inequalities, e.Clone())
	}
	return out
}

// AddEquality normalizes e (which must have term.Equality flag), canonicalizes
// its sign, and appends it unless an equal constraint is already present.
func (c *Conjunction) AddEquality(e *term.Expression) error {
	if e.Flag != term.Equality {
		return fmt.Errorf("conj: AddEquality given an expression flagged %s", e.Flag)
	}
	e = e.Clone()
	e.Normalize()
	e.NormalizeSign()
	if isTrivialEquality(e) {
		return nil
	}
	for _, existing := range c.Equalities {
		if existing.Key() == e.Key() {
			return nil
		}
	}
	c.Equalities = append(c.Equalities, e)
	return nil
}

// AddInequality normalizes e (which must have term.Inequality flag) and
// appends it unless an equal constraint is already present.
func (c *Conjunction) AddInequality(e *term.Expression) error {
	if e.Flag != term.Inequality {
		return fmt.Errorf("conj: AddInequality given an expression flagged %s", e.Flag)
	}
	e = e.Clone()
	e.Normalize()
	if isTrivialInequality(e) {
		return nil
	}
	for _, existing := range c.Inequalities {
		if existing.Key() == e.Key() {
			return nil
		}
	}
	c.Inequalities = append(c.Inequalities, e)
	return nil
}

func isTrivialEquality(e *term.Expression) bool {
	return len(e.Terms) == 0
}

func isTrivialInequality(e *term.Expression) bool {
	if len(e.Terms) == 0 {
		return true
	}
	if len(e.Terms) == 1 && e.Terms[0].Kind == term.Constant {
		return e.Terms[0].Coefficient*e.Terms[0].Value >= 0
	}
	return false
}

// SubstituteTupleDecl rewrites every TupleVariable term by resolving
// constant slots of the conjunction's own tuple declaration into Constant
// terms; name-bound slots are left as TupleVariable references.
func (c *Conjunction) SubstituteTupleDecl() {
	for i, s := range c.Decl.Slots {
		if !s.IsConst {
			continue
		}
		repl := term.NewExpression(term.Equality)
		repl.Add(term.NewConstant(s.Const))
		for j, e := range c.Equalities {
			c.Equalities[j] = e.Substitute(i, repl)
		}
		for j, e := range c.Inequalities {
			c.Inequalities[j] = e.Substitute(i, repl)
		}
	}
}

// DetectUnsatOrFindEqualities propagates equalities: for each equality of
// the form `t_k - e = 0`, substitute e for t_k in all other constraints;
// iterate until fixpoint or contradiction. A contradiction is any
// simplified equality `c = 0` with c != 0, or any inequality `c >= 0` with
// c < 0. Marks the conjunction UNSAT on contradiction.
func (c *Conjunction) DetectUnsatOrFindEqualities() {
	if c.unsat {
		return
	}
	resolved := make(map[int]bool)
	for {
		progressed := false
		for i, eq := range c.Equalities {
			slot, expr, ok := isolateSlot(eq, resolved)
			if !ok {
				continue
			}
			resolved[slot] = true
			for j, other := range c.Equalities {
				if j == i {
					continue
				}
				c.Equalities[j] = other.Substitute(slot, expr)
			}
			for j, ineq := range c.Inequalities {
				c.Inequalities[j] = ineq.Substitute(slot, expr)
			}
			progressed = true
		}
		if c.checkContradictions() {
			c.unsat = true
			return
		}
		c.dedupeAndDropTrivial()
		if !progressed {
			break
		}
	}
}

func (c *Conjunction) checkContradictions() bool {
	for _, e := range c.Equalities {
		if len(e.Terms) == 1 && e.Terms[0].Kind == term.Constant && e.Terms[0].Coefficient*e.Terms[0].Value != 0 {
			return true
		}
	}
	for _, e := range c.Inequalities {
		if len(e.Terms) == 1 && e.Terms[0].Kind == term.Constant && e.Terms[0].Coefficient*e.Terms[0].Value < 0 {
			return true
		}
	}
	return false
}

func (c *Conjunction) dedupeAndDropTrivial() {
	c.Equalities = dedupeEqualities(c.Equalities)
	c.Inequalities = dedupeInequalities(c.Inequalities)
}

func dedupeEqualities(es []*term.Expression) []*term.Expression {
	seen := make(map[string]bool)
	out := make([]*term.Expression, 0, len(es))
	for _, e := range es {
		e.Normalize()
		e.NormalizeSign()
		if isTrivialEquality(e) {
			continue
		}
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func dedupeInequalities(es []*term.Expression) []*term.Expression {
	seen := make(map[string]bool)
	out := make([]*term.Expression, 0, len(es))
	for _, e := range es {
		e.Normalize()
		if isTrivialInequality(e) {
			continue
		}
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// isolateSlot looks for a top-level TupleVariable term with |coefficient|==1
// that is the only occurrence of its slot anywhere in eq, whose slot has
// not already been resolved this call, and whose solved form mentions no
// resolved slot. Returns the slot and the expression it must equal.
func isolateSlot(eq *term.Expression, resolved map[int]bool) (int, *term.Expression, bool) {
	for _, pivot := range eq.Terms {
		if pivot.Kind != term.TupleVariable || resolved[pivot.Slot] {
			continue
		}
		if pivot.Coefficient != 1 && pivot.Coefficient != -1 {
			continue
		}
		rest := term.NewExpression(term.Equality)
		for _, t := range eq.Terms {
			if t != pivot {
				rest.Add(t.Clone())
			}
		}
		clash := rest.DependsOnSlot(pivot.Slot)
		for s := range rest.TupleSlotsMentioned() {
			clash = clash || resolved[s]
		}
		if clash {
			continue
		}
		// coeff*t_k + rest = 0  =>  t_k = -coeff*rest  (valid since coeff = +/-1)
		rest.MultiplyBy(-pivot.Coefficient)
		return pivot.Slot, rest, true
	}
	return 0, nil, false
}

// AllExpressions returns every constraint (equalities then inequalities).
func (c *Conjunction) AllExpressions() []*term.Expression {
	out := make([]*term.Expression, 0, len(c.Equalities)+len(c.Inequalities))
	out = append(out, c.Equalities...)
	out = append(out, c.Inequalities...)
	return out
}

// UFCalls returns every distinct UFCall term mentioned anywhere in the
// conjunction's constraints.
func (c *Conjunction) UFCalls() []*term.Term {
	seen := make(map[string]*term.Term)
	order := make([]string, 0)
	for _, e := range c.AllExpressions() {
		for _, u := range e.UFCalls() {
			id := u.Identity()
			if _, ok := seen[id]; !ok {
				seen[id] = u
				order = append(order, id)
			}
		}
	}
	out := make([]*term.Term, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

func (c *Conjunction) String() string {
	if c.unsat {
		return "FALSE"
	}
	parts := make([]string, 0, len(c.Equalities)+len(c.Inequalities))
	for _, e := range c.Equalities {
		parts = append(parts, e.String())
	}
	for _, e := range c.Inequalities {
		parts = append(parts, e.String())
	}
	return c.Decl.String() + " : " + strings.Join(parts, " && ")
}
