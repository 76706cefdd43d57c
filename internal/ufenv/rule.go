package ufenv

import (
	"fmt"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/term"
)

// Op is a comparison operator usable on either side of a Rule.
type Op int

const (
	OpEq Op = iota
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Build returns the normalized constraint expression for `lhs op rhs`,
// e.g. OpLe.Build(a,b) yields the inequality form of a <= b (b - a >= 0).
func (op Op) Build(lhs, rhs *term.Expression) *term.Expression {
	switch op {
	case OpEq:
		e := lhs.Clone()
		e.Flag = term.Equality
		neg := rhs.Clone()
		neg.MultiplyBy(-1)
		e.AddExpression(neg)
		e.Normalize()
		e.NormalizeSign()
		return e
	case OpLe:
		e := rhs.Clone()
		e.Flag = term.Inequality
		neg := lhs.Clone()
		neg.MultiplyBy(-1)
		e.AddExpression(neg)
		e.Normalize()
		return e
	case OpLt:
		e := rhs.Clone()
		e.Flag = term.Inequality
		neg := lhs.Clone()
		neg.MultiplyBy(-1)
		e.AddExpression(neg)
		e.Add(term.NewConstant(-1))
		e.Normalize()
		return e
	case OpGe:
		e := lhs.Clone()
		e.Flag = term.Inequality
		neg := rhs.Clone()
		neg.MultiplyBy(-1)
		e.AddExpression(neg)
		e.Normalize()
		return e
	case OpGt:
		e := lhs.Clone()
		e.Flag = term.Inequality
		neg := rhs.Clone()
		neg.MultiplyBy(-1)
		e.AddExpression(neg)
		e.Add(term.NewConstant(-1))
		e.Normalize()
		return e
	default:
		panic(fmt.Sprintf("ufenv: unknown Op %d", op))
	}
}

// RuleType selects the implication's direction.
type RuleType int

const (
	// Param2UF: forall e1,e2. e1 ParamOp e2 => UF1(e1) UFOp UF2(e2).
	Param2UF RuleType = iota
	// UF2Param: forall e1,e2. UF1(e1) UFOp UF2(e2) => e1 ParamOp e2.
	UF2Param
)

// Rule is a universally-quantified implication relating a parameter
// comparison to a UF-call comparison, over a single argument position
// (spec.md §4.5 restricts the instantiated argument to the UF calls'
// first operand, which covers every arity-1 UF used in the sparse-index
// idioms this engine targets — col(j), rowptr(i), idx(k)).
type Rule struct {
	Type    RuleType
	ParamOp Op
	UFOp    Op
	UF1     string
	UF2     string
	// Name is an optional diagnostic label surfaced in String(); it plays
	// no role in matching or instantiation.
	Name string
}

// AddRule appends a rule to the environment. Both UF symbols must
// already be declared.
func (e *Environment) AddRule(r Rule) error {
	if _, err := e.Lookup(r.UF1); err != nil {
		return err
	}
	if _, err := e.Lookup(r.UF2); err != nil {
		return err
	}
	e.Rules = append(e.Rules, &r)
	return nil
}

func (r *Rule) String() string {
	label := r.Name
	if label != "" {
		label = label + ": "
	}
	switch r.Type {
	case UF2Param:
		return fmt.Sprintf("%s%s(e1) %s %s(e2) => e1 %s e2", label, r.UF1, r.UFOp, r.UF2, r.ParamOp)
	default:
		return fmt.Sprintf("%se1 %s e2 => %s(e1) %s %s(e2)", label, r.ParamOp, r.UF1, r.UFOp, r.UF2)
	}
}

// Apply performs a single pass of rule instantiation over relation,
// returning a new Relation with additional constraints folded in.
// Iteration is single-pass, not to fixpoint, matching spec.md §4.5: rules
// produce affine facts consumed by later simplification stages, not a
// saturation procedure in their own right.
//
// For every conjunction and every rule whose two UF symbols both occur
// among the conjunction's UFCall terms, every ordered pair of occurrences
// (u1 named rule.UF1, u2 named rule.UF2, u1 != u2 by position) is
// considered. The rule instantiates the antecedent and consequent over
// u1.Args[0], u2.Args[0]; when the antecedent side is already present
// among the conjunction's own constraints (after normalization), the
// consequent is added as a new fact. This is sound — it only asserts
// what the rule's declared axiom already entails given a premise already
// on hand — without needing a solver call to discharge the implication.
func (e *Environment) Apply(relation *setrel.Relation) (*setrel.Relation, error) {
	out := relation.Clone()
	for _, c := range out.Conjunctions {
		if c.IsUnsat() {
			continue
		}
		for _, rule := range e.Rules {
			applyRuleToConjunction(c, rule)
		}
		c.DetectUnsatOrFindEqualities()
	}
	return out, nil
}

func applyRuleToConjunction(c *conj.Conjunction, rule *Rule) {
	calls := c.UFCalls()
	for i, u1 := range calls {
		if u1.UFName != rule.UF1 || len(u1.Args) == 0 {
			continue
		}
		for j, u2 := range calls {
			if i == j || u2.UFName != rule.UF2 || len(u2.Args) == 0 {
				continue
			}
			e1, e2 := u1.Args[0], u2.Args[0]
			antecedent := rule.ParamOp.Build(e1, e2)
			consequent := rule.UFOp.Build(term.NewInequality(u1), term.NewInequality(u2))

			var premise, toAdd *term.Expression
			switch rule.Type {
			case UF2Param:
				premise, toAdd = consequent, antecedent
			default:
				premise, toAdd = antecedent, consequent
			}
			if containsConstraint(c, premise) {
				addConstraint(c, toAdd)
			}
		}
	}
}

func containsConstraint(c *conj.Conjunction, e *term.Expression) bool {
	if e.Flag == term.Equality {
		for _, have := range c.Equalities {
			if have.Key() == e.Key() {
				return true
			}
		}
		return false
	}
	for _, have := range c.Inequalities {
		if have.Key() == e.Key() {
			return true
		}
	}
	return false
}

func addConstraint(c *conj.Conjunction, e *term.Expression) {
	if e.Flag == term.Equality {
		_ = c.AddEquality(e)
		return
	}
	_ = c.AddInequality(e)
}
