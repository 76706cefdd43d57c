package conj

import (
	"errors"
	"fmt"

	"github.com/sparseopt/iegen/internal/term"
)

// ErrNeedsSolver is returned by ProjectOut when the requested slot appears
// nested inside a UFCall's arguments: plain affine Fourier-Motzkin
// elimination is unsound there because eliminating the slot would also
// need to reason about the (unknown) UF call's functional behavior. The
// caller (C12) must instead build the affine superset (C10) and delegate
// to the external solver (C11).
var ErrNeedsSolver = errors.New("conj: slot occurs inside a UF call argument, projection requires the solver adapter")

// ProjectOut existentially quantifies and eliminates tupleDecl slot
// `slot`, returning a fresh conjunction over a decl with that slot
// removed (all higher slots shift down by one). Uses an equality
// substitution when one isolates the slot with a unit coefficient,
// otherwise falls back to integer-preserving Fourier-Motzkin elimination
// over the inequalities (treating any remaining equality that mentions
// the slot as a pair of inequalities first). Returns ErrNeedsSolver if
// the slot appears inside a UFCall argument anywhere in the conjunction.
func (c *Conjunction) ProjectOut(slot int) (*Conjunction, error) {
	if slot < 0 || slot >= c.Arity() {
		return nil, errInvalidSlot(slot, c.Arity())
	}
	working := c.Clone()
	if working.unsat {
		working.removeSlotFromDecl(slot)
		return working, nil
	}
	for _, e := range working.AllExpressions() {
		if e.SlotUsedInUFCall(slot) {
			return nil, ErrNeedsSolver
		}
	}
	newEq, newIneq := eliminateAffine(working.Equalities, working.Inequalities, slot)
	working.Equalities = newEq
	working.Inequalities = newIneq
	working.dedupeAndDropTrivial()
	if working.checkContradictions() {
		working.unsat = true
	}
	working.removeSlotFromDecl(slot)
	return working, nil
}

// FindFunction returns the expression for slot if a single equality
// uniquely determines it (unit coefficient) purely in terms of slots in
// [lo, hi], or nil otherwise.
func (c *Conjunction) FindFunction(slot, lo, hi int) *term.Expression {
	for _, eq := range c.Equalities {
		coeff := eq.CoefficientOfSlot(slot)
		if coeff != 1 && coeff != -1 {
			continue
		}
		rest := term.NewExpression(term.Equality)
		for _, t := range eq.Terms {
			if t.Kind == term.TupleVariable && t.Slot == slot {
				continue
			}
			rest.Add(t.Clone())
		}
		rest.MultiplyBy(-coeff)
		if onlyReferencesRange(rest, lo, hi) {
			return rest
		}
	}
	return nil
}

func onlyReferencesRange(e *term.Expression, lo, hi int) bool {
	for s := range e.TupleSlotsMentioned() {
		if s < lo || s > hi {
			return false
		}
	}
	return true
}

func (c *Conjunction) removeSlotFromDecl(slot int) {
	c.Decl.Slots = append(c.Decl.Slots[:slot], c.Decl.Slots[slot+1:]...)
	for i, e := range c.Equalities {
		c.Equalities[i] = e.ShiftSlotsAbove(slot)
	}
	for i, e := range c.Inequalities {
		c.Inequalities[i] = e.ShiftSlotsAbove(slot)
	}
	if slot < c.InArity {
		c.InArity--
	}
}

// eliminateAffine removes slot from the given constraints, returning the
// projected equalities/inequalities. Prefers a unit-coefficient equality
// substitution; otherwise performs Fourier-Motzkin elimination.
func eliminateAffine(equalities, inequalities []*term.Expression, slot int) ([]*term.Expression, []*term.Expression) {
	for i, eq := range equalities {
		coeff := eq.CoefficientOfSlot(slot)
		if coeff != 1 && coeff != -1 {
			continue
		}
		rest := term.NewExpression(term.Equality)
		for _, t := range eq.Terms {
			if t.Kind == term.TupleVariable && t.Slot == slot {
				continue
			}
			rest.Add(t.Clone())
		}
		rest.MultiplyBy(-coeff)

		newEq := make([]*term.Expression, 0, len(equalities)-1)
		for j, e := range equalities {
			if j == i {
				continue
			}
			newEq = append(newEq, e.Substitute(slot, rest))
		}
		newIneq := make([]*term.Expression, 0, len(inequalities))
		for _, e := range inequalities {
			newIneq = append(newIneq, e.Substitute(slot, rest))
		}
		return newEq, newIneq
	}

	allIneq := append([]*term.Expression{}, inequalities...)
	remainingEq := make([]*term.Expression, 0, len(equalities))
	for _, eq := range equalities {
		if eq.CoefficientOfSlot(slot) != 0 {
			pos := eq.Clone()
			pos.Flag = term.Inequality
			neg := eq.Clone()
			neg.MultiplyBy(-1)
			neg.Flag = term.Inequality
			allIneq = append(allIneq, pos, neg)
		} else {
			remainingEq = append(remainingEq, eq)
		}
	}

	var lowers, uppers, unaffected []*term.Expression
	for _, e := range allIneq {
		c := e.CoefficientOfSlot(slot)
		switch {
		case c > 0:
			lowers = append(lowers, e)
		case c < 0:
			uppers = append(uppers, e)
		default:
			unaffected = append(unaffected, e)
		}
	}

	combined := append([]*term.Expression{}, unaffected...)
	for _, lo := range lowers {
		p := lo.CoefficientOfSlot(slot)
		for _, up := range uppers {
			q := -up.CoefficientOfSlot(slot)
			comb := lo.Clone()
			comb.MultiplyBy(q)
			upScaled := up.Clone()
			upScaled.MultiplyBy(p)
			comb.AddExpression(upScaled)
			combined = append(combined, comb)
		}
	}
	return remainingEq, combined
}

func errInvalidSlot(slot, arity int) error {
	return fmt.Errorf("conj: slot %d out of range for arity %d", slot, arity)
}
