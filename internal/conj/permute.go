package conj

import "github.com/sparseopt/iegen/internal/tupledecl"

// Permute remaps every tuple slot through perm (perm[oldSlot] = newSlot)
// and rebuilds the tuple declaration to match, setting the result's
// InArity to newInArity. perm must be a bijection over 0..Arity()-1.
func (c *Conjunction) Permute(perm []int, newInArity int) *Conjunction {
	newSlots := make([]tupledecl.Slot, len(perm))
	for old, nw := range perm {
		newSlots[nw] = c.Decl.Slots[old]
	}
	out := &Conjunction{
		Decl:    &tupledecl.Decl{Slots: newSlots},
		InArity: newInArity,
		unsat:   c.unsat,
	}
	for _, e := range c.Equalities {
		out.Equalities = append(out.Equalities, e.PermuteSlots(perm))
	}
	for _, e := range c.Inequalities {
		out.Inequalities = append(out.Inequalities, e.PermuteSlots(perm))
	}
	return out
}
