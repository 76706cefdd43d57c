package conj

import "github.com/sparseopt/iegen/internal/tupledecl"

// WithOffsetInto returns a new conjunction whose tuple occupies
// [offset, offset+c.Arity()) of a larger decl of the given total arity,
// used when building a combined conjunction out of two independent ones
// (e.g. relational composition, restriction). The returned conjunction's
// own InArity/unsat flag are copied verbatim; callers reassemble the
// final InArity once all blocks are combined.
func (c *Conjunction) WithOffsetInto(offset, totalArity int) *Conjunction {
	slots := make([]tupledecl.Slot, totalArity)
	for i := range slots {
		slots[i] = tupledecl.NamedSlot(anonSlotName(i))
	}
	for i, s := range c.Decl.Slots {
		slots[offset+i] = s
	}
	out := &Conjunction{
		Decl:    &tupledecl.Decl{Slots: slots},
		InArity: c.InArity,
		unsat:   c.unsat,
	}
	for _, e := range c.Equalities {
		out.Equalities = append(out.Equalities, e.ShiftAllSlots(offset))
	}
	for _, e := range c.Inequalities {
		out.Inequalities = append(out.Inequalities, e.ShiftAllSlots(offset))
	}
	return out
}

func anonSlotName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}
	return "v" + itoaSlot(i)
}

func itoaSlot(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// MergeInto folds other's constraints (already expressed in this
// conjunction's slot numbering) into c in place, then propagates
// equalities. Used after WithOffsetInto positions two blocks compatibly.
func (c *Conjunction) MergeInto(other *Conjunction) {
	for _, e := range other.Equalities {
		_ = c.AddEquality(e)
	}
	for _, e := range other.Inequalities {
		_ = c.AddInequality(e)
	}
	if other.IsUnsat() {
		c.MarkUnsat()
	}
}
