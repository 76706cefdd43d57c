// Package tupledecl implements the ordered, arity-tagged tuple declaration
// (C2): each slot is either a bound symbolic name or a fixed integer.
package tupledecl

import (
	"fmt"
	"strings"
)

// Slot is one position of a tuple declaration.
type Slot struct {
	Name    string // bound symbolic name; empty if Const is used
	IsConst bool
	Const   int
}

// NamedSlot builds a bound-name slot.
func NamedSlot(name string) Slot { return Slot{Name: name} }

// ConstSlot builds a fixed-integer slot.
func ConstSlot(v int) Slot { return Slot{IsConst: true, Const: v} }

func (s Slot) String() string {
	if s.IsConst {
		return fmt.Sprintf("%d", s.Const)
	}
	return s.Name
}

// Decl is an ordered sequence of slots; its length is the arity.
type Decl struct {
	Slots []Slot
}

// New builds a Decl from the given slots.
func New(slots ...Slot) *Decl {
	return &Decl{Slots: append([]Slot(nil), slots...)}
}

// NewNamed builds a Decl whose slots are all bound names.
func NewNamed(names ...string) *Decl {
	d := &Decl{}
	for _, n := range names {
		d.Slots = append(d.Slots, NamedSlot(n))
	}
	return d
}

// Arity is the number of slots.
func (d *Decl) Arity() int { return len(d.Slots) }

// Clone deep-copies the declaration.
func (d *Decl) Clone() *Decl {
	if d == nil {
		return nil
	}
	return &Decl{Slots: append([]Slot(nil), d.Slots...)}
}

// NameAt returns the bound name of slot i, or "" if it is a constant slot.
func (d *Decl) NameAt(i int) string {
	if i < 0 || i >= len(d.Slots) {
		return ""
	}
	return d.Slots[i].Name
}

// IndexOf returns the slot index bound to name, or -1 if none.
func (d *Decl) IndexOf(name string) int {
	for i, s := range d.Slots {
		if !s.IsConst && s.Name == name {
			return i
		}
	}
	return -1
}

// Rename changes the bound name of slot i in place.
func (d *Decl) Rename(i int, name string) {
	if i < 0 || i >= len(d.Slots) {
		return
	}
	d.Slots[i] = NamedSlot(name)
}

// Equal reports whether two declarations have the same arity and the same
// slot contents (name-for-name, const-for-const).
func (d *Decl) Equal(other *Decl) bool {
	if d.Arity() != other.Arity() {
		return false
	}
	for i, s := range d.Slots {
		o := other.Slots[i]
		if s.IsConst != o.IsConst {
			return false
		}
		if s.IsConst {
			if s.Const != o.Const {
				return false
			}
		} else if s.Name != o.Name {
			return false
		}
	}
	return true
}

func (d *Decl) String() string {
	parts := make([]string, len(d.Slots))
	for i, s := range d.Slots {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
