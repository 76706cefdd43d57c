package term

import (
	"sort"
	"strings"
)

// Flag tags whether an Expression asserts Σtᵢ = 0 (Equality) or
// Σtᵢ ≥ 0 (Inequality).
type Flag int

const (
	Equality Flag = iota
	Inequality
)

func (f Flag) String() string {
	if f == Equality {
		return "="
	}
	return ">="
}

// Expression is an ordered multiset of Terms kept in normalized canonical
// form: like terms combined, zero-coefficient terms dropped, terms sorted
// by the canonical order in term.go. Normalization is idempotent.
type Expression struct {
	Terms []*Term
	Flag  Flag
}

// NewExpression builds an empty expression (the constant 0) with the
// given flag.
func NewExpression(flag Flag) *Expression {
	return &Expression{Flag: flag}
}

// NewEquality is a convenience constructor for Σterms = 0.
func NewEquality(terms ...*Term) *Expression {
	e := &Expression{Flag: Equality, Terms: terms}
	e.Normalize()
	return e
}

// NewInequality is a convenience constructor for Σterms ≥ 0.
func NewInequality(terms ...*Term) *Expression {
	e := &Expression{Flag: Inequality, Terms: terms}
	e.Normalize()
	return e
}

// Clone deep-copies the expression.
func (e *Expression) Clone() *Expression {
	if e == nil {
		return nil
	}
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, t.Clone())
	}
	return out
}

// Add appends a single term and renormalizes.
func (e *Expression) Add(t *Term) {
	e.Terms = append(e.Terms, t)
	e.Normalize()
}

// AddExpression merges the terms of other into e (e's Flag is kept) and
// renormalizes. Used by Conjunction when folding a substitution result
// back into an existing constraint.
func (e *Expression) AddExpression(other *Expression) {
	for _, t := range other.Terms {
		e.Terms = append(e.Terms, t.Clone())
	}
	e.Normalize()
}

// MultiplyBy scales every term's coefficient by k. k=0 yields the empty
// (identically-zero) expression.
func (e *Expression) MultiplyBy(k int) {
	if k == 0 {
		e.Terms = nil
		return
	}
	for _, t := range e.Terms {
		t.Coefficient *= k
	}
	e.Normalize()
}

// Negate multiplies by -1. For an equality this is semantically the same
// constraint; for an inequality it is not (it flips the direction) and
// callers must not use Negate to "flip" a ≥ into a ≤ implicitly.
func (e *Expression) Negate() *Expression {
	c := e.Clone()
	c.MultiplyBy(-1)
	return c
}

// Normalize combines like terms (same Identity, coefficients summed),
// folds every constant term into a single constant with coefficient 1
// (dropped when it sums to zero), drops zero-coefficient terms, and sorts
// into canonical order. Idempotent.
func (e *Expression) Normalize() {
	byID := make(map[string]*Term, len(e.Terms))
	order := make([]string, 0, len(e.Terms))
	constant := 0
	for _, t := range e.Terms {
		if t.Kind == Constant {
			constant += t.Coefficient * t.Value
			continue
		}
		id := t.Identity()
		if existing, ok := byID[id]; ok {
			existing.Coefficient += t.Coefficient
		} else {
			cp := t.Clone()
			byID[id] = cp
			order = append(order, id)
		}
	}
	merged := make([]*Term, 0, len(order)+1)
	if constant != 0 {
		merged = append(merged, NewConstant(constant))
	}
	for _, id := range order {
		t := byID[id]
		if t.Coefficient != 0 {
			merged = append(merged, t)
		}
	}
	sortTerms(merged)
	e.Terms = merged
}

// NormalizeSign canonicalizes an equality's overall sign so that `e = 0`
// and `-e = 0` dedupe to the same stored constraint: if the first term
// (in canonical order) has a negative coefficient (for a constant term:
// a negative value), multiply through by -1.
// Only meaningful for Equality expressions; Inequality direction is
// semantically significant and is left untouched.
func (e *Expression) NormalizeSign() {
	if e.Flag != Equality || len(e.Terms) == 0 {
		return
	}
	lead := e.Terms[0].Coefficient
	if e.Terms[0].Kind == Constant {
		lead *= e.Terms[0].Value
	}
	if lead < 0 {
		e.MultiplyBy(-1)
	}
}

// IsAffine reports whether no UFCall term (recursively) appears.
func (e *Expression) IsAffine() bool {
	for _, t := range e.Terms {
		if t.ContainsUFCall() {
			return false
		}
	}
	return true
}

// DependsOn reports whether any term is structurally equal (ignoring
// coefficient) to term, or (recursively, for UFCall/TupleExp arguments)
// contains it.
func (e *Expression) DependsOn(term *Term) bool {
	target := term.Identity()
	for _, t := range e.Terms {
		if t.Identity() == target {
			return true
		}
		for _, a := range t.Args {
			if a.DependsOn(term) {
				return true
			}
		}
		for _, c := range t.Components {
			if c.DependsOn(term) {
				return true
			}
		}
	}
	return false
}

// DependsOnSlot reports whether any TupleVariable term at the given slot
// appears anywhere in the expression, including nested inside UFCall
// arguments.
func (e *Expression) DependsOnSlot(slot int) bool {
	for _, t := range e.Terms {
		if termMentionsSlot(t, slot) {
			return true
		}
	}
	return false
}

func termMentionsSlot(t *Term, slot int) bool {
	switch t.Kind {
	case TupleVariable:
		return t.Slot == slot
	case UFCall:
		for _, a := range t.Args {
			if a.DependsOnSlot(slot) {
				return true
			}
		}
		return false
	case TupleExp:
		for _, c := range t.Components {
			if c.DependsOnSlot(slot) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Substitute replaces every TupleVariable term at the given slot
// (including occurrences nested inside UFCall arguments or TupleExp
// components) with repl (scaled by the tuple-variable's own coefficient),
// then renormalizes. Returns a new expression; e is not mutated.
func (e *Expression) Substitute(slot int, repl *Expression) *Expression {
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, substituteTerm(t, slot, repl)...)
	}
	out.Normalize()
	return out
}

func substituteTerm(t *Term, slot int, repl *Expression) []*Term {
	switch t.Kind {
	case TupleVariable:
		if t.Slot != slot {
			return []*Term{t.Clone()}
		}
		scaled := repl.Clone()
		scaled.MultiplyBy(t.Coefficient)
		out := make([]*Term, len(scaled.Terms))
		copy(out, scaled.Terms)
		return out
	case UFCall:
		nt := t.Clone()
		for i, a := range nt.Args {
			nt.Args[i] = a.Substitute(slot, repl)
		}
		return []*Term{nt}
	case TupleExp:
		nt := t.Clone()
		for i, c := range nt.Components {
			nt.Components[i] = c.Substitute(slot, repl)
		}
		return []*Term{nt}
	default:
		return []*Term{t.Clone()}
	}
}

// SubstituteVar replaces every free Variable named name with repl
// (scaled), including nested occurrences inside UFCall args. Used by the
// affine-superset abstraction (C10) to substitute a mangled Variable back
// to a UFCall term, and vice versa.
func (e *Expression) SubstituteVar(name string, repl *Expression) *Expression {
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, substituteVarTerm(t, name, repl)...)
	}
	out.Normalize()
	return out
}

func substituteVarTerm(t *Term, name string, repl *Expression) []*Term {
	switch t.Kind {
	case Variable:
		if t.Name != name {
			return []*Term{t.Clone()}
		}
		scaled := repl.Clone()
		scaled.MultiplyBy(t.Coefficient)
		out := make([]*Term, len(scaled.Terms))
		copy(out, scaled.Terms)
		return out
	case UFCall:
		nt := t.Clone()
		for i, a := range nt.Args {
			nt.Args[i] = a.SubstituteVar(name, repl)
		}
		return []*Term{nt}
	case TupleExp:
		nt := t.Clone()
		for i, c := range nt.Components {
			nt.Components[i] = c.SubstituteVar(name, repl)
		}
		return []*Term{nt}
	default:
		return []*Term{t.Clone()}
	}
}

// SubstituteUFCall replaces every UFCall term whose Identity matches
// identity with repl (scaled by the term's coefficient), leaving every
// other term (including UFCalls with a different identity, and recursing
// into nested UFCall args/TupleExp components) untouched. Used by the
// affine-superset abstraction (C10) to replace a UFCall occurrence with
// its mangled Variable.
func (e *Expression) SubstituteUFCall(identity string, repl *Expression) *Expression {
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, substituteUFCallTerm(t, identity, repl)...)
	}
	out.Normalize()
	return out
}

func substituteUFCallTerm(t *Term, identity string, repl *Expression) []*Term {
	switch t.Kind {
	case UFCall:
		if t.Identity() == identity {
			scaled := repl.Clone()
			scaled.MultiplyBy(t.Coefficient)
			out := make([]*Term, len(scaled.Terms))
			copy(out, scaled.Terms)
			return out
		}
		nt := t.Clone()
		for i, a := range nt.Args {
			nt.Args[i] = a.SubstituteUFCall(identity, repl)
		}
		return []*Term{nt}
	case TupleExp:
		nt := t.Clone()
		for i, c := range nt.Components {
			nt.Components[i] = c.SubstituteUFCall(identity, repl)
		}
		return []*Term{nt}
	default:
		return []*Term{t.Clone()}
	}
}

// SlotUsedInUFCall reports whether slot appears nested inside the
// arguments of any UFCall (or component of any TupleExp) in e — as
// opposed to appearing only as a bare top-level TupleVariable term. Used
// to decide whether eliminating slot requires UF-aware handling (C10/C11)
// or can be done by plain affine projection.
func (e *Expression) SlotUsedInUFCall(slot int) bool {
	for _, t := range e.Terms {
		switch t.Kind {
		case UFCall:
			for _, a := range t.Args {
				if a.DependsOnSlot(slot) {
					return true
				}
			}
		case TupleExp:
			for _, c := range t.Components {
				if c.DependsOnSlot(slot) {
					return true
				}
			}
		}
	}
	return false
}

// TupleSlotsMentioned returns the set of tuple-variable slot indices
// mentioned anywhere in e, including nested inside UFCall arguments.
func (e *Expression) TupleSlotsMentioned() map[int]struct{} {
	out := make(map[int]struct{})
	for _, t := range e.Terms {
		collectSlots(t, out)
	}
	return out
}

func collectSlots(t *Term, out map[int]struct{}) {
	switch t.Kind {
	case TupleVariable:
		out[t.Slot] = struct{}{}
	case UFCall:
		for _, a := range t.Args {
			for _, u := range a.Terms {
				collectSlots(u, out)
			}
		}
	case TupleExp:
		for _, c := range t.Components {
			for _, u := range c.Terms {
				collectSlots(u, out)
			}
		}
	}
}

// ShiftSlotsAbove maps every TupleVariable whose slot is > cut down by one
// (including nested occurrences), renormalizing the result. Used after a
// slot is physically removed from a TupleDecl.
func (e *Expression) ShiftSlotsAbove(cut int) *Expression {
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, shiftTermSlots(t, cut))
	}
	out.Normalize()
	return out
}

func shiftTermSlots(t *Term, cut int) *Term {
	nt := t.Clone()
	switch nt.Kind {
	case TupleVariable:
		if nt.Slot > cut {
			nt.Slot--
		}
	case UFCall:
		for i, a := range nt.Args {
			nt.Args[i] = a.ShiftSlotsAbove(cut)
		}
	case TupleExp:
		for i, c := range nt.Components {
			nt.Components[i] = c.ShiftSlotsAbove(cut)
		}
	}
	return nt
}

// PermuteSlots remaps every TupleVariable's slot index through perm
// (perm[oldSlot] = newSlot), including nested occurrences, and
// renormalizes. perm must be a bijection over 0..len(perm)-1 for the
// result to remain well formed.
func (e *Expression) PermuteSlots(perm []int) *Expression {
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, permuteTermSlots(t, perm))
	}
	out.Normalize()
	return out
}

func permuteTermSlots(t *Term, perm []int) *Term {
	nt := t.Clone()
	switch nt.Kind {
	case TupleVariable:
		if nt.Slot >= 0 && nt.Slot < len(perm) {
			nt.Slot = perm[nt.Slot]
		}
	case UFCall:
		for i, a := range nt.Args {
			nt.Args[i] = a.PermuteSlots(perm)
		}
	case TupleExp:
		for i, c := range nt.Components {
			nt.Components[i] = c.PermuteSlots(perm)
		}
	}
	return nt
}

// ShiftAllSlots adds offset to every TupleVariable slot index (including
// nested occurrences) and renormalizes. Used to reposition an entire
// conjunction's tuple into a disjoint block of a larger combined tuple
// (e.g. relational composition), as opposed to ShiftSlotsAbove which
// closes a single gap left by a removed slot.
func (e *Expression) ShiftAllSlots(offset int) *Expression {
	out := &Expression{Flag: e.Flag}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, shiftAllTermSlots(t, offset))
	}
	out.Normalize()
	return out
}

func shiftAllTermSlots(t *Term, offset int) *Term {
	nt := t.Clone()
	switch nt.Kind {
	case TupleVariable:
		nt.Slot += offset
	case UFCall:
		for i, a := range nt.Args {
			nt.Args[i] = a.ShiftAllSlots(offset)
		}
	case TupleExp:
		for i, c := range nt.Components {
			nt.Components[i] = c.ShiftAllSlots(offset)
		}
	}
	return nt
}

// ConstantTerm returns the expression's constant addend (0 if none).
func (e *Expression) ConstantTerm() int {
	for _, t := range e.Terms {
		if t.Kind == Constant {
			return t.Coefficient * t.Value
		}
	}
	return 0
}

// CoefficientOfSlot returns the net coefficient of TupleVariable(slot) in
// the expression's top level (not inside UFCall args), or 0 if absent.
func (e *Expression) CoefficientOfSlot(slot int) int {
	for _, t := range e.Terms {
		if t.Kind == TupleVariable && t.Slot == slot {
			return t.Coefficient
		}
	}
	return 0
}

// FreeVariableNames returns the set of free Variable names mentioned
// anywhere in the expression, including nested inside UFCall arguments.
func (e *Expression) FreeVariableNames() map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range e.Terms {
		collectFreeVars(t, out)
	}
	return out
}

func collectFreeVars(t *Term, out map[string]struct{}) {
	switch t.Kind {
	case Variable:
		out[t.Name] = struct{}{}
	case UFCall:
		for _, a := range t.Args {
			for _, u := range a.Terms {
				collectFreeVars(u, out)
			}
		}
	case TupleExp:
		for _, c := range t.Components {
			for _, u := range c.Terms {
				collectFreeVars(u, out)
			}
		}
	}
}

// UFCalls returns every distinct (by Identity) UFCall term reachable from
// e, including nested inside other UFCall arguments' sub-expressions.
// Used by C10/C12 to discover which UFCalls a relation mentions.
func (e *Expression) UFCalls() []*Term {
	seen := make(map[string]*Term)
	order := make([]string, 0)
	var walk func(*Term)
	walk = func(t *Term) {
		if t.Kind == UFCall {
			id := t.Identity()
			if _, ok := seen[id]; !ok {
				seen[id] = t
				order = append(order, id)
			}
			for _, a := range t.Args {
				for _, u := range a.Terms {
					walk(u)
				}
			}
		}
		if t.Kind == TupleExp {
			for _, c := range t.Components {
				for _, u := range c.Terms {
					walk(u)
				}
			}
		}
	}
	for _, t := range e.Terms {
		walk(t)
	}
	out := make([]*Term, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out
}

// Key returns a canonical string for the expression's term list (after
// normalization), used for structural-equality hashing by C8/C9/C10.
// It deliberately omits Flag so callers that need flag-sensitive identity
// (e.g. conjunction dedupe) combine it with e.Flag themselves.
func (e *Expression) Key() string {
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = t.Identity() + "#" + itoa(t.Coefficient)
	}
	return strings.Join(parts, "+")
}

func itoa(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
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
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// String renders the expression as "t1 + t2 - t3 OP 0".
func (e *Expression) String() string {
	if len(e.Terms) == 0 {
		return "0 " + e.Flag.String() + " 0"
	}
	var sb strings.Builder
	for i, t := range e.Terms {
		s := t.String()
		if i == 0 {
			sb.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			sb.WriteString(" - ")
			sb.WriteString(s[1:])
		} else {
			sb.WriteString(" + ")
			sb.WriteString(s)
		}
	}
	sb.WriteString(" ")
	sb.WriteString(e.Flag.String())
	sb.WriteString(" 0")
	return sb.String()
}

// Equal reports structural equality: same flag, same normalized terms.
func (e *Expression) Equal(other *Expression) bool {
	if e.Flag != other.Flag {
		return false
	}
	return e.Key() == other.Key()
}

// sortExpressions is a helper for deterministic iteration elsewhere.
func sortExpressions(es []*Expression) {
	sort.SliceStable(es, func(i, j int) bool { return es[i].Key() < es[j].Key() })
}
