// Package simplify implements C12, the simplification driver: the
// pipeline of spec.md §4.11 that composes the UF environment (C5/C6),
// the term partial-order graph (C8), the affine-superset abstraction
// (C10) and the external-solver adapter (C11) into a single
// Relation -> Relation transform that projects out as many existentially
// quantified tuple slots as it soundly can.
package simplify

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/digraph"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/solver"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/termpartord"
	"github.com/sparseopt/iegen/internal/tupledecl"
	"github.com/sparseopt/iegen/internal/ufcallmap"
	"github.com/sparseopt/iegen/internal/ufenv"
)

// Driver orchestrates the pipeline of spec.md §4.11 against a fixed UF
// environment and solver backend. A Driver has no other mutable state and
// may be reused (or shared, read-only) across many Simplify calls; the
// environment itself must not be mutated concurrently with a Simplify
// call in flight (spec.md §5).
type Driver struct {
	Env     *ufenv.Environment
	Backend solver.Backend
	log     *zap.SugaredLogger
}

// NewDriver builds a Driver. log may be nil (falls back to a no-op
// logger, matching internal/solver.NewReference's convention).
func NewDriver(env *ufenv.Environment, backend solver.Backend, log *zap.SugaredLogger) *Driver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Driver{Env: env, Backend: backend, log: log}
}

// DependenceRelationship classifies how two relations' represented sets
// of tuples relate (supplemented feature, SPEC_FULL.md §4 item 3, grounded
// on CompOpt4Apps' chillusage_test.cc).
type DependenceRelationship int

const (
	Disjoint DependenceRelationship = iota
	SetEqual
	SubSet
	SuperSet
	Overlapping
)

func (d DependenceRelationship) String() string {
	switch d {
	case SetEqual:
		return "SetEqual"
	case SubSet:
		return "SubSet"
	case SuperSet:
		return "SuperSet"
	case Overlapping:
		return "Overlapping"
	default:
		return "Disjoint"
	}
}

// Simplify runs the full pipeline of spec.md §4.11 over r, preserving the
// tuple-variable slots named in preserve (by original slot index into r)
// and removing at most maxRemovals constraints during the heuristic
// RemoveExpensiveConsts step. Returns (nil, nil) for ⊥ (UNSAT) per
// spec.md §7 (unsatisfiability is an ordinary return value, not an
// error); any other failure is returned as a non-nil error.
func (d *Driver) Simplify(r *setrel.Relation, preserve *set.Set[int], maxRemovals int) (*setrel.Relation, error) {
	if preserve == nil {
		preserve = set.New[int](0)
	}
	working := r.Clone()

	// Step 1: detect UNSAT / propagate equalities up front.
	for _, c := range working.Conjunctions {
		c.DetectUnsatOrFindEqualities()
	}
	working.DropUnsat()
	if len(working.Conjunctions) == 0 {
		d.log.Debugw("simplify: relation is unsatisfiable after initial propagation")
		return nil, nil
	}

	// Step 2: seed UF domain/range bounds. No separate non-negativity
	// constraint is added; a call term is bounded below only as far as
	// its declared range says.
	if err := d.seedUFBounds(working); err != nil {
		return nil, fmt.Errorf("simplify: seeding UF bounds: %w", err)
	}
	working.DropUnsat()
	if len(working.Conjunctions) == 0 {
		d.log.Debugw("simplify: relation is unsatisfiable after UF bound seeding")
		return nil, nil
	}

	// Step 3: solver-backed rule instantiation (spec.md §4.10), distinct
	// from ufenv.Environment.Apply's syntactic single pass (§4.5): here
	// every matching UF-call pair is discharged through AddInstantiation
	// against the relation as it stands, one conjunction at a time since
	// AddInstantiation expects a single relation (not a disjunction with
	// mismatched tuple-slot meanings per disjunct).
	if err := d.instantiateRules(working); err != nil {
		return nil, fmt.Errorf("simplify: rule instantiation: %w", err)
	}
	working.DropUnsat()
	if len(working.Conjunctions) == 0 {
		d.log.Debugw("simplify: relation is unsatisfiable after rule instantiation")
		return nil, nil
	}

	// Step 4: heuristic constraint removal. Sound because dropping a
	// constraint only enlarges the relation (spec.md §4.11 step 4, §9).
	removeExpensiveConsts(working, preserve, maxRemovals, d.log)

	// Step 5: term partial-order closure promotes additional equalities
	// (e.g. a<=b && b<=a => a=b) back into each conjunction. The bare-term
	// TermPartOrdGraph (C8) catches atomic facts; the compound-expression
	// DiGraph (C9) additionally closes facts whose sides are themselves
	// multi-term expressions (e.g. `rowptr(i+1) - rowptr(i) >= 1`, spec.md
	// §4.8), which C8 cannot key on since neither side is a bare term.
	for _, c := range working.Conjunctions {
		promoteEqualitiesViaTermPartOrd(c)
		promoteEqualitiesViaDiGraph(c)
		c.DetectUnsatOrFindEqualities()
	}
	working.DropUnsat()
	if len(working.Conjunctions) == 0 {
		d.log.Debugw("simplify: relation is unsatisfiable after partial-order closure")
		return nil, nil
	}

	// Step 6: affine-superset abstraction.
	affine, mangleMap := ufcallmap.SuperAffineRelation(working)

	// Step 7: iterator-projection loop, innermost to outermost, tie-break
	// by fewest distinct UFCalls mentioning the slot (spec.md §4.11 step
	// 7-8; the exact tie-break intent is an Open Question per spec.md §9,
	// see DESIGN.md).
	affine, slotMapping, err := d.projectSlots(affine, working, mangleMap, preserve)
	if err != nil {
		return nil, fmt.Errorf("simplify: projection: %w", err)
	}

	// A retained UFCall's mangled variable was never rewritten during
	// projection (it is a bare free Variable, not tied to any tuple slot),
	// but its stand-in original term's Args still reference the
	// pre-projection slot numbering. Re-point them at the numbering that
	// survived projection before splicing them back in below, or
	// unmangling would reintroduce a stale/out-of-range TupleVariable.
	mangleMap.RemapSlots(slotMapping)

	// Step 8: translate mangled variables back to UFCall syntax.
	result := ufcallmap.UnmangleRelation(affine, mangleMap)
	for _, c := range result.Conjunctions {
		c.DetectUnsatOrFindEqualities()
	}
	result.DropUnsat()
	if len(result.Conjunctions) == 0 {
		return nil, nil
	}
	return result, nil
}

// seedUFBounds adds, for every distinct UFCall f(e) appearing anywhere in
// r, the constraint that e lies in dom(f) and that the call term itself
// lies in range(f) (spec.md §4.5). Domain/range Sets with more than one
// disjunct are skipped with a warning: disjunctive bound-seeding would
// require branching the conjunction itself, which this pass (unlike the
// projection step) does not attempt — it only ever narrows by intersecting
// a single extra conjunct's worth of bounds.
func (d *Driver) seedUFBounds(r *setrel.Relation) error {
	for _, c := range r.Conjunctions {
		if c.IsUnsat() {
			continue
		}
		for _, u := range c.UFCalls() {
			decl, err := d.Env.Lookup(u.UFName)
			if err != nil {
				return err
			}
			if len(decl.Domain.Conjunctions) == 1 {
				applySetMembership(c, decl.Domain.Conjunctions[0], u.Args)
			} else {
				d.log.Warnw("simplify: skipping disjunctive domain bound", "uf", u.UFName)
			}
			resultArgs := []*term.Expression{term.NewInequality(stripSelector(u))}
			if len(decl.Range.Conjunctions) == 1 {
				applySetMembership(c, decl.Range.Conjunctions[0], resultArgs)
			} else {
				d.log.Warnw("simplify: skipping disjunctive range bound", "uf", u.UFName)
			}
		}
		c.DetectUnsatOrFindEqualities()
	}
	return nil
}

// stripSelector returns a Term identical to u but with no component
// selector, used to apply a (possibly tuple-valued) range Set's bounds
// against the call as a whole; component selection is spec.md's stated
// Open Question (no test exercises applying range bounds through a
// selector) so this conservatively binds the unselected call.
func stripSelector(u *term.Term) *term.Term {
	if u.Selector < 0 {
		return u
	}
	cp := u.Clone()
	cp.Selector = -1
	return cp
}

// applySetMembership conjoins bound's constraints (over its own tuple
// decl of arity len(args)) into c, substituting bound's slot i with
// args[i]. bound's own slots must be named (not fixed constants) for this
// to do anything meaningful beyond a sanity check; fixed slots are simply
// skipped since they assert no relation on args.
func applySetMembership(c *conj.Conjunction, bound *conj.Conjunction, args []*term.Expression) {
	for slot, a := range args {
		if slot >= bound.Arity() {
			break
		}
		repl := a.Clone()
		repl.Flag = term.Equality
		for _, e := range bound.Equalities {
			_ = c.AddEquality(e.Substitute(slot, repl))
		}
		for _, e := range bound.Inequalities {
			_ = c.AddInequality(e.Substitute(slot, repl))
		}
	}
}

// instantiateRules runs the solver-backed add_instantiation check
// (spec.md §4.10) for every rule in the environment against every
// matching ordered pair of UF-call occurrences in each conjunction, in
// rule-insertion order and then deterministic lexicographic occurrence
// order (spec.md §5 ordering guarantee).
func (d *Driver) instantiateRules(r *setrel.Relation) error {
	for ci, c := range r.Conjunctions {
		if c.IsUnsat() {
			continue
		}
		for _, rule := range d.Env.Rules {
			calls := c.UFCalls()
			sort.Slice(calls, func(i, j int) bool { return calls[i].Identity() < calls[j].Identity() })
			for i, u1 := range calls {
				if u1.UFName != rule.UF1 || len(u1.Args) == 0 {
					continue
				}
				for j, u2 := range calls {
					if i == j || u2.UFName != rule.UF2 || len(u2.Args) == 0 {
						continue
					}
					antecedent := rule.ParamOp.Build(u1.Args[0], u2.Args[0])
					consequent := rule.UFOp.Build(term.NewInequality(u1), term.NewInequality(u2))

					workingRel, err := singleConjRelation(c, antecedent.Flag, nil)
					if err != nil {
						return err
					}
					antRel, err := singleConjRelation(c, antecedent.Flag, antecedent)
					if err != nil {
						return err
					}
					conRel, err := singleConjRelation(c, consequent.Flag, consequent)
					if err != nil {
						return err
					}

					updated, changed, err := d.Backend.AddInstantiation(workingRel, antRel, conRel)
					if err != nil {
						return err
					}
					if changed && len(updated.Conjunctions) == 1 {
						r.Conjunctions[ci] = updated.Conjunctions[0]
						c = r.Conjunctions[ci]
					}
				}
			}
		}
	}
	return nil
}

// singleConjRelation wraps c (optionally with one extra constraint added)
// as a fresh single-conjunction Relation sharing c's tuple declaration
// and input arity, for use as an operand to the solver backend.
func singleConjRelation(c *conj.Conjunction, flag term.Flag, extra *term.Expression) (*setrel.Relation, error) {
	nc := c.Clone()
	if extra != nil {
		if flag == term.Equality {
			_ = nc.AddEquality(extra)
		} else {
			_ = nc.AddInequality(extra)
		}
	}
	return setrel.NewRelation(c.InArity, c.OutArity(), nc)
}

// constraintCost scores a constraint for RemoveExpensiveConsts: a
// constraint mentioning a UFCall whose argument depends on a
// not-preserved slot is expensive (it is the thing standing in the way of
// projecting that slot); a constraint that merely mentions a
// not-preserved slot directly is cheap to drop but rarely necessary to.
func constraintCost(e *term.Expression, preserve *set.Set[int]) int {
	cost := 0
	for _, u := range e.UFCalls() {
		for _, arg := range u.Args {
			for slot := range arg.TupleSlotsMentioned() {
				if !preserve.Contains(slot) {
					cost += 1000
				}
			}
		}
	}
	for slot := range e.TupleSlotsMentioned() {
		if !preserve.Contains(slot) {
			cost++
		}
	}
	return cost
}

type costedConstraint struct {
	conjIdx int
	isEq    bool
	idx     int
	cost    int
}

// removeExpensiveConsts implements spec.md §4.11 step 4 /
// RemoveExpensiveConsts (§9): rank every constraint mentioning a
// not-preserved slot by constraintCost, and drop up to maxRemovals of the
// highest-cost ones across the whole relation. This is a heuristic:
// dropping a constraint only ever enlarges the represented relation, so
// soundness survives; completeness (whether the dropped constraints were
// truly the ones standing in the way of projection) is not guaranteed.
func removeExpensiveConsts(r *setrel.Relation, preserve *set.Set[int], maxRemovals int, log *zap.SugaredLogger) {
	if maxRemovals <= 0 {
		return
	}
	var candidates []costedConstraint
	for ci, c := range r.Conjunctions {
		for i, e := range c.Equalities {
			if cost := constraintCost(e, preserve); cost > 0 {
				candidates = append(candidates, costedConstraint{ci, true, i, cost})
			}
		}
		for i, e := range c.Inequalities {
			if cost := constraintCost(e, preserve); cost > 0 {
				candidates = append(candidates, costedConstraint{ci, false, i, cost})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].cost > candidates[j].cost })
	if len(candidates) > maxRemovals {
		candidates = candidates[:maxRemovals]
	}
	if len(candidates) == 0 {
		return
	}
	toDrop := make(map[int]map[bool]map[int]bool)
	for _, cc := range candidates {
		if toDrop[cc.conjIdx] == nil {
			toDrop[cc.conjIdx] = map[bool]map[int]bool{true: {}, false: {}}
		}
		toDrop[cc.conjIdx][cc.isEq][cc.idx] = true
	}
	dropped := 0
	for ci, kinds := range toDrop {
		c := r.Conjunctions[ci]
		c.Equalities = filterOutIndices(c.Equalities, kinds[true])
		c.Inequalities = filterOutIndices(c.Inequalities, kinds[false])
		dropped += len(kinds[true]) + len(kinds[false])
	}
	log.Debugw("simplify: removed expensive constraints", "count", dropped, "budget", maxRemovals)
}

func filterOutIndices(es []*term.Expression, drop map[int]bool) []*term.Expression {
	out := make([]*term.Expression, 0, len(es))
	for i, e := range es {
		if drop[i] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// promoteEqualitiesViaTermPartOrd builds a TermPartOrdGraph (C8) from
// every two-term inequality in c that expresses a bare partial-order fact
// between two terms (`a - b >= 0` or `a - b - 1 >= 0`), and any equality
// expressing `a - b = 0`; any pair the closed graph reports as mutually
// non-strict-ordered (a<=b && b<=a) is promoted into a fresh equality
// constraint (spec.md §4.11 step 5).
func promoteEqualitiesViaTermPartOrd(c *conj.Conjunction) {
	g := termpartord.New(2 * (len(c.Equalities) + len(c.Inequalities) + 1))
	for _, e := range c.Equalities {
		if a, b, ok := twoTermPair(e); ok {
			g.EqualAssert(a, b)
		}
	}
	for _, e := range c.Inequalities {
		a, b, strict, ok := twoTermOrder(e)
		if !ok {
			continue
		}
		if strict {
			g.Strict(b, a)
		} else {
			g.NonStrict(b, a)
		}
	}
	if g.IsUnsat() {
		c.MarkUnsat()
		return
	}
	for _, pair := range g.EqualPairs() {
		eq := term.NewEquality(pair[0].Clone(), negated(pair[1]))
		_ = c.AddEquality(eq)
	}
}

// promoteEqualitiesViaDiGraph builds a DiGraph (C9) from c's constraints,
// keyed on full compound expressions rather than bare terms (contrast with
// promoteEqualitiesViaTermPartOrd/C8): each equality/inequality is split
// into a left and right side (lhs - rhs OP 0) which may themselves be
// multi-term expressions, e.g. a UFCall difference. After transitive
// closure and the GreaterEqual-to-Greater simplification/merge pass, every
// surviving edge is materialized back into an equality or inequality and
// folded into c. Sound: every constraint this adds is entailed by c's own
// constraints (it is the same closure C8 performs, generalized to
// compound vertices), so it only ever narrows by facts already implied.
func promoteEqualitiesViaDiGraph(c *conj.Conjunction) {
	g := digraph.New()
	for _, e := range c.Equalities {
		lhs, rhs := splitSides(e)
		g.AddEdge(lhs, rhs, digraph.Equal)
		g.AddEdge(rhs, lhs, digraph.Equal)
	}
	for _, e := range c.Inequalities {
		lhs, rhs := splitSides(e)
		g.AddEdge(lhs, rhs, digraph.GreaterEqual)
	}
	if g.NumVertices() == 0 {
		return
	}
	g.TransitiveClosure()
	g.SimplifyGreaterOrEqual()
	g.TransitiveClosure()
	for _, e := range g.GetExpressions() {
		if e.Flag == term.Equality {
			_ = c.AddEquality(e)
		} else {
			_ = c.AddInequality(e)
		}
	}
}

// splitSides partitions e's terms into a left side (nonnegative
// coefficients) and a right side (negated negative-coefficient terms, with
// constants folded to whichever side keeps them nonnegative), the
// `lhs - rhs OP 0` encoding DiGraph edges use.
func splitSides(e *term.Expression) (*term.Expression, *term.Expression) {
	lhs := term.NewExpression(term.Equality)
	rhs := term.NewExpression(term.Equality)
	for _, t := range e.Terms {
		if t.Kind == term.Constant {
			v := t.Coefficient * t.Value
			if v >= 0 {
				lhs.Add(term.NewConstant(v))
			} else {
				rhs.Add(term.NewConstant(-v))
			}
			continue
		}
		if t.Coefficient >= 0 {
			lhs.Add(t.Clone())
		} else {
			neg := t.Clone()
			neg.Coefficient = -neg.Coefficient
			rhs.Add(neg)
		}
	}
	lhs.Normalize()
	rhs.Normalize()
	return lhs, rhs
}

func negated(t *term.Term) *term.Term {
	cp := t.Clone()
	cp.Coefficient = -cp.Coefficient
	return cp
}

// twoTermPair recognizes `a - b = 0` (exactly two non-constant terms,
// coefficients +1/-1, no constant).
func twoTermPair(e *term.Expression) (*term.Term, *term.Term, bool) {
	if len(e.Terms) != 2 {
		return nil, nil, false
	}
	a, b := e.Terms[0], e.Terms[1]
	if a.Kind == term.Constant || b.Kind == term.Constant {
		return nil, nil, false
	}
	if a.Coefficient == 1 && b.Coefficient == -1 {
		return a, b, true
	}
	if a.Coefficient == -1 && b.Coefficient == 1 {
		return b, a, true
	}
	return nil, nil, false
}

// twoTermOrder recognizes `a - b >= 0` (b <= a, non-strict) and
// `a - b - 1 >= 0` (b < a, strict).
func twoTermOrder(e *term.Expression) (a, b *term.Term, strict bool, ok bool) {
	constTerms := 0
	constVal := 0
	var nonConst []*term.Term
	for _, t := range e.Terms {
		if t.Kind == term.Constant {
			constTerms++
			constVal += t.Coefficient * t.Value
			continue
		}
		nonConst = append(nonConst, t)
	}
	if len(nonConst) != 2 || constTerms > 1 {
		return nil, nil, false, false
	}
	if constVal != 0 && constVal != -1 {
		return nil, nil, false, false
	}
	x, y := nonConst[0], nonConst[1]
	switch {
	case x.Coefficient == 1 && y.Coefficient == -1:
		a, b = x, y
	case x.Coefficient == -1 && y.Coefficient == 1:
		a, b = y, x
	default:
		return nil, nil, false, false
	}
	return a, b, constVal == -1, true
}

// projectSlots projects every tuple slot of affine whose original index
// (stable against working, which shares affine's slot numbering before
// any projection happens) is not in preserve, ordered innermost-to-
// outermost (deepest position within its own input or output tuple
// first), tie-broken by fewest distinct UFCalls (counted against the
// pre-mangling `working` relation) mentioning that slot, then by highest
// original slot index. A slot the backend cannot project exactly (it
// returns a solver error) is left in place rather than aborting the whole
// pipeline.
//
// A slot that is itself an argument of some UFCall in `working` is never
// projected while that call's mangled stand-in variable (mangleMap) is
// still mentioned by a surviving constraint in affine: mangling erases the
// tuple-slot numbering from the call's arguments (they become a bare free
// Variable), so once the slot is removed from the declaration,
// UnmangleRelation (C10) would splice the call's original, now
// out-of-range TupleVariable arguments back into the result — a
// dangling/mis-indexed slot reference, unsound per spec.md §8. Once every
// constraint mentioning the mangled variable has itself been dropped
// (e.g. by an earlier projection), the call can no longer resurface and
// the slot is safe to remove.
func (d *Driver) projectSlots(affine, working *setrel.Relation, mangleMap *ufcallmap.Map, preserve *set.Set[int]) (*setrel.Relation, []int, error) {
	arity := affine.Arity()
	ufCount := countUFCallsPerSlot(working)
	slotUFNames := slotUFCallNames(working, mangleMap)

	var candidates []int
	for i := 0; i < arity; i++ {
		if !preserve.Contains(i) {
			candidates = append(candidates, i)
		}
	}
	depth := func(s int) int {
		if s >= affine.InArity {
			return s - affine.InArity
		}
		return s
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i], candidates[j]
		if depth(si) != depth(sj) {
			return depth(si) > depth(sj)
		}
		if ufCount[si] != ufCount[sj] {
			return ufCount[si] < ufCount[sj]
		}
		return si > sj
	})

	alive := make([]int, arity)
	for i := range alive {
		alive[i] = i
	}

	for _, orig := range candidates {
		cur := alive[orig]
		if cur < 0 {
			continue
		}
		if name, blocked := liveUFVariable(affine, slotUFNames[orig]); blocked {
			d.log.Debugw("simplify: refusing to project a slot still feeding a live UF call",
				"slot", orig, "ufVariable", name)
			continue
		}
		projected, err := d.Backend.ProjectOut(affine, cur)
		if err != nil {
			if errors.Is(err, solver.ErrSolver) {
				d.log.Warnw("simplify: skipping projection the solver could not complete", "slot", orig, "error", err)
				continue
			}
			return nil, nil, err
		}
		affine = projected
		alive[orig] = -1
		for j := range alive {
			if alive[j] > cur {
				alive[j]--
			}
		}
	}
	return affine, alive, nil
}

// ufCallSlots returns the set of tuple slots mentioned anywhere in u's
// arguments.
func ufCallSlots(u *term.Term) map[int]bool {
	out := make(map[int]bool)
	for _, arg := range u.Args {
		for slot := range arg.TupleSlotsMentioned() {
			out[slot] = true
		}
	}
	return out
}

func countUFCallsPerSlot(r *setrel.Relation) map[int]int {
	out := make(map[int]int)
	for _, u := range r.AllUFCalls() {
		for slot := range ufCallSlots(u) {
			out[slot]++
		}
	}
	return out
}

// slotUFCallNames maps each tuple slot to the mangled variable names
// (mangleMap) of every UFCall in r whose arguments mention that slot.
func slotUFCallNames(r *setrel.Relation, mangleMap *ufcallmap.Map) map[int][]string {
	out := make(map[int][]string)
	for _, u := range r.AllUFCalls() {
		name, ok := mangleMap.NameOf(u)
		if !ok {
			continue
		}
		for slot := range ufCallSlots(u) {
			out[slot] = append(out[slot], name)
		}
	}
	return out
}

// liveUFVariable reports whether any of names is still mentioned as a free
// Variable by some constraint in r, returning the first one found.
func liveUFVariable(r *setrel.Relation, names []string) (string, bool) {
	for _, name := range names {
		for _, c := range r.Conjunctions {
			for _, e := range c.AllExpressions() {
				if _, ok := e.FreeVariableNames()[name]; ok {
					return name, true
				}
			}
		}
	}
	return "", false
}

// Classify implements the chillusage-style dependence-relationship
// classification of SPEC_FULL.md §4 item 3: whether r1 and r2 denote
// equal, strictly-nested, or disjoint/overlapping sets of tuples.
func (d *Driver) Classify(r1, r2 *setrel.Relation) (DependenceRelationship, error) {
	equal, err := d.Backend.PlainIsEqual(r1, r2)
	if err != nil {
		return Disjoint, err
	}
	if equal {
		return SetEqual, nil
	}
	notR2, err := d.Backend.Complement(r2)
	if err != nil {
		return Disjoint, err
	}
	r1MinusR2, err := d.Backend.Intersect(r1, notR2)
	if err != nil {
		return Disjoint, err
	}
	r1SubsetR2, err := isEmptyRelation(d.Backend, r1MinusR2)
	if err != nil {
		return Disjoint, err
	}
	if r1SubsetR2 {
		return SubSet, nil
	}
	notR1, err := d.Backend.Complement(r1)
	if err != nil {
		return Disjoint, err
	}
	r2MinusR1, err := d.Backend.Intersect(r2, notR1)
	if err != nil {
		return Disjoint, err
	}
	r2SubsetR1, err := isEmptyRelation(d.Backend, r2MinusR1)
	if err != nil {
		return Disjoint, err
	}
	if r2SubsetR1 {
		return SuperSet, nil
	}
	intersection, err := d.Backend.Intersect(r1, r2)
	if err != nil {
		return Disjoint, err
	}
	overlap, err := isEmptyRelation(d.Backend, intersection)
	if err != nil {
		return Disjoint, err
	}
	if overlap {
		return Disjoint, nil
	}
	return Overlapping, nil
}

// isEmptyRelation decides r's satisfiability as PlainIsUniverse(¬r),
// reusing the backend's own vocabulary instead of re-deriving emptiness a
// second way.
func isEmptyRelation(backend solver.Backend, r *setrel.Relation) (bool, error) {
	comp, err := backend.Complement(r)
	if err != nil {
		return false, err
	}
	return backend.PlainIsUniverse(comp)
}

// Gist exposes the solver adapter's gist operation as a standalone
// simplification mode (SPEC_FULL.md §4 item 2, grounded on
// simplifyDriver.cc calling gist against a context relation directly).
func (d *Driver) Gist(r, context *setrel.Relation) (*setrel.Relation, error) {
	return d.Backend.Gist(r, context)
}

// IdentityRelation returns the identity relation of the given arity
// (tuple i -> tuple i), used by callers verifying
// R.Compose(identity_of_arity(inArity(R))) == R (spec.md §8).
func IdentityRelation(arity int) (*setrel.Relation, error) {
	names := make([]string, 2*arity)
	for i := 0; i < arity; i++ {
		names[i] = fmt.Sprintf("in%d", i)
		names[arity+i] = fmt.Sprintf("out%d", i)
	}
	decl := tupledecl.NewNamed(names...)
	c := conj.New(decl, arity)
	for i := 0; i < arity; i++ {
		eq := term.NewEquality(term.NewTupleVariable(i), negated(term.NewTupleVariable(arity+i)))
		if err := c.AddEquality(eq); err != nil {
			return nil, err
		}
	}
	return setrel.NewRelation(arity, arity, c)
}
