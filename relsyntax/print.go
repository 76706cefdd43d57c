package relsyntax

import (
	"fmt"
	"strings"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
)

// PrintSet renders s in the textual Set syntax ParseSet accepts.
func PrintSet(s *setrel.Set) string {
	parts := make([]string, len(s.Conjunctions))
	for i, c := range s.Conjunctions {
		parts[i] = printConjunction(c, nil)
	}
	if len(parts) == 0 {
		return "{ [] : 1 = 0 }"
	}
	return strings.Join(parts, " or ")
}

// PrintRelation renders r in the textual Relation syntax ParseRelation
// accepts.
func PrintRelation(r *setrel.Relation) string {
	parts := make([]string, len(r.Conjunctions))
	for i, c := range r.Conjunctions {
		out := c.InArity
		parts[i] = printConjunction(c, &out)
	}
	if len(parts) == 0 {
		return "{ [] -> [] : 1 = 0 }"
	}
	return strings.Join(parts, " or ")
}

// printConjunction renders one disjunct. splitAt == nil means "this is a
// Set block" (no `->`); otherwise it is the InArity at which to split the
// decl into an input/output tuple.
func printConjunction(c *conj.Conjunction, splitAt *int) string {
	var sb strings.Builder
	sb.WriteString("{ ")
	if splitAt == nil {
		sb.WriteString(printTupleNames(c.Decl, 0, c.Decl.Arity()))
	} else {
		sb.WriteString(printTupleNames(c.Decl, 0, *splitAt))
		sb.WriteString(" -> ")
		sb.WriteString(printTupleNames(c.Decl, *splitAt, c.Decl.Arity()))
	}
	sb.WriteString(" : ")

	constraints := make([]string, 0, len(c.Equalities)+len(c.Inequalities))
	for _, e := range c.Equalities {
		constraints = append(constraints, printExpression(e, c.Decl)+" = 0")
	}
	for _, e := range c.Inequalities {
		constraints = append(constraints, printExpression(e, c.Decl)+" >= 0")
	}
	if len(constraints) == 0 {
		constraints = append(constraints, "0 = 0")
	}
	sb.WriteString(strings.Join(constraints, " && "))
	sb.WriteString(" }")
	return sb.String()
}

func printTupleNames(decl *tupledecl.Decl, lo, hi int) string {
	names := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		names = append(names, decl.Slots[i].String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// printExpression renders e's term list (no trailing "= 0"/">= 0"),
// substituting each TupleVariable's bound name from decl in place of the
// internal t_k notation, so the result re-parses to the same slot.
func printExpression(e *term.Expression, decl *tupledecl.Decl) string {
	var sb strings.Builder
	for i, t := range e.Terms {
		s := printTerm(t, decl)
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
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

func printTerm(t *term.Term, decl *tupledecl.Decl) string {
	if t.Kind != term.TupleVariable {
		return t.String()
	}
	prefix := coeffPrefix(t.Coefficient)
	name := decl.NameAt(t.Slot)
	if name == "" {
		name = fmt.Sprintf("t_%d", t.Slot)
	}
	return prefix + name
}

func coeffPrefix(c int) string {
	switch c {
	case 1:
		return ""
	case -1:
		return "-"
	default:
		return fmt.Sprintf("%d*", c)
	}
}
