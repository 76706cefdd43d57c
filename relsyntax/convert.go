package relsyntax

import (
	"fmt"

	"github.com/sparseopt/iegen/internal/conj"
	"github.com/sparseopt/iegen/internal/setrel"
	"github.com/sparseopt/iegen/internal/term"
	"github.com/sparseopt/iegen/internal/tupledecl"
	"github.com/sparseopt/iegen/internal/ufenv"
)

// ParseSet parses src as a Set: every block must omit the `->` output
// tuple.
func ParseSet(src string) (*setrel.Set, error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	blocks := allBlocks(doc)
	arity := len(blocks[0].In.Names)
	out := &setrel.Set{Arity: arity}
	for _, b := range blocks {
		if b.Out != nil {
			return nil, fmt.Errorf("relsyntax: unexpected '->' in a Set (use ParseRelation instead)")
		}
		c, err := blockToConjunction(b, len(b.In.Names))
		if err != nil {
			return nil, err
		}
		if c.Arity() != arity {
			return nil, fmt.Errorf("relsyntax: mismatched arity across 'or' disjuncts")
		}
		out.Conjunctions = append(out.Conjunctions, c)
	}
	return out, nil
}

// ParseRelation parses src as a Relation: every block must carry a `->`
// output tuple.
func ParseRelation(src string) (*setrel.Relation, error) {
	doc, err := ParseDocument(src)
	if err != nil {
		return nil, err
	}
	blocks := allBlocks(doc)
	if blocks[0].Out == nil {
		return nil, fmt.Errorf("relsyntax: missing '-> [out]' in a Relation (use ParseSet for a Set)")
	}
	inArity, outArity := len(blocks[0].In.Names), len(blocks[0].Out.Names)
	out := &setrel.Relation{InArity: inArity, OutArity: outArity}
	for _, b := range blocks {
		if b.Out == nil {
			return nil, fmt.Errorf("relsyntax: missing '-> [out]' in a Relation disjunct")
		}
		c, err := blockToConjunction(b, inArity)
		if err != nil {
			return nil, err
		}
		if c.InArity != inArity || c.OutArity() != outArity {
			return nil, fmt.Errorf("relsyntax: mismatched in/out arity across 'or' disjuncts")
		}
		out.Conjunctions = append(out.Conjunctions, c)
	}
	return out, nil
}

func allBlocks(doc *Document) []*Block {
	blocks := []*Block{doc.First}
	for _, ob := range doc.Rest {
		blocks = append(blocks, ob.Block)
	}
	return blocks
}

func blockToConjunction(b *Block, inArity int) (*conj.Conjunction, error) {
	names := append(append([]string{}, b.In.Names...), outNames(b)...)
	decl := tupledecl.NewNamed(names...)
	c := conj.New(decl, inArity)
	for _, ac := range b.Constraints {
		exprs, err := constraintExpressions(ac.Constraint, decl)
		if err != nil {
			return nil, err
		}
		for _, e := range exprs {
			if e.Flag == term.Equality {
				if err := c.AddEquality(e); err != nil {
					return nil, err
				}
			} else if err := c.AddInequality(e); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func outNames(b *Block) []string {
	if b.Out == nil {
		return nil
	}
	return b.Out.Names
}

var opTable = map[string]ufenv.Op{
	"=":  ufenv.OpEq,
	"<":  ufenv.OpLt,
	"<=": ufenv.OpLe,
	">":  ufenv.OpGt,
	">=": ufenv.OpGe,
}

// constraintExpressions expands a chained comparison (e.g. `a <= b < c`)
// into one constraint expression per adjacent pair.
func constraintExpressions(c *Constraint, decl *tupledecl.Decl) ([]*term.Expression, error) {
	sums := append([]*Sum{c.First}, sumsOf(c.Chain)...)
	var out []*term.Expression
	for i, link := range c.Chain {
		op, ok := opTable[link.Op]
		if !ok {
			return nil, fmt.Errorf("relsyntax: unknown comparison operator %q", link.Op)
		}
		left := sumToExpression(sums[i], decl)
		right := sumToExpression(sums[i+1], decl)
		out = append(out, op.Build(left, right))
	}
	return out, nil
}

func sumsOf(chain []*OpSum) []*Sum {
	out := make([]*Sum, len(chain))
	for i, l := range chain {
		out[i] = l.Sum
	}
	return out
}

func sumToExpression(s *Sum, decl *tupledecl.Decl) *term.Expression {
	e := term.NewInequality()
	sign := 1
	if s.Sign == "-" {
		sign = -1
	}
	e.Add(factorToTerm(s.Head, sign, decl))
	for _, sf := range s.Tail {
		sgn := 1
		if sf.Op == "-" {
			sgn = -1
		}
		e.Add(factorToTerm(sf.Factor, sgn, decl))
	}
	return e
}

func factorToTerm(f *Factor, sign int, decl *tupledecl.Decl) *term.Term {
	coeff := sign
	if f.Coefficient != nil {
		coeff *= *f.Coefficient
	}
	t := atomToTerm(f.Atom, decl)
	t.Coefficient = coeff
	return t
}

func atomToTerm(a *Atom, decl *tupledecl.Decl) *term.Term {
	switch {
	case a.Int != nil:
		return term.NewConstant(*a.Int)
	case a.Call != nil:
		args := make([]*term.Expression, len(a.Call.Args))
		for i, arg := range a.Call.Args {
			args[i] = sumToExpression(arg, decl)
		}
		if a.Call.Selector != nil {
			return term.NewUFCallSelect(a.Call.Name, *a.Call.Selector, args...)
		}
		return term.NewUFCall(a.Call.Name, args...)
	default:
		name := *a.Name
		if idx := decl.IndexOf(name); idx >= 0 {
			return term.NewTupleVariable(idx)
		}
		return term.NewVariable(name)
	}
}
