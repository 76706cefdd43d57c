// Package relsyntax is the textual front-end grammar for Sets and
// Relations (the external-facing counterpart to C11): `{ [tuple] : ... }`
// and `{ [in] -> [out] : ... }`, built with the same participle-driven
// lexer/AST/Parse shape the teacher's parser package uses for its own
// expression language.
package relsyntax

// Document is the parsed form of one textual Set or Relation: one or
// more disjunct blocks joined by "or"/"union", every block sharing the
// same tuple shape.
type Document struct {
	First *Block     `@@`
	Rest  []*OrBlock `@@*`
}

// OrBlock is one `or`/`union`-joined additional disjunct.
type OrBlock struct {
	Op    string `("or" | "union")`
	Block *Block `@@`
}

// Block is a single `{ [in] (-> [out])? : constraints }` disjunct.
type Block struct {
	In          *TupleNames      `"{" @@`
	Out         *TupleNames      `("->" @@)?`
	Constraints []*AndConstraint `":" @@ @@* "}"`
}

// AndConstraint is one constraint, optionally preceded by a logical
// conjunction operator joining it to the previous one (the very first
// constraint in a block carries no operator).
type AndConstraint struct {
	Op         string      `(@("&&" | "and"))?`
	Constraint *Constraint `@@`
}

// TupleNames is a `[a, b, c]` bracketed name list.
type TupleNames struct {
	Names []string `"[" (@Ident ("," @Ident)*)? "]"`
}

// Constraint is a chained comparison `expr op expr (op expr)*`, e.g.
// `idx(i) <= j < idx(i+1)`, which the converter expands into one
// constraint per adjacent pair.
type Constraint struct {
	First *Sum     `@@`
	Chain []*OpSum `@@+`
}

// OpSum is one later `op expr` link of a chained comparison.
type OpSum struct {
	Op  string `@("<=" | ">=" | "<" | ">" | "=")`
	Sum *Sum   `@@`
}

// Sum is a signed sequence of Factors: `factor (+ factor | - factor)*`.
type Sum struct {
	Sign string        `@("-")?`
	Head *Factor       `@@`
	Tail []*SignedFactor `@@*`
}

// SignedFactor is one later addend of a Sum, with its joining operator.
type SignedFactor struct {
	Op     string  `@("+" | "-")`
	Factor *Factor `@@`
}

// Factor is an optional integer coefficient times an Atom.
type Factor struct {
	Coefficient *int  `(@Int "*")?`
	Atom        *Atom `@@`
}

// Atom is a bare integer literal, a UF call, or a name (free variable or
// tuple slot, resolved against the enclosing TupleDecl by the converter).
type Atom struct {
	Int  *int    `(  @Int`
	Call *UFCall `|  @@`
	Name *string `|  @Ident )`
}

// UFCall is `name(expr, expr, ...)` optionally postfixed with `[k]` for
// component selection.
type UFCall struct {
	Name     string `@Ident "("`
	Args     []*Sum `(@@ ("," @@)*)? ")"`
	Selector *int   `("[" @Int "]")?`
}
