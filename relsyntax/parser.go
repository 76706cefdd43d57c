package relsyntax

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// setLexer defines the lexical rules for the Set/Relation syntax.
// Keyword-shaped tokens ("or", "union", "and") are listed before the
// generic Ident rule so they win the match, the same ordering the
// teacher's own lexer uses for its keywords.
var setLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Or", Pattern: `\bor\b`},
	{Name: "Union", Pattern: `\bunion\b`},
	{Name: "And", Pattern: `\band\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "LogicalAnd", Pattern: `&&`},
	{Name: "Le", Pattern: `<=`},
	{Name: "Ge", Pattern: `>=`},
	{Name: "Lt", Pattern: `<`},
	{Name: "Gt", Pattern: `>`},
	{Name: "Eq", Pattern: `=`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Plus", Pattern: `\+`},
	{Name: "Minus", Pattern: `-`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var docParser *participle.Parser[Document]

func init() {
	var err error
	docParser, err = participle.Build[Document](
		participle.Lexer(setLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic("relsyntax: failed to build parser: " + err.Error())
	}
}

// ParseDocument parses the textual Set/Relation syntax into its AST form.
func ParseDocument(src string) (*Document, error) {
	return docParser.ParseString("", src)
}
