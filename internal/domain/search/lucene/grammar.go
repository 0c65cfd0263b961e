package lucene

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Term characters exclude whitespace, the field separator, grouping
// characters, quotes and the modifier/prefix characters. Operators are lexed
// as terms and told apart by the grammar, so "ORANGE" or "a&&b" stay terms.
var luceneLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n\f]+`},
	{Name: "Quoted", Pattern: `"[^"]+"`},
	{Name: "Fuzzy", Pattern: `~([0-9]+(\.[0-9]+)?)?`},
	{Name: "Boost", Pattern: `\^[0-9]+(\.[0-9]+)?`},
	{Name: "Punct", Pattern: `[():\[\]{}+\-]`},
	{Name: "Term", Pattern: `[^: \t\r\n\f{}()"+,\-/^~\[\]]+`},
})

var parser = participle.MustBuild[query](
	participle.Lexer(luceneLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(4),
)

type query struct {
	Nodes []*node `@@*`
}

type node struct {
	LeadOp string   `(   @( "AND" | "OR" | "NOT" | "&&" | "||" )`
	Lead   *node    `    @@?`
	Left   *group   `  | @@`
	Ops    []string `    @( "AND" | "OR" | "NOT" | "&&" | "||" )*`
	Right  *node    `    @@? )`
}

type group struct {
	Paren *paren     `  @@`
	Field *fieldNode `| @@`
}

type paren struct {
	Nodes []*node `"(" @@+ ")"`
}

type fieldNode struct {
	Name  *string    `( @Term ":" )?`
	Range *rangeNode `(  @@`
	Paren *paren     ` | @@`
	Term  *termNode  ` | @@ )`
}

type rangeNode struct {
	Open  string `@( "[" | "{" )`
	Min   string `@( Term | Quoted ) "TO"`
	Max   string `@( Term | Quoted )`
	Close string `@( "]" | "}" )`
}

type termNode struct {
	Prefix    *string `@( "+" | "-" )?`
	Quoted    *string `(  @Quoted`
	Proximity *string `   @Fuzzy?`
	Word      *string ` | @Term`
	Fuzzy     *string `   @Fuzzy? )`
	Boost     *string `@Boost?`
}
