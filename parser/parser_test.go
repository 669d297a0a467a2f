package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

const definitionText = "[topCellInitializer{}()]\n" +
	"\n" +
	"module INT\n" +
	"  hooked-sort SortInt{} []\n" +
	"  sort SortKItem{} []\n" +
	"  symbol inj{From, To}(From) : To []\n" +
	"  symbol Lbl'Plus'Int{}(SortInt{}, SortInt{}) : SortInt{} [functional{}(), hook{}(\"INT.add\")]\n" +
	"  alias Lbl'Inc'Int{}(SortInt{}) : SortInt{} where Lbl'Inc'Int{}(X:SortInt{}) := Lbl'Plus'Int{}(X:SortInt{}, \\dv{SortInt{}}(\"1\")) []\n" +
	"  axiom{R} \\equals{SortInt{}, R}(X:SortInt{}, X:SortInt{}) []\n" +
	"  claim{} \\top{SortInt{}}() []\n" +
	"endmodule []\n" +
	"\n" +
	"module MAIN\n" +
	"  import INT []\n" +
	"endmodule [mainModule{}()]\n"

// ============================================================
// Lexer
// ============================================================

func TestLexer_Tokens(t *testing.T) {
	tokens, err := NewLexer(`\and{S}(X:S, "a") [x{}()] := // comment
	/* block */ @Set`).Tokenize()
	require.NoError(t, err)

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenIdent, TokenLBrace, TokenIdent, TokenRBrace,
		TokenLParen, TokenIdent, TokenColon, TokenIdent, TokenComma, TokenString, TokenRParen,
		TokenLBracket, TokenIdent, TokenLBrace, TokenRBrace, TokenLParen, TokenRParen, TokenRBracket,
		TokenColonEq, TokenIdent, TokenEOF,
	}, types)
	assert.Equal(t, `\and`, tokens[0].Value)
	assert.Equal(t, "@Set", tokens[19].Value)
	assert.Equal(t, Position{Line: 2, Column: 14, Offset: 53}, tokens[19].Pos)
}

func TestLexer_StringEscapes(t *testing.T) {
	tokens, err := NewLexer(`"q\" b\\ n\n r\r t\t f\f x\x7f\x00 u\u00e9 U\U0001F600"`).Tokenize()
	require.NoError(t, err)
	assert.Equal(t, "q\" b\\ n\n r\r t\t f\f x\x7f\x00 u\u00e9 U\U0001F600", tokens[0].Value)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   Position
	}{
		{"unterminated string", `"abc`, Position{1, 1, 0}},
		{"bad escape", `"\q"`, Position{1, 2, 1}},
		{"bad hex", `"\xZZ"`, Position{1, 2, 1}},
		{"truncated hex", `"\x1`, Position{1, 2, 1}},
		{"unterminated comment", "X /* no end", Position{1, 3, 2}},
		{"unexpected character", "X ; Y", Position{1, 3, 2}},
		{"newline in string", "\"a\nb\"", Position{1, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.pos, se.Pos)
		})
	}
}

// ============================================================
// Patterns and sorts
// ============================================================

func TestParser_Pattern(t *testing.T) {
	text := `Lbl'Plus'Int{}(X:SortInt{}, \dv{SortInt{}}("1"))`
	p, err := FromString(text).Pattern()
	require.NoError(t, err)
	assert.Equal(t, text, p.String())

	c, ok := p.(*kore.CompositePattern)
	require.True(t, ok)
	assert.Equal(t, "Lbl'Plus'Int", c.Constructor().Name())
	assert.False(t, c.Constructor().HasSignature())
	require.Len(t, c.Arguments(), 2)

	v, ok := c.Arguments()[0].(*kore.VariablePattern)
	require.True(t, ok)
	assert.Equal(t, "X", v.Name())
	assert.True(t, v.Sort().IsConcrete())

	dv, ok := c.Arguments()[1].(*kore.CompositePattern)
	require.True(t, ok)
	assert.True(t, dv.Constructor().IsBuiltin())
	assert.True(t, kore.NewStringPattern("1").Equal(dv.Arguments()[0]))
}

func TestParser_PatternRoundTripsEscapes(t *testing.T) {
	want := kore.MustApply(kore.NewSymbol(`\dv`, kore.NewCompositeSort("SortString", kore.NewValueType(kore.CategoryUncomputed))),
		kore.NewStringPattern("tab\there \"quoted\" \x01\xff"))

	got, err := FromString(want.String()).Pattern()
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestParser_Sort(t *testing.T) {
	s, err := FromString("SortMap{SortKey{}, V}").Sort()
	require.NoError(t, err)

	cs, ok := s.(*kore.CompositeSort)
	require.True(t, ok)
	assert.Equal(t, "SortMap", cs.Name())
	assert.Equal(t, kore.CategoryUncomputed, cs.Category().Cat)
	require.Len(t, cs.Arguments(), 2)
	_, isVar := cs.Arguments()[1].(*kore.SortVariable)
	assert.True(t, isVar)
	assert.False(t, s.IsConcrete())

	s, err = FromString("R").Sort()
	require.NoError(t, err)
	assert.Equal(t, "R", s.String())
}

func TestParser_PatternErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bare identifier", "X"},
		{"missing sort", "X:"},
		{"missing arguments", "f{}"},
		{"unclosed arguments", `f{}("a"`},
		{"trailing input", `"a" "b"`},
		{"missing comma", `f{}("a" "b")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromString(tt.input).Pattern()
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
		})
	}
}

// ============================================================
// Definitions
// ============================================================

func TestParser_DefinitionRoundTrip(t *testing.T) {
	def, err := FromString(definitionText).Definition()
	require.NoError(t, err)
	assert.Equal(t, definitionText, def.String())

	again, err := FromString(def.String()).Definition()
	require.NoError(t, err)
	assert.Equal(t, def.String(), again.String())
}

func TestParser_DefinitionStructure(t *testing.T) {
	def, err := FromString(definitionText).Definition()
	require.NoError(t, err)

	require.Len(t, def.Modules(), 2)
	assert.True(t, def.Attributes().Has("topCellInitializer"))
	assert.True(t, def.Module("MAIN").Attributes().Has("mainModule"))

	decls := def.Module("INT").Declarations()
	require.Len(t, decls, 7)

	sortDecl, ok := decls[0].(*kore.CompositeSortDeclaration)
	require.True(t, ok)
	assert.True(t, sortDecl.IsHooked())

	inj, ok := decls[2].(*kore.SymbolDeclaration)
	require.True(t, ok)
	assert.Len(t, inj.ObjectSortVariables(), 2)
	assert.Equal(t, 1, inj.Symbol().Arity())

	plus, ok := decls[3].(*kore.SymbolDeclaration)
	require.True(t, ok)
	hook, ok := plus.Attributes().StringValue("hook")
	require.True(t, ok)
	assert.Equal(t, "INT.add", hook)

	alias, ok := decls[4].(*kore.AliasDeclaration)
	require.True(t, ok)
	require.Len(t, alias.BoundVariables(), 1)
	assert.NoError(t, alias.Validate())

	axiom, ok := decls[5].(*kore.AxiomDeclaration)
	require.True(t, ok)
	assert.False(t, axiom.IsClaim())
	claim, ok := decls[6].(*kore.AxiomDeclaration)
	require.True(t, ok)
	assert.True(t, claim.IsClaim())

	imp, ok := def.Module("MAIN").Declarations()[0].(*kore.ModuleImportDeclaration)
	require.True(t, ok)
	assert.Equal(t, "INT", imp.ModuleName())
}

func TestParser_DefinitionResolvesSymbols(t *testing.T) {
	def, err := FromString(definitionText).Definition()
	require.NoError(t, err)

	p, err := FromString(`Lbl'Plus'Int{}(X:SortInt{}, Y:SortInt{})`).Pattern()
	require.NoError(t, err)

	resolved, err := def.Symbols().Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, "SortInt{}", resolved.Sort().String())

	bad, err := FromString(`Lbl'Plus'Int{}(X:SortInt{})`).Pattern()
	require.NoError(t, err)
	_, err = def.Symbols().Resolve(bad)
	assert.True(t, kore.IsArityError(err))
}

func TestParser_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing attributes", "module A endmodule []"},
		{"missing endmodule", "[]\nmodule A\n  import B []\n"},
		{"unknown declaration", "[] module A lemma{} X:S [] endmodule []"},
		{"attribute not an application", `[] module A import B ["x"] endmodule []`},
		{"alias name mismatch", "[] module A alias f{}() : S{} where g{}() := X:S{} [] endmodule []"},
		{"alias missing body", "[] module A alias f{}() : S{} where f{}() [] endmodule []"},
		{"symbol missing sort", "[] module A symbol f{}() [] endmodule []"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromString(tt.input).Definition()
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestSyntaxError_Message(t *testing.T) {
	_, err := FromString("f{}(\n  ;)").Pattern()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at 2:3")
}

func deepText(levels int) string {
	return strings.Repeat("f{}(", levels) + `"leaf"` + strings.Repeat(")", levels)
}

func TestParser_NestingLimit(t *testing.T) {
	p, err := FromString(deepText(9)).SetMaxDepth(10).Pattern()
	require.NoError(t, err)
	assert.Equal(t, deepText(9), p.String())

	_, err = FromString(deepText(10)).SetMaxDepth(10).Pattern()
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nesting too deep", se.Message)

	_, err = FromString(deepText(codec.DefaultMaxDepth)).Pattern()
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nesting too deep", se.Message)
}

func TestParser_SortNestingLimit(t *testing.T) {
	_, err := FromString("S{S{T}}").SetMaxDepth(3).Sort()
	require.NoError(t, err)

	_, err = FromString("S{S{T}}").SetMaxDepth(2).Sort()
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nesting too deep", se.Message)
}
