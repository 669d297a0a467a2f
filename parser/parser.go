package parser

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

// SyntaxError represents a KORE text parse error.
type SyntaxError struct {
	Message string
	Pos     Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("kore: %s at %s", e.Message, e.Pos)
}

func syntaxErrorf(pos Position, format string, args ...any) error {
	return errors.WithStack(&SyntaxError{Message: fmt.Sprintf(format, args...), Pos: pos})
}

// Parser reads patterns, sorts and definitions from KORE text. Each entry
// point consumes the whole input.
type Parser struct {
	input    string
	ts       *TokenStream
	depth    int
	maxDepth int
}

// FromString creates a parser over text.
func FromString(text string) *Parser {
	return &Parser{input: text, maxDepth: codec.DefaultMaxDepth}
}

// SetMaxDepth limits how deeply patterns and sorts may nest, matching
// codec.WithMaxDepth. Values below 1 select codec.DefaultMaxDepth.
func (p *Parser) SetMaxDepth(n int) *Parser {
	if n < 1 {
		n = codec.DefaultMaxDepth
	}
	p.maxDepth = n
	return p
}

// Pattern parses a single pattern.
func (p *Parser) Pattern() (kore.Pattern, error) {
	if err := p.start(); err != nil {
		return nil, err
	}
	pat, err := p.pattern()
	if err != nil {
		return nil, err
	}
	return pat, p.end()
}

// Sort parses a single sort.
func (p *Parser) Sort() (kore.Sort, error) {
	if err := p.start(); err != nil {
		return nil, err
	}
	s, err := p.sort()
	if err != nil {
		return nil, err
	}
	return s, p.end()
}

// Definition parses a definition: its attributes followed by zero or more
// modules.
func (p *Parser) Definition() (*kore.Definition, error) {
	if err := p.start(); err != nil {
		return nil, err
	}
	def := kore.NewDefinition()
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		def.AddAttribute(a)
	}
	for !p.ts.AtEnd() {
		m, err := p.module()
		if err != nil {
			return nil, err
		}
		def.AddModule(m)
	}
	return def, nil
}

func (p *Parser) start() error {
	tokens, err := NewLexer(p.input).Tokenize()
	if err != nil {
		return err
	}
	p.ts = NewTokenStream(tokens)
	p.depth = 0
	return nil
}

func (p *Parser) enter() error {
	if p.depth >= p.maxDepth {
		return syntaxErrorf(p.ts.Peek().Pos, "nesting too deep")
	}
	p.depth++
	return nil
}

func (p *Parser) leave() { p.depth-- }

func (p *Parser) end() error {
	if tok := p.ts.Peek(); tok.Type != TokenEOF {
		return syntaxErrorf(tok.Pos, "unexpected %s after end", tok)
	}
	return nil
}

// ============================================================
// Sorts and patterns
// ============================================================

// sort parses Name{args} or a bare sort variable.
func (p *Parser) sort() (kore.Sort, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if p.ts.Peek().Type != TokenLBrace {
		return kore.NewSortVariable(name.Value), nil
	}
	args, err := p.sorts()
	if err != nil {
		return nil, err
	}
	return kore.NewCompositeSort(name.Value, kore.NewValueType(kore.CategoryUncomputed), args...), nil
}

// sorts parses {s1, ..., sn}.
func (p *Parser) sorts() ([]kore.Sort, error) {
	var out []kore.Sort
	err := p.list(TokenLBrace, TokenRBrace, func() error {
		s, err := p.sort()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// sortVariables parses {V1, ..., Vn}.
func (p *Parser) sortVariables() ([]*kore.SortVariable, error) {
	var out []*kore.SortVariable
	err := p.list(TokenLBrace, TokenRBrace, func() error {
		tok, err := p.ts.Expect(TokenIdent)
		if err != nil {
			return err
		}
		out = append(out, kore.NewSortVariable(tok.Value))
		return nil
	})
	return out, err
}

// formals parses (s1, ..., sn).
func (p *Parser) formals() ([]kore.Sort, error) {
	var out []kore.Sort
	err := p.list(TokenLParen, TokenRParen, func() error {
		s, err := p.sort()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func (p *Parser) pattern() (kore.Pattern, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.ts.Peek()
	switch tok.Type {
	case TokenString:
		p.ts.Advance()
		return kore.NewStringPattern(tok.Value), nil
	case TokenIdent:
	default:
		return nil, syntaxErrorf(tok.Pos, "expected pattern, got %s", tok)
	}

	switch p.ts.PeekN(1).Type {
	case TokenColon:
		return p.variable()
	case TokenLBrace:
		return p.application()
	}
	next := p.ts.PeekN(1)
	return nil, syntaxErrorf(next.Pos, "expected ':' or '{' after %s, got %s", tok, next)
}

// variable parses Name:Sort.
func (p *Parser) variable() (*kore.VariablePattern, error) {
	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.ts.Expect(TokenColon); err != nil {
		return nil, err
	}
	s, err := p.sort()
	if err != nil {
		return nil, err
	}
	return kore.NewVariablePattern(name.Value, s), nil
}

// application parses name{sorts}(args). The symbol is left unresolved.
func (p *Parser) application() (*kore.CompositePattern, error) {
	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	sorts, err := p.sorts()
	if err != nil {
		return nil, err
	}
	c := kore.NewCompositePattern(kore.NewSymbol(name.Value, sorts...))
	err = p.list(TokenLParen, TokenRParen, func() error {
		arg, err := p.pattern()
		if err != nil {
			return err
		}
		return c.AddArgument(arg)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// attributes parses [a1, ..., an]; every attribute is an application.
func (p *Parser) attributes() ([]*kore.CompositePattern, error) {
	var out []*kore.CompositePattern
	err := p.list(TokenLBracket, TokenRBracket, func() error {
		tok := p.ts.Peek()
		if tok.Type != TokenIdent || p.ts.PeekN(1).Type != TokenLBrace {
			return syntaxErrorf(tok.Pos, "attribute must be an application, got %s", tok)
		}
		a, err := p.application()
		if err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

// list parses a possibly empty comma-separated list between open and closing.
func (p *Parser) list(open, closing TokenType, item func() error) error {
	if _, err := p.ts.Expect(open); err != nil {
		return err
	}
	if p.ts.Match(closing) {
		return nil
	}
	for {
		if err := item(); err != nil {
			return err
		}
		if p.ts.Match(closing) {
			return nil
		}
		if _, err := p.ts.Expect(TokenComma); err != nil {
			return err
		}
	}
}

// ============================================================
// Modules and declarations
// ============================================================

func (p *Parser) keyword(word string) error {
	tok := p.ts.Peek()
	if tok.Type != TokenIdent || tok.Value != word {
		return syntaxErrorf(tok.Pos, "expected '%s', got %s", word, tok)
	}
	p.ts.Advance()
	return nil
}

func (p *Parser) module() (*kore.Module, error) {
	if err := p.keyword("module"); err != nil {
		return nil, err
	}
	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	m := kore.NewModule(name.Value)
	for {
		tok := p.ts.Peek()
		if tok.Type == TokenIdent && tok.Value == "endmodule" {
			p.ts.Advance()
			break
		}
		d, err := p.declaration()
		if err != nil {
			return nil, err
		}
		m.AddDeclaration(d)
	}
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		m.AddAttribute(a)
	}
	return m, nil
}

func (p *Parser) declaration() (kore.Declaration, error) {
	tok := p.ts.Peek()
	if tok.Type != TokenIdent {
		return nil, syntaxErrorf(tok.Pos, "expected declaration, got %s", tok)
	}

	var (
		d   kore.Declaration
		err error
	)
	switch tok.Value {
	case "import":
		p.ts.Advance()
		d, err = p.importDeclaration()
	case "sort", "hooked-sort":
		p.ts.Advance()
		d, err = p.sortDeclaration(tok.Value == "hooked-sort")
	case "symbol", "hooked-symbol":
		p.ts.Advance()
		d, err = p.symbolDeclaration(tok.Value == "hooked-symbol")
	case "alias":
		p.ts.Advance()
		d, err = p.aliasDeclaration()
	case "axiom", "claim":
		p.ts.Advance()
		d, err = p.axiomDeclaration(tok.Value == "claim")
	default:
		return nil, syntaxErrorf(tok.Pos, "unknown declaration %q", tok.Value)
	}
	if err != nil {
		return nil, err
	}

	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	for _, a := range attrs {
		d.AddAttribute(a)
	}
	return d, nil
}

func (p *Parser) importDeclaration() (kore.Declaration, error) {
	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	return kore.NewModuleImportDeclaration(name.Value), nil
}

func (p *Parser) sortDeclaration(hooked bool) (kore.Declaration, error) {
	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	d := kore.NewCompositeSortDeclaration(name.Value, hooked)
	vars, err := p.sortVariables()
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		d.AddObjectSortVariable(v)
	}
	return d, nil
}

// signature is the shared head of symbol and alias declarations:
// name{vars}(formals) : sort.
type signature struct {
	name    Token
	vars    []*kore.SortVariable
	formals []kore.Sort
	sort    kore.Sort
}

func (p *Parser) signature() (*signature, error) {
	name, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	sig := &signature{name: name}
	if sig.vars, err = p.sortVariables(); err != nil {
		return nil, err
	}
	if sig.formals, err = p.formals(); err != nil {
		return nil, err
	}
	if _, err := p.ts.Expect(TokenColon); err != nil {
		return nil, err
	}
	if sig.sort, err = p.sort(); err != nil {
		return nil, err
	}
	return sig, nil
}

func (sig *signature) apply(d kore.Declaration, sym *kore.Symbol) {
	for _, v := range sig.vars {
		d.AddObjectSortVariable(v)
	}
	for _, f := range sig.formals {
		sym.AddFormalArgument(f)
	}
	sym.AddSort(sig.sort)
}

func (p *Parser) symbolDeclaration(hooked bool) (kore.Declaration, error) {
	sig, err := p.signature()
	if err != nil {
		return nil, err
	}
	d := kore.NewSymbolDeclaration(sig.name.Value, hooked)
	sig.apply(d, d.Symbol())
	return d, nil
}

func (p *Parser) aliasDeclaration() (kore.Declaration, error) {
	sig, err := p.signature()
	if err != nil {
		return nil, err
	}
	d := kore.NewAliasDeclaration(sig.name.Value)
	sig.apply(d, d.Symbol())

	if err := p.keyword("where"); err != nil {
		return nil, err
	}
	lhs, err := p.ts.Expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if lhs.Value != sig.name.Value {
		return nil, syntaxErrorf(lhs.Pos, "alias %s defined with left-hand side %s", sig.name.Value, lhs.Value)
	}
	if _, err := p.sortVariables(); err != nil {
		return nil, err
	}
	err = p.list(TokenLParen, TokenRParen, func() error {
		v, err := p.variable()
		if err != nil {
			return err
		}
		d.AddVariables(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.ts.Expect(TokenColonEq); err != nil {
		return nil, err
	}
	body, err := p.pattern()
	if err != nil {
		return nil, err
	}
	d.AddPattern(body)
	return d, nil
}

func (p *Parser) axiomDeclaration(claim bool) (kore.Declaration, error) {
	d := kore.NewAxiomDeclaration(claim)
	vars, err := p.sortVariables()
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		d.AddObjectSortVariable(v)
	}
	body, err := p.pattern()
	if err != nil {
		return nil, err
	}
	d.AddPattern(body)
	return d, nil
}
