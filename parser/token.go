package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString

	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenComma    // ,
	TokenColon    // :
	TokenColonEq  // :=
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string literal"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenComma:
		return "','"
	case TokenColon:
		return "':'"
	case TokenColonEq:
		return "':='"
	default:
		return "unknown"
	}
}

// Position is a location in the input.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenIdent:
		return fmt.Sprintf("identifier %q", t.Value)
	case TokenString:
		return fmt.Sprintf("string %q", t.Value)
	}
	return t.Type.String()
}

// Lexer tokenizes KORE text.
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) nextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	start := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}, nil
	}

	ch := l.peek()
	single := func(typ TokenType) (Token, error) {
		l.advance()
		return Token{Type: typ, Value: string(ch), Pos: start}, nil
	}

	switch ch {
	case '{':
		return single(TokenLBrace)
	case '}':
		return single(TokenRBrace)
	case '(':
		return single(TokenLParen)
	case ')':
		return single(TokenRParen)
	case '[':
		return single(TokenLBracket)
	case ']':
		return single(TokenRBracket)
	case ',':
		return single(TokenComma)
	case ':':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return Token{Type: TokenColonEq, Value: ":=", Pos: start}, nil
		}
		return Token{Type: TokenColon, Value: ":", Pos: start}, nil
	case '"':
		return l.scanString()
	}

	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, syntaxErrorf(start, "unexpected character %q", r)
}

// scanIdent scans an identifier. Connectives start with a backslash and set
// variables with @.
func (l *Lexer) scanIdent() Token {
	start := l.currentPos()
	begin := l.pos
	l.advance()
	for l.pos < len(l.input) && isIdentContinue(l.peek()) {
		l.advance()
	}
	return Token{Type: TokenIdent, Value: l.input[begin:l.pos], Pos: start}
}

// scanString scans a quoted string literal. Escapes produce raw bytes:
// \xHH is one byte and \uHHHH and \UHHHHHHHH are UTF-8 encoded.
func (l *Lexer) scanString() (Token, error) {
	start := l.currentPos()
	l.advance()

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{}, syntaxErrorf(start, "unterminated string literal")
		}
		ch := l.peek()
		if ch == '"' {
			l.advance()
			return Token{Type: TokenString, Value: sb.String(), Pos: start}, nil
		}
		if ch == '\n' {
			return Token{}, syntaxErrorf(l.currentPos(), "newline in string literal")
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			l.advance()
			continue
		}

		escPos := l.currentPos()
		l.advance()
		if l.pos >= len(l.input) {
			return Token{}, syntaxErrorf(escPos, "unterminated escape")
		}
		esc := l.peek()
		l.advance()
		switch esc {
		case '"', '\\':
			sb.WriteByte(esc)
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'f':
			sb.WriteByte('\f')
		case 'x':
			v, err := l.hexDigits(escPos, 2)
			if err != nil {
				return Token{}, err
			}
			sb.WriteByte(byte(v))
		case 'u', 'U':
			n := 4
			if esc == 'U' {
				n = 8
			}
			v, err := l.hexDigits(escPos, n)
			if err != nil {
				return Token{}, err
			}
			if v > utf8.MaxRune {
				return Token{}, syntaxErrorf(escPos, "code point %#x out of range", v)
			}
			sb.WriteRune(rune(v))
		default:
			return Token{}, syntaxErrorf(escPos, "unknown escape \\%c", esc)
		}
	}
}

func (l *Lexer) hexDigits(at Position, n int) (uint64, error) {
	if l.pos+n > len(l.input) {
		return 0, syntaxErrorf(at, "truncated escape")
	}
	v, err := strconv.ParseUint(l.input[l.pos:l.pos+n], 16, 32)
	if err != nil {
		return 0, syntaxErrorf(at, "invalid hex escape %q", l.input[l.pos:l.pos+n])
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	return v, nil
}

// skipWhitespaceAndComments skips whitespace, // comments and /* */ comments.
func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.peek()

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
			continue
		}

		if ch == '/' && l.pos+1 < len(l.input) {
			switch l.input[l.pos+1] {
			case '/':
				for l.pos < len(l.input) && l.peek() != '\n' {
					l.advance()
				}
				continue
			case '*':
				start := l.currentPos()
				l.advance()
				l.advance()
				for {
					if l.pos+1 >= len(l.input) {
						return syntaxErrorf(start, "unterminated comment")
					}
					if l.peek() == '*' && l.input[l.pos+1] == '/' {
						l.advance()
						l.advance()
						break
					}
					l.advance()
				}
				continue
			}
		}

		return nil
	}
	return nil
}

// Helper methods

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// Character classification

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '\\' || ch == '@'
}

func isIdentContinue(ch byte) bool {
	return isLetter(ch) || (ch >= '0' && ch <= '9') || ch == '\'' || ch == '-' || ch == '_'
}

// TokenStream provides a stream interface over tokens.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream creates a token stream from tokens.
func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	if ts.pos >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[ts.pos]
}

// PeekN returns the token n positions ahead.
func (ts *TokenStream) PeekN(n int) Token {
	idx := ts.pos + n
	if idx >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[idx]
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Expect advances if the current token matches, otherwise returns error.
func (ts *TokenStream) Expect(typ TokenType) (Token, error) {
	tok := ts.Peek()
	if tok.Type != typ {
		return tok, syntaxErrorf(tok.Pos, "expected %s, got %s", typ, tok)
	}
	ts.Advance()
	return tok, nil
}

// Match returns true and advances if the current token matches.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}

// AtEnd returns true if at end of stream.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}
