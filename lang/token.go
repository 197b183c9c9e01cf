package lang

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TOKEN_NUMBER TokenType = iota
	TOKEN_IDENT
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_CARET
	TOKEN_PERCENT
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_EQUALS
	TOKEN_TO
	TOKEN_OF
	TOKEN_OFF
	TOKEN_ASA
	TOKEN_CURRENCY
	TOKEN_FUNC
	TOKEN_EOF
)

// Token represents a single lexer token. Value holds the parsed magnitude for
// TOKEN_NUMBER and TOKEN_CURRENCY. Text holds the identifier, function name,
// or currency glyph.
type Token struct {
	Type  TokenType
	Value float64
	Text  string
	Pos   int // byte offset in the input
}

func (t Token) String() string {
	switch t.Type {
	case TOKEN_NUMBER:
		return fmt.Sprintf("Token(NUMBER, %v, %d)", t.Value, t.Pos)
	case TOKEN_CURRENCY:
		return fmt.Sprintf("Token(CURRENCY, %s%v, %d)", t.Text, t.Value, t.Pos)
	default:
		return fmt.Sprintf("Token(%d, %q, %d)", t.Type, t.Text, t.Pos)
	}
}
