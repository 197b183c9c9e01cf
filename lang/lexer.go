package lang

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// keywordTokens maps natural-language operator words to their token types.
var keywordTokens = map[string]TokenType{
	"to":         TOKEN_TO,
	"in":         TOKEN_TO,
	"of":         TOKEN_OF,
	"off":        TOKEN_OFF,
	"as":         TOKEN_ASA,
	"plus":       TOKEN_PLUS,
	"and":        TOKEN_PLUS,
	"minus":      TOKEN_MINUS,
	"subtract":   TOKEN_MINUS,
	"times":      TOKEN_STAR,
	"multiplied": TOKEN_STAR,
	"divided":    TOKEN_SLASH,
	"over":       TOKEN_SLASH,
}

// quantifierWords expand to NUMBER(k) STAR, e.g. "half of 10" → 0.5 * 10.
var quantifierWords = map[string]float64{
	"half":    0.5,
	"third":   1.0 / 3.0,
	"quarter": 0.25,
	"double":  2,
	"triple":  3,
}

var functionWords = map[string]bool{
	"sqrt":  true,
	"sin":   true,
	"cos":   true,
	"tan":   true,
	"log":   true,
	"ln":    true,
	"abs":   true,
	"floor": true,
	"ceil":  true,
	"round": true,
}

// Lex tokenizes a single line of input into a slice of tokens, always
// terminated by TOKEN_EOF. Unrecognized characters are silently skipped.
func Lex(input string) []Token {
	var tokens []Token
	i := 0
	for i < len(input) {
		ch := input[i]

		// Skip whitespace
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			i++
			continue
		}

		switch ch {
		case '+':
			tokens = append(tokens, Token{Type: TOKEN_PLUS, Text: "+", Pos: i})
			i++
		case '-':
			tokens = append(tokens, Token{Type: TOKEN_MINUS, Text: "-", Pos: i})
			i++
		case '*':
			tokens = append(tokens, Token{Type: TOKEN_STAR, Text: "*", Pos: i})
			i++
		case '/':
			tokens = append(tokens, Token{Type: TOKEN_SLASH, Text: "/", Pos: i})
			i++
		case '^':
			tokens = append(tokens, Token{Type: TOKEN_CARET, Text: "^", Pos: i})
			i++
		case '%':
			tokens = append(tokens, Token{Type: TOKEN_PERCENT, Text: "%", Pos: i})
			i++
		case '(':
			tokens = append(tokens, Token{Type: TOKEN_LPAREN, Text: "(", Pos: i})
			i++
		case ')':
			tokens = append(tokens, Token{Type: TOKEN_RPAREN, Text: ")", Pos: i})
			i++
		case '=':
			tokens = append(tokens, Token{Type: TOKEN_EQUALS, Text: "=", Pos: i})
			i++
		case '$':
			tok, end, ok := lexCurrency(input, i, "$", i+1)
			if ok {
				tokens = append(tokens, tok)
				i = end
			} else {
				tokens = append(tokens, Token{Type: TOKEN_IDENT, Text: "$", Pos: i})
				i++
			}
		default:
			if isDigit(ch) {
				tok, end := lexNumber(input, i)
				tokens = append(tokens, tok)
				i = end
			} else if isWordStart(ch) {
				start := i
				for i < len(input) && isWordContinue(input[i]) {
					i++
				}
				word := strings.ToLower(input[start:i])
				tokens, i = foldWord(tokens, input, word, start, i)
			} else {
				r, size := utf8.DecodeRuneInString(input[i:])
				switch r {
				case '€', '£', '¥':
					tok, end, ok := lexCurrency(input, i, string(r), i+size)
					if ok {
						tokens = append(tokens, tok)
						i = end
					} else {
						tokens = append(tokens, Token{Type: TOKEN_IDENT, Text: string(r), Pos: i})
						i += size
					}
				case '°':
					// Degree marker; the parser converts the preceding
					// number to radians.
					tokens = append(tokens, Token{Type: TOKEN_IDENT, Text: "deg", Pos: i})
					i += size
				default:
					// Unknown character — skip it
					i += size
				}
			}
		}
	}
	tokens = append(tokens, Token{Type: TOKEN_EOF, Pos: i})
	return tokens
}

// lexNumber scans digits starting at pos. Commas are consumed as thousands
// separators; only the first '.' counts as the decimal point.
func lexNumber(input string, pos int) (Token, int) {
	var b strings.Builder
	i := pos
	seenDot := false
	for i < len(input) {
		ch := input[i]
		if isDigit(ch) {
			b.WriteByte(ch)
			i++
			continue
		}
		if ch == ',' {
			i++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			b.WriteByte(ch)
			i++
			continue
		}
		break
	}
	v, _ := strconv.ParseFloat(strings.TrimSuffix(b.String(), "."), 64)
	return Token{Type: TOKEN_NUMBER, Value: v, Pos: pos}, i
}

// lexCurrency handles a currency glyph immediately followed by a number.
// Returns ok=false when no number follows, in which case the glyph stands
// alone as an identifier.
func lexCurrency(input string, pos int, symbol string, numStart int) (Token, int, bool) {
	if numStart >= len(input) || !isDigit(input[numStart]) {
		return Token{}, 0, false
	}
	numTok, end := lexNumber(input, numStart)
	return Token{Type: TOKEN_CURRENCY, Value: numTok.Value, Text: symbol, Pos: pos}, end, true
}

// foldWord maps a lowercased word through the keyword tables, appending the
// resulting token(s). "square" triggers one word of lookahead for "root".
func foldWord(tokens []Token, input, word string, start, end int) ([]Token, int) {
	if tt, ok := keywordTokens[word]; ok {
		return append(tokens, Token{Type: tt, Text: word, Pos: start}), end
	}
	if k, ok := quantifierWords[word]; ok {
		tokens = append(tokens, Token{Type: TOKEN_NUMBER, Value: k, Pos: start})
		return append(tokens, Token{Type: TOKEN_STAR, Text: "*", Pos: start}), end
	}
	if functionWords[word] {
		return append(tokens, Token{Type: TOKEN_FUNC, Text: word, Pos: start}), end
	}
	switch word {
	case "squared":
		tokens = append(tokens, Token{Type: TOKEN_CARET, Text: "^", Pos: start})
		return append(tokens, Token{Type: TOKEN_NUMBER, Value: 2, Pos: start}), end
	case "cubed":
		tokens = append(tokens, Token{Type: TOKEN_CARET, Text: "^", Pos: start})
		return append(tokens, Token{Type: TOKEN_NUMBER, Value: 3, Pos: start}), end
	case "square":
		// "square root" folds into sqrt
		if next, nextEnd, ok := peekWord(input, end); ok && next == "root" {
			return append(tokens, Token{Type: TOKEN_FUNC, Text: "sqrt", Pos: start}), nextEnd
		}
	case "a", "an":
		// An article before a quantifier is noise: "a third of 60".
		if next, _, ok := peekWord(input, end); ok {
			if _, isQuant := quantifierWords[next]; isQuant {
				return tokens, end
			}
		}
	}
	return append(tokens, Token{Type: TOKEN_IDENT, Text: word, Pos: start}), end
}

// peekWord scans the next whitespace-separated word after pos.
func peekWord(input string, pos int) (string, int, bool) {
	i := pos
	for i < len(input) && (input[i] == ' ' || input[i] == '\t') {
		i++
	}
	if i >= len(input) || !isWordStart(input[i]) {
		return "", 0, false
	}
	start := i
	for i < len(input) && isWordContinue(input[i]) {
		i++
	}
	return strings.ToLower(input[start:i]), i, true
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isWordContinue(ch byte) bool {
	return isWordStart(ch) || isDigit(ch)
}
