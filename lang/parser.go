package lang

import "math"

// Parser holds the state for parsing a token stream. Backtracking is done
// with explicit position save/restore.
type Parser struct {
	tokens []Token
	pos    int
	units  *UnitRegistry
}

// Parse builds an AST from a token slice. A nil return means the tokens do
// not form an expression; that is a silent condition, not an error. Trailing
// tokens that survive natural-language cleanup are ignored.
func Parse(tokens []Token, units *UnitRegistry) Node {
	p := &Parser{tokens: tokens, units: units}

	// assignment := identifier '=' expression
	if p.peek().Type == TOKEN_IDENT && p.peekAt(1).Type == TOKEN_EQUALS {
		name := p.advance().Text
		p.advance() // consume '='
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		return &Assignment{Name: name, Expr: expr}
	}

	return p.parseExpression()
}

func (p *Parser) peek() Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: TOKEN_EOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

// parseExpression: term (('+'|'-') [percentTerm | term])*
//
// After '+' or '-' the parser first tries a percentage term (primary '%'),
// rolling back on failure. Success yields the PercentageAdd/Subtract idiom
// ("100 + 10%" = 110), failure falls back to plain addition.
func (p *Parser) parseExpression() Node {
	left := p.parseTerm()
	if left == nil {
		return nil
	}

	for p.peek().Type == TOKEN_PLUS || p.peek().Type == TOKEN_MINUS {
		isPlus := p.advance().Type == TOKEN_PLUS

		save := p.pos
		if pct := p.parsePrimary(); pct != nil && p.peek().Type == TOKEN_PERCENT {
			p.advance() // consume '%'
			op := OpPercentSubtract
			if isPlus {
				op = OpPercentAdd
			}
			left = &BinaryExpr{Op: op, Left: left, Right: pct}
			continue
		}
		p.pos = save

		right := p.parseTerm()
		if right == nil {
			return nil
		}
		op := OpSubtract
		if isPlus {
			op = OpAdd
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left
}

// parseTerm: power (('*'|'/'|Of) power)*
//
// "of" acts as multiplication here, which covers "half of x" (the lexer
// expands "half" to 0.5 *) and "a third of 60".
func (p *Parser) parseTerm() Node {
	left := p.parsePower()
	if left == nil {
		return nil
	}

	for {
		var op BinaryOperator
		switch p.peek().Type {
		case TOKEN_STAR, TOKEN_OF:
			op = OpMultiply
		case TOKEN_SLASH:
			op = OpDivide
		default:
			return left
		}
		p.advance()
		// Quantifier expansions leave "* of" sequences ("half of 10"
		// lexes to 0.5 * of 10); fold the redundant "of" away.
		if op == OpMultiply {
			for p.peek().Type == TOKEN_OF {
				p.advance()
			}
		}
		right := p.parsePower()
		if right == nil {
			return nil
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// parsePower: unary ('^' unary)*
func (p *Parser) parsePower() Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.peek().Type == TOKEN_CARET {
		p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &BinaryExpr{Op: OpPower, Left: left, Right: right}
	}
	return left
}

// parseUnary: '-' unary | postfix
func (p *Parser) parseUnary() Node {
	if p.peek().Type == TOKEN_MINUS {
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &UnaryExpr{Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix: primary ['%' [Off expression | Of expression]]
//
//	['as' ['a'] '%' 'of' expression]
//	[unitName ['to' unitName]]
func (p *Parser) parsePostfix() Node {
	node := p.parsePrimary()
	if node == nil {
		return nil
	}

	if p.peek().Type == TOKEN_PERCENT {
		p.advance()
		switch p.peek().Type {
		case TOKEN_OFF:
			p.advance()
			target := p.parseExpression()
			if target == nil {
				return nil
			}
			return &PercentOffExpr{Pct: node, Target: target}
		case TOKEN_OF:
			p.advance()
			target := p.parseExpression()
			if target == nil {
				return nil
			}
			return &PercentOfExpr{Pct: node, Target: target}
		default:
			node = &PercentExpr{Expr: node}
		}
	}

	// "X as a % of Y" — takes priority over a unit suffix.
	if p.peek().Type == TOKEN_ASA {
		save := p.pos
		p.advance()
		if p.peek().Type == TOKEN_IDENT && p.peek().Text == "a" {
			p.advance()
		}
		if p.peek().Type == TOKEN_PERCENT {
			p.advance()
			if p.peek().Type == TOKEN_OF {
				p.advance()
				if denom := p.parseExpression(); denom != nil {
					return &AsPercentOfExpr{Num: node, Denom: denom}
				}
			}
		}
		p.pos = save
	}

	// A trailing identifier that the registry recognizes is a unit suffix;
	// "to" right after it makes an explicit conversion. The target does not
	// need to be a known unit — unknown targets fail at evaluation time.
	if p.peek().Type == TOKEN_IDENT && p.units.IsUnit(p.peek().Text) {
		unitName := p.advance().Text
		node = &UnitExpr{Expr: node, Unit: unitName}
		if p.peek().Type == TOKEN_TO && p.peekAt(1).Type == TOKEN_IDENT {
			p.advance() // consume 'to'
			target := p.advance().Text
			node = &ConvExpr{Expr: node, Target: target}
		}
	}

	return node
}

// parsePrimary: number ['deg'] | currency | function | identifier | '(' expression ')'
func (p *Parser) parsePrimary() Node {
	tok := p.peek()

	switch tok.Type {
	case TOKEN_NUMBER:
		p.advance()
		v := tok.Value
		// The ° glyph lexes to a "deg" marker: convert to radians so the
		// trig functions work on degree input.
		if p.peek().Type == TOKEN_IDENT && p.peek().Text == "deg" {
			p.advance()
			v = v * math.Pi / 180
		}
		return &NumberLit{Value: v}

	case TOKEN_CURRENCY:
		p.advance()
		return &CurrencyLit{Symbol: tok.Text, Value: tok.Value}

	case TOKEN_FUNC:
		return p.parseFuncCall()

	case TOKEN_IDENT:
		p.advance()
		return &VarRef{Name: tok.Text}

	case TOKEN_LPAREN:
		p.advance()
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		if p.peek().Type != TOKEN_RPAREN {
			return nil
		}
		p.advance()
		return expr

	default:
		return nil
	}
}

// parseFuncCall: FUNC ['of'] (primary | base primary)
//
// The argument may be parenthesized or a bare primary ("sqrt 9"). A leading
// "of" is skipped so "square root of 9" works. log alone accepts a leading
// numeric base: "log 2 (8)" is the base-2 logarithm of 8.
func (p *Parser) parseFuncCall() Node {
	name := p.advance().Text
	if p.peek().Type == TOKEN_OF {
		p.advance()
	}
	if name == "log" && p.peek().Type == TOKEN_NUMBER && startsPrimary(p.peekAt(1)) {
		base := p.advance()
		arg := p.parsePrimary()
		if arg == nil {
			return nil
		}
		return &FuncCall2{Name: name, Arg1: &NumberLit{Value: base.Value}, Arg2: arg}
	}
	arg := p.parsePrimary()
	if arg == nil {
		return nil
	}
	return &FuncCall{Name: name, Arg: arg}
}

func startsPrimary(tok Token) bool {
	switch tok.Type {
	case TOKEN_NUMBER, TOKEN_CURRENCY, TOKEN_FUNC, TOKEN_IDENT, TOKEN_LPAREN:
		return true
	}
	return false
}
