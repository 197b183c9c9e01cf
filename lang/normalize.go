package lang

import "strings"

// Words the dropping heuristic must never remove: operator words, phrase
// keywords, quantifiers, function names, and aggregate keywords.
var reservedWords = map[string]bool{
	"to": true, "in": true, "of": true, "off": true, "as": true, "a": true,
	"plus": true, "and": true, "minus": true, "subtract": true,
	"times": true, "multiplied": true, "divided": true, "over": true, "by": true,
	"squared": true, "cubed": true,
	"half": true, "third": true, "quarter": true, "double": true, "triple": true,
	"square": true, "root": true,
	"sqrt": true, "sin": true, "cos": true, "tan": true, "log": true, "ln": true,
	"abs": true, "floor": true, "ceil": true, "round": true, "deg": true,
	"what": true, "is": true,
	"sum": true, "total": true, "average": true, "avg": true, "count": true,
}

// normalize rewrites one line of natural-language input into a form the
// tokenizer handles deterministically. The pass is idempotent: normalizing
// an already-normalized line changes nothing.
func (e *Evaluator) normalize(line string) string {
	fields := strings.Fields(line)

	// Word operators become symbols.
	out := fields[:0:0]
	for i := 0; i < len(fields); i++ {
		switch strings.ToLower(fields[i]) {
		case "plus":
			out = append(out, "+")
		case "minus":
			out = append(out, "-")
		case "times":
			out = append(out, "*")
		case "divided":
			out = append(out, "/")
			if i+1 < len(fields) && strings.EqualFold(fields[i+1], "by") {
				i++
			}
		default:
			out = append(out, fields[i])
		}
	}
	fields = out

	// A standalone x between two numbers is multiplication.
	for i := 1; i < len(fields)-1; i++ {
		if strings.EqualFold(fields[i], "x") && isNumericField(fields[i-1]) && isNumericField(fields[i+1]) {
			fields[i] = "*"
		}
	}

	// "for|on|from <words...>" up to the next operator or end is noise:
	// "$20 for lunch + $10 for dinner" → "$20 + $10".
	out = fields[:0:0]
	for i := 0; i < len(fields); i++ {
		switch strings.ToLower(fields[i]) {
		case "for", "on", "from":
			for i+1 < len(fields) && !isOperatorField(fields[i+1]) {
				i++
			}
		default:
			out = append(out, fields[i])
		}
	}
	fields = out

	// Drop a word that directly follows a number unless it is itself a
	// number, operator, currency glyph, keyword, known unit, or known
	// variable. This discards descriptive nouns ("2 apples + 3 apples").
	// Everything left of an '=' is exempt so variable names survive.
	eqIdx := -1
	for i, f := range fields {
		if strings.Contains(f, "=") {
			eqIdx = i
			break
		}
	}
	out = fields[:0:0]
	lastKeptNumeric := false
	for i, f := range fields {
		if i > eqIdx && lastKeptNumeric && e.isDroppableWord(f) {
			continue
		}
		if i == eqIdx {
			lastKeptNumeric = false
		} else {
			lastKeptNumeric = isNumericField(f)
		}
		out = append(out, f)
	}

	return strings.Join(out, " ")
}

// isDroppableWord reports whether a field is a bare word with no meaning to
// the calculator: not numeric, not an operator, no currency glyph, not a
// keyword, unit, or bound variable.
func (e *Evaluator) isDroppableWord(f string) bool {
	if isNumericField(f) || isOperatorField(f) || hasCurrencyGlyph(f) {
		return false
	}
	// Anything carrying digits, parentheses, or a percent sign is
	// expression material, not a noun: "(8)" in "log 2 (8)".
	if strings.ContainsAny(f, "0123456789()%") {
		return false
	}
	lower := strings.ToLower(f)
	if reservedWords[lower] {
		return false
	}
	if e.units.IsUnit(lower) {
		return false
	}
	if _, bound := e.vars[lower]; bound {
		return false
	}
	if e.crypto != nil && e.crypto.IsCrypto(lower) {
		return false
	}
	return true
}

// isNumericField reports whether a field starts with a digit, optionally
// behind a sign or currency glyph ("100", "$1,200", "-3.5", "50%").
func isNumericField(f string) bool {
	f = strings.TrimPrefix(f, "-")
	f = trimCurrencyGlyph(f)
	return f != "" && f[0] >= '0' && f[0] <= '9'
}

func isOperatorField(f string) bool {
	switch f {
	case "+", "-", "*", "/", "^", "%", "=":
		return true
	}
	switch strings.ToLower(f) {
	case "plus", "minus", "times", "divided", "over":
		return true
	}
	return false
}

func hasCurrencyGlyph(f string) bool {
	return f != trimCurrencyGlyph(f)
}

func trimCurrencyGlyph(f string) string {
	for _, glyph := range []string{"$", "€", "£", "¥"} {
		if strings.HasPrefix(f, glyph) {
			return strings.TrimPrefix(f, glyph)
		}
	}
	return f
}
