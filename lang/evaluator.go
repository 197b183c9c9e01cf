package lang

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CryptoSource supplies crypto asset prices. PriceInUSD may trigger an
// asynchronous fetch as a side effect on a cache miss; while the fetch is in
// flight IsFetching reports true and the evaluator surfaces "Loading..."
// instead of blocking.
type CryptoSource interface {
	IsCrypto(symbol string) bool
	IsFetching(symbol string) bool
	PriceInUSD(symbol string) (float64, bool)
	ToUSD(amount float64, symbol string) (float64, bool)
	FromUSD(amount float64, symbol string) (float64, bool)
	Symbol(symbol string) string
}

// LoadingText is the distinguished text result meaning "this line depends on
// an exchange rate that has not arrived yet". Callers re-evaluate later.
const LoadingText = "Loading..."

// errPending marks a pending rate inside the tree walk; it surfaces as a
// text result, not an error.
var errPending = &EvalError{Msg: LoadingText}

// ResultKind discriminates EvaluationResult variants.
type ResultKind int

const (
	ResultNumber ResultKind = iota
	ResultText
	ResultError
)

// EvaluationResult is the line-level output of Evaluate.
type EvaluationResult struct {
	Kind                 ResultKind
	Value                float64
	Unit                 *Unit
	IsCurrencyConversion bool
	IsAggregate          bool
	Text                 string
}

func numberResult(v Value) *EvaluationResult {
	return &EvaluationResult{
		Kind:                 ResultNumber,
		Value:                v.Number,
		Unit:                 v.Unit,
		IsCurrencyConversion: v.IsCurrencyConversion,
	}
}

func aggregateResult(v Value) *EvaluationResult {
	r := numberResult(v)
	r.IsAggregate = true
	return r
}

func textResult(s string) *EvaluationResult {
	return &EvaluationResult{Kind: ResultText, Text: s}
}

func errorResult(msg string) *EvaluationResult {
	return &EvaluationResult{Kind: ResultError, Text: msg}
}

func resultForErr(err error) *EvaluationResult {
	if err == errPending {
		return textResult(LoadingText)
	}
	return errorResult(err.Error())
}

// Evaluator evaluates a document line by line, carrying variable bindings,
// the section aggregate buffer, and block-comment state across lines. One
// evaluator per open document; it is not safe for concurrent use.
type Evaluator struct {
	units  *UnitRegistry
	crypto CryptoSource

	vars                 map[string]Value
	sectionValues        []Value
	sectionCurrencyOrder []string
	inBlockComment       bool
}

// NewEvaluator creates an evaluator bound to a unit registry and an optional
// crypto price source.
func NewEvaluator(units *UnitRegistry, crypto CryptoSource) *Evaluator {
	return &Evaluator{
		units:  units,
		crypto: crypto,
		vars:   make(map[string]Value),
	}
}

// Reset clears all session state. A full document re-evaluation calls Reset
// first and then replays every line in order.
func (e *Evaluator) Reset() {
	e.vars = make(map[string]Value)
	e.sectionValues = nil
	e.sectionCurrencyOrder = nil
	e.inBlockComment = false
}

var (
	reversePctRe = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*%\s+of\s+what\s+is\s+(.+)$`)
	convPhraseRe = regexp.MustCompile(`(?i)^\s*([$€£¥]?)(\d[\d,]*(?:\.\d+)?)\s*([a-z]+)?\s+(?:to|in|as)\s+([a-z]+)\s*$`)
)

// Evaluate evaluates one line of the document. A nil result means the line
// has nothing to show (blank, comment, unparsable text); errors are per-line
// and never abort the document.
func (e *Evaluator) Evaluate(line string) *EvaluationResult {
	// Block comment state machine.
	if e.inBlockComment {
		idx := strings.Index(line, "*/")
		if idx < 0 {
			return nil
		}
		e.inBlockComment = false
		if strings.TrimSpace(line[idx+2:]) == "" {
			return nil
		}
		return e.Evaluate(line[idx+2:])
	}

	// A blank line is a section boundary: the aggregate buffer resets.
	// Only a genuinely blank line counts; a line emptied by comment
	// stripping below leaves the section alone.
	if strings.TrimSpace(line) == "" {
		e.sectionValues = nil
		e.sectionCurrencyOrder = nil
		return nil
	}

	for {
		open := strings.Index(line, "/*")
		if open < 0 {
			break
		}
		rest := strings.Index(line[open+2:], "*/")
		if rest < 0 {
			// Unmatched opener: evaluate the text before it, stay in the
			// comment on following lines.
			e.inBlockComment = true
			line = line[:open]
			break
		}
		line = line[:open] + " " + line[open+2+rest+2:]
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}

	// Line comments and headings.
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
		return nil
	}
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
		if strings.TrimSpace(line) == "" {
			return nil
		}
	}

	// Reverse percentage: "25% of what is 75" → 300.
	if m := reversePctRe.FindStringSubmatch(line); m != nil {
		return e.reversePercent(m[1], m[2])
	}

	line = e.normalize(line)

	if res := e.tryAggregate(line); res != nil {
		return res
	}
	if res := e.tryShortcut(line); res != nil {
		return res
	}
	if res := e.tryConversionPhrase(line); res != nil {
		return res
	}

	// A line with no digit, operator, or currency glyph is pure text.
	if !strings.ContainsAny(line, "0123456789+-*/^%=$€£¥") {
		return nil
	}

	node := Parse(Lex(line), e.units)
	if node == nil {
		return nil
	}
	val, err := e.evalNode(node)
	if err != nil {
		return resultForErr(err)
	}
	if _, isAssign := node.(*Assignment); !isAssign {
		e.pushSection(val)
	}
	return numberResult(val)
}

// reversePercent answers "<pct>% of what is <value>": the number whose pct%
// equals value, preserving value's unit.
func (e *Evaluator) reversePercent(pctStr, expr string) *EvaluationResult {
	pct, err := strconv.ParseFloat(pctStr, 64)
	if err != nil {
		return nil
	}
	val, evalErr, ok := e.evalText(expr)
	if !ok {
		return nil
	}
	if evalErr != nil {
		return resultForErr(evalErr)
	}
	out := valDiv(val, Value{Number: pct / 100})
	e.pushSection(out)
	return numberResult(out)
}

// evalText runs the expression path (normalize, lex, parse, walk) on a text
// fragment without section-buffer side effects. ok=false means no parse.
func (e *Evaluator) evalText(text string) (Value, error, bool) {
	node := Parse(Lex(e.normalize(text)), e.units)
	if node == nil {
		return Value{}, nil, false
	}
	val, err := e.evalNode(node)
	return val, err, true
}

// pushSection appends a value to the section aggregate buffer and records
// first-seen currency order.
func (e *Evaluator) pushSection(v Value) {
	e.sectionValues = append(e.sectionValues, v)
	if v.Unit != nil && v.Unit.Category == UnitCurrency {
		e.recordCurrency(v.Unit)
	}
}

func (e *Evaluator) recordCurrency(u *Unit) {
	for _, name := range e.sectionCurrencyOrder {
		if name == u.Name {
			return
		}
	}
	e.sectionCurrencyOrder = append(e.sectionCurrencyOrder, u.Name)
}

// aggKind canonicalizes an aggregate keyword, or returns "".
func aggKind(word string) string {
	switch word {
	case "sum", "total":
		return "sum"
	case "average", "avg":
		return "average"
	case "count":
		return "count"
	}
	return ""
}

// tryAggregate recognizes the aggregate forms:
//
//	sum | total | average | avg | count
//	sum in EUR
//	subtotal = sum
//	subtotal = sum in EUR
//	subtotal sum
//
// Assignment forms bind the variable and append the result to the section
// buffer; bare forms only report.
func (e *Evaluator) tryAggregate(line string) *EvaluationResult {
	spaced := strings.ReplaceAll(line, "=", " = ")
	fields := strings.Fields(strings.ToLower(spaced))

	name := ""
	rest := fields
	switch {
	case len(fields) >= 3 && fields[1] == "=":
		name = fields[0]
		rest = fields[2:]
	case len(fields) == 2 && aggKind(fields[0]) == "" && aggKind(fields[1]) != "":
		name = fields[0]
		rest = fields[1:]
	}

	kind := ""
	var target *Unit
	switch len(rest) {
	case 1:
		kind = aggKind(rest[0])
	case 3:
		if rest[1] != "in" && rest[1] != "to" {
			return nil
		}
		kind = aggKind(rest[0])
		if kind == "count" {
			return nil
		}
		target = e.units.Unit(rest[2])
		if target == nil || target.Category != UnitCurrency {
			return nil
		}
	default:
		return nil
	}
	if kind == "" {
		return nil
	}
	if name != "" && (reservedWords[name] || e.units.IsUnit(name)) {
		return nil
	}

	var val Value
	if kind == "count" {
		val = Value{Number: float64(len(e.sectionValues))}
	} else {
		val = e.sectionAggregate(kind, target)
	}
	if name != "" {
		e.vars[name] = val
		e.pushSection(val)
	}
	return aggregateResult(val)
}

// sectionAggregate sums the section buffer. Currency-bearing values convert
// to the target currency (the most frequent one in the section when no
// explicit target is given, ties broken by first appearance); other values
// add directly. Average divides by the buffer length, 0 when empty.
func (e *Evaluator) sectionAggregate(kind string, target *Unit) Value {
	if target == nil {
		target = e.defaultCurrency()
	}
	var sum float64
	for _, v := range e.sectionValues {
		if target != nil && v.Unit != nil && v.Unit.Category == UnitCurrency {
			sum += e.units.Convert(v.Number, v.Unit, target)
		} else {
			sum += v.Number
		}
	}
	if kind == "average" {
		if len(e.sectionValues) == 0 {
			return Value{Unit: target}
		}
		sum /= float64(len(e.sectionValues))
	}
	return Value{Number: sum, Unit: target}
}

// defaultCurrency picks the aggregate target: the currency occurring most
// often among the section's values, ties broken by the order currencies
// first appeared.
func (e *Evaluator) defaultCurrency() *Unit {
	counts := make(map[string]int)
	for _, v := range e.sectionValues {
		if v.Unit != nil && v.Unit.Category == UnitCurrency {
			counts[v.Unit.Name]++
		}
	}
	best := ""
	for _, name := range e.sectionCurrencyOrder {
		if counts[name] > counts[best] {
			best = name
		}
	}
	if best == "" {
		return nil
	}
	return e.units.Unit(best)
}

// tryShortcut recognizes single-variable lines, variable conversions, and
// literal crypto amounts.
func (e *Evaluator) tryShortcut(line string) *EvaluationResult {
	fields := strings.Fields(strings.ToLower(line))

	switch len(fields) {
	case 1:
		// A lone bound variable re-adds its value to the section.
		if v, ok := e.vars[fields[0]]; ok {
			e.pushSection(v)
			return numberResult(v)
		}
		// The built-in constants behave like variables, bindings shadow
		// them.
		switch fields[0] {
		case "pi":
			v := Value{Number: math.Pi}
			e.pushSection(v)
			return numberResult(v)
		case "e":
			v := Value{Number: math.E}
			e.pushSection(v)
			return numberResult(v)
		}

	case 2:
		// "<amount> <cryptoSymbol>" converts a literal amount to USD.
		if e.crypto == nil || !e.crypto.IsCrypto(fields[1]) {
			return nil
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
		if err != nil {
			return nil
		}
		return e.cryptoToUSD(amount, fields[1])

	case 3:
		// "<var> in|as|to <unit>" converts a bound variable.
		v, bound := e.vars[fields[0]]
		if !bound || !isConvWord(fields[1]) {
			return nil
		}
		out, err := e.convertValue(v, fields[2])
		if err != nil {
			return resultForErr(err)
		}
		e.pushSection(out)
		return numberResult(out)
	}
	return nil
}

func isConvWord(w string) bool {
	return w == "in" || w == "as" || w == "to"
}

func (e *Evaluator) cryptoToUSD(amount float64, symbol string) *EvaluationResult {
	usd, ok := e.crypto.ToUSD(amount, symbol)
	if !ok {
		if e.crypto.IsFetching(symbol) {
			return textResult(LoadingText)
		}
		return errorResult("no price available for " + symbol)
	}
	val := Value{Number: usd, Unit: e.units.Unit("usd")}
	e.pushSection(val)
	return numberResult(val)
}

// tryConversionPhrase recognizes "<amount>[<sourceUnit>] to|in|as <target>":
// a leading currency glyph, crypto on either side (via the USD pivot), or a
// plain unit-to-unit conversion.
func (e *Evaluator) tryConversionPhrase(line string) *EvaluationResult {
	m := convPhraseRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	glyph, numStr := m[1], m[2]
	srcWord := strings.ToLower(m[3])
	target := strings.ToLower(m[4])

	amount, err := strconv.ParseFloat(strings.ReplaceAll(numStr, ",", ""), 64)
	if err != nil {
		return nil
	}

	switch {
	case glyph != "":
		src := e.units.CurrencyForGlyph(glyph)
		out, err := e.convertValue(Value{Number: amount, Unit: src}, target)
		if err != nil {
			return resultForErr(err)
		}
		e.pushSection(out)
		return numberResult(out)

	case srcWord != "" && e.crypto != nil && e.crypto.IsCrypto(srcWord):
		return e.convertFromCrypto(amount, srcWord, target)

	case srcWord != "" && e.units.IsUnit(srcWord):
		src := e.units.Unit(srcWord)
		out, err := e.convertValue(Value{Number: amount, Unit: src}, target)
		if err != nil {
			return resultForErr(err)
		}
		e.pushSection(out)
		return numberResult(out)
	}
	return nil
}

// convertFromCrypto converts a crypto amount to another crypto asset or a
// fiat currency, always pivoting through USD.
func (e *Evaluator) convertFromCrypto(amount float64, symbol, target string) *EvaluationResult {
	usd, ok := e.crypto.ToUSD(amount, symbol)
	if !ok {
		if e.crypto.IsFetching(symbol) {
			return textResult(LoadingText)
		}
		return errorResult("no price available for " + symbol)
	}
	if e.crypto.IsCrypto(target) {
		out, ok := e.crypto.FromUSD(usd, target)
		if !ok {
			if e.crypto.IsFetching(target) {
				return textResult(LoadingText)
			}
			return errorResult("no price available for " + target)
		}
		val := Value{Number: out}
		e.pushSection(val)
		return numberResult(val)
	}
	to := e.units.Unit(target)
	if to == nil || to.Category != UnitCurrency {
		return resultForErr(e.unknownUnit(target))
	}
	val := Value{Number: e.units.Convert(usd, e.units.Unit("usd"), to), Unit: to}
	e.pushSection(val)
	return numberResult(val)
}
