package lang

import (
	"math"
	"strings"
	"testing"
)

// fakeCrypto is a deterministic CryptoSource: fixed prices, explicit
// fetching state, no goroutines.
type fakeCrypto struct {
	prices   map[string]float64
	fetching map[string]bool
}

func (f *fakeCrypto) known(s string) bool {
	s = strings.ToLower(s)
	_, p := f.prices[s]
	return p || f.fetching[s]
}

func (f *fakeCrypto) IsCrypto(s string) bool   { return f.known(s) }
func (f *fakeCrypto) IsFetching(s string) bool { return f.fetching[strings.ToLower(s)] }

func (f *fakeCrypto) PriceInUSD(s string) (float64, bool) {
	p, ok := f.prices[strings.ToLower(s)]
	return p, ok
}

func (f *fakeCrypto) ToUSD(amount float64, s string) (float64, bool) {
	p, ok := f.PriceInUSD(s)
	if !ok {
		return 0, false
	}
	return amount * p, true
}

func (f *fakeCrypto) FromUSD(amount float64, s string) (float64, bool) {
	p, ok := f.PriceInUSD(s)
	if !ok || p == 0 {
		return 0, false
	}
	return amount / p, true
}

func (f *fakeCrypto) Symbol(s string) string { return strings.ToUpper(s) }

func newTestEvaluator() *Evaluator {
	return NewEvaluator(NewUnitRegistry(), nil)
}

// evalValue evaluates one line and returns its numeric value, failing the
// test on anything but a number result.
func evalValue(t *testing.T, e *Evaluator, line string) float64 {
	t.Helper()
	res := e.Evaluate(line)
	if res == nil {
		t.Fatalf("Evaluate(%q) = nil", line)
	}
	if res.Kind != ResultNumber {
		t.Fatalf("Evaluate(%q) = %+v, want a number", line, res)
	}
	return res.Value
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"18 + 23", 41},
		{"6 times 7", 42},
		{"6 * 7", 42},
		{"100 / 4", 25},
		{"2 ^ 10", 1024},
		{"(1 + 2) * 3", 9},
		{"-5 + 8", 3},
		{"1,000,000 / 1,000", 1000},
		{"half of 10", 5},
		{"a third of 60", 20},
		{"double 8", 16},
		{"3 squared", 9},
		{"2 cubed", 8},
		{"3 x 4", 12},
		{"10 plus 5 minus 3", 12},
		{"20 divided by 4", 5},
		{"sqrt(16)", 4},
		{"square root of 9", 3},
		{"abs(-7)", 7},
		{"floor(3.9)", 3},
		{"ceil(3.1)", 4},
		{"round(2.5)", 3},
		{"ln(1)", 0},
		{"log(100)", 2},
	}

	for _, tt := range tests {
		e := newTestEvaluator()
		if got := evalValue(t, e, tt.input); !approx(got, tt.want) {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateTrig(t *testing.T) {
	e := newTestEvaluator()
	if got := evalValue(t, e, "sin(90°)"); math.Abs(got-1) > 1e-12 {
		t.Errorf("sin(90°) = %v, want 1", got)
	}
	if got := evalValue(t, e, "cos(0)"); got != 1 {
		t.Errorf("cos(0) = %v, want 1", got)
	}
	if got := evalValue(t, e, "log 2 (8)"); math.Abs(got-3) > 1e-9 {
		t.Errorf("log 2 (8) = %v, want 3", got)
	}
}

func TestEvaluateConstants(t *testing.T) {
	e := newTestEvaluator()
	if got := evalValue(t, e, "pi * 2"); !approx(got, 2*math.Pi) {
		t.Errorf("pi * 2 = %v", got)
	}
	if got := evalValue(t, e, "pi"); got != math.Pi {
		t.Errorf("lone pi = %v, want %v", got, math.Pi)
	}
	if got := evalValue(t, e, "e"); got != math.E {
		// "e" is only the constant while unbound
		t.Errorf("e = %v, want %v", got, math.E)
	}
	e.Evaluate("e = 99")
	if got := evalValue(t, e, "e"); got != 99 {
		t.Errorf("after binding, e = %v, want 99", got)
	}
}

func TestEvaluateVariables(t *testing.T) {
	e := newTestEvaluator()

	if got := evalValue(t, e, "x = 10"); got != 10 {
		t.Fatalf("x = 10 gave %v", got)
	}
	if got := evalValue(t, e, "x + 5"); got != 15 {
		t.Errorf("x + 5 = %v, want 15", got)
	}
	if got := evalValue(t, e, "x"); got != 10 {
		t.Errorf("lone x = %v, want 10", got)
	}

	// Assignments reuse earlier bindings.
	e.Evaluate("y = x * 2")
	if got := evalValue(t, e, "y"); got != 20 {
		t.Errorf("y = %v, want 20", got)
	}
}

func TestEvaluateUnknownVariable(t *testing.T) {
	e := newTestEvaluator()
	e.Evaluate("coffee = 4.50")

	res := e.Evaluate("coffe + 1")
	if res == nil || res.Kind != ResultError {
		t.Fatalf("got %+v, want error result", res)
	}
	if !strings.Contains(res.Text, "did you mean coffee") {
		t.Errorf("error = %q, want a coffee suggestion", res.Text)
	}

	res = e.Evaluate("zzz + 1")
	if res == nil || res.Kind != ResultError {
		t.Fatalf("got %+v, want error result", res)
	}
	if strings.Contains(res.Text, "did you mean") {
		t.Errorf("error = %q, want no suggestion", res.Text)
	}
}

func TestEvaluatePercentages(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"100 + 10%", 110},
		{"200 + 10 %", 220},
		{"100 - 10%", 90},
		{"100 - 10 %", 90},
		{"80 + 25%", 100},
		{"20% of 50", 10},
		{"10% off 100", 90},
		{"5 as a % of 10", 50},
		{"50%", 0.5},
	}
	for _, tt := range tests {
		e := newTestEvaluator()
		if got := evalValue(t, e, tt.input); !approx(got, tt.want) {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluatePercentagesWithCurrency(t *testing.T) {
	e := newTestEvaluator()

	res := e.Evaluate("10% off $100")
	if res.Value != 90 || res.Unit == nil || res.Unit.Name != "USD" {
		t.Errorf("10%% off $100 = %+v, want $90", res)
	}

	res = e.Evaluate("$5 as a % of $10")
	if res.Value != 50 || res.Unit != nil {
		t.Errorf("$5 as a %% of $10 = %+v, want bare 50", res)
	}
}

func TestEvaluateReversePercent(t *testing.T) {
	e := newTestEvaluator()

	if got := evalValue(t, e, "25% of what is 75"); !approx(got, 300) {
		t.Errorf("25%% of what is 75 = %v, want 300", got)
	}

	res := e.Evaluate("10% of what is $20")
	if !approx(res.Value, 200) || res.Unit == nil || res.Unit.Name != "USD" {
		t.Errorf("10%% of what is $20 = %+v, want $200", res)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	e := newTestEvaluator()
	res := e.Evaluate("10 / 0")
	if res == nil || res.Kind != ResultNumber || !math.IsNaN(res.Value) {
		t.Fatalf("10 / 0 = %+v, want NaN number", res)
	}
	if got := Format(res); got != "error" {
		t.Errorf("Format(10/0) = %q, want error", got)
	}

	res = e.Evaluate("5 as a % of 0")
	if !math.IsNaN(res.Value) {
		t.Errorf("5 as a %% of 0 = %v, want NaN", res.Value)
	}
}

func TestEvaluateUnits(t *testing.T) {
	e := newTestEvaluator()

	res := e.Evaluate("2 km to m")
	if !approx(res.Value, 2000) || res.Unit == nil || res.Unit.Name != "meters" {
		t.Fatalf("2 km to m = %+v", res)
	}

	res = e.Evaluate("100 c to f")
	if !approx(res.Value, 212) || res.Unit.Name != "fahrenheit" {
		t.Errorf("100 c to f = %+v, want 212 °F", res)
	}

	// Addition keeps the left unit and never converts.
	res = e.Evaluate("2 km + 3 km")
	if res.Value != 5 || res.Unit.Name != "kilometers" {
		t.Errorf("2 km + 3 km = %+v, want 5 km", res)
	}

	// Cross-category conversion is NaN, not an abort.
	res = e.Evaluate("2 km to kg")
	if res.Kind != ResultNumber || !math.IsNaN(res.Value) {
		t.Errorf("2 km to kg = %+v, want NaN", res)
	}

	// Unknown target unit errors with a suggestion.
	res = e.Evaluate("2 km to milez")
	if res.Kind != ResultError || !strings.Contains(res.Text, "unknown unit") {
		t.Errorf("2 km to milez = %+v, want unknown unit error", res)
	}
}

func TestEvaluateVariableConversion(t *testing.T) {
	e := newTestEvaluator()
	e.Evaluate("d = 100 cm")

	res := e.Evaluate("d in meters")
	if !approx(res.Value, 1) || res.Unit == nil || res.Unit.Name != "meters" {
		t.Errorf("d in meters = %+v, want 1 m", res)
	}
}

func TestEvaluateCurrencyConversion(t *testing.T) {
	e := newTestEvaluator()

	res := e.Evaluate("€100 to usd")
	if !approx(res.Value, 108) || res.Unit.Name != "USD" {
		t.Fatalf("€100 to usd = %+v", res)
	}
	if !res.IsCurrencyConversion {
		t.Error("IsCurrencyConversion = false, want true")
	}

	// Unit conversions are not flagged as currency conversions.
	res = e.Evaluate("2 km to m")
	if res.IsCurrencyConversion {
		t.Error("2 km to m flagged as currency conversion")
	}
}

func TestEvaluateCSSUnits(t *testing.T) {
	e := newTestEvaluator()

	res := e.Evaluate("72pt to px")
	if !approx(res.Value, 96) || res.Unit.Name != "px" {
		t.Fatalf("72pt to px = %+v, want 96 px", res)
	}

	// "em = 14px" rebases em without creating a variable.
	e.Evaluate("em = 14px")
	res = e.Evaluate("1 em to px")
	if !approx(res.Value, 14) {
		t.Errorf("after rebase, 1 em = %v px, want 14", res.Value)
	}
	if res := e.Evaluate("em + 1"); res == nil || res.Kind != ResultError {
		t.Errorf("em used as variable = %+v, want unknown variable", res)
	}
}

func TestEvaluateSections(t *testing.T) {
	e := newTestEvaluator()

	e.Evaluate("$20 for lunch")
	e.Evaluate("$30 for dinner")

	res := e.Evaluate("sum")
	if !res.IsAggregate || res.Value != 50 || res.Unit.Name != "USD" {
		t.Fatalf("sum = %+v, want $50", res)
	}

	res = e.Evaluate("count")
	if res.Value != 2 {
		t.Errorf("count = %v, want 2", res.Value)
	}

	// Blank line resets the section.
	e.Evaluate("")
	res = e.Evaluate("count")
	if res.Value != 0 {
		t.Errorf("count after blank line = %v, want 0", res.Value)
	}
}

func TestEvaluateAggregateAssignment(t *testing.T) {
	e := newTestEvaluator()

	e.Evaluate("$20")
	e.Evaluate("$30")
	res := e.Evaluate("subtotal = sum")
	if res.Value != 50 {
		t.Fatalf("subtotal = sum gave %v", res.Value)
	}

	// The bound aggregate joined the section, so the next sum sees it.
	res = e.Evaluate("sum")
	if res.Value != 100 {
		t.Errorf("second sum = %v, want 100", res.Value)
	}
	if got := evalValue(t, e, "subtotal"); got != 50 {
		t.Errorf("subtotal = %v, want 50", got)
	}
}

func TestEvaluateAggregateDefaultCurrency(t *testing.T) {
	e := newTestEvaluator()

	// EUR occurs most often, so the aggregate converts into EUR.
	e.Evaluate("€10")
	e.Evaluate("€20")
	e.Evaluate("$108")
	res := e.Evaluate("sum")
	if res.Unit == nil || res.Unit.Name != "EUR" {
		t.Fatalf("sum = %+v, want EUR", res)
	}
	if !approx(res.Value, 130) { // 10 + 20 + 108/1.08
		t.Errorf("sum = %v, want 130", res.Value)
	}

	// A tie goes to the currency seen first.
	e.Evaluate("")
	e.Evaluate("$5")
	e.Evaluate("€5")
	res = e.Evaluate("sum")
	if res.Unit == nil || res.Unit.Name != "USD" {
		t.Errorf("tied sum = %+v, want USD", res)
	}
}

func TestEvaluateAggregateExplicitCurrency(t *testing.T) {
	e := newTestEvaluator()
	e.Evaluate("$108")
	res := e.Evaluate("sum in eur")
	if res.Unit == nil || res.Unit.Name != "EUR" || !approx(res.Value, 100) {
		t.Errorf("sum in eur = %+v, want €100", res)
	}
}

func TestEvaluateAverage(t *testing.T) {
	e := newTestEvaluator()
	e.Evaluate("10")
	e.Evaluate("20")
	if got := evalValue(t, e, "average"); got != 15 {
		t.Errorf("average = %v, want 15", got)
	}
	if got := evalValue(t, e, "avg"); got != 15 {
		t.Errorf("avg = %v, want 15", got)
	}
}

func TestEvaluateComments(t *testing.T) {
	e := newTestEvaluator()

	if res := e.Evaluate("// just a note"); res != nil {
		t.Errorf("line comment = %+v, want nil", res)
	}
	if res := e.Evaluate("# Groceries"); res != nil {
		t.Errorf("heading = %+v, want nil", res)
	}
	if got := evalValue(t, e, "3 + 3 // six"); got != 6 {
		t.Errorf("inline comment = %v, want 6", got)
	}
	if res := e.Evaluate("some shopping notes"); res != nil {
		t.Errorf("plain text = %+v, want nil", res)
	}
}

func TestEvaluateBlockComments(t *testing.T) {
	e := newTestEvaluator()

	if res := e.Evaluate("/* start of a note"); res != nil {
		t.Fatalf("block open = %+v, want nil", res)
	}
	if res := e.Evaluate("1 + 1 ignored inside"); res != nil {
		t.Fatalf("inside block = %+v, want nil", res)
	}
	if got := evalValue(t, e, "end */ 2 + 2"); got != 4 {
		t.Errorf("after block close = %v, want 4", got)
	}

	// Inline block comment
	if got := evalValue(t, e, "1 + /* skip */ 2"); got != 3 {
		t.Errorf("inline block = %v, want 3", got)
	}
}

func TestBlockCommentsKeepSection(t *testing.T) {
	e := newTestEvaluator()

	// Only a blank line resets the section; a line that merely opens or
	// closes a block comment must leave the buffer intact.
	e.Evaluate("$20")
	e.Evaluate("$30")
	e.Evaluate("/* a note")
	e.Evaluate("still inside */")

	res := e.Evaluate("sum")
	if res == nil || res.Value != 50 {
		t.Fatalf("sum after comment lines = %+v, want $50", res)
	}

	e.Evaluate("")
	e.Evaluate("$10")
	e.Evaluate("/* opener only")
	e.Evaluate("closer only */")
	if got := evalValue(t, e, "count"); got != 1 {
		t.Errorf("count after comment lines = %v, want 1", got)
	}
}

func TestEvaluateCrypto(t *testing.T) {
	crypto := &fakeCrypto{
		prices:   map[string]float64{"btc": 50000, "eth": 2500},
		fetching: map[string]bool{},
	}
	e := NewEvaluator(NewUnitRegistry(), crypto)

	res := e.Evaluate("2 btc")
	if !approx(res.Value, 100000) || res.Unit == nil || res.Unit.Name != "USD" {
		t.Fatalf("2 btc = %+v, want $100,000", res)
	}

	res = e.Evaluate("1 btc to eth")
	if !approx(res.Value, 20) || res.Unit != nil {
		t.Errorf("1 btc to eth = %+v, want 20", res)
	}

	res = e.Evaluate("0.5 btc to eur")
	if !approx(res.Value, 25000/1.08) || res.Unit.Name != "EUR" {
		t.Errorf("0.5 btc to eur = %+v", res)
	}
	if res.IsCurrencyConversion {
		t.Error("crypto conversion flagged as currency conversion")
	}

	res = e.Evaluate("$100 to btc")
	if !approx(res.Value, 0.002) || res.Unit != nil {
		t.Errorf("$100 to btc = %+v, want 0.002", res)
	}
}

func TestEvaluateCryptoLoading(t *testing.T) {
	crypto := &fakeCrypto{
		prices:   map[string]float64{},
		fetching: map[string]bool{"btc": true},
	}
	e := NewEvaluator(NewUnitRegistry(), crypto)

	// While the price is in flight the line shows Loading..., and the
	// result is stable on re-evaluation.
	for i := 0; i < 2; i++ {
		res := e.Evaluate("2 btc")
		if res == nil || res.Kind != ResultText || res.Text != LoadingText {
			t.Fatalf("pass %d: 2 btc = %+v, want %q", i, res, LoadingText)
		}
	}

	// Price arrives; the same line now resolves.
	crypto.prices["btc"] = 50000
	crypto.fetching = map[string]bool{}
	res := e.Evaluate("2 btc")
	if res.Kind != ResultNumber || !approx(res.Value, 100000) {
		t.Errorf("after price arrival, 2 btc = %+v", res)
	}
}

func TestReset(t *testing.T) {
	e := newTestEvaluator()
	e.Evaluate("x = 10")
	e.Evaluate("$20")
	e.Evaluate("/* open block")

	e.Reset()

	if res := e.Evaluate("x + 1"); res == nil || res.Kind != ResultError {
		t.Errorf("after Reset, x + 1 = %+v, want unknown variable", res)
	}
	if got := evalValue(t, e, "count"); got != 0 {
		t.Errorf("after Reset, count = %v, want 0", got)
	}
}
