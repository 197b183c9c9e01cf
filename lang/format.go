package lang

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var displayPrinter = message.NewPrinter(language.English)

// Format renders a result for display: grouped digits, two fraction digits
// for money, the unit symbol on the side its SymbolPosition says. NaN
// renders as "error" (incompatible units, division by zero).
func Format(res *EvaluationResult) string {
	if res == nil {
		return ""
	}
	switch res.Kind {
	case ResultText, ResultError:
		return res.Text
	}
	if math.IsNaN(res.Value) || math.IsInf(res.Value, 0) {
		return "error"
	}

	maxFrac := 6
	if res.Unit != nil && res.Unit.Category == UnitCurrency {
		maxFrac = 2
	}
	s := displayPrinter.Sprintf("%v", number.Decimal(res.Value, number.MaxFractionDigits(maxFrac)))

	switch {
	case res.Unit == nil:
		return s
	case res.Unit.SymbolPos == SymbolBefore:
		return res.Unit.Symbol + s
	default:
		return s + " " + res.Unit.Symbol
	}
}
