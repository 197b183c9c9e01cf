package lang

import "math"

// Value is the evaluation-time result of a subtree.
type Value struct {
	Number float64
	Unit   *Unit
	// IsCurrencyConversion marks results where both sides of an explicit
	// conversion were currencies. It only drives presentation.
	IsCurrencyConversion bool
}

// EvalError represents a user-visible, per-line evaluation error.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string {
	return e.Msg
}

// pickUnit propagates the left operand's unit, falling back to the right's.
func pickUnit(a, b Value) *Unit {
	if a.Unit != nil {
		return a.Unit
	}
	return b.Unit
}

func valAdd(a, b Value) Value {
	return Value{Number: a.Number + b.Number, Unit: pickUnit(a, b)}
}

func valSub(a, b Value) Value {
	return Value{Number: a.Number - b.Number, Unit: pickUnit(a, b)}
}

func valMul(a, b Value) Value {
	return Value{Number: a.Number * b.Number, Unit: pickUnit(a, b)}
}

// valDiv always keeps the left operand's unit. Division by zero yields NaN,
// never an error.
func valDiv(a, b Value) Value {
	if b.Number == 0 {
		return Value{Number: math.NaN(), Unit: a.Unit}
	}
	return Value{Number: a.Number / b.Number, Unit: a.Unit}
}

func valPow(a, b Value) Value {
	return Value{Number: math.Pow(a.Number, b.Number), Unit: pickUnit(a, b)}
}

// valPercentAdd computes "X + N%" as X * (1 + N/100), unit from the left.
func valPercentAdd(a, b Value) Value {
	return Value{Number: a.Number * (1 + b.Number/100), Unit: a.Unit}
}

// valPercentSub computes "X - N%" as X * (1 - N/100), unit from the left.
func valPercentSub(a, b Value) Value {
	return Value{Number: a.Number * (1 - b.Number/100), Unit: a.Unit}
}

func valNeg(a Value) Value {
	return Value{Number: -a.Number, Unit: a.Unit}
}
