package lang

import (
	"fmt"
	"math"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var mathFuncs = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"ln":    math.Log,
	"log":   math.Log10,
	"abs":   math.Abs,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
}

// evalNode walks an AST subtree and produces its Value. Errors are
// user-visible and per-line; NaN-producing operations are not errors.
func (e *Evaluator) evalNode(node Node) (Value, error) {
	switch n := node.(type) {
	case *NumberLit:
		return Value{Number: n.Value}, nil

	case *CurrencyLit:
		u := e.units.CurrencyForGlyph(n.Symbol)
		if u == nil {
			return Value{Number: n.Value}, nil
		}
		e.recordCurrency(u)
		return Value{Number: n.Value, Unit: u}, nil

	case *VarRef:
		if v, ok := e.vars[n.Name]; ok {
			return v, nil
		}
		switch n.Name {
		case "pi":
			return Value{Number: math.Pi}, nil
		case "e":
			return Value{Number: math.E}, nil
		}
		return Value{}, e.unknownVariable(n.Name)

	case *BinaryExpr:
		left, err := e.evalNode(n.Left)
		if err != nil {
			return Value{}, err
		}
		right, err := e.evalNode(n.Right)
		if err != nil {
			return Value{}, err
		}
		switch n.Op {
		case OpAdd:
			return valAdd(left, right), nil
		case OpSubtract:
			return valSub(left, right), nil
		case OpMultiply:
			return valMul(left, right), nil
		case OpDivide:
			return valDiv(left, right), nil
		case OpPower:
			return valPow(left, right), nil
		case OpPercentAdd:
			return valPercentAdd(left, right), nil
		case OpPercentSubtract:
			return valPercentSub(left, right), nil
		default:
			return Value{}, &EvalError{Msg: "unknown operator"}
		}

	case *UnaryExpr:
		operand, err := e.evalNode(n.Operand)
		if err != nil {
			return Value{}, err
		}
		return valNeg(operand), nil

	case *PercentExpr:
		val, err := e.evalNode(n.Expr)
		if err != nil {
			return Value{}, err
		}
		return Value{Number: val.Number / 100, Unit: val.Unit}, nil

	case *PercentOfExpr:
		pct, target, err := e.evalPair(n.Pct, n.Target)
		if err != nil {
			return Value{}, err
		}
		return Value{Number: pct.Number / 100 * target.Number, Unit: target.Unit}, nil

	case *PercentOffExpr:
		pct, target, err := e.evalPair(n.Pct, n.Target)
		if err != nil {
			return Value{}, err
		}
		off := pct.Number / 100 * target.Number
		return Value{Number: target.Number - off, Unit: target.Unit}, nil

	case *AsPercentOfExpr:
		num, denom, err := e.evalPair(n.Num, n.Denom)
		if err != nil {
			return Value{}, err
		}
		if denom.Number == 0 {
			return Value{Number: math.NaN()}, nil
		}
		return Value{Number: num.Number / denom.Number * 100}, nil

	case *FuncCall:
		fn, ok := mathFuncs[n.Name]
		if !ok {
			return Value{}, &EvalError{Msg: "unknown function: " + n.Name}
		}
		arg, err := e.evalNode(n.Arg)
		if err != nil {
			return Value{}, err
		}
		return Value{Number: fn(arg.Number), Unit: arg.Unit}, nil

	case *FuncCall2:
		// log with an explicit base: log2(8) = ln 8 / ln 2.
		base, arg, err := e.evalPair(n.Arg1, n.Arg2)
		if err != nil {
			return Value{}, err
		}
		return Value{Number: math.Log(arg.Number) / math.Log(base.Number)}, nil

	case *Assignment:
		val, err := e.evalNode(n.Expr)
		if err != nil {
			return Value{}, err
		}
		// "em = 14px" style assignments configure the registry's dynamic
		// CSS bases instead of creating an ordinary variable.
		if isCSSBaseName(n.Name) && val.Unit != nil && val.Unit.Name == "px" {
			e.units.SetCSSBase(n.Name, val.Number)
			return val, nil
		}
		e.vars[n.Name] = val
		e.pushSection(val)
		return val, nil

	case *UnitExpr:
		val, err := e.evalNode(n.Expr)
		if err != nil {
			return Value{}, err
		}
		if u := e.units.Unit(n.Unit); u != nil && val.Unit == nil {
			val.Unit = u
		}
		return val, nil

	case *ConvExpr:
		val, err := e.evalNode(n.Expr)
		if err != nil {
			return Value{}, err
		}
		return e.convertValue(val, n.Target)

	default:
		return Value{}, &EvalError{Msg: "unknown node type"}
	}
}

func (e *Evaluator) evalPair(a, b Node) (Value, Value, error) {
	av, err := e.evalNode(a)
	if err != nil {
		return Value{}, Value{}, err
	}
	bv, err := e.evalNode(b)
	if err != nil {
		return Value{}, Value{}, err
	}
	return av, bv, nil
}

// convertValue converts a value to a named target unit or crypto asset.
// Crypto conversions route through USD as the pivot.
func (e *Evaluator) convertValue(val Value, target string) (Value, error) {
	if e.crypto != nil && e.crypto.IsCrypto(target) {
		return e.convertToCrypto(val, target)
	}
	to := e.units.Unit(target)
	if to == nil {
		return Value{}, e.unknownUnit(target)
	}
	if val.Unit == nil {
		return Value{}, &EvalError{Msg: "cannot convert: value has no unit"}
	}
	out := Value{
		Number: e.units.Convert(val.Number, val.Unit, to),
		Unit:   to,
	}
	out.IsCurrencyConversion = val.Unit.Category == UnitCurrency && to.Category == UnitCurrency
	return out, nil
}

// convertToCrypto converts a currency-bearing (or bare USD) value into a
// crypto asset. The result is dimensionless.
func (e *Evaluator) convertToCrypto(val Value, symbol string) (Value, error) {
	usdVal := val.Number
	if val.Unit != nil {
		if val.Unit.Category != UnitCurrency {
			return Value{}, &EvalError{Msg: "cannot convert " + val.Unit.Name + " to " + symbol}
		}
		usd := e.units.Unit("usd")
		usdVal = e.units.Convert(val.Number, val.Unit, usd)
	}
	amount, ok := e.crypto.FromUSD(usdVal, symbol)
	if !ok {
		if e.crypto.IsFetching(symbol) {
			return Value{}, errPending
		}
		return Value{}, &EvalError{Msg: "no price available for " + symbol}
	}
	return Value{Number: amount}, nil
}

func isCSSBaseName(name string) bool {
	switch name {
	case "em", "rem", "ppi":
		return true
	}
	return false
}

// unknownVariable builds the error for an unbound name, with a fuzzy
// suggestion when a close match exists.
func (e *Evaluator) unknownVariable(name string) error {
	names := make([]string, 0, len(e.vars))
	for n := range e.vars {
		names = append(names, n)
	}
	if s := closest(name, names); s != "" {
		return &EvalError{Msg: fmt.Sprintf("unknown variable: %s (did you mean %s?)", name, s)}
	}
	return &EvalError{Msg: "unknown variable: " + name}
}

func (e *Evaluator) unknownUnit(name string) error {
	if s := closest(name, e.units.UnitNames()); s != "" {
		return &EvalError{Msg: fmt.Sprintf("unknown unit: %s (did you mean %s?)", name, s)}
	}
	return &EvalError{Msg: "unknown unit: " + name}
}

// closest returns the best fuzzy match within a small edit distance, or "".
func closest(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	if ranks[0].Distance > 2 {
		return ""
	}
	return ranks[0].Target
}
