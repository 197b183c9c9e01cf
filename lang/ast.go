package lang

// BinaryOperator identifies a binary operation.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
	// OpPercentAdd and OpPercentSubtract implement the "X + N%" and
	// "X - N%" idioms, distinct from plain addition.
	OpPercentAdd
	OpPercentSubtract
)

// Node is the interface all AST nodes implement.
type Node interface {
	nodeTag()
}

// NumberLit represents a number literal.
type NumberLit struct {
	Value float64
}

// CurrencyLit represents a currency glyph glued to a number, like "$20".
type CurrencyLit struct {
	Symbol string
	Value  float64
}

// VarRef represents a variable reference.
type VarRef struct {
	Name string
}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Op    BinaryOperator
	Left  Node
	Right Node
}

// UnaryExpr represents unary negation.
type UnaryExpr struct {
	Operand Node
}

// PercentExpr wraps an expression with a bare % suffix, dividing by 100.
type PercentExpr struct {
	Expr Node
}

// PercentOfExpr represents "N% of X".
type PercentOfExpr struct {
	Pct    Node
	Target Node
}

// PercentOffExpr represents "N% off X".
type PercentOffExpr struct {
	Pct    Node
	Target Node
}

// AsPercentOfExpr represents "X as a % of Y".
type AsPercentOfExpr struct {
	Num   Node
	Denom Node
}

// FuncCall represents a single-argument function call like sqrt(9).
type FuncCall struct {
	Name string
	Arg  Node
}

// FuncCall2 represents a binary-base function call, e.g. "log 2 (8)"
// (base-2 logarithm of 8).
type FuncCall2 struct {
	Name string
	Arg1 Node
	Arg2 Node
}

// Assignment represents name = expression.
type Assignment struct {
	Name string
	Expr Node
}

// UnitExpr attaches a unit suffix to an expression, like "5 km".
type UnitExpr struct {
	Expr Node
	Unit string
}

// ConvExpr represents an explicit conversion, like "5 km to miles".
// The target is kept as a name; an unknown target is a runtime error,
// not a parse error.
type ConvExpr struct {
	Expr   Node
	Target string
}

func (*NumberLit) nodeTag()       {}
func (*CurrencyLit) nodeTag()     {}
func (*VarRef) nodeTag()          {}
func (*BinaryExpr) nodeTag()      {}
func (*UnaryExpr) nodeTag()       {}
func (*PercentExpr) nodeTag()     {}
func (*PercentOfExpr) nodeTag()   {}
func (*PercentOffExpr) nodeTag()  {}
func (*AsPercentOfExpr) nodeTag() {}
func (*FuncCall) nodeTag()        {}
func (*FuncCall2) nodeTag()       {}
func (*Assignment) nodeTag()      {}
func (*UnitExpr) nodeTag()        {}
func (*ConvExpr) nodeTag()        {}
