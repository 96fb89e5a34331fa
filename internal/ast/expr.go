package ast

// BinaryOp identifies a binary expression operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpEquals
	OpNotEquals
	OpLessThanEquals
	OpGreaterThanEquals
	OpLessThan
	OpGreaterThan
)

// ExprKind identifies which case of Expression a value represents.
type ExprKind int

const (
	ExprConstant ExprKind = iota
	ExprLValue
	ExprRead
	ExprNot
	ExprBinary
)

// LValueExpr names a place that can be read or, via Instruction.Assign,
// written: a bare variable or an indexed array element.
type LValueExpr struct {
	Name  string
	Index []Expression // non-nil for an indexing expression, e.g. a[i]
}

// Variable builds a bare-variable lvalue expression.
func Variable(name string) LValueExpr { return LValueExpr{Name: name} }

// Index builds an array-indexing lvalue expression.
func Index(name string, index ...Expression) LValueExpr {
	return LValueExpr{Name: name, Index: index}
}

// Expression is a BrainCrab expression: a constant, a place reference, a
// read of the next input byte, or an operator applied to sub-expressions.
type Expression struct {
	Kind     ExprKind
	Constant ConstantValue
	LValue   LValueExpr
	Op       BinaryOp
	Left     *Expression
	Right    *Expression // nil for Not
}

// Const wraps a constant value as an expression.
func Const(v ConstantValue) Expression { return Expression{Kind: ExprConstant, Constant: v} }

// U8Expr builds a constant byte expression.
func U8Expr(v uint8) Expression { return Const(U8Const(v)) }

// BoolExpr builds a constant boolean expression.
func BoolExpr(v bool) Expression { return Const(BoolConst(v)) }

// Ref builds an expression that reads an lvalue's current value.
func Ref(lvalue LValueExpr) Expression { return Expression{Kind: ExprLValue, LValue: lvalue} }

// Var is shorthand for Ref(Variable(name)).
func Var(name string) Expression { return Ref(Variable(name)) }

// Read builds the "read one byte from input" expression.
func Read() Expression { return Expression{Kind: ExprRead} }

// Not builds a logical negation expression.
func Not(operand Expression) Expression {
	return Expression{Kind: ExprNot, Left: &operand}
}

// Binary builds a binary-operator expression.
func Binary(op BinaryOp, left, right Expression) Expression {
	return Expression{Kind: ExprBinary, Op: op, Left: &left, Right: &right}
}

func AddExpr(a, b Expression) Expression { return Binary(OpAdd, a, b) }
func SubExpr(a, b Expression) Expression { return Binary(OpSub, a, b) }
func MulExpr(a, b Expression) Expression { return Binary(OpMul, a, b) }
func DivExpr(a, b Expression) Expression { return Binary(OpDiv, a, b) }
func ModExpr(a, b Expression) Expression { return Binary(OpMod, a, b) }
func AndExpr(a, b Expression) Expression { return Binary(OpAnd, a, b) }
func OrExpr(a, b Expression) Expression  { return Binary(OpOr, a, b) }
func EqualsExpr(a, b Expression) Expression           { return Binary(OpEquals, a, b) }
func NotEqualsExpr(a, b Expression) Expression         { return Binary(OpNotEquals, a, b) }
func LessThanEqualsExpr(a, b Expression) Expression    { return Binary(OpLessThanEquals, a, b) }
func GreaterThanEqualsExpr(a, b Expression) Expression { return Binary(OpGreaterThanEquals, a, b) }
func LessThanExpr(a, b Expression) Expression          { return Binary(OpLessThan, a, b) }
func GreaterThanExpr(a, b Expression) Expression       { return Binary(OpGreaterThan, a, b) }
