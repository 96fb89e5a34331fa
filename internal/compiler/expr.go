package compiler

import (
	"braincrab/internal/abf"
	"braincrab/internal/ast"
)

// evalExpression lowers an AST expression to a Value, constant-folding
// whenever every operand is itself constant (spec.md §4.C "eval_expression").
func (c *Compiler) evalExpression(expr ast.Expression) (Value, error) {
	switch expr.Kind {
	case ast.ExprConstant:
		return ConstValue(expr.Constant), nil
	case ast.ExprLValue:
		return c.evalLValueRef(expr.LValue)
	case ast.ExprRead:
		return c.evalRead()
	case ast.ExprNot:
		return c.evalNotExpr(*expr.Left)
	case ast.ExprBinary:
		return c.evalBinary(expr.Op, *expr.Left, *expr.Right)
	}
	panic("compiler: unknown expression kind")
}

// evalLValueRef evaluates a reference to a place. Scalars are handed
// back as a Borrowed view over the existing cell (no copy); arrays are
// likewise handed back as a Borrowed view, since elementValues can
// later decompose them without copying.
func (c *Compiler) evalLValueRef(lv ast.LValueExpr) (Value, error) {
	v, err := c.resolveLValue(lv)
	if err != nil {
		return Value{}, err
	}
	return VarValue(v.Borrow()), nil
}

// evalRead allocates a fresh owned byte and reads one input byte into
// it (spec.md §4.C "Read" expression).
func (c *Compiler) evalRead() (Value, error) {
	v, err := c.newOwnedU8(0)
	if err != nil {
		return Value{}, err
	}
	c.builder.Read(v.Address)
	return VarValue(v), nil
}

func (c *Compiler) evalNotExpr(operand ast.Expression) (Value, error) {
	value, err := c.evalExpression(operand)
	if err != nil {
		return Value{}, err
	}
	if value.Kind == ValueConstant {
		return ConstValue(ast.BoolConst(!isTruthy(value.Constant))), nil
	}
	result, err := c.newOwnedU8(0)
	if err != nil {
		return Value{}, err
	}
	if err := c.notAssign(result.Address, value); err != nil {
		c.release(result)
		return Value{}, err
	}
	return VarValue(result), nil
}

// evalBinary evaluates both operands and dispatches to the operator's
// evaluator, folding to a Constant when both sides are constant.
func (c *Compiler) evalBinary(op ast.BinaryOp, leftExpr, rightExpr ast.Expression) (Value, error) {
	left, err := c.evalExpression(leftExpr)
	if err != nil {
		return Value{}, err
	}
	right, err := c.evalExpression(rightExpr)
	if err != nil {
		return Value{}, err
	}

	if left.Kind == ValueConstant && right.Kind == ValueConstant {
		return c.evalConstBinary(op, left.Constant, right.Constant)
	}

	switch op {
	case ast.OpAdd:
		return c.evalArithmetic(left, right, c.addAssign)
	case ast.OpSub:
		return c.evalArithmetic(left, right, c.subAssign)
	case ast.OpMul:
		return c.evalArithmetic(left, right, c.mulAssign)
	case ast.OpDiv:
		return c.evalArithmetic(left, right, c.divAssign)
	case ast.OpMod:
		return c.evalArithmetic(left, right, c.modAssign)
	case ast.OpAnd:
		return c.evalAnd(left, right)
	case ast.OpOr:
		return c.evalOr(left, right)
	case ast.OpEquals:
		return c.evalEquals(left, right)
	case ast.OpNotEquals:
		return c.evalNotEquals(left, right)
	case ast.OpLessThanEquals:
		return c.evalLessThanEquals(left, right)
	case ast.OpGreaterThanEquals:
		return c.evalLessThanEquals(right, left)
	case ast.OpLessThan:
		return c.evalLessThan(left, right)
	case ast.OpGreaterThan:
		return c.evalLessThan(right, left)
	}
	panic("compiler: unknown binary operator")
}

// evalConstBinary computes op over two compile-time constants directly
// in Go, with no ABF emitted at all.
func (c *Compiler) evalConstBinary(op ast.BinaryOp, left, right ast.ConstantValue) (Value, error) {
	l, r := asByte(left), asByte(right)
	switch op {
	case ast.OpAdd:
		return ConstValue(ast.U8Const(l + r)), nil
	case ast.OpSub:
		return ConstValue(ast.U8Const(l - r)), nil
	case ast.OpMul:
		return ConstValue(ast.U8Const(l * r)), nil
	case ast.OpDiv:
		if r == 0 {
			// Division by zero yields 1, the same result divAssign
			// produces at runtime.
			return ConstValue(ast.U8Const(1)), nil
		}
		return ConstValue(ast.U8Const(l / r)), nil
	case ast.OpMod:
		if r == 0 {
			return ConstValue(ast.U8Const(0)), nil
		}
		return ConstValue(ast.U8Const(l % r)), nil
	case ast.OpAnd:
		return ConstValue(ast.BoolConst(isTruthy(left) && isTruthy(right))), nil
	case ast.OpOr:
		return ConstValue(ast.BoolConst(isTruthy(left) || isTruthy(right))), nil
	case ast.OpEquals:
		return ConstValue(ast.BoolConst(l == r)), nil
	case ast.OpNotEquals:
		return ConstValue(ast.BoolConst(l != r)), nil
	case ast.OpLessThanEquals:
		return ConstValue(ast.BoolConst(l <= r)), nil
	case ast.OpGreaterThanEquals:
		return ConstValue(ast.BoolConst(l >= r)), nil
	case ast.OpLessThan:
		return ConstValue(ast.BoolConst(l < r)), nil
	case ast.OpGreaterThan:
		return ConstValue(ast.BoolConst(l > r)), nil
	}
	panic("compiler: unknown binary operator")
}

// evalArithmetic runs assign on a fresh copy of left and returns it: this
// lets every arithmetic operator share one "copy left, mutate the copy"
// shape regardless of whether left was Owned, Borrowed, or Constant.
// newOwned adopts left's own storage directly when it is already Owned,
// so no redundant copy is made in the common case.
func (c *Compiler) evalArithmetic(left, right Value, assign func(abf.Address, Value) error) (Value, error) {
	result, err := c.newOwned(left)
	if err != nil {
		return Value{}, err
	}
	if err := assign(result.Address, right); err != nil {
		return Value{}, err
	}
	return VarValue(result), nil
}

func (c *Compiler) evalAnd(left, right Value) (Value, error) {
	result, err := c.newOwned(left)
	if err != nil {
		return Value{}, err
	}
	if err := c.andAssign(result.Address, right); err != nil {
		return Value{}, err
	}
	return VarValue(result), nil
}

func (c *Compiler) evalOr(left, right Value) (Value, error) {
	result, err := c.newOwned(left)
	if err != nil {
		return Value{}, err
	}
	if err := c.orAssign(result.Address, right); err != nil {
		return Value{}, err
	}
	return VarValue(result), nil
}

// evalNotEquals computes left != right by subtracting right from a copy
// of left and reducing the (possibly nonzero) remainder to a canonical
// bool: nonzero iff the two differed.
func (c *Compiler) evalNotEquals(left, right Value) (Value, error) {
	result, err := c.newOwned(left)
	if err != nil {
		return Value{}, err
	}
	if err := c.subAssign(result.Address, right); err != nil {
		return Value{}, err
	}
	return c.toBool(result)
}

func (c *Compiler) evalEquals(left, right Value) (Value, error) {
	neq, err := c.evalNotEquals(left, right)
	if err != nil {
		return Value{}, err
	}
	return c.evalNotExpr2(neq)
}

// evalNotExpr2 negates an already-evaluated Value (unlike evalNotExpr,
// which takes an unevaluated ast.Expression).
func (c *Compiler) evalNotExpr2(value Value) (Value, error) {
	if value.Kind == ValueConstant {
		return ConstValue(ast.BoolConst(!isTruthy(value.Constant))), nil
	}
	result, err := c.newOwnedU8(0)
	if err != nil {
		return Value{}, err
	}
	if err := c.notAssign(result.Address, value); err != nil {
		c.release(result)
		return Value{}, err
	}
	return VarValue(result), nil
}

// toBool reduces a byte-valued temp down to a canonical 0/1 bool by
// double-negation (not not x), consuming the input.
func (c *Compiler) toBool(value Variable) (Value, error) {
	inverted, err := c.evalNotExpr2(VarValue(value))
	if err != nil {
		return Value{}, err
	}
	return c.evalNotExpr2(inverted)
}

// evalLessThanEquals computes left <= right by repeated decrement of
// both sides: left survives to 0 at or before right does, in lock step
// (spec.md §4.C "eval_less_than_equals"). A loopValue flag, not the
// left operand itself, controls loop continuation so that the
// left-survives-longer case can still be distinguished once the loop
// ends; this is the same shape modAssign borrows for its remainder.
func (c *Compiler) evalLessThanEquals(left, right Value) (Value, error) {
	leftVar, err := c.newOwned(left)
	if err != nil {
		return Value{}, err
	}
	rightVar, err := c.newOwned(right)
	if err != nil {
		c.release(leftVar)
		return Value{}, err
	}

	result, err := c.newOwnedU8(0)
	if err != nil {
		c.release(leftVar)
		c.release(rightVar)
		return Value{}, err
	}
	loopValue, err := c.newOwnedU8(1)
	if err != nil {
		c.release(leftVar)
		c.release(rightVar)
		c.release(result)
		return Value{}, err
	}

	err = c.loopWhile(loopValue.Address, func() error {
		return c.ifThenElse(c.borrowedU8(leftVar.Address),
			func() error {
				return c.ifThenElse(c.borrowedU8(rightVar.Address),
					func() error {
						c.builder.Add(leftVar.Address, -1)
						c.builder.Add(rightVar.Address, -1)
						return nil
					},
					func() error {
						// left nonzero, right zero: left is bigger.
						c.zero(leftVar.Address)
						return c.subAssignConst(loopValue.Address, 1)
					},
				)
			},
			func() error {
				// left exhausted: left <= right regardless of right.
				c.zero(rightVar.Address)
				c.builder.Add(result.Address, 1)
				return c.subAssignConst(loopValue.Address, 1)
			},
		)
	})

	c.release(leftVar)
	c.release(rightVar)
	c.release(loopValue)
	if err != nil {
		c.release(result)
		return Value{}, err
	}
	return c.toBool(result)
}

func (c *Compiler) evalLessThan(left, right Value) (Value, error) {
	le, err := c.evalLessThanEquals(right, left)
	if err != nil {
		return Value{}, err
	}
	return c.evalNotExpr2(le)
}

func isTruthy(c ast.ConstantValue) bool {
	switch c.Kind {
	case ast.ConstBool:
		return c.Bool
	case ast.ConstU8:
		return c.U8 != 0
	}
	return false
}

func asByte(c ast.ConstantValue) uint8 {
	switch c.Kind {
	case ast.ConstBool:
		if c.Bool {
			return 1
		}
		return 0
	case ast.ConstU8:
		return c.U8
	}
	return 0
}
