// Package compiler lowers a BrainCrab AST into ABF (spec.md §4.C): the
// front end of the three-stage pipeline. It owns address allocation
// (monotonically increasing abstract addresses issued by the Compiler
// itself, gated by a tape.Allocator that bounds how many cells can be
// alive at once), variable scoping, and the expression/statement translation
// rules that turn typed BrainCrab source into straight-line ABF plus
// While loops.
package compiler

import (
	"braincrab/internal/abf"
	"braincrab/internal/ast"
	"braincrab/internal/tape"
)

// Compiler holds all front-end compilation state for a single program.
// It is not safe for concurrent use, and is never reused across calls to
// Compile.
type Compiler struct {
	builder *abf.Builder
	alloc   *tape.Allocator
	vars    *ScopedVariableMap

	nextAddress abf.Address
	pointerHint uint16
	loopDepth   int
}

func newCompiler() *Compiler {
	return &Compiler{
		builder: abf.NewBuilder(),
		alloc:   tape.New(),
		vars:    NewScopedVariableMap(),
	}
}

// Compile lowers a complete BrainCrab program into ABF, inserting one
// Free per address at its last use (abf.Program.AddFrees) before
// returning.
func Compile(program ast.Program) (abf.Program, error) {
	c := newCompiler()
	if err := c.compileInstructions(program.Instructions); err != nil {
		return abf.Program{}, err
	}
	if c.loopDepth != 0 {
		return abf.Program{}, errUnclosedLoop()
	}
	out := c.builder.Build()
	out.AddFrees()
	return out, nil
}

// Memory management

// allocate reserves size consecutive cells near the pointer hint and
// issues the next size monotonic ABF addresses for them. The physical
// address tape.Allocator hands back exists purely to bound live
// capacity and is never used as an ABF address itself.
func (c *Compiler) allocate(size uint16) (abf.Address, uint16, error) {
	physical, err := c.alloc.Allocate(size, c.pointerHint)
	if err != nil {
		return 0, 0, errNoFreeAddresses(err)
	}
	base := c.nextAddress
	c.nextAddress += size
	c.pointerHint = physical
	return base, physical, nil
}

// newOwnedVar allocates and zero-initializes an Owned variable of type t.
// Every cell it occupies is introduced (abf New) before any other
// instruction can reference it.
func (c *Compiler) newOwnedVar(t ast.Type, mutable bool) (Variable, error) {
	size := t.Size()
	base, physical, err := c.allocate(size)
	if err != nil {
		return Variable{}, err
	}
	for i := uint16(0); i < size; i++ {
		c.builder.NewAddress(base+i, 0)
	}
	return Variable{
		Address: base,
		Type:    t,
		Mutable: mutable,
		owned:   &reservation{physical: physical, size: size},
	}, nil
}

// newOwnedU8 is the common case of newOwnedVar: a single byte cell set
// to initial directly (no separate add_assign-from-zero needed, since
// the value is already known at this call site).
func (c *Compiler) newOwnedU8(initial uint8) (Variable, error) {
	v, err := c.newOwnedVar(ast.U8, true)
	if err != nil {
		return Variable{}, err
	}
	c.builder.Add(v.Address, int8(initial))
	return v, nil
}

// newOwned adopts value's existing reservation if it already owns one,
// and otherwise allocates a fresh cell and copies value into it
// (spec.md §4.C: a Constant or Borrowed value always needs a home of its
// own before it can be a loop predicate or the source of a move).
func (c *Compiler) newOwned(value Value) (Variable, error) {
	if value.Kind == ValueVariable && value.Variable.IsOwned() {
		return value.Variable, nil
	}
	t, err := c.typeOf(value)
	if err != nil {
		return Variable{}, err
	}
	v, err := c.newOwnedVar(t, true)
	if err != nil {
		return Variable{}, err
	}
	if err := c.initializeFrom(v, value); err != nil {
		return Variable{}, err
	}
	return v, nil
}

// release deallocates an Owned variable's reservation. It is a no-op for
// Borrowed variables. Callers are responsible for zeroing first if the
// cell's leftover value would otherwise be observable.
func (c *Compiler) release(v Variable) {
	if v.owned == nil {
		return
	}
	c.alloc.Deallocate(v.owned.physical, v.owned.size)
}

func (c *Compiler) borrowedU8(address abf.Address) Value {
	return VarValue(Variable{Address: address, Type: ast.U8})
}

// typeOf computes value's type, translating an array-literal type
// mismatch into the front end's own ArrayHasDifferentTypes error.
func (c *Compiler) typeOf(value Value) (ast.Type, error) {
	t, err := value.Type()
	if err != nil {
		if arrErr, ok := err.(*ast.ArrayTypeError); ok {
			return ast.Type{}, errArrayHasDifferentTypes(arrErr.Expected, arrErr.Index, arrErr.Actual)
		}
		return ast.Type{}, err
	}
	return t, nil
}

// Primitives

// zero drives a single cell down to 0 with a while loop, regardless of
// its current runtime value (spec.md §4.C "scope exit").
func (c *Compiler) zero(address abf.Address) {
	c.builder.While(address, func() {
		c.builder.Add(address, -1)
	})
}

// zeroVar zeroes every cell a variable occupies.
func (c *Compiler) zeroVar(v Variable) {
	size := v.Type.Size()
	for i := uint16(0); i < size; i++ {
		c.zero(v.Address + i)
	}
}

// scoped runs f inside a fresh variable scope, zeroing and releasing
// every Owned variable it registered once it returns.
func (c *Compiler) scoped(f func() error) error {
	c.vars.StartScope()
	if err := f(); err != nil {
		return err
	}
	for _, v := range c.vars.EndScope() {
		if v.IsOwned() {
			c.zeroVar(v)
			c.release(v)
		}
	}
	return nil
}

// loopWhile emits a While loop on predicate whose body is f, run inside
// its own scope (spec.md §4.C).
func (c *Compiler) loopWhile(predicate abf.Address, f func() error) error {
	c.builder.BeginWhile()
	c.loopDepth++
	err := c.scoped(f)
	c.loopDepth--
	c.builder.EndWhile(predicate)
	return err
}

// ifThen compiles body only when predicate is truthy, constant-folding
// when possible and otherwise driving a single-pass while loop.
func (c *Compiler) ifThen(predicate Value, body func() error) error {
	if predicate.Kind == ValueConstant {
		if isTruthy(predicate.Constant) {
			return body()
		}
		return nil
	}
	ifCheck, err := c.newOwned(predicate)
	if err != nil {
		return err
	}
	err = c.loopWhile(ifCheck.Address, func() error {
		if err := body(); err != nil {
			return err
		}
		c.zero(ifCheck.Address)
		return nil
	})
	c.release(ifCheck)
	return err
}

// ifThenElse compiles ifCase or elseCase depending on predicate. The
// runtime branch runs the if-case loop (clearing a companion flag on
// success) and then the else-case loop (which only fires when the flag
// survived, i.e. the if-case loop never ran) — spec.md §4.C.
func (c *Compiler) ifThenElse(predicate Value, ifCase, elseCase func() error) error {
	if predicate.Kind == ValueConstant {
		if isTruthy(predicate.Constant) {
			return ifCase()
		}
		return elseCase()
	}

	elseCheck, err := c.newOwnedU8(1)
	if err != nil {
		return err
	}
	ifCheck, err := c.newOwned(predicate)
	if err != nil {
		c.release(elseCheck)
		return err
	}

	err = c.loopWhile(ifCheck.Address, func() error {
		if err := ifCase(); err != nil {
			return err
		}
		if err := c.subAssignConst(elseCheck.Address, 1); err != nil {
			return err
		}
		c.zero(ifCheck.Address)
		return nil
	})
	c.release(ifCheck)
	if err != nil {
		c.release(elseCheck)
		return err
	}

	err = c.loopWhile(elseCheck.Address, func() error {
		if err := elseCase(); err != nil {
			return err
		}
		return c.subAssignConst(elseCheck.Address, 1)
	})
	c.release(elseCheck)
	return err
}

// nTimes runs f either n.Constant times (each iteration its own scope)
// or, for a runtime value, by decrementing a counter cell to 0 — a
// Borrowed counter is drained into a temporary as it counts down and
// restored from it afterward so the original variable survives.
func (c *Compiler) nTimes(n Value, f func() error) error {
	if n.Kind == ValueConstant {
		count := asByte(n.Constant)
		for i := uint8(0); i < count; i++ {
			if err := c.scoped(f); err != nil {
				return err
			}
		}
		return nil
	}

	v := n.Variable
	if v.IsOwned() {
		err := c.loopWhile(v.Address, func() error {
			c.builder.Add(v.Address, -1)
			return f()
		})
		c.release(v)
		return err
	}

	address := v.Address
	temp, err := c.newOwnedU8(0)
	if err != nil {
		return err
	}
	err = c.loopWhile(address, func() error {
		c.builder.Add(address, -1)
		c.builder.Add(temp.Address, 1)
		return f()
	})
	if err != nil {
		c.release(temp)
		return err
	}
	err = c.loopWhile(temp.Address, func() error {
		c.builder.Add(temp.Address, -1)
		c.builder.Add(address, 1)
		return nil
	})
	c.release(temp)
	return err
}

// copyOnTopOfCells adds source onto every destination cell, consuming
// source if it is Owned (spec.md §4.C "copy on top of cells").
func (c *Compiler) copyOnTopOfCells(source Value, destinations []abf.Address) error {
	return c.nTimes(source, func() error {
		for _, d := range destinations {
			c.builder.Add(d, 1)
		}
		return nil
	})
}

// addAssign adds value onto destination. Adding a Borrowed value onto
// its own address would double-consume it, so that case is routed
// through a temporary first.
func (c *Compiler) addAssign(destination abf.Address, value Value) error {
	if value.Kind == ValueVariable && value.Variable.Address == destination {
		if value.Variable.IsOwned() {
			panic("compiler: attempted to add a temp onto itself")
		}
		temp, err := c.newOwnedU8(0)
		if err != nil {
			return err
		}
		if err := c.copyOnTopOfCells(value, []abf.Address{temp.Address}); err != nil {
			return err
		}
		return c.copyOnTopOfCells(VarValue(temp), []abf.Address{destination})
	}
	return c.copyOnTopOfCells(value, []abf.Address{destination})
}

func (c *Compiler) addAssignConst(destination abf.Address, k uint8) error {
	return c.addAssign(destination, ConstValue(ast.U8Const(k)))
}

// subAssign subtracts value from destination, n_times-style.
func (c *Compiler) subAssign(destination abf.Address, value Value) error {
	if value.Kind == ValueVariable && value.Variable.Address == destination {
		if value.Variable.IsOwned() {
			panic("compiler: attempted to sub a temp from itself")
		}
		c.zero(destination)
		return nil
	}
	return c.nTimes(value, func() error {
		c.builder.Add(destination, -1)
		return nil
	})
}

func (c *Compiler) subAssignConst(destination abf.Address, k uint8) error {
	return c.subAssign(destination, ConstValue(ast.U8Const(k)))
}

// mulAssign computes destination *= value by repeated addition into a
// fresh accumulator, then moves the accumulator on top of destination.
func (c *Compiler) mulAssign(destination abf.Address, value Value) error {
	result, err := c.newOwnedU8(0)
	if err != nil {
		return err
	}
	if err := c.nTimes(value, func() error {
		return c.addAssign(result.Address, c.borrowedU8(destination))
	}); err != nil {
		c.release(result)
		return err
	}
	return c.assign(destination, VarValue(result))
}

// divAssign computes destination /= value by repeated subtraction,
// counting successful subtractions into result. A zero divisor leaves 1
// in destination: the dividend is cleared so the subtraction loop never
// runs, and result starts at 1.
func (c *Compiler) divAssign(destination abf.Address, value Value) error {
	if value.Kind == ValueVariable && value.Variable.Address == destination {
		if value.Variable.IsOwned() {
			panic("compiler: attempted to div a temp by itself")
		}
		c.zero(destination)
		return c.addAssignConst(destination, 1)
	}

	result, err := c.newOwnedU8(0)
	if err != nil {
		return err
	}
	err = c.ifThenElse(value.Borrow(),
		func() error { return nil },
		func() error {
			c.zero(destination)
			return c.addAssignConst(result.Address, 1)
		},
	)
	if err != nil {
		c.release(result)
		return err
	}
	err = c.loopWhile(destination, func() error {
		predicate, perr := c.evalLessThanEquals(value.Borrow(), c.borrowedU8(destination))
		if perr != nil {
			return perr
		}
		return c.ifThenElse(predicate,
			func() error {
				if err := c.subAssign(destination, value.Borrow()); err != nil {
					return err
				}
				return c.addAssignConst(result.Address, 1)
			},
			func() error {
				c.zero(destination)
				return nil
			},
		)
	})
	if err != nil {
		c.release(result)
		return err
	}
	return c.copyOnTopOfCells(VarValue(result), []abf.Address{destination})
}

// modAssign computes destination %= value by repeated subtraction,
// stopping as soon as value no longer fits, leaving the remainder in
// place (own addition: the original source has no Mod operator).
func (c *Compiler) modAssign(destination abf.Address, value Value) error {
	if value.Kind == ValueVariable && value.Variable.Address == destination {
		if value.Variable.IsOwned() {
			panic("compiler: attempted to mod a temp by itself")
		}
		c.zero(destination)
		return nil
	}

	loopValue, err := c.newOwnedU8(1)
	if err != nil {
		return err
	}
	err = c.loopWhile(loopValue.Address, func() error {
		predicate, perr := c.evalLessThanEquals(value.Borrow(), c.borrowedU8(destination))
		if perr != nil {
			return perr
		}
		return c.ifThenElse(predicate,
			func() error { return c.subAssign(destination, value.Borrow()) },
			func() error { return c.subAssignConst(loopValue.Address, 1) },
		)
	})
	c.release(loopValue)
	return err
}

func (c *Compiler) notAssign(destination abf.Address, value Value) error {
	return c.ifThenElse(value,
		func() error { c.zero(destination); return nil },
		func() error { return c.addAssignConst(destination, 1) },
	)
}

func (c *Compiler) andAssign(destination abf.Address, value Value) error {
	return c.ifThenElse(value,
		func() error { return nil },
		func() error { c.zero(destination); return nil },
	)
}

func (c *Compiler) orAssign(destination abf.Address, value Value) error {
	return c.ifThenElse(c.borrowedU8(destination),
		func() error { return nil },
		func() error {
			return c.ifThen(value, func() error { return c.addAssignConst(destination, 1) })
		},
	)
}

// assign overwrites destination's value wholesale: zero then add.
// Assigning a value onto its own address is a no-op.
func (c *Compiler) assign(destination abf.Address, value Value) error {
	if value.Kind == ValueVariable && value.Variable.Address == destination {
		return nil
	}
	c.zero(destination)
	return c.addAssign(destination, value)
}

// initializeFrom copies value into a freshly introduced (already-zeroed)
// variable, recursing element-by-element for arrays.
func (c *Compiler) initializeFrom(dest Variable, value Value) error {
	if dest.Type.Kind == ast.KindArray {
		elems, err := c.elementValues(value)
		if err != nil {
			return err
		}
		if len(elems) != int(dest.Type.Len) {
			return errTypeError(dest.Type, ast.Array(*dest.Type.Element, uint8(len(elems))))
		}
		elemSize := dest.Type.Element.Size()
		for i, e := range elems {
			elemDest := Variable{
				Address: dest.Address + uint16(i)*elemSize,
				Type:    *dest.Type.Element,
				Mutable: dest.Mutable,
			}
			if err := c.initializeFrom(elemDest, e); err != nil {
				return err
			}
		}
		return nil
	}
	return c.addAssign(dest.Address, value)
}

// assignVariable overwrites every cell dest occupies with value.
func (c *Compiler) assignVariable(dest Variable, value Value) error {
	if value.Kind == ValueVariable && value.Variable.Address == dest.Address {
		return nil
	}
	c.zeroVar(dest)
	return c.initializeFrom(dest, value)
}

// elementValues decomposes an array-typed value into one Value per
// element, without copying any cells.
func (c *Compiler) elementValues(v Value) ([]Value, error) {
	switch v.Kind {
	case ValueConstant:
		if v.Constant.Kind != ast.ConstArray {
			t, _ := c.typeOf(v)
			return nil, errNotAnArray(t)
		}
		out := make([]Value, len(v.Constant.Elements))
		for i, e := range v.Constant.Elements {
			out[i] = ConstValue(e)
		}
		return out, nil
	case ValueVariable:
		t := v.Variable.Type
		if t.Kind != ast.KindArray {
			return nil, errNotAnArray(t)
		}
		elemSize := t.Element.Size()
		out := make([]Value, t.Len)
		for i := uint16(0); i < uint16(t.Len); i++ {
			out[i] = VarValue(Variable{
				Address: v.Variable.Address + i*elemSize,
				Type:    *t.Element,
				Mutable: v.Variable.Mutable,
			})
		}
		return out, nil
	}
	panic("compiler: unknown value kind")
}

// resolveLValue looks up an lvalue's address, descending through any
// (compile-time-constant) array indices.
func (c *Compiler) resolveLValue(lv ast.LValueExpr) (Variable, error) {
	current, ok := c.vars.Borrow(lv.Name)
	if !ok {
		return Variable{}, errUndefinedVariable(lv.Name)
	}

	for _, idxExpr := range lv.Index {
		if current.Type.Kind != ast.KindArray {
			return Variable{}, errNotAnArray(current.Type)
		}
		idxValue, err := c.evalExpression(idxExpr)
		if err != nil {
			return Variable{}, err
		}
		if idxValue.Kind != ValueConstant {
			return Variable{}, errNonConstantArrayIndex()
		}
		idx := asByte(idxValue.Constant)
		if idx >= current.Type.Len {
			return Variable{}, errArrayIndexOutOfBounds(idx, current.Type.Len)
		}
		elemSize := current.Type.Element.Size()
		current = Variable{
			Address: current.Address + uint16(idx)*elemSize,
			Type:    *current.Type.Element,
			Mutable: current.Mutable,
		}
	}
	return current, nil
}

// Statements

func (c *Compiler) compileInstructions(instrs []ast.Instruction) error {
	for _, instr := range instrs {
		if err := c.compileInstruction(instr); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileInstruction(instr ast.Instruction) error {
	switch instr.Kind {
	case ast.Define:
		return c.compileDefine(instr)
	case ast.Assign:
		return c.compileAssign(instr)
	case ast.AddAssign:
		return c.compileCompoundAssign(instr, true)
	case ast.SubAssign:
		return c.compileCompoundAssign(instr, false)
	case ast.Write:
		return c.compileWrite(instr)
	case ast.Print:
		return c.printString(instr.String)
	case ast.Scope:
		return c.scoped(func() error { return c.compileInstructions(instr.Body) })
	case ast.While:
		return c.compileWhile(instr)
	case ast.IfThenElse:
		return c.compileIfThenElse(instr)
	case ast.ForEach:
		return c.compileForEach(instr)
	}
	panic("compiler: unknown instruction kind")
}

func (c *Compiler) compileDefine(instr ast.Instruction) error {
	if c.vars.DefinedInCurrentScope(instr.Name) {
		return errAlreadyDefinedVariable(instr.Name)
	}
	value, err := c.evalExpression(instr.Value)
	if err != nil {
		return err
	}
	valueType, err := c.typeOf(value)
	if err != nil {
		return err
	}
	if instr.ValueType != nil && !instr.ValueType.Equal(valueType) {
		return errTypeError(*instr.ValueType, valueType)
	}
	variable, err := c.newOwnedVar(valueType, instr.Mutable)
	if err != nil {
		return err
	}
	if err := c.initializeFrom(variable, value); err != nil {
		return err
	}
	c.vars.Register(instr.Name, variable)
	return nil
}

func (c *Compiler) compileAssign(instr ast.Instruction) error {
	lvalue, err := c.resolveLValue(instr.LValue)
	if err != nil {
		return err
	}
	if !lvalue.Mutable {
		return errMutableBorrowOfImmutableVariable(instr.LValue.Name)
	}
	value, err := c.evalExpression(instr.Value)
	if err != nil {
		return err
	}
	valueType, err := c.typeOf(value)
	if err != nil {
		return err
	}
	if !valueType.Equal(lvalue.Type) {
		return errTypeError(lvalue.Type, valueType)
	}
	return c.assignVariable(lvalue, value)
}

func (c *Compiler) compileCompoundAssign(instr ast.Instruction, isAdd bool) error {
	lvalue, err := c.resolveLValue(instr.LValue)
	if err != nil {
		return err
	}
	if !lvalue.Mutable {
		return errMutableBorrowOfImmutableVariable(instr.LValue.Name)
	}
	value, err := c.evalExpression(instr.Value)
	if err != nil {
		return err
	}
	valueType, err := c.typeOf(value)
	if err != nil {
		return err
	}
	if !valueType.Equal(lvalue.Type) {
		return errTypeError(lvalue.Type, valueType)
	}
	if lvalue.Type.Kind == ast.KindArray {
		return errTypeError(ast.U8, lvalue.Type)
	}
	if isAdd {
		return c.addAssign(lvalue.Address, value)
	}
	return c.subAssign(lvalue.Address, value)
}

func (c *Compiler) compileWrite(instr ast.Instruction) error {
	value, err := c.evalExpression(instr.Expr)
	if err != nil {
		return err
	}
	return c.writeValue(value)
}

func (c *Compiler) writeValue(value Value) error {
	switch value.Kind {
	case ValueConstant:
		t, err := c.typeOf(value)
		if err != nil {
			return err
		}
		if t.Kind == ast.KindArray {
			for _, b := range value.Constant.Data() {
				c.builder.WriteConst(b)
			}
			return nil
		}
		c.builder.WriteConst(asByte(value.Constant))
		return nil
	case ValueVariable:
		v := value.Variable
		if v.Type.Kind == ast.KindArray {
			size := v.Type.Size()
			for i := uint16(0); i < size; i++ {
				c.builder.Write(v.Address + i)
			}
		} else {
			c.builder.Write(v.Address)
		}
		if v.IsOwned() {
			c.zeroVar(v)
			c.release(v)
		}
		return nil
	}
	panic("compiler: unknown value kind")
}

// printString lowers a Print instruction to a single temporary cell,
// incrementally wrapping from one character's byte to the next so most
// characters cost only a small delta rather than a full reset
// (spec.md §4.C "print_string").
func (c *Compiler) printString(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return errNonAsciiString(s)
		}
	}

	temp, err := c.newOwnedU8(0)
	if err != nil {
		return err
	}
	var current uint8
	for i := 0; i < len(s); i++ {
		next := s[i]
		if err := c.addAssignConst(temp.Address, next-current); err != nil {
			c.release(temp)
			return err
		}
		c.builder.Write(temp.Address)
		current = next
	}
	if err := c.subAssignConst(temp.Address, current); err != nil {
		c.release(temp)
		return err
	}
	c.release(temp)
	return nil
}

func (c *Compiler) compileWhile(instr ast.Instruction) error {
	pred := instr.Predicate

	if pred.Kind == ast.ExprConstant {
		if !isTruthy(pred.Constant) {
			return nil
		}
		guard, err := c.newOwnedU8(1)
		if err != nil {
			return err
		}
		err = c.loopWhile(guard.Address, func() error { return c.compileInstructions(instr.Body) })
		c.release(guard)
		return err
	}

	if pred.Kind == ast.ExprLValue && len(pred.LValue.Index) == 0 {
		v, ok := c.vars.Borrow(pred.LValue.Name)
		if !ok {
			return errUndefinedVariable(pred.LValue.Name)
		}
		return c.loopWhile(v.Address, func() error { return c.compileInstructions(instr.Body) })
	}

	predValue, err := c.evalExpression(pred)
	if err != nil {
		return err
	}
	temp, err := c.newOwned(predValue)
	if err != nil {
		return err
	}
	err = c.loopWhile(temp.Address, func() error {
		if err := c.compileInstructions(instr.Body); err != nil {
			return err
		}
		newPred, err := c.evalExpression(pred)
		if err != nil {
			return err
		}
		return c.assign(temp.Address, newPred)
	})
	c.release(temp)
	return err
}

func (c *Compiler) compileIfThenElse(instr ast.Instruction) error {
	predValue, err := c.evalExpression(instr.Predicate)
	if err != nil {
		return err
	}
	if len(instr.ElseBody) == 0 {
		return c.ifThen(predValue, func() error { return c.compileInstructions(instr.Body) })
	}
	return c.ifThenElse(predValue,
		func() error { return c.compileInstructions(instr.Body) },
		func() error { return c.compileInstructions(instr.ElseBody) },
	)
}

// compileForEach unrolls over an array's elements at compile time,
// binding LoopVariable to each element in turn. A Variable array is
// iterated in place (mutations inside the body affect the array); a
// Constant array literal materializes one disposable cell per element.
func (c *Compiler) compileForEach(instr ast.Instruction) error {
	arrValue, err := c.evalExpression(instr.Array)
	if err != nil {
		return err
	}
	arrType, err := c.typeOf(arrValue)
	if err != nil {
		return err
	}
	if arrType.Kind != ast.KindArray {
		return errNotAnArray(arrType)
	}
	elems, err := c.elementValues(arrValue)
	if err != nil {
		return err
	}

	for _, elem := range elems {
		err := c.scoped(func() error {
			var v Variable
			if elem.Kind == ValueVariable {
				v = elem.Variable
			} else {
				owned, err := c.newOwned(elem)
				if err != nil {
					return err
				}
				v = owned
			}
			c.vars.Register(instr.LoopVariable, v)
			return c.compileInstructions(instr.Body)
		})
		if err != nil {
			return err
		}
	}

	if arrValue.Kind == ValueVariable && arrValue.Variable.IsOwned() {
		c.release(arrValue.Variable)
	}
	return nil
}
