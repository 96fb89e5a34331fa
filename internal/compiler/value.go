package compiler

import "braincrab/internal/ast"

// reservation is the physical tape-allocator footprint backing one Owned
// variable: its reserved range, released together on scope exit.
type reservation struct {
	physical uint16
	size     uint16
}

// Variable is a place in ABF address space: either Owned (it carries a
// tape reservation that must eventually be released) or Borrowed (a view
// with no lifetime responsibility). This mirrors spec.md §3.D directly,
// substituting explicit release at scope exit (Compiler.release) for
// Rust's Drop.
type Variable struct {
	Address uint16
	Type    ast.Type
	Mutable bool

	owned *reservation // nil when Borrowed
}

// IsOwned reports whether this variable holds a tape reservation.
func (v Variable) IsOwned() bool { return v.owned != nil }

// Borrow returns a lifetime-free view of v with the same address, type
// and mutability.
func (v Variable) Borrow() Variable {
	return Variable{Address: v.Address, Type: v.Type, Mutable: v.Mutable}
}

// ValueKind identifies which case of Value a value represents.
type ValueKind int

const (
	ValueConstant ValueKind = iota
	ValueVariable
)

// Value is either a compile-time Constant or a Variable (spec.md §3.D).
type Value struct {
	Kind     ValueKind
	Constant ast.ConstantValue
	Variable Variable
}

func ConstValue(c ast.ConstantValue) Value { return Value{Kind: ValueConstant, Constant: c} }

func VarValue(v Variable) Value { return Value{Kind: ValueVariable, Variable: v} }

// IsOwned reports whether this value is backed by an Owned variable.
func (v Value) IsOwned() bool {
	return v.Kind == ValueVariable && v.Variable.IsOwned()
}

// Borrow returns a lifetime-free view of v: constants pass through
// unchanged, and an Owned variable becomes a Borrowed one, never
// transferring or duplicating its underlying reservation.
func (v Value) Borrow() Value {
	if v.Kind == ValueVariable {
		return VarValue(v.Variable.Borrow())
	}
	return v
}

// Type returns v's BrainCrab type.
func (v Value) Type() (ast.Type, error) {
	if v.Kind == ValueConstant {
		return v.Constant.ValueType()
	}
	return v.Variable.Type, nil
}

// Mutable returns a mutable borrow of v's underlying variable, or an
// error if v is a constant or an immutable variable.
func (v Value) Mutable() (Variable, error) {
	if v.Kind == ValueConstant {
		return Variable{}, errMutableBorrowOfImmutableVariable("<constant>")
	}
	if !v.Variable.Mutable {
		return Variable{}, errMutableBorrowOfImmutableVariable("<value>")
	}
	return v.Variable.Borrow(), nil
}
