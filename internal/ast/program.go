package ast

// InstructionKind identifies which case of Instruction a value represents.
type InstructionKind int

const (
	Define InstructionKind = iota
	Assign
	AddAssign
	SubAssign
	Write
	Print
	Scope
	While
	IfThenElse
	ForEach
)

// Instruction is one statement of a BrainCrab program. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Instruction struct {
	Kind InstructionKind

	// Define
	Name      string
	ValueType *Type // optional explicit type annotation
	Mutable   bool
	Value     Expression

	// Assign / AddAssign / SubAssign
	LValue LValueExpr

	// Write
	Expr Expression

	// Print
	String string

	// Scope / While / IfThenElse bodies
	Body     []Instruction
	ElseBody []Instruction

	// While / IfThenElse predicate
	Predicate Expression

	// ForEach
	LoopVariable string
	Array        Expression
}

// DefineInstr builds a `Define name := value` (or `Define mut name := value`) instruction.
func DefineInstr(name string, mutable bool, value Expression) Instruction {
	return Instruction{Kind: Define, Name: name, Mutable: mutable, Value: value}
}

// DefineTypedInstr is DefineInstr with an explicit type annotation.
func DefineTypedInstr(name string, t Type, mutable bool, value Expression) Instruction {
	return Instruction{Kind: Define, Name: name, ValueType: &t, Mutable: mutable, Value: value}
}

func AssignInstr(lvalue LValueExpr, value Expression) Instruction {
	return Instruction{Kind: Assign, LValue: lvalue, Value: value}
}

func AddAssignInstr(lvalue LValueExpr, value Expression) Instruction {
	return Instruction{Kind: AddAssign, LValue: lvalue, Value: value}
}

func SubAssignInstr(lvalue LValueExpr, value Expression) Instruction {
	return Instruction{Kind: SubAssign, LValue: lvalue, Value: value}
}

func WriteInstr(expr Expression) Instruction { return Instruction{Kind: Write, Expr: expr} }

func PrintInstr(s string) Instruction { return Instruction{Kind: Print, String: s} }

func ScopeInstr(body []Instruction) Instruction { return Instruction{Kind: Scope, Body: body} }

func WhileInstr(predicate Expression, body []Instruction) Instruction {
	return Instruction{Kind: While, Predicate: predicate, Body: body}
}

func IfThenInstr(predicate Expression, body []Instruction) Instruction {
	return Instruction{Kind: IfThenElse, Predicate: predicate, Body: body}
}

func IfThenElseInstr(predicate Expression, ifBody, elseBody []Instruction) Instruction {
	return Instruction{Kind: IfThenElse, Predicate: predicate, Body: ifBody, ElseBody: elseBody}
}

func ForEachInstr(loopVariable string, array Expression, body []Instruction) Instruction {
	return Instruction{Kind: ForEach, LoopVariable: loopVariable, Array: array, Body: body}
}

// Program is an ordered list of top-level instructions.
type Program struct {
	Instructions []Instruction
}

// NewProgram builds a Program from a slice of instructions.
func NewProgram(instructions ...Instruction) Program {
	return Program{Instructions: instructions}
}
