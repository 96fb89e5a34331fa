package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"braincrab/internal/abf"
	"braincrab/internal/ast"
	"braincrab/internal/bf"
	"braincrab/internal/emitter"
	"braincrab/internal/optimizer"
)

// run compiles program end to end (Compile → Optimize → Emit → interpret)
// and returns everything it wrote to output.
func run(t *testing.T, program ast.Program, input string) string {
	t.Helper()
	abfProg, err := Compile(program)
	require.NoError(t, err)

	optimized := optimizer.Optimize(abfProg)
	bfProg := emitter.Emit(optimized, emitter.Options{Seed: 1, Iterations: 50})

	var out bytes.Buffer
	interp := bf.NewInterpreter(bytes.NewBufferString(input), &out)
	require.NoError(t, interp.Run(bfProg))
	return out.String()
}

func compileErr(t *testing.T, program ast.Program) error {
	t.Helper()
	_, err := Compile(program)
	require.Error(t, err)
	return err
}

func TestCompilePrintsLiteralString(t *testing.T) {
	program := ast.NewProgram(ast.PrintInstr("Hello, World!\n"))
	assert.Equal(t, "Hello, World!\n", run(t, program, ""))
}

func TestCompileWritesConstantByte(t *testing.T) {
	program := ast.NewProgram(ast.WriteInstr(ast.U8Expr('H')))
	assert.Equal(t, "H", run(t, program, ""))
}

func TestCompileCountdownWritesTenAs(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("n", true, ast.U8Expr(10)),
		ast.WhileInstr(ast.Var("n"), []ast.Instruction{
			ast.WriteInstr(ast.U8Expr('A')),
			ast.SubAssignInstr(ast.Variable("n"), ast.U8Expr(1)),
		}),
	)
	assert.Equal(t, "AAAAAAAAAA", run(t, program, ""))
}

func TestCompileArithmeticAddition(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("a", false, ast.U8Expr(3)),
		ast.DefineInstr("b", false, ast.U8Expr(5)),
		ast.DefineInstr("sum", false, ast.AddExpr(ast.Var("a"), ast.Var("b"))),
		ast.WriteInstr(ast.AddExpr(ast.Var("sum"), ast.U8Expr('0'))),
	)
	assert.Equal(t, "8", run(t, program, ""))
}

func TestCompileComparisonLessThanEquals(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("a", false, ast.U8Expr(3)),
		ast.DefineInstr("b", false, ast.U8Expr(5)),
		ast.DefineInstr("result", false, ast.LessThanEqualsExpr(ast.Var("a"), ast.Var("b"))),
		ast.WriteInstr(ast.AddExpr(ast.Var("result"), ast.U8Expr('0'))),
	)
	assert.Equal(t, "1", run(t, program, ""))
}

func TestCompileComparisonGreaterThanFalse(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("a", false, ast.U8Expr(3)),
		ast.DefineInstr("b", false, ast.U8Expr(5)),
		ast.DefineInstr("result", false, ast.GreaterThanExpr(ast.Var("a"), ast.Var("b"))),
		ast.WriteInstr(ast.AddExpr(ast.Var("result"), ast.U8Expr('0'))),
	)
	assert.Equal(t, "0", run(t, program, ""))
}

func TestCompileReadEchoesInputByte(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("ch", false, ast.Read()),
		ast.WriteInstr(ast.Var("ch")),
	)
	assert.Equal(t, "Q", run(t, program, "Q"))
}

func TestCompileByteArithmeticWrapsAt256(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("a", false, ast.U8Expr(250)),
		ast.DefineInstr("b", false, ast.U8Expr(10)),
		ast.DefineInstr("sum", false, ast.AddExpr(ast.Var("a"), ast.Var("b"))),
		ast.WriteInstr(ast.Var("sum")),
	)
	assert.Equal(t, string([]byte{4}), run(t, program, ""))
}

func TestCompileConstantDivisionByZeroFoldsToOne(t *testing.T) {
	program := ast.NewProgram(
		ast.WriteInstr(ast.AddExpr(ast.DivExpr(ast.U8Expr(9), ast.U8Expr(0)), ast.U8Expr('0'))),
	)
	assert.Equal(t, "1", run(t, program, ""))
}

func TestCompileModuloComputesRemainder(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("a", false, ast.U8Expr(17)),
		ast.DefineInstr("b", false, ast.U8Expr(5)),
		ast.DefineInstr("rem", false, ast.ModExpr(ast.Var("a"), ast.Var("b"))),
		ast.WriteInstr(ast.AddExpr(ast.Var("rem"), ast.U8Expr('0'))),
	)
	assert.Equal(t, "2", run(t, program, ""))
}

func TestCompileIfThenElseSelectsBranch(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("flag", false, ast.BoolExpr(true)),
		ast.IfThenElseInstr(ast.Var("flag"),
			[]ast.Instruction{ast.WriteInstr(ast.U8Expr('Y'))},
			[]ast.Instruction{ast.WriteInstr(ast.U8Expr('N'))},
		),
	)
	assert.Equal(t, "Y", run(t, program, ""))
}

func TestCompileForEachUnrollsOverArrayElements(t *testing.T) {
	letters := ast.ArrayConst([]ast.ConstantValue{
		ast.U8Const('a'), ast.U8Const('b'), ast.U8Const('c'),
	})
	program := ast.NewProgram(
		ast.ForEachInstr("ch", ast.Const(letters), []ast.Instruction{
			ast.WriteInstr(ast.Var("ch")),
		}),
	)
	assert.Equal(t, "abc", run(t, program, ""))
}

func TestCompileForEachMutatesArrayInPlace(t *testing.T) {
	elems := ast.ArrayConst([]ast.ConstantValue{ast.U8Const(1), ast.U8Const(2), ast.U8Const(3)})
	program := ast.NewProgram(
		ast.DefineInstr("nums", true, ast.Const(elems)),
		ast.ForEachInstr("n", ast.Var("nums"), []ast.Instruction{
			ast.AddAssignInstr(ast.Variable("n"), ast.U8Expr(10)),
		}),
		ast.WriteInstr(ast.Ref(ast.Index("nums", ast.U8Expr(0)))),
		ast.WriteInstr(ast.Ref(ast.Index("nums", ast.U8Expr(1)))),
		ast.WriteInstr(ast.Ref(ast.Index("nums", ast.U8Expr(2)))),
	)
	assert.Equal(t, string([]byte{11, 12, 13}), run(t, program, ""))
}

func TestCompileArrayConstantIndexing(t *testing.T) {
	elems := ast.ArrayConst([]ast.ConstantValue{ast.U8Const('x'), ast.U8Const('y'), ast.U8Const('z')})
	program := ast.NewProgram(
		ast.DefineInstr("letters", false, ast.Const(elems)),
		ast.WriteInstr(ast.Ref(ast.Index("letters", ast.U8Expr(1)))),
	)
	assert.Equal(t, "y", run(t, program, ""))
}

func TestCompileWhileOneEqualsOneIsAnInfiniteLoopThatStillCompiles(t *testing.T) {
	program := ast.NewProgram(
		ast.WhileInstr(ast.EqualsExpr(ast.U8Expr(1), ast.U8Expr(1)), nil),
	)
	_, err := Compile(program)
	require.NoError(t, err)
}

func TestCompileUndefinedVariableReference(t *testing.T) {
	program := ast.NewProgram(ast.WriteInstr(ast.Var("nope")))
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindUndefinedVariable, cerr.Kind)
}

func TestCompileAlreadyDefinedVariableInSameScope(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("a", false, ast.U8Expr(1)),
		ast.DefineInstr("a", false, ast.U8Expr(2)),
	)
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindAlreadyDefinedVariable, cerr.Kind)
}

func TestCompileArrayLiteralWithDifferentTypesErrors(t *testing.T) {
	mixed := ast.ArrayConst([]ast.ConstantValue{ast.U8Const(1), ast.BoolConst(true)})
	program := ast.NewProgram(ast.DefineInstr("bad", false, ast.Const(mixed)))
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindArrayHasDifferentTypes, cerr.Kind)
}

func TestCompileIndexingANonArrayErrors(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("x", false, ast.U8Expr(5)),
		ast.WriteInstr(ast.Ref(ast.Index("x", ast.U8Expr(0)))),
	)
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindNotAnArray, cerr.Kind)
}

func TestCompileNonConstantArrayIndexErrors(t *testing.T) {
	elems := ast.ArrayConst([]ast.ConstantValue{ast.U8Const(1), ast.U8Const(2)})
	program := ast.NewProgram(
		ast.DefineInstr("arr", false, ast.Const(elems)),
		ast.DefineInstr("i", false, ast.Read()),
		ast.WriteInstr(ast.Ref(ast.Index("arr", ast.Var("i")))),
	)
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindNonConstantArrayIndex, cerr.Kind)
}

func TestCompileArrayIndexOutOfBoundsErrors(t *testing.T) {
	elems := ast.ArrayConst([]ast.ConstantValue{ast.U8Const(1), ast.U8Const(2)})
	program := ast.NewProgram(
		ast.DefineInstr("arr", false, ast.Const(elems)),
		ast.WriteInstr(ast.Ref(ast.Index("arr", ast.U8Expr(5)))),
	)
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindArrayIndexOutOfBounds, cerr.Kind)
}

func TestCompileAssignToImmutableVariableErrors(t *testing.T) {
	program := ast.NewProgram(
		ast.DefineInstr("x", false, ast.U8Expr(1)),
		ast.AssignInstr(ast.Variable("x"), ast.U8Expr(2)),
	)
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindMutableBorrowOfImmutableVariable, cerr.Kind)
}

func TestCompileNonAsciiPrintStringErrors(t *testing.T) {
	program := ast.NewProgram(ast.PrintInstr("café"))
	err := compileErr(t, program)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindNonAsciiString, cerr.Kind)
}

func TestCompileNestedScopeReleasesAndReusesAddresses(t *testing.T) {
	program := ast.NewProgram(
		ast.ScopeInstr([]ast.Instruction{
			ast.DefineInstr("tmp", false, ast.U8Expr(42)),
		}),
		ast.DefineInstr("after", false, ast.U8Expr('!')),
		ast.WriteInstr(ast.Var("after")),
	)
	assert.Equal(t, "!", run(t, program, ""))
}

func TestAddFreesRunsOnCompiledOutput(t *testing.T) {
	program := ast.NewProgram(ast.DefineInstr("a", false, ast.U8Expr(1)))
	out, err := Compile(program)
	require.NoError(t, err)

	frees := 0
	for _, instr := range out.Instructions {
		if instr.Kind == abf.OpFree {
			frees++
		}
	}
	assert.Equal(t, 1, frees)
}
