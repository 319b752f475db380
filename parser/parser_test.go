package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/basicc/parser"
)

func mustParse(t *testing.T, src string) *parser.Program {
	t.Helper()
	prog, err := parser.ParseSource(src, "t.bas")
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func TestParse_SimpleAssignmentAndPrint(t *testing.T) {
	prog := mustParse(t, "10 LET X% = 5\n20 PRINT X%\n")
	require.Len(t, prog.Main.Body, 2)

	assign, ok := prog.Main.Body[0].(*parser.AssignStmt)
	require.True(t, ok, "expected AssignStmt, got %T", prog.Main.Body[0])
	assert.Equal(t, "x", assign.Target.Name)
	assert.Equal(t, "10", assign.Label)

	print, ok := prog.Main.Body[1].(*parser.PrintStmt)
	require.True(t, ok, "expected PrintStmt, got %T", prog.Main.Body[1])
	require.Len(t, print.Items, 1)
}

func TestParse_ForwardReferencedFunctionCall(t *testing.T) {
	// __main calls Square, which is defined textually after __main. This
	// must resolve as a call, not be mistaken for an undeclared array ref,
	// because prescanProcedures interns every signature before any
	// statement body is parsed.
	src := "10 PRINT Square(4)\n" +
		"FUNCTION Square%(n%)\n" +
		"  Square% = n% * n%\n" +
		"END FUNCTION\n"
	prog := mustParse(t, src)

	print := prog.Main.Body[0].(*parser.PrintStmt)
	call, ok := print.Items[0].Value.(*parser.CallExpr)
	require.True(t, ok, "expected CallExpr, got %T", print.Items[0].Value)
	assert.Equal(t, "Square", call.Name)
}

func TestParse_IfElseIfElse(t *testing.T) {
	src := "10 IF X% > 0 THEN\n" +
		"     PRINT \"positive\"\n" +
		"   ELSEIF X% < 0 THEN\n" +
		"     PRINT \"negative\"\n" +
		"   ELSE\n" +
		"     PRINT \"zero\"\n" +
		"   END IF\n"
	prog := mustParse(t, src)

	ifStmt, ok := prog.Main.Body[0].(*parser.IfStmt)
	require.True(t, ok, "expected IfStmt, got %T", prog.Main.Body[0])
	assert.Len(t, ifStmt.ElseIfs, 1)
	assert.NotNil(t, ifStmt.Else)
}

func TestParse_ForLoopDefaultStep(t *testing.T) {
	src := "10 FOR I% = 1 TO 10\n20 PRINT I%\n30 NEXT I%\n"
	prog := mustParse(t, src)

	forStmt, ok := prog.Main.Body[0].(*parser.ForStmt)
	require.True(t, ok, "expected ForStmt, got %T", prog.Main.Body[0])
	assert.Nil(t, forStmt.Step, "a FOR with no STEP clause should leave Step nil")
}

func TestParse_DataAndReadAndRestore(t *testing.T) {
	src := "10 DATA 1, 2.5, \"hi\"\n" +
		"20 READ A%, B#, C$\n" +
		"30 RESTORE\n"
	prog := mustParse(t, src)

	require.Len(t, prog.Data, 3)
	assert.Equal(t, parser.DataInteger, prog.Data[0].Tag)
	assert.Equal(t, parser.DataDouble, prog.Data[1].Tag)
	assert.Equal(t, parser.DataString, prog.Data[2].Tag)
	assert.Equal(t, "hi", prog.Data[2].Str)

	// DATA statements are elided from the executable statement stream.
	for _, s := range prog.Main.Body {
		_, isData := s.(*parser.DataStmt)
		assert.False(t, isData, "DataStmt should not appear in the executable body")
	}
}

func TestParse_SelectCaseRangeAndIs(t *testing.T) {
	src := "10 SELECT CASE X%\n" +
		"     CASE 1 TO 5\n" +
		"       PRINT \"low\"\n" +
		"     CASE IS > 100\n" +
		"       PRINT \"high\"\n" +
		"     CASE ELSE\n" +
		"       PRINT \"mid\"\n" +
		"   END SELECT\n"
	prog := mustParse(t, src)

	sel, ok := prog.Main.Body[0].(*parser.SelectCaseStmt)
	require.True(t, ok, "expected SelectCaseStmt, got %T", prog.Main.Body[0])
	require.Len(t, sel.Arms, 2)
	assert.Len(t, sel.Arms[0].Ranges, 1)
	assert.Len(t, sel.Arms[1].Tests, 1)
	assert.Equal(t, ">", sel.Arms[1].Tests[0].Op)
	assert.NotNil(t, sel.Default)
}

func TestParse_BinaryOperatorPrecedence(t *testing.T) {
	// 2 + 3 * 4 ^ 2 should parse as 2 + (3 * (4 ^ 2)), i.e. the top-level
	// node is OpAdd whose right side is OpMul whose right side is OpPow.
	// X# is Double, the type of the whole expression, so the resolver
	// does not wrap the value in a CoerceExpr.
	prog := mustParse(t, "10 LET X# = 2 + 3 * 4 ^ 2\n")
	assign := prog.Main.Body[0].(*parser.AssignStmt)

	add, ok := assign.Value.(*parser.BinaryExpr)
	require.True(t, ok, "expected top-level BinaryExpr, got %T", assign.Value)
	assert.Equal(t, parser.OpAdd, add.Op)

	mul, ok := add.Right.(*parser.BinaryExpr)
	require.True(t, ok, "expected OpMul on the right of OpAdd, got %T", add.Right)
	assert.Equal(t, parser.OpMul, mul.Op)

	pow, ok := mul.Right.(*parser.BinaryExpr)
	require.True(t, ok, "expected OpPow on the right of OpMul, got %T", mul.Right)
	assert.Equal(t, parser.OpPow, pow.Op)
}

func TestParse_UndefinedGotoTargetIsResolutionError(t *testing.T) {
	_, err := parser.ParseSource("10 GOTO 999\n20 PRINT 1\n", "t.bas")
	require.Error(t, err)
}

func TestParse_DivModAndIntDivOperators(t *testing.T) {
	// Long targets match the Long result of \ and MOD, so the values stay
	// bare BinaryExprs.
	prog := mustParse(t, "10 LET A& = 7 \\ 2\n20 LET B& = 7 MOD 2\n")

	div := prog.Main.Body[0].(*parser.AssignStmt).Value.(*parser.BinaryExpr)
	assert.Equal(t, parser.OpIntDiv, div.Op)

	mod := prog.Main.Body[1].(*parser.AssignStmt).Value.(*parser.BinaryExpr)
	assert.Equal(t, parser.OpMod, mod.Op)
}
