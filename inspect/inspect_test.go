package inspect

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
	return prog
}

func TestRootLabel(t *testing.T) {
	prog := mustParse(t, "10 PRINT 1\n")
	assert.Equal(t, "Program (0 procedures)", rootLabel(prog))

	prog = mustParse(t, "10 PRINT Double(1)\nFUNCTION Double%(n%)\nDouble% = n% * 2\nEND FUNCTION\n")
	assert.Equal(t, "Program (1 procedures)", rootLabel(prog))
}

func TestRenderSymbols_EmptyTable(t *testing.T) {
	out := renderSymbols(nil)
	assert.Contains(t, out, "(none)")
}

func TestRenderSymbols_IncludesScalarAndArrayKinds(t *testing.T) {
	prog := mustParse(t, "10 DIM A%(5)\n20 LET B% = 1\n")
	out := renderSymbols(prog.SymbolTable.All())

	assert.Contains(t, out, "array(1 dim)")
	assert.Contains(t, out, "scalar")
}

func TestRenderData_EmptyTable(t *testing.T) {
	prog := mustParse(t, "10 PRINT 1\n")
	assert.Contains(t, renderData(prog), "(empty)")
}

func TestRenderData_ShowsEveryTagAndRestoreLabels(t *testing.T) {
	prog := mustParse(t, "10 DATA 1, 2.5, \"hi\"\n20 READ A%, B#, C$\nMyLabel:\n30 DATA 9\n40 READ D%\n")
	out := renderData(prog)

	assert.Contains(t, out, "int    1")
	assert.Contains(t, out, "double 2.5")
	assert.Contains(t, out, `string "hi"`)
	assert.Contains(t, out, "RESTORE labels")
	assert.Contains(t, out, "mylabel")
}

func TestRenderLabels_EmptyAndPopulated(t *testing.T) {
	assert.Contains(t, renderLabels(nil), "(none)")

	prog := mustParse(t, "10 GOTO 20\n20 PRINT 1\n")
	out := renderLabels(prog.Main.Labels)
	assert.Contains(t, out, "10")
	assert.Contains(t, out, "20")
}

func TestRenderProcedure_FunctionShowsReturnTypeAndParams(t *testing.T) {
	prog := mustParse(t, "10 PRINT Square(2)\nFUNCTION Square%(n%)\nSquare% = n% * n%\nEND FUNCTION\n")
	out := renderProcedure(prog.Procedures[0])

	assert.Contains(t, out, "Square")
	assert.Contains(t, out, "returns")
	assert.Contains(t, out, "params: n")
}

func TestScopeName(t *testing.T) {
	assert.Equal(t, "global", scopeName(parser.ScopeGlobal))
	assert.Equal(t, "local", scopeName(parser.ScopeLocal))
	assert.Equal(t, "param", scopeName(parser.ScopeParam))
	assert.Equal(t, "funcret", scopeName(parser.ScopeFuncReturn))
}
