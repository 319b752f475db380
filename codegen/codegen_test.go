package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/basicc/codegen"
	"github.com/lookbusy1344/basicc/parser"
)

func generate(t *testing.T, src string, abi codegen.ABI, boundsCheck bool) string {
	t.Helper()
	prog, err := parser.ParseSource(src, "t.bas")
	require.NoError(t, err)
	asm, err := codegen.Generate(prog, abi, boundsCheck)
	require.NoError(t, err)
	return asm
}

func TestGenerate_EmitsMainEntryPoint(t *testing.T) {
	asm := generate(t, "10 PRINT \"hi\"\n", codegen.SysVABI, false)

	assert.Contains(t, asm, ".globl main")
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "call print_string")
}

func TestGenerate_UserSubGetsMangledLabel(t *testing.T) {
	src := "10 Greet\n" +
		"SUB Greet\n" +
		"  PRINT \"hello\"\n" +
		"END SUB\n"
	asm := generate(t, src, codegen.SysVABI, false)

	assert.Contains(t, asm, "basic_sub_greet:")
	assert.Contains(t, asm, "call basic_sub_greet")
}

func TestGenerate_IntDivAndModEmitZeroCheck(t *testing.T) {
	src := "10 LET A% = 7 \\ 2\n20 LET B% = 7 MOD 2\n"
	asm := generate(t, src, codegen.SysVABI, false)

	assert.Equal(t, 2, strings.Count(asm, "call div_by_zero_error"),
		"both \\ and MOD should trap on a zero divisor")
	assert.Contains(t, asm, "idivq")
}

func TestGenerate_FloatDivDoesNotEmitZeroCheck(t *testing.T) {
	asm := generate(t, "10 LET A# = 7 / 2\n", codegen.SysVABI, false)

	assert.NotContains(t, asm, "div_by_zero_error",
		"/ keeps IEEE semantics and must not trap per spec")
}

func TestGenerate_BoundsCheckEmitsTrapOnlyWhenEnabled(t *testing.T) {
	src := "10 DIM A%(10)\n20 LET A%(3) = 1\n"

	withCheck := generate(t, src, codegen.SysVABI, true)
	assert.Contains(t, withCheck, "array_bounds_error")

	withoutCheck := generate(t, src, codegen.SysVABI, false)
	assert.NotContains(t, withoutCheck, "array_bounds_error")
}

func TestGenerate_StringConcatUsesRuntimeHelper(t *testing.T) {
	asm := generate(t, "10 LET A$ = \"a\" + \"b\"\n", codegen.SysVABI, false)
	assert.Contains(t, asm, "call str_cat")
}

func TestGenerate_DeduplicatesIdenticalStringLiterals(t *testing.T) {
	asm := generate(t, "10 PRINT \"dup\"\n20 PRINT \"dup\"\n", codegen.SysVABI, false)

	assert.Equal(t, 1, strings.Count(asm, `.asciz "dup"`),
		"identical string literals should share one .data entry")
}

func TestGenerate_Win64UsesShadowSpaceConventions(t *testing.T) {
	asm := generate(t, "10 PRINT \"hi\"\n", codegen.Win64ABI, false)
	assert.Contains(t, asm, "call print_string")
	assert.Contains(t, asm, "subq $32, %rsp")
}
