package runtime

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lookbusy1344/basicc/parser"
)

func TestFileOpenModeFlags(t *testing.T) {
	assert.Equal(t, OpenReadOnly, FileOpenModeFlags(0))
	assert.Equal(t, OpenWriteOnly|OpenCreat|OpenTrunc, FileOpenModeFlags(1))
	assert.Equal(t, OpenWriteOnly|OpenCreat|OpenAppend, FileOpenModeFlags(2))
	assert.Equal(t, OpenReadOnly, FileOpenModeFlags(99), "an unrecognized mode falls back to read-only")
}

func TestSourceFor(t *testing.T) {
	assert.True(t, bytes.Equal(SourceFor("win64"), Win64Source))
	assert.True(t, bytes.Equal(SourceFor("sysv"), SysVSource))
	assert.True(t, bytes.Equal(SourceFor(""), SysVSource), "an unrecognized ABI name defaults to sysv")
}

func TestEmbeddedRuntimeSourcesDeclareEveryContractRoutine(t *testing.T) {
	routines := []string{
		"print_string", "print_char", "print_newline", "print_float",
		"input_string", "input_number",
		"str_val", "str_str", "str_chr", "str_left", "str_right", "str_mid",
		"str_instr", "str_cat", "str_eq", "str_cmp",
		"read_number", "read_string", "restore",
		"rnd", "timer", "cls",
		"file_open", "file_close",
		"file_print_string", "file_print_float",
		"file_input_number", "file_input_string",
		"gosub_overflow", "array_bounds_error", "div_by_zero_error", "calloc_array",
	}
	for _, name := range routines {
		directive := []byte(".globl " + name)
		assert.True(t, bytes.Contains(SysVSource, directive), "sysv runtime missing .globl %s", name)
		assert.True(t, bytes.Contains(Win64Source, directive), "win64 runtime missing .globl %s", name)
	}
}

func TestGosubStackDepthMatchesParserConstant(t *testing.T) {
	// Mirrored rather than imported (the .s files can't import Go
	// constants), so both copies must agree by value.
	assert.Equal(t, 256, GosubStackDepth)
	assert.Equal(t, parser.GosubStackDepth, GosubStackDepth)
}
