package main

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/basicc/parser"
)

func TestExitCodeFor_CompileErrorsExitOne(t *testing.T) {
	_, err := parser.ParseSource("10 GOTO 999\n", "t.bas")
	require.Error(t, err)
	assert.Equal(t, 1, exitCodeFor(err))
}

func TestExitCodeFor_ToolchainErrorsExitTwo(t *testing.T) {
	assert.Equal(t, 2, exitCodeFor(errors.New("exec: \"as\": executable file not found in $PATH")))
}

func TestIsCompileError(t *testing.T) {
	_, perr := parser.ParseSource("10 GOTO 999\n", "t.bas")
	assert.True(t, isCompileError(perr))
	assert.False(t, isCompileError(errors.New("linker failed")))
}

func TestRun_NoArgsPrintsUsageAndExitsTwo(t *testing.T) {
	assert.Equal(t, 2, run(nil))
}

func TestRun_VersionFlagExitsZero(t *testing.T) {
	assert.Equal(t, 0, run([]string{"-version"}))
}

func TestRun_DumpConfigWritesFileAndExitsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basicc.toml")
	assert.Equal(t, 0, run([]string{"-dump-config", path}))
	assert.FileExists(t, path)
}

func TestRun_ParseErrorExitsOne(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX tool assumptions")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.bas")
	require.NoError(t, os.WriteFile(src, []byte("10 GOTO 999\n"), 0600))

	assert.Equal(t, 1, run([]string{src}))
}
