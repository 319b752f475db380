package driver_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/basicc/config"
	"github.com/lookbusy1344/basicc/driver"
)

// fakeTool writes an executable shell script to dir/name that just touches
// its "-o TARGET" argument, standing in for "as"/"cc" so these tests never
// depend on a real assembler or linker being installed.
func fakeTool(t *testing.T, dir, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts assume a POSIX shell")
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nprev=\nfor arg in \"$@\"; do\n  if [ \"$prev\" = \"-o\" ]; then\n    : > \"$arg\"\n  fi\n  prev=\"$arg\"\ndone\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func baseOptions(t *testing.T, srcPath string) driver.Options {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Tools.Assembler = fakeTool(t, dir, "fake-as")
	cfg.Tools.Linker = fakeTool(t, dir, "fake-cc")
	return driver.Options{InputPath: srcPath, Cfg: cfg}
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bas")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func TestCompile_AsmOnlyWritesTextNotExecutable(t *testing.T) {
	src := writeSource(t, "10 PRINT \"hi\"\n")
	opts := baseOptions(t, src)
	opts.AsmOnly = true

	result, err := driver.Compile(opts)
	require.NoError(t, err)

	data, err := os.ReadFile(result.AsmPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "call print_string")
	assert.Empty(t, result.ObjPath)
	assert.Empty(t, result.OutputPath)
}

func TestCompile_FullPipelineProducesExecutablePath(t *testing.T) {
	src := writeSource(t, "10 PRINT \"hi\"\n")
	opts := baseOptions(t, src)

	result, err := driver.Compile(opts)
	require.NoError(t, err)

	assert.FileExists(t, result.OutputPath)
	_, statErr := os.Stat(result.AsmPath)
	assert.True(t, os.IsNotExist(statErr), "intermediate .s should be removed unless KeepAsm is set")
}

func TestCompile_KeepAsmRetainsIntermediates(t *testing.T) {
	src := writeSource(t, "10 PRINT \"hi\"\n")
	opts := baseOptions(t, src)
	opts.KeepAsm = true

	result, err := driver.Compile(opts)
	require.NoError(t, err)

	assert.FileExists(t, result.AsmPath)
	assert.FileExists(t, result.ObjPath)
}

func TestCompile_ParseErrorNeverReachesToolchain(t *testing.T) {
	src := writeSource(t, "10 GOTO 999\n")
	opts := baseOptions(t, src)

	_, err := driver.Compile(opts)
	assert.Error(t, err)
}

func TestCompile_TargetOverridesConfigABI(t *testing.T) {
	src := writeSource(t, "10 PRINT \"hi\"\n")
	opts := baseOptions(t, src)
	opts.AsmOnly = true
	opts.Target = "win64"

	result, err := driver.Compile(opts)
	require.NoError(t, err)

	data, err := os.ReadFile(result.AsmPath)
	require.NoError(t, err)
	// win64 reserves a 32-byte shadow space around every call; sysv never does.
	assert.Contains(t, string(data), "subq $32, %rsp")
}

func TestCompile_OutputPathOverride(t *testing.T) {
	src := writeSource(t, "10 PRINT \"hi\"\n")
	opts := baseOptions(t, src)
	opts.OutputPath = filepath.Join(t.TempDir(), "myprog")

	result, err := driver.Compile(opts)
	require.NoError(t, err)
	assert.Equal(t, opts.OutputPath, result.OutputPath)
	assert.FileExists(t, result.OutputPath)
}
