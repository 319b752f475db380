package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "sysv", cfg.Target.ABI)
	assert.Equal(t, "linux", cfg.Target.OS)
	assert.Equal(t, "as", cfg.Tools.Assembler)
	assert.Equal(t, "cc", cfg.Tools.Linker)
	assert.False(t, cfg.Codegen.BoundsCheck)
	assert.Equal(t, 0, cfg.Codegen.StackPadding)
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err, "LoadFrom should not error on a missing file")
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "basicc.toml")

	toml := `
[target]
abi = "win64"
os = "windows"

[tools]
assembler = "llvm-as"
linker = "lld"

[codegen]
bounds_check = true
stack_padding = 16
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "win64", cfg.Target.ABI)
	assert.Equal(t, "windows", cfg.Target.OS)
	assert.Equal(t, "llvm-as", cfg.Tools.Assembler)
	assert.Equal(t, "lld", cfg.Tools.Linker)
	assert.True(t, cfg.Codegen.BoundsCheck)
	assert.Equal(t, 16, cfg.Codegen.StackPadding)
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "invalid.toml")

	invalid := `
[codegen]
stack_padding = "not a number"
`
	require.NoError(t, os.WriteFile(path, []byte(invalid), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "basicc.toml")

	cfg := DefaultConfig()
	cfg.Target.ABI = "win64"
	cfg.Codegen.BoundsCheck = true
	cfg.Codegen.StackPadding = 8

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "dir", "basicc.toml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.SaveTo(path))

	_, err := os.Stat(path)
	assert.NoError(t, err, "config file should exist after SaveTo creates its parent directories")
}

func TestLoadPrefersFileOverDefaults(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "basicc.toml")

	require.NoError(t, os.WriteFile(path, []byte("[target]\nabi = \"win64\"\n"), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	// Unset fields keep their defaults; only what the file names changes.
	assert.Equal(t, "win64", cfg.Target.ABI)
	assert.Equal(t, "linux", cfg.Target.OS)
	assert.Equal(t, "as", cfg.Tools.Assembler)
}
