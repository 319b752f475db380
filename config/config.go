package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the compiler's build configuration. CLI flags always
// override a value loaded from file, which in turn overrides the
// defaults below.
type Config struct {
	// Target selects the generator's ABI/OS flavor: "sysv" (default,
	// Linux/libc) or "win64" (native Windows/UCRT).
	Target struct {
		ABI string `toml:"abi"`
		OS  string `toml:"os"`
	} `toml:"target"`

	// Tools names the external assembler and linker/driver binaries the
	// driver package shells out to; it never assembles or links itself.
	Tools struct {
		Assembler string `toml:"assembler"`
		Linker    string `toml:"linker"`
	} `toml:"tools"`

	// Codegen holds generator behavior flags.
	Codegen struct {
		BoundsCheck  bool `toml:"bounds_check"`
		StackPadding int  `toml:"stack_padding"`
	} `toml:"codegen"`
}

// DefaultConfig returns the compiler's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Target.ABI = "sysv"
	cfg.Target.OS = "linux"
	cfg.Tools.Assembler = "as"
	cfg.Tools.Linker = "cc"
	cfg.Codegen.BoundsCheck = false
	cfg.Codegen.StackPadding = 0
	return cfg
}

// Load loads configuration from "basicc.toml" in the working directory,
// falling back to defaults if the file does not exist.
func Load() (*Config, error) {
	return LoadFrom("basicc.toml")
}

// LoadFrom loads configuration from the given path, falling back to
// defaults if it does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveTo writes cfg to path as TOML, creating its parent directory if
// necessary. Used by "-dump-config" to emit a starting basicc.toml.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path) // #nosec G304 -- user-provided config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
