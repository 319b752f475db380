// Package driver orchestrates the external toolchain: it writes the
// generated assembly text to disk and shells out to the assembler and
// linker named in config.Tools. It never assembles or links itself.
package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lookbusy1344/basicc/codegen"
	"github.com/lookbusy1344/basicc/config"
	"github.com/lookbusy1344/basicc/parser"
	"github.com/lookbusy1344/basicc/runtime"
)

// Options controls one compilation run.
type Options struct {
	InputPath   string
	OutputPath  string // executable path, or assembly path when AsmOnly is true
	AsmOnly     bool   // -S: stop after emitting assembly text
	BoundsCheck bool
	Target      string // "sysv" or "win64", overrides cfg.Target.ABI when non-empty
	KeepAsm     bool   // keep the intermediate .s/.o files instead of removing them
	Cfg         *config.Config
}

// Result reports the artifacts a successful run produced.
type Result struct {
	AsmPath    string
	ObjPath    string
	OutputPath string
}

// Compile runs the full pipeline: parse -> generate -> assemble -> link.
func Compile(opts Options) (*Result, error) {
	prog, err := parser.ParseFile(opts.InputPath)
	if err != nil {
		return nil, err
	}

	abiName := opts.Cfg.Target.ABI
	if opts.Target != "" {
		abiName = opts.Target
	}
	abi := codegen.ABIByName(abiName)

	asmText, err := codegen.Generate(prog, abi, opts.BoundsCheck)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(opts.InputPath), filepath.Ext(opts.InputPath))
	workDir := filepath.Dir(opts.InputPath)

	if opts.AsmOnly {
		out := opts.OutputPath
		if out == "" {
			out = filepath.Join(workDir, base+".s")
		}
		if err := os.WriteFile(out, []byte(asmText), 0600); err != nil {
			return nil, fmt.Errorf("writing assembly: %w", err)
		}
		return &Result{AsmPath: out}, nil
	}

	asmPath := filepath.Join(workDir, base+".s")
	if err := os.WriteFile(asmPath, []byte(asmText), 0600); err != nil {
		return nil, fmt.Errorf("writing assembly: %w", err)
	}
	if !opts.KeepAsm {
		defer os.Remove(asmPath)
	}

	objPath := filepath.Join(workDir, base+".o")
	if err := runTool(opts.Cfg.Tools.Assembler, asmPath, "-o", objPath); err != nil {
		return nil, fmt.Errorf("assembling %s: %w", asmPath, err)
	}
	if !opts.KeepAsm {
		defer os.Remove(objPath)
	}

	runtimeAsmPath := filepath.Join(workDir, "_basicc_runtime.s")
	if err := os.WriteFile(runtimeAsmPath, runtime.SourceFor(abi.Name), 0600); err != nil {
		return nil, fmt.Errorf("writing runtime source: %w", err)
	}
	defer os.Remove(runtimeAsmPath)

	runtimeObjPath := filepath.Join(workDir, "_basicc_runtime.o")
	if err := runTool(opts.Cfg.Tools.Assembler, runtimeAsmPath, "-o", runtimeObjPath); err != nil {
		return nil, fmt.Errorf("assembling runtime: %w", err)
	}
	defer os.Remove(runtimeObjPath)

	out := opts.OutputPath
	if out == "" {
		out = filepath.Join(workDir, base)
	}
	linkArgs := []string{objPath, runtimeObjPath, "-o", out}
	if abi.Name == "sysv" {
		linkArgs = append(linkArgs, "-lm")
	}
	if err := runTool(opts.Cfg.Tools.Linker, linkArgs...); err != nil {
		return nil, fmt.Errorf("linking %s: %w", out, err)
	}

	return &Result{AsmPath: asmPath, ObjPath: objPath, OutputPath: out}, nil
}

// runTool invokes an external toolchain binary, surfacing its stderr on
// failure so a bad assembly emission is diagnosable without -S.
func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 -- name/args come from trusted config, not user input
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
