package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/basicc/config"
	"github.com/lookbusy1344/basicc/driver"
	"github.com/lookbusy1344/basicc/inspect"
	"github.com/lookbusy1344/basicc/parser"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("basicc", flag.ContinueOnError)
	var (
		showVersion = fs.Bool("version", false, "Show version information")
		asmOnly     = fs.Bool("S", false, "Emit assembly text instead of an executable")
		outPath     = fs.String("o", "", "Output path (default: the input's stem)")
		configPath  = fs.String("config", "basicc.toml", "Path to a basicc.toml config file")
		target      = fs.String("target", "", "Override the configured target ABI (sysv or win64)")
		boundsCheck = fs.Bool("bounds-check", false, "Enable array bounds checking")
		keepAsm     = fs.Bool("keep-asm", false, "Keep the intermediate .s and .o files")
		inspectMode = fs.Bool("inspect", false, "Open a read-only TUI browser over the parsed program instead of compiling")
		dumpConfig  = fs.String("dump-config", "", "Write a starting basicc.toml to the given path and exit")
	)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] INPUT.bas\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("basicc %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	}

	if *dumpConfig != "" {
		if err := config.DefaultConfig().SaveTo(*dumpConfig); err != nil {
			fmt.Fprintln(os.Stderr, "basicc:", err)
			return 2
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	inputPath := fs.Arg(0)

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "basicc:", err)
		return 2
	}

	if *inspectMode {
		prog, err := parser.ParseFile(inputPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "basicc:", err)
			return 1
		}
		if err := inspect.Run(prog); err != nil {
			fmt.Fprintln(os.Stderr, "basicc:", err)
			return 2
		}
		return 0
	}

	opts := driver.Options{
		InputPath:   inputPath,
		OutputPath:  *outPath,
		AsmOnly:     *asmOnly,
		BoundsCheck: *boundsCheck || cfg.Codegen.BoundsCheck,
		Target:      *target,
		KeepAsm:     *keepAsm,
		Cfg:         cfg,
	}

	result, err := driver.Compile(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "basicc:", err)
		return exitCodeFor(err)
	}

	if *asmOnly {
		fmt.Println(result.AsmPath)
	} else {
		fmt.Println(result.OutputPath)
	}
	return 0
}

// exitCodeFor classifies a Compile failure per §6: a compile-time error
// (lex/parse/resolution/type) exits 1, a driver (assembler/linker)
// failure exits 2.
func exitCodeFor(err error) int {
	if isCompileError(err) {
		return 1
	}
	return 2
}

func isCompileError(err error) bool {
	var perr *parser.Error
	var plist *parser.ErrorList
	return errors.As(err, &perr) || errors.As(err, &plist)
}
