package parser

import (
	"os"
)

// ParseFile reads and parses a BASIC source file. This is the entry point
// used by package driver: no preprocessor sits in front of the lexer, per
// the Non-goals on separate compilation and conditional assembly.
func ParseFile(filePath string) (*Program, error) {
	content, err := os.ReadFile(filePath) // #nosec G304 -- user-provided source path
	if err != nil {
		return nil, err
	}
	return ParseSource(string(content), filePath)
}

// ParseSource parses in-memory source under the given filename, used by
// tests and by ParseFile.
func ParseSource(source, filename string) (*Program, error) {
	p, errs := NewParser(source, filename)
	if errs.HasErrors() {
		return nil, errs
	}
	return p.Parse()
}
