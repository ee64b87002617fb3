package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"regexp"
)

// Enumerator lists the functions declared in a source file, in source order, without duplicates
type Enumerator interface {
	Functions(path string) ([]string, error)
}

// ScanEnumerator finds declarations with a line scan: the declaration keyword
// at the start of a line, then the identifier, then the parameter list.
// Go methods are skipped because a receiver list follows the keyword.
type ScanEnumerator struct {
	pattern *regexp.Regexp
}

// NewScanEnumerator creates a scanner for declarations introduced by keyword ("func", "fn", "def")
func NewScanEnumerator(keyword string) *ScanEnumerator {
	pattern := regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?(?:async[ \t]+)?` +
		regexp.QuoteMeta(keyword) + `[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]*\(`)
	return &ScanEnumerator{pattern: pattern}
}

// Functions returns the declared function names of path
func (e *ScanEnumerator) Functions(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}

	var names []string
	seen := make(map[string]bool)
	for _, match := range e.pattern.FindAllSubmatch(content, -1) {
		name := string(match[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// ASTEnumerator parses Go sources and returns their top-level functions
type ASTEnumerator struct{}

// NewASTEnumerator creates a new ASTEnumerator
func NewASTEnumerator() *ASTEnumerator {
	return &ASTEnumerator{}
}

// Functions returns the receiver-less functions of a Go file
func (e *ASTEnumerator) Functions(path string) ([]string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("error parsing file %s: %w", path, err)
	}

	var names []string
	seen := make(map[string]bool)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}
		name := fn.Name.Name
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
