package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"mrt/internal/config"
)

// HookFile is a file that may declare a setup and a teardown function.
// Setup or Teardown is empty when the file does not declare it.
type HookFile struct {
	Path     string // usable from the working directory
	File     string // relative to the project path
	Setup    string
	Teardown string
}

// Present reports whether the file declares any hook
func (h HookFile) Present() bool {
	return h.Setup != "" || h.Teardown != ""
}

// ModuleDef is one discovered module and its ordered case names
type ModuleDef struct {
	Name  string
	Path  string
	File  string
	Cases []string
	Hooks HookFile // case-level hooks declared in the module file

	Prefix string
}

// Function returns the function implementing case name
func (m ModuleDef) Function(name string) string {
	return m.Prefix + name
}

// SuiteDef is the static description of one suite
type SuiteDef struct {
	Name    string
	Dir     string
	Modules []ModuleDef
	Global  HookFile
	Module  HookFile // module-level hooks from the suite hook file
}

// CaseCount returns the number of cases across all modules
func (s *SuiteDef) CaseCount() int {
	n := 0
	for _, m := range s.Modules {
		n += len(m.Cases)
	}
	return n
}

// Layout discovers suites following the configured directory convention
type Layout struct {
	config  *config.Config
	scanner *Scanner
	parser  *Parser
}

// NewLayout creates a Layout for cfg
func NewLayout(cfg *config.Config) *Layout {
	var enumerator Enumerator = NewScanEnumerator(cfg.Layout.FuncKeyword)
	if cfg.Layout.Enumerator == config.EnumeratorAST {
		enumerator = NewASTEnumerator()
	}

	exclude := append(cfg.Layout.GlobalHooks.Names(), cfg.Layout.ModuleHooks.Names()...)
	exclude = append(exclude, cfg.Layout.Exclude...)
	return &Layout{
		config:  cfg,
		scanner: NewScanner(cfg.GetTestsPath(), cfg.Layout.ModuleSuffix, cfg.Layout.SuiteHookFile),
		parser:  NewParser(enumerator, cfg.Layout.CasePrefix, exclude...),
	}
}

// Suites lists every suite directory
func (l *Layout) Suites() ([]string, error) {
	return l.scanner.Suites()
}

// Discover builds the static hierarchy of one suite. It fails when the suite
// directory is missing or holds no module files or no cases.
func (l *Layout) Discover(suite string) (*SuiteDef, error) {
	files, err := l.scanner.Modules(suite)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("suite %q: %w", suite, ErrNoModules)
	}

	def := &SuiteDef{
		Name:   suite,
		Dir:    l.scanner.SuiteDir(suite),
		Global: l.hookFile(filepath.Join(l.scanner.Root(), l.config.Layout.GlobalHookFile), l.config.Layout.GlobalHooks),
	}
	if l.config.Layout.SuiteHookFile != "" {
		def.Module = l.hookFile(filepath.Join(def.Dir, l.config.Layout.SuiteHookFile), l.config.Layout.ModuleHooks)
	}

	// case hooks of every module in the suite, so a module never lists another's hook as a case
	var caseHooks []string
	for _, f := range files {
		caseHooks = append(caseHooks, l.config.Layout.CaseHooks.ForModule(f.Name).Names()...)
	}

	for _, f := range files {
		cases, err := l.parser.FindTestCases(f.Path, caseHooks...)
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", suite, err)
		}
		def.Modules = append(def.Modules, ModuleDef{
			Name:  f.Name,
			Path:  f.Path,
			File:  l.Relative(f.Path),
			Cases: cases,
			Hooks: l.hookFile(f.Path, l.config.Layout.CaseHooks.ForModule(f.Name)),

			Prefix: l.config.Layout.CasePrefix,
		})
	}

	if def.CaseCount() == 0 {
		return nil, fmt.Errorf("suite %q: %w", suite, ErrNoCases)
	}
	return def, nil
}

// Relative returns path relative to the project path when possible
func (l *Layout) Relative(path string) string {
	rel, err := filepath.Rel(l.config.ProjectPath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (l *Layout) hookFile(path string, names config.HookNames) HookFile {
	hook := HookFile{Path: path, File: l.Relative(path)}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return hook
	}

	functions, err := l.parser.enumerator.Functions(path)
	if err != nil {
		return hook
	}
	for _, fn := range functions {
		switch fn {
		case names.Setup:
			hook.Setup = fn
		case names.Teardown:
			hook.Teardown = fn
		}
	}
	return hook
}
