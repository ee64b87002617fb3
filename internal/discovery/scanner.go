package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrSuiteNotFound is returned when the suite directory does not exist
	ErrSuiteNotFound = errors.New("suite not found")
	// ErrNoModules is returned when a suite has no module definition files
	ErrNoModules = errors.New("no module definition files")
	// ErrNoCases is returned when a suite's modules declare no cases
	ErrNoCases = errors.New("no test cases discovered")
)

// ModuleFile is a module definition file found in a suite directory
type ModuleFile struct {
	Name string // file name without the module suffix
	Path string
}

// Scanner lists suites and module definition files under the tests directory
type Scanner struct {
	root          string
	moduleSuffix  string
	suiteHookFile string
}

// NewScanner creates a new Scanner rooted at the tests directory
func NewScanner(root, moduleSuffix, suiteHookFile string) *Scanner {
	return &Scanner{
		root:          filepath.Clean(root),
		moduleSuffix:  moduleSuffix,
		suiteHookFile: suiteHookFile,
	}
}

// Root returns the tests directory
func (s *Scanner) Root() string {
	return s.root
}

// SuiteDir returns the directory of a suite
func (s *Scanner) SuiteDir(suite string) string {
	return filepath.Join(s.root, suite)
}

// Suites returns the names of all suite directories, sorted
func (s *Scanner) Suites() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("tests path does not exist: %s", s.root)
	}

	var suites []string
	for _, entry := range entries {
		name := entry.Name()
		// Skip hidden directories (starting with .)
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		suites = append(suites, name)
	}
	sort.Strings(suites)
	return suites, nil
}

// Modules finds the module definition files of a suite, sorted by file name.
// The suite hook file is never a module.
func (s *Scanner) Modules(suite string) ([]ModuleFile, error) {
	dir := s.SuiteDir(suite)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("suite %q: %w", suite, ErrSuiteNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read suite %q: %w", suite, err)
	}

	var modules []ModuleFile
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if name == s.suiteHookFile || !strings.HasSuffix(name, s.moduleSuffix) {
			continue
		}
		module := strings.TrimSuffix(name, s.moduleSuffix)
		if module == "" {
			continue
		}
		modules = append(modules, ModuleFile{Name: module, Path: filepath.Join(dir, name)})
	}

	// ReadDir already sorts; keep the order explicit
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules, nil
}
