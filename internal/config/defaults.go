package config

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestsDir holds one directory per suite
	DefaultTestsDir = "tests"
	// DefaultEnvFile is loaded into the environment of every invoked command
	DefaultEnvFile = ".env"

	// DefaultModuleSuffix marks a module definition file
	DefaultModuleSuffix = "_test.go"
	// DefaultSuiteHookFile holds module-level hooks and is never a module
	DefaultSuiteHookFile = "module_test.go"
	// DefaultGlobalHookFile lives directly under the tests dir
	DefaultGlobalHookFile = "global_test.go"
	// DefaultCasePrefix marks a function as a test case
	DefaultCasePrefix = "Test"
	// DefaultFuncKeyword starts a function declaration
	DefaultFuncKeyword = "func"
	// Hook functions differ per level: a suite hook file and its modules share one Go package
	DefaultGlobalSetupFunc    = "TestGlobalSetup"
	DefaultGlobalTeardownFunc = "TestGlobalTeardown"
	DefaultModuleSetupFunc    = "TestModuleSetup"
	DefaultModuleTeardownFunc = "TestModuleTeardown"
	DefaultCaseSetupFunc      = "TestSetup_" + ModulePlaceholder
	DefaultCaseTeardownFunc   = "TestTeardown_" + ModulePlaceholder
	// DefaultEnumerator is the line scanner; "ast" selects the Go parser
	DefaultEnumerator = EnumeratorScan

	// DefaultCaseTimeout bounds one case body
	DefaultCaseTimeout = 10 * time.Minute
	// DefaultHookTimeout bounds one setup or teardown hook
	DefaultHookTimeout = 2 * time.Minute
	// DefaultOrder is the scheduling strategy
	DefaultOrder = "sequential"
)

// ModulePlaceholder in a case-level hook name is replaced by the module name
const ModulePlaceholder = "{module}"

// Enumerator names
const (
	EnumeratorScan = "scan"
	EnumeratorAST  = "ast"
)

// DefaultCommand is the argv template used to run a single hook or case function
var DefaultCommand = []string{"go", "test", "-count=1", "-v", "-run", "^{func}$", "./{dir}"}

// DefaultExclude are functions carrying the case prefix that are never cases
var DefaultExclude = []string{"TestMain"}

// HostThreads returns the number of logical CPUs on this host
func HostThreads() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
