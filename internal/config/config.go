package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mrt/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"project_path" toml:"project_path"`
	TestsDir    string `yaml:"tests_dir" toml:"tests_dir"`
	EnvFile     string `yaml:"env_file" toml:"env_file"`

	Layout    Layout    `yaml:"layout" toml:"layout"`
	Execution Execution `yaml:"execution" toml:"execution"`

	// Env holds KEY=VALUE pairs read from EnvFile
	Env []string `yaml:"-" toml:"-"`

	// Command flags
	Flags Flags `yaml:"-" toml:"-"`
}

// Layout describes the directory and naming convention of test sources
type Layout struct {
	ModuleSuffix   string    `yaml:"module_suffix" toml:"module_suffix"`
	SuiteHookFile  string    `yaml:"suite_hook_file" toml:"suite_hook_file"`
	GlobalHookFile string    `yaml:"global_hook_file" toml:"global_hook_file"`
	CasePrefix     string    `yaml:"case_prefix" toml:"case_prefix"`
	FuncKeyword    string    `yaml:"func_keyword" toml:"func_keyword"`
	GlobalHooks    HookNames `yaml:"global_hooks" toml:"global_hooks"`
	ModuleHooks    HookNames `yaml:"module_hooks" toml:"module_hooks"`
	CaseHooks      HookNames `yaml:"case_hooks" toml:"case_hooks"`
	Exclude        []string  `yaml:"exclude" toml:"exclude"`
	Enumerator     string    `yaml:"enumerator" toml:"enumerator"`
}

// HookNames names the setup and teardown functions of one lifecycle level.
// An empty name disables that hook.
type HookNames struct {
	Setup    string `yaml:"setup" toml:"setup"`
	Teardown string `yaml:"teardown" toml:"teardown"`
}

// ForModule replaces the module placeholder in both names
func (h HookNames) ForModule(module string) HookNames {
	return HookNames{
		Setup:    strings.ReplaceAll(h.Setup, ModulePlaceholder, module),
		Teardown: strings.ReplaceAll(h.Teardown, ModulePlaceholder, module),
	}
}

// Names returns the configured names, skipping empty ones
func (h HookNames) Names() []string {
	var names []string
	for _, n := range []string{h.Setup, h.Teardown} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Execution controls how hooks and cases are invoked
type Execution struct {
	Command       []string      `yaml:"command" toml:"command"`
	CaseTimeout   time.Duration `yaml:"case_timeout" toml:"case_timeout"`
	HookTimeout   time.Duration `yaml:"hook_timeout" toml:"hook_timeout"`
	CheckStr      string        `yaml:"check_str" toml:"check_str"`
	KillOnTimeout bool          `yaml:"kill_on_timeout" toml:"kill_on_timeout"`
	Parallel      int           `yaml:"parallel" toml:"parallel"`
	Order         string        `yaml:"order" toml:"order"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigFile    string
	Suites        []string
	Modules       []string
	Cases         []string
	Parallel      int
	Order         string
	Timeout       time.Duration
	HookTimeout   time.Duration
	KillOnTimeout bool
	CheckStr      string
	Format        string
	MetricsFile   string
	ViewFailures  bool
	NoProgress    bool
	LogLevel      string
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath: DefaultProjectPath,
		TestsDir:    DefaultTestsDir,
		EnvFile:     DefaultEnvFile,
		Layout: Layout{
			ModuleSuffix:   DefaultModuleSuffix,
			SuiteHookFile:  DefaultSuiteHookFile,
			GlobalHookFile: DefaultGlobalHookFile,
			CasePrefix:     DefaultCasePrefix,
			FuncKeyword:    DefaultFuncKeyword,
			GlobalHooks:    HookNames{Setup: DefaultGlobalSetupFunc, Teardown: DefaultGlobalTeardownFunc},
			ModuleHooks:    HookNames{Setup: DefaultModuleSetupFunc, Teardown: DefaultModuleTeardownFunc},
			CaseHooks:      HookNames{Setup: DefaultCaseSetupFunc, Teardown: DefaultCaseTeardownFunc},
			Enumerator:     DefaultEnumerator,
		},
		Execution: Execution{
			CaseTimeout: DefaultCaseTimeout,
			HookTimeout: DefaultHookTimeout,
			Order:       DefaultOrder,
		},
	}
	// Copy defaults so callers can't mutate the package vars
	cfg.Layout.Exclude = append([]string(nil), DefaultExclude...)
	cfg.Execution.Command = append([]string(nil), DefaultCommand...)
	return cfg
}

// Load creates a config from the optional config file, applies flags and reads the env file
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if flags.ConfigFile != "" {
		loaded, err := LoadFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyFlags(flags)

	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFlags overrides config values with the flags that were set
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags

	if flags.Parallel > 0 {
		c.Execution.Parallel = flags.Parallel
	}
	if flags.Order != "" {
		c.Execution.Order = flags.Order
	}
	if flags.Timeout > 0 {
		c.Execution.CaseTimeout = flags.Timeout
	}
	if flags.HookTimeout > 0 {
		c.Execution.HookTimeout = flags.HookTimeout
	}
	if flags.KillOnTimeout {
		c.Execution.KillOnTimeout = true
	}
	if flags.CheckStr != "" {
		c.Execution.CheckStr = flags.CheckStr
	}
}

// LoadEnv reads EnvFile relative to the project path. A missing file is not an error.
func (c *Config) LoadEnv() error {
	if c.EnvFile == "" {
		return nil
	}
	path := c.EnvFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.ProjectPath, path)
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	c.Env = make([]string, 0, len(vars))
	for k, v := range vars {
		c.Env = append(c.Env, k+"="+v)
	}
	sort.Strings(c.Env)
	return nil
}

// Validate checks that the config can drive a run
func (c *Config) Validate() error {
	if len(c.Execution.Command) == 0 || c.Execution.Command[0] == "" {
		return errors.New("execution.command must name a program")
	}
	if c.Execution.CaseTimeout <= 0 {
		return fmt.Errorf("execution.case_timeout must be positive, got %s", c.Execution.CaseTimeout)
	}
	if c.Execution.HookTimeout <= 0 {
		return fmt.Errorf("execution.hook_timeout must be positive, got %s", c.Execution.HookTimeout)
	}
	if c.Execution.Parallel < 0 {
		return fmt.Errorf("execution.parallel must not be negative, got %d", c.Execution.Parallel)
	}
	if _, err := domain.ParseOrder(c.Execution.Order); err != nil {
		return err
	}
	switch c.Layout.Enumerator {
	case EnumeratorScan, EnumeratorAST:
	default:
		return fmt.Errorf("layout.enumerator must be %q or %q, got %q", EnumeratorScan, EnumeratorAST, c.Layout.Enumerator)
	}
	if c.Layout.ModuleSuffix == "" || c.Layout.CasePrefix == "" {
		return errors.New("layout.module_suffix and layout.case_prefix must be set")
	}
	for level, h := range map[string]HookNames{
		"global_hooks": c.Layout.GlobalHooks,
		"module_hooks": c.Layout.ModuleHooks,
		"case_hooks":   c.Layout.CaseHooks,
	} {
		if h.Setup != "" && h.Setup == h.Teardown {
			return fmt.Errorf("layout.%s: setup and teardown must differ, both are %q", level, h.Setup)
		}
	}
	return nil
}

// GetTestsPath returns the directory holding the suites
func (c *Config) GetTestsPath() string {
	if filepath.IsAbs(c.TestsDir) {
		return c.TestsDir
	}
	return filepath.Join(c.ProjectPath, c.TestsDir)
}

// GetOrder returns the configured scheduling strategy
func (c *Config) GetOrder() domain.TestOrder {
	order, err := domain.ParseOrder(c.Execution.Order)
	if err != nil {
		return domain.Sequential
	}
	return order
}

// GetWorkers returns the worker pool size, defaulting to the host's logical CPU count
func (c *Config) GetWorkers() int {
	if c.Execution.Parallel > 0 {
		return c.Execution.Parallel
	}
	return HostThreads()
}
