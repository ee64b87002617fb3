package cli

import (
	"time"

	"mrt/internal/config"
	"mrt/internal/discovery"
)

// Flags holds command-line flags
type Flags struct {
	ConfigFile    string
	Suites        string
	Modules       string
	Cases         string
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

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ConfigFile:    f.ConfigFile,
		Suites:        discovery.ParseList(f.Suites),
		Modules:       discovery.ParseList(f.Modules),
		Cases:         discovery.ParseList(f.Cases),
		Parallel:      f.Parallel,
		Order:         f.Order,
		Timeout:       f.Timeout,
		HookTimeout:   f.HookTimeout,
		KillOnTimeout: f.KillOnTimeout,
		CheckStr:      f.CheckStr,
		Format:        f.Format,
		MetricsFile:   f.MetricsFile,
		ViewFailures:  f.ViewFailures,
		NoProgress:    f.NoProgress,
		LogLevel:      f.LogLevel,
	}
}
