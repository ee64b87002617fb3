package commands

import (
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mrt/internal/cli"
	"mrt/internal/config"
	"mrt/internal/discovery"
	"mrt/internal/execution"
	"mrt/internal/logging"
	"mrt/internal/parser"
	"mrt/internal/runner"
	"mrt/internal/ui"
)

// ErrTestsFailed is returned when a suite did not pass or could not be constructed
var ErrTestsFailed = errors.New("one or more test suites did not pass")

// Commands holds all CLI commands
type Commands struct {
	Run  *RunCommand
	List *ListCommand
}

// NewCommands creates all commands with dependencies. cfg is replaced in
// place once flags are parsed and the config file is loaded.
func NewCommands(cfg *config.Config, out, errOut io.Writer) *Commands {
	formatter := ui.NewFormatter(out)
	outputParser := parser.NewOutputParser()
	errorViewer := ui.NewErrorViewer(out)

	return &Commands{
		Run:  NewRunCommand(cfg, formatter, outputParser, errorViewer, errOut),
		List: NewListCommand(cfg, formatter, errOut),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	loadConfig := func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*cfg = *loaded
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run test suites",
		Long:    "Discover the selected suites and run their cases with setup and teardown hooks at global, module and case level",
		RunE:    c.Run.Execute,
		PreRunE: loadConfig,
	}
	runCmd.Flags().StringVarP(&flags.Suites, "suite", "s", "", "Comma-separated test suites to run")
	runCmd.Flags().StringVarP(&flags.Modules, "module", "m", "", "Comma-separated modules to include (default: all)")
	runCmd.Flags().StringVarP(&flags.Cases, "tc", "t", "", "Comma-separated test case names to include (default: all)")
	runCmd.Flags().IntVarP(&flags.Parallel, "parallel", "p", 0, "Number of parallel workers (default: logical CPU count)")
	runCmd.Flags().StringVarP(&flags.Order, "order", "o", "", "Execution order: sequential or parallel")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Timeout for each test case body (default 10m)")
	runCmd.Flags().DurationVar(&flags.HookTimeout, "hook-timeout", 0, "Timeout for each setup or teardown hook (default 2m)")
	runCmd.Flags().BoolVar(&flags.KillOnTimeout, "kill-on-timeout", false, "Kill commands that exceed their timeout instead of abandoning them")
	runCmd.Flags().StringVar(&flags.CheckStr, "check", "", "Substring a passing case must print to stdout")
	runCmd.Flags().StringVar(&flags.Format, "format", "text", "Output format: text or json")
	runCmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	runCmd.Flags().BoolVar(&flags.ViewFailures, "view-failures", false, "Open the failure viewer when the run finishes with failures")
	runCmd.Flags().BoolVar(&flags.NoProgress, "no-progress", false, "Disable the progress bar")
	addCommonFlags(runCmd, flags)
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered suites, modules and test cases",
		Long:    "Scan the tests directory and print every suite with its modules and cases without executing them",
		RunE:    c.List.Execute,
		PreRunE: loadConfig,
	}
	listCmd.Flags().StringVarP(&flags.Suites, "suite", "s", "", "Comma-separated test suites to list (default: all)")
	addCommonFlags(listCmd, flags)
	rootCmd.AddCommand(listCmd)
}

func addCommonFlags(cmd *cobra.Command, flags *cli.Flags) {
	cmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to a YAML or TOML config file")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", logging.DefaultLevel, "Diagnostic log level: debug, info, warn or error")
}

// pipeline is everything a command needs once the config is final
type pipeline struct {
	log    zerolog.Logger
	layout *discovery.Layout
	env    runner.Env
}

func newPipeline(cfg *config.Config, errOut io.Writer) (*pipeline, error) {
	log, err := logging.New(errOut, cfg.Flags.LogLevel)
	if err != nil {
		return nil, err
	}

	executor := execution.NewExecutor(log, cfg.Execution.KillOnTimeout)
	return &pipeline{
		log:    log,
		layout: discovery.NewLayout(cfg),
		env: runner.Env{
			Runner:  execution.NewRunner(cfg, executor),
			Order:   cfg.GetOrder(),
			Workers: cfg.GetWorkers(),
			Log:     log.With().Str("component", "runner").Logger(),
		},
	}, nil
}
