package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mrt/internal/config"
	"mrt/internal/discovery"
	"mrt/internal/domain"
	"mrt/internal/metrics"
	"mrt/internal/parser"
	"mrt/internal/runner"
	"mrt/internal/ui"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	formatter *ui.Formatter
	parser    parser.Parser
	viewer    ui.Viewer
	errOut    io.Writer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	formatter *ui.Formatter,
	outputParser parser.Parser,
	viewer ui.Viewer,
	errOut io.Writer,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		formatter: formatter,
		parser:    outputParser,
		viewer:    viewer,
		errOut:    errOut,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	flags := rc.config.Flags
	if len(flags.Suites) == 0 {
		color.New(color.FgYellow).Fprintln(rc.errOut, "No test suite selected; pass one or more with -s/--suite")
		return nil
	}
	format := flags.Format
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format %q: expected %s or %s", format, FormatText, FormatJSON)
	}

	p, err := newPipeline(rc.config, rc.errOut)
	if err != nil {
		return err
	}

	modules := discovery.NewNameSet(flags.Modules...)
	cases := discovery.NewNameSet(flags.Cases...)
	recorder := metrics.NewRecorder()

	var summaries []domain.Summary
	failed := false
	for _, name := range flags.Suites {
		suite, err := runner.Load(p.layout, name, p.env)
		if err != nil {
			p.log.Debug().Err(err).Str("suite", name).Msg("suite not constructed")
			rc.formatter.PrintSuiteNotFound(name)
			failed = true
			continue
		}

		selected, err := suite.Select(modules, cases)
		if err != nil {
			color.New(color.FgRed).Fprintf(rc.errOut, "Suite '%s': %v\n", name, err)
			failed = true
			continue
		}

		if format == FormatText && !flags.NoProgress && len(selected) > 0 {
			suite.SetProgress(ui.NewProgressBar(rc.errOut, name, len(selected), rc.parser))
		}

		summary := suite.RunCases(cmd.Context(), selected)
		recorder.Observe(summary)
		summaries = append(summaries, summary)
		if !summary.OK() {
			failed = true
		}

		if format == FormatText {
			rc.formatter.PrintResultsTable(summary)
			rc.formatter.PrintSummary(summary)
		}
	}

	if format == FormatJSON {
		if err := rc.formatter.PrintJSON(summaries); err != nil {
			return err
		}
	}

	if flags.MetricsFile != "" {
		if err := recorder.WriteFile(flags.MetricsFile); err != nil {
			return err
		}
	}

	if flags.ViewFailures && failed {
		var failures []domain.TestFailure
		for _, s := range summaries {
			failures = append(failures, rc.parser.BuildFailures(s)...)
		}
		if err := rc.viewer.View(failures); err != nil {
			return err
		}
	}

	if failed {
		return ErrTestsFailed
	}
	return nil
}
