package commands

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mrt/internal/config"
	"mrt/internal/discovery"
	"mrt/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	formatter *ui.Formatter
	errOut    io.Writer
}

// NewListCommand creates a new ListCommand
func NewListCommand(cfg *config.Config, formatter *ui.Formatter, errOut io.Writer) *ListCommand {
	return &ListCommand{
		config:    cfg,
		formatter: formatter,
		errOut:    errOut,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(lc.config, lc.errOut)
	if err != nil {
		return err
	}

	names := lc.config.Flags.Suites
	if len(names) == 0 {
		if names, err = p.layout.Suites(); err != nil {
			return err
		}
	}

	var suites []*discovery.SuiteDef
	for _, name := range names {
		def, err := p.layout.Discover(name)
		if err != nil {
			p.log.Debug().Err(err).Str("suite", name).Msg("suite skipped")
			if len(lc.config.Flags.Suites) > 0 {
				lc.formatter.PrintSuiteNotFound(name)
			}
			continue
		}
		suites = append(suites, def)
	}

	if len(suites) == 0 {
		color.New(color.FgYellow).Fprintln(lc.errOut, "No test suites found")
		return nil
	}

	lc.formatter.PrintSuiteTree(suites)
	return nil
}
