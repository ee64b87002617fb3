package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mrt/internal/discovery"
	"mrt/internal/domain"
)

const (
	labelWidth = 31
	valueWidth = 38
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// Formatter formats and displays output
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a new Formatter writing to out
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{out: out}
}

// PrintSummary displays the statistics of one suite run followed by a tree of the cases that did not pass
func (f *Formatter) PrintSummary(s domain.Summary) {
	rule := strings.Repeat("═", labelWidth+valueWidth+5)
	title := fmt.Sprintf("Suite %s", s.Suite)
	pad := max(labelWidth+valueWidth+5-len(title), 0)

	fmt.Fprintln(f.out)
	cyan.Fprintf(f.out, "╔%s╗\n", rule)
	cyan.Fprintf(f.out, "║%s%s%s║\n", strings.Repeat(" ", pad/2), title, strings.Repeat(" ", pad-pad/2))
	cyan.Fprintf(f.out, "╚%s╝\n\n", rule)

	top := strings.Repeat("─", labelWidth+2)
	bottom := strings.Repeat("─", valueWidth+2)
	fmt.Fprintf(f.out, "┌%s┬%s┐\n", top, bottom)

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Run ID", s.RunID, white},
		{"Order", s.Order, white},
		{"Workers", fmt.Sprint(s.Workers), white},
		{"Total Cases", fmt.Sprint(s.Total()), white},
		{"Passed", fmt.Sprint(s.Passed), green},
		{"Failed", fmt.Sprint(s.Failed), red},
		{"Errored", fmt.Sprint(s.Errored), red},
		{"Failed Hooks", fmt.Sprint(failedHooks(s)), red},
		{"Duration", fmt.Sprintf("%.2fs", s.Duration.Seconds()), white},
		{"Started", s.Start.Format(time.RFC3339), white},
	}
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-*s │ ", labelWidth, row.label)
		row.c.Fprintf(f.out, "%-*s", valueWidth, row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintf(f.out, "├%s┼%s┤\n", top, bottom)
		}
	}
	fmt.Fprintf(f.out, "└%s┴%s┘\n", top, bottom)

	// Print summary line
	fmt.Fprintln(f.out)
	if s.OK() {
		green.Fprintln(f.out, "✓ All tests passed!")
		return
	}
	red.Fprintf(f.out, "✗ %d case(s) failed, %d errored, %d hook(s) failed\n\n", s.Failed, s.Errored, failedHooks(s))
	f.printFailedTree(s.Results)
}

// printFailedTree prints modules and the cases in them that did not pass
func (f *Formatter) printFailedTree(results []domain.CaseResult) {
	var modules []string
	byModule := make(map[string][]domain.CaseResult)
	for _, r := range results {
		if r.Outcome == domain.Success {
			continue
		}
		if _, ok := byModule[r.Module]; !ok {
			modules = append(modules, r.Module)
		}
		byModule[r.Module] = append(byModule[r.Module], r)
	}

	for i, module := range modules {
		isLastModule := i == len(modules)-1
		branch, indent := "├── ", "│   "
		if isLastModule {
			branch, indent = "└── ", "    "
		}
		yellow.Fprintf(f.out, "%s%s\n", branch, module)

		cases := byModule[module]
		for j, r := range cases {
			leaf := "├── "
			if j == len(cases)-1 {
				leaf = "└── "
			}
			fmt.Fprintf(f.out, "%s%s", indent, leaf)
			red.Fprintf(f.out, "%s", r.Name)
			fmt.Fprintf(f.out, " [%s at %s]\n", r.Outcome, r.Stage)
		}
	}
}

// ResultsTable renders every case of a run as a table
func (f *Formatter) ResultsTable(s domain.Summary) string {
	var buf strings.Builder

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("Suite: %s", s.Suite))

	t.AppendHeader(table.Row{
		"#", "Module", "Case", "Outcome", "Stage", "Duration", "Message",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Module", AutoMerge: true},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, r := range s.Results {
		t.AppendRow(table.Row{
			r.Index + 1,
			r.Module,
			r.Name,
			outcomeText(r.Outcome),
			r.Stage,
			formatDuration(r.Duration),
			r.Message,
		})
	}

	if s.OK() {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	overallStatus := "PASS"
	if !s.OK() {
		overallStatus = "FAIL"
	}
	t.AppendFooter(table.Row{
		"", "TOTAL", s.Total(), overallStatus, "", formatDuration(s.Duration),
		fmt.Sprintf("passed %d, failed %d, errored %d", s.Passed, s.Failed, s.Errored),
	})

	t.Render()
	return buf.String()
}

// PrintResultsTable writes the results table of a run
func (f *Formatter) PrintResultsTable(s domain.Summary) {
	fmt.Fprint(f.out, f.ResultsTable(s))
}

// PrintJSON writes the summaries as indented JSON
func (f *Formatter) PrintJSON(summaries []domain.Summary) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// PrintSuiteNotFound reports a suite that could not be constructed
func (f *Formatter) PrintSuiteNotFound(name string) {
	red.Fprintf(f.out, "Test suite '%s' not found or no test cases discovered.\n", name)
}

// PrintSuiteTree prints suites, their modules and cases
func (f *Formatter) PrintSuiteTree(suites []*discovery.SuiteDef) {
	cases := 0
	for _, s := range suites {
		cases += s.CaseCount()
	}
	green.Fprintf(f.out, "Found %d suite(s) with %d test case(s):\n\n", len(suites), cases)

	for i, s := range suites {
		isLastSuite := i == len(suites)-1
		branch, indent := "├── ", "│   "
		if isLastSuite {
			branch, indent = "└── ", "    "
		}
		cyan.Fprintf(f.out, "%s%s%s\n", branch, s.Name, hookMarker(s.Global, s.Module))

		for j, m := range s.Modules {
			isLastModule := j == len(s.Modules)-1
			mBranch, mIndent := "├── ", "│   "
			if isLastModule {
				mBranch, mIndent = "└── ", "    "
			}
			fmt.Fprintf(f.out, "%s%s", indent, mBranch)
			yellow.Fprintf(f.out, "%s", m.Name)
			fmt.Fprintf(f.out, "%s\n", hookMarker(m.Hooks))

			if len(m.Cases) == 0 {
				fmt.Fprintf(f.out, "%s%s└── ", indent, mIndent)
				red.Fprintln(f.out, "(no test cases found)")
				continue
			}
			for k, c := range m.Cases {
				leaf := "├── "
				if k == len(m.Cases)-1 {
					leaf = "└── "
				}
				fmt.Fprintf(f.out, "%s%s%s%s\n", indent, mIndent, leaf, c)
			}
		}

		// Add spacing between suites (except for the last one)
		if !isLastSuite {
			fmt.Fprintln(f.out)
		}
	}
}

// hookMarker lists the hook functions declared by files
func hookMarker(files ...discovery.HookFile) string {
	var names []string
	for _, h := range files {
		if h.Setup != "" {
			names = append(names, h.Setup)
		}
		if h.Teardown != "" {
			names = append(names, h.Teardown)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return " (" + strings.Join(names, ", ") + ")"
}

func failedHooks(s domain.Summary) int {
	n := 0
	for _, h := range s.Hooks {
		if !h.OK() {
			n++
		}
	}
	for _, r := range s.Results {
		for _, h := range r.Hooks {
			if !h.OK() {
				n++
			}
		}
	}
	return n
}

func outcomeText(o domain.Outcome) string {
	switch o {
	case domain.Success:
		return "PASS"
	case domain.Failed:
		return "FAIL"
	default:
		return "ERROR"
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
