package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"mrt/internal/domain"
)

// TestCounter counts the individual tests reported in a case body's output
type TestCounter interface {
	ParseTestCounts(rec domain.Record) (passed, failed int)
}

// ProgressBar renders case results as they settle
type ProgressBar struct {
	bar     *progressbar.ProgressBar
	counter TestCounter
	passed  int
	failed  int
	errored int

	testsPassed int
	testsFailed int
}

// NewProgressBar creates a new progress bar for count cases of suite. A nil
// counter leaves the test totals out.
func NewProgressBar(out io.Writer, suite string, count int, counter TestCounter) *ProgressBar {
	p := &ProgressBar{counter: counter}
	p.bar = progressbar.NewOptions(count,
		progressbar.OptionSetDescription(p.description(suite)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return p
}

// Advance counts a settled case. Called from the collector goroutine only.
func (p *ProgressBar) Advance(res domain.CaseResult) {
	switch res.Outcome {
	case domain.Success:
		p.passed++
	case domain.Failed:
		p.failed++
	default:
		p.errored++
	}
	if p.counter != nil && res.Body != nil {
		passed, failed := p.counter.ParseTestCounts(*res.Body)
		p.testsPassed += passed
		p.testsFailed += failed
	}
	p.bar.Describe(p.description(res.Suite))
	_ = p.bar.Add(1)
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Counts returns the passed, failed and errored totals seen so far
func (p *ProgressBar) Counts() (passed, failed, errored int) {
	return p.passed, p.failed, p.errored
}

// TestCounts returns the individual tests reported by case bodies so far
func (p *ProgressBar) TestCounts() (passed, failed int) {
	return p.testsPassed, p.testsFailed
}

func (p *ProgressBar) description(suite string) string {
	desc := color.CyanString("Running %s: ", suite) +
		color.GreenString("[passed: %d", p.passed) +
		" | " +
		color.RedString("failed: %d", p.failed) +
		" | " +
		color.YellowString("errored: %d]", p.errored)
	if p.counter == nil {
		return desc
	}
	return desc + fmt.Sprintf(" tests: %d ok, %d failed", p.testsPassed, p.testsFailed)
}
