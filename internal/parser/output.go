package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"

	"mrt/internal/domain"
)

// maxDetails caps the excerpt kept per failure
const maxDetails = 40

var (
	// failureStart matches the first line of a failure report from go test, cargo test or pytest
	failureStart = regexp.MustCompile(`^\s*(--- FAIL|panic:|thread '.*' panicked|FAIL:|FAILED|Traceback|E\s{2,})`)
	// location matches file:line references such as peer_test.go:42 or src/net.rs:10:5
	location = regexp.MustCompile(`([A-Za-z0-9_./\\-]+\.[A-Za-z]+):(\d+)`)
	// passLine and failLine count go test verdicts
	passLine = regexp.MustCompile(`(?m)^\s*--- PASS`)
	failLine = regexp.MustCompile(`(?m)^\s*--- FAIL`)
)

// OutputParser turns captured command output into failure excerpts
type OutputParser struct{}

// NewOutputParser creates a new OutputParser
func NewOutputParser() *OutputParser {
	return &OutputParser{}
}

// ParseTestCounts counts go test verdict lines in a record. When the output
// has none, the record itself counts as one test.
func (p *OutputParser) ParseTestCounts(rec domain.Record) (passed, failed int) {
	output := stripansi.Strip(rec.Stdout)
	passed = len(passLine.FindAllString(output, -1))
	failed = len(failLine.FindAllString(output, -1))
	if passed > 0 || failed > 0 {
		return passed, failed
	}

	// Fallback: one "test" per invocation
	if rec.Outcome == domain.Success {
		return 1, 0
	}
	return 0, 1
}

// BuildFailures returns an excerpt for every case of summary that did not pass, in discovery order
func (p *OutputParser) BuildFailures(summary domain.Summary) []domain.TestFailure {
	var failures []domain.TestFailure
	for _, res := range summary.Results {
		if res.Outcome == domain.Success {
			continue
		}
		failures = append(failures, p.ParseFailure(res, summary.Hooks))
	}
	return failures
}

// ParseFailure builds the excerpt of one case. scopeHooks are consulted when
// the case never ran because a global or module setup failed.
func (p *OutputParser) ParseFailure(res domain.CaseResult, scopeHooks []domain.HookResult) domain.TestFailure {
	failure := domain.TestFailure{
		TestName: res.Name,
		Module:   res.Module,
		Suite:    res.Suite,
		Stage:    res.Stage,
		Outcome:  res.Outcome,
		Message:  res.Message,
		Details:  []string{},
	}

	rec := failedRecord(res, scopeHooks)
	if rec == nil {
		return failure
	}
	failure.Command = rec.Spec.CommandLine()
	failure.ExitCode = rec.ExitCode
	failure.Details = p.excerpt(rec.Stdout + "\n" + rec.Stderr)

	for _, line := range failure.Details {
		if m := location.FindStringSubmatch(line); m != nil {
			failure.File = m[1]
			failure.Line, _ = strconv.Atoi(m[2])
			break
		}
	}
	if failure.Message == "" && len(failure.Details) > 0 {
		failure.Message = failure.Details[0]
	}
	return failure
}

// excerpt keeps the non-blank lines from the first failure marker on. Output
// without a marker is kept from its start.
func (p *OutputParser) excerpt(output string) []string {
	lines := strings.Split(stripansi.Strip(output), "\n")

	start := 0
	for i, line := range lines {
		if failureStart.MatchString(line) {
			start = i
			break
		}
	}

	details := []string{}
	for _, line := range lines[start:] {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		details = append(details, line)
		if len(details) == maxDetails {
			break
		}
	}
	return details
}

// failedRecord picks the record that explains why res did not pass
func failedRecord(res domain.CaseResult, scopeHooks []domain.HookResult) *domain.Record {
	if res.Body != nil && res.Stage == domain.StageBody {
		return res.Body
	}
	// hooks are in execution order; the first failure is the one the stage names
	for i := range res.Hooks {
		if !res.Hooks[i].OK() {
			return &res.Hooks[i].Record
		}
	}
	for i := range scopeHooks {
		h := scopeHooks[i]
		if h.Phase == domain.PhaseSetup && !h.OK() && domain.SetupStage(h.Level) == res.Stage {
			return &scopeHooks[i].Record
		}
	}
	return nil
}
