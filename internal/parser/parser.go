package parser

import "mrt/internal/domain"

// Parser extracts test counts and failure excerpts from captured output
type Parser interface {
	ParseTestCounts(rec domain.Record) (passed, failed int)
	BuildFailures(summary domain.Summary) []domain.TestFailure
}

var _ Parser = (*OutputParser)(nil)
