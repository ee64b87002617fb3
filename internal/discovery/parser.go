package discovery

import (
	"slices"
	"strings"
)

// Parser extracts test cases from module definition files
type Parser struct {
	enumerator Enumerator
	prefix     string
	exclude    map[string]bool
}

// NewParser creates a new Parser. Functions named in exclude are never cases.
func NewParser(enumerator Enumerator, prefix string, exclude ...string) *Parser {
	ex := make(map[string]bool)
	for _, name := range exclude {
		if name != "" {
			ex[name] = true
		}
	}
	return &Parser{enumerator: enumerator, prefix: prefix, exclude: ex}
}

// FindTestCases returns the case names of a file in declaration order.
// A function named <prefix><name> is case <name>. Names in skip are excluded
// for this file only.
func (p *Parser) FindTestCases(filePath string, skip ...string) ([]string, error) {
	functions, err := p.enumerator.Functions(filePath)
	if err != nil {
		return nil, err
	}

	var cases []string
	for _, fn := range functions {
		if p.exclude[fn] || slices.Contains(skip, fn) || !strings.HasPrefix(fn, p.prefix) {
			continue
		}
		name := strings.TrimPrefix(fn, p.prefix)
		if name == "" {
			continue
		}
		cases = append(cases, name)
	}
	return cases, nil
}
