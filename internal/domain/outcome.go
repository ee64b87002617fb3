package domain

import (
	"fmt"
	"strings"
)

// Outcome is the tri-state result of any bounded operation
type Outcome int

const (
	Success Outcome = iota
	Failed
	Error
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome as its string form
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome from its string form
func (o *Outcome) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "success":
		*o = Success
	case "failed":
		*o = Failed
	case "error":
		*o = Error
	default:
		return fmt.Errorf("unknown outcome %q", string(text))
	}
	return nil
}

// TestOrder selects how cases are scheduled
type TestOrder int

const (
	Sequential TestOrder = iota
	Parallel
)

func (o TestOrder) String() string {
	if o == Parallel {
		return "parallel"
	}
	return "sequential"
}

// ParseOrder parses "sequential" or "parallel", ignoring case
func ParseOrder(s string) (TestOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential":
		return Sequential, nil
	case "parallel":
		return Parallel, nil
	default:
		return Sequential, fmt.Errorf("invalid order %q: expected sequential or parallel", s)
	}
}

// Level identifies where a hook pair is bound
type Level int

const (
	LevelGlobal Level = iota
	LevelModule
	LevelCase
)

func (l Level) String() string {
	switch l {
	case LevelGlobal:
		return "global"
	case LevelModule:
		return "module"
	default:
		return "case"
	}
}

// Phase is either the setup or the teardown half of a hook pair
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseTeardown
)

func (p Phase) String() string {
	if p == PhaseTeardown {
		return "teardown"
	}
	return "setup"
}
