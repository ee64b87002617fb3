package domain

import "time"

// Stages at which a case can settle
const (
	StageGlobalSetup  = "global setup"
	StageModuleSetup  = "module setup"
	StageCaseSetup    = "case setup"
	StageBody         = "body"
	StageCaseTeardown = "case teardown"
	StageCancelled    = "cancelled"

	StageModuleTeardown = "module teardown"
	StageGlobalTeardown = "global teardown"
)

// SetupStage returns the stage name for a failed setup at the given level
func SetupStage(l Level) string {
	switch l {
	case LevelGlobal:
		return StageGlobalSetup
	case LevelModule:
		return StageModuleSetup
	default:
		return StageCaseSetup
	}
}

// TeardownStage returns the stage name for a failed teardown at the given level
func TeardownStage(l Level) string {
	switch l {
	case LevelGlobal:
		return StageGlobalTeardown
	case LevelModule:
		return StageModuleTeardown
	default:
		return StageCaseTeardown
	}
}

// HookResult is one executed setup or teardown hook
type HookResult struct {
	Level    Level  `json:"-"`
	Phase    Phase  `json:"-"`
	File     string `json:"file"`
	Function string `json:"function"`
	Record   Record `json:"record"`
}

// OK reports whether the hook succeeded
func (h HookResult) OK() bool {
	return h.Record.Outcome == Success
}

// CaseResult is the settled result of one test case
type CaseResult struct {
	Suite    string        `json:"suite"`
	Module   string        `json:"module"`
	Name     string        `json:"name"`
	Index    int           `json:"index"` // position in discovery order
	Outcome  Outcome       `json:"outcome"`
	Stage    string        `json:"stage"`
	Body     *Record       `json:"body,omitempty"`
	Hooks    []HookResult  `json:"hooks,omitempty"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ID returns the qualified case identifier suite/module/name
func (r CaseResult) ID() string {
	return r.Suite + "/" + r.Module + "/" + r.Name
}

// Summary aggregates one run of a suite or module
type Summary struct {
	RunID    string        `json:"run_id"`
	Suite    string        `json:"suite"`
	Order    string        `json:"order"`
	Workers  int           `json:"workers"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Errored  int           `json:"errored"`
	Results  []CaseResult  `json:"results"`
	Hooks    []HookResult  `json:"hooks,omitempty"`
}

// Total returns the number of settled cases
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Errored
}

// OK is true when every case passed and every scope hook succeeded
func (s Summary) OK() bool {
	if s.Failed > 0 || s.Errored > 0 {
		return false
	}
	for _, h := range s.Hooks {
		if !h.OK() {
			return false
		}
	}
	return true
}

// Count tallies results into the pass/fail/error counters
func (s *Summary) Count() {
	s.Passed, s.Failed, s.Errored = 0, 0, 0
	for _, r := range s.Results {
		switch r.Outcome {
		case Success:
			s.Passed++
		case Failed:
			s.Failed++
		default:
			s.Errored++
		}
	}
}
