package domain

// TestFailure is a displayable excerpt of a case that did not pass
type TestFailure struct {
	TestName string   `json:"test_name"`
	Module   string   `json:"module"`
	Suite    string   `json:"suite"`
	Stage    string   `json:"stage"`
	Outcome  Outcome  `json:"outcome"`
	Command  string   `json:"command"`
	ExitCode int      `json:"exit_code"`
	Message  string   `json:"message"`
	Details  []string `json:"details"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
}
