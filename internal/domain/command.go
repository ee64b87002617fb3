package domain

import (
	"errors"
	"strings"
	"time"
)

// CommandSpec describes one external command to run under a deadline
type CommandSpec struct {
	Name     string        `json:"name"`
	Args     []string      `json:"args"`
	Timeout  time.Duration `json:"timeout"`
	CheckStr string        `json:"check_str,omitempty"` // stdout must contain this when set
	Dir      string        `json:"dir,omitempty"`
	Env      []string      `json:"-"` // appended to the process environment
}

// Validate reports whether the spec can be executed
func (s CommandSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("command name is empty")
	}
	if s.Timeout <= 0 {
		return errors.New("command timeout must be positive")
	}
	return nil
}

// CommandLine returns the command and its arguments joined by spaces
func (s CommandSpec) CommandLine() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// Record is the captured result of one command execution
type Record struct {
	Spec     CommandSpec   `json:"spec"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
	Outcome  Outcome       `json:"outcome"`
}
