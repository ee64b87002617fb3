package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mrt/internal/discovery"
	"mrt/internal/domain"
	"mrt/internal/execution"
)

// ErrAmbiguousCase is returned when a bare case name selects cases in more than one module
var ErrAmbiguousCase = errors.New("ambiguous case name")

// Env carries what every hierarchy object needs to run
type Env struct {
	Runner  *execution.Runner
	Order   domain.TestOrder
	Workers int
	Log     zerolog.Logger
}

// frame is one entered hook level
type frame struct {
	level domain.Level
	hook  discovery.HookFile
}

// scope enters hook levels and guarantees that every entered level is torn
// down, innermost first, when the scope is released
type scope struct {
	runner *execution.Runner
	log    zerolog.Logger
	target execution.Target
	open   []frame
	hooks  []domain.HookResult
}

func newScope(env Env, target execution.Target) *scope {
	return &scope{runner: env.Runner, log: env.Log, target: target}
}

// enter runs the setup of a level. A level without a setup function is
// entered without running anything. When setup fails the level is not
// entered and the failed result is returned.
func (s *scope) enter(ctx context.Context, level domain.Level, hook discovery.HookFile) (domain.HookResult, bool) {
	if !hook.Present() {
		return domain.HookResult{}, true
	}
	if hook.Setup != "" {
		res := s.run(ctx, level, domain.PhaseSetup, hook, hook.Setup)
		if !res.OK() {
			return res, false
		}
	}
	s.open = append(s.open, frame{level: level, hook: hook})
	return domain.HookResult{}, true
}

// release tears down every entered level in reverse order and reports
// whether all teardowns succeeded. Teardown runs even after ctx is
// cancelled; each hook is still bounded by the hook timeout.
func (s *scope) release(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)
	ok := true
	for i := len(s.open) - 1; i >= 0; i-- {
		f := s.open[i]
		if f.hook.Teardown == "" {
			continue
		}
		if res := s.run(ctx, f.level, domain.PhaseTeardown, f.hook, f.hook.Teardown); !res.OK() {
			ok = false
		}
	}
	s.open = nil
	return ok
}

func (s *scope) run(ctx context.Context, level domain.Level, phase domain.Phase, hook discovery.HookFile, fn string) domain.HookResult {
	target := s.target
	target.File = hook.File
	target.Function = fn

	res := domain.HookResult{
		Level:    level,
		Phase:    phase,
		File:     hook.File,
		Function: fn,
		Record:   s.runner.RunHook(ctx, target),
	}
	s.hooks = append(s.hooks, res)

	if !res.OK() {
		s.log.Warn().
			Str("suite", target.Suite).
			Str("level", level.String()).
			Str("phase", phase.String()).
			Str("function", fn).
			Int("exit_code", res.Record.ExitCode).
			Msg("hook failed")
	}
	return res
}

// hookMessage describes a failed hook for a case result
func hookMessage(h domain.HookResult) string {
	msg := fmt.Sprintf("%s %s %s failed", h.Level, h.Phase, h.Function)
	if detail := recordMessage(h.Record); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// recordMessage returns the most useful line of a failed record
func recordMessage(rec domain.Record) string {
	if rec.Outcome == domain.Failed && rec.ExitCode == 0 && rec.Spec.CheckStr != "" {
		return fmt.Sprintf("output does not contain %q", rec.Spec.CheckStr)
	}
	for _, out := range []string{rec.Stderr, rec.Stdout} {
		if line := lastLine(out); line != "" {
			return line
		}
	}
	if rec.ExitCode != 0 {
		return fmt.Sprintf("exit code %d", rec.ExitCode)
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
