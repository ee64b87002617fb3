package execution

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mrt/internal/domain"
)

// Synthetic exit codes and messages for outcomes the child never reported
const (
	ExitTimeout      = -1
	ExitStartFailure = -1
	ExitDisconnected = -2
	ExitCancelled    = -3

	MsgTimeout      = "Command timed out"
	MsgDisconnected = "Receiver disconnected before getting a result"
	MsgCancelled    = "Command cancelled"
)

// waitDelay bounds how long Wait keeps reading pipes held open by grandchildren
const waitDelay = 5 * time.Second

// completion is what a worker reports for one command
type completion struct {
	exitCode int
	stdout   string
	stderr   string
	err      error // program could not be started or waited on
}

// processFunc runs spec to completion and hands the child to started once it exists
type processFunc func(spec domain.CommandSpec, started func(*os.Process)) completion

// Executor runs external commands under a deadline and classifies the outcome
type Executor struct {
	log           zerolog.Logger
	killOnTimeout bool
	run           processFunc
}

// NewExecutor creates a new Executor. When killOnTimeout is false a timed out
// child is abandoned and may keep running; its result is discarded.
func NewExecutor(log zerolog.Logger, killOnTimeout bool) *Executor {
	return &Executor{
		log:           log.With().Str("component", "executor").Logger(),
		killOnTimeout: killOnTimeout,
		run:           runProcess,
	}
}

// Invoke runs spec and blocks until it completes, its deadline elapses or ctx is done
func (e *Executor) Invoke(ctx context.Context, spec domain.CommandSpec) domain.Record {
	spec = normalize(spec)
	rec := domain.Record{Spec: spec, Start: time.Now()}

	if err := spec.Validate(); err != nil {
		rec.ExitCode = ExitStartFailure
		rec.Stderr = err.Error()
		rec.Outcome = domain.Error
		return e.settle(rec)
	}
	if ctx.Err() != nil {
		return e.settle(cancelled(rec))
	}

	// buffered so an abandoned worker can still report and exit
	done := make(chan completion, 1)
	child := &childHandle{}
	go e.work(spec, child, done)

	timer := time.NewTimer(spec.Timeout)
	defer timer.Stop()

	select {
	case c, ok := <-done:
		if !ok {
			rec.ExitCode = ExitDisconnected
			rec.Stderr = MsgDisconnected
			rec.Outcome = domain.Error
			break
		}
		rec = classify(rec, c)
	case <-timer.C:
		child.abandon(e.killOnTimeout)
		rec.ExitCode = ExitTimeout
		rec.Stderr = MsgTimeout
		rec.Outcome = domain.Failed
	case <-ctx.Done():
		child.abandon(true)
		rec = cancelled(rec)
	}

	return e.settle(rec)
}

func (e *Executor) work(spec domain.CommandSpec, child *childHandle, done chan<- completion) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("command", spec.Name).Msg("command worker panicked")
		}
	}()
	done <- e.run(spec, child.started)
}

func (e *Executor) settle(rec domain.Record) domain.Record {
	rec.End = time.Now()
	rec.Duration = rec.End.Sub(rec.Start)
	e.log.Debug().
		Str("command", rec.Spec.CommandLine()).
		Stringer("outcome", rec.Outcome).
		Int("exit", rec.ExitCode).
		Dur("elapsed", rec.Duration).
		Msg("command settled")
	return rec
}

func classify(rec domain.Record, c completion) domain.Record {
	rec.ExitCode = c.exitCode
	rec.Stdout = c.stdout
	rec.Stderr = c.stderr

	switch {
	case c.err != nil:
		rec.ExitCode = ExitStartFailure
		rec.Stderr = c.err.Error()
		rec.Outcome = domain.Error
	case c.exitCode != 0:
		rec.Outcome = domain.Failed
	case rec.Spec.CheckStr != "":
		if strings.Contains(rec.Stdout, rec.Spec.CheckStr) {
			rec.Outcome = domain.Success
		} else {
			rec.Outcome = domain.Failed
		}
	default:
		rec.Outcome = domain.Success
	}
	return rec
}

func cancelled(rec domain.Record) domain.Record {
	rec.ExitCode = ExitCancelled
	rec.Stderr = MsgCancelled
	rec.Outcome = domain.Error
	return rec
}

func normalize(spec domain.CommandSpec) domain.CommandSpec {
	if len(spec.Args) > 0 {
		args := make([]string, len(spec.Args))
		for i, arg := range spec.Args {
			args[i] = strings.TrimSpace(arg)
		}
		spec.Args = args
	}
	spec.CheckStr = strings.TrimSpace(spec.CheckStr)
	return spec
}

func runProcess(spec domain.CommandSpec, started func(*os.Process)) completion {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return completion{err: err}
	}
	started(cmd.Process)

	err := cmd.Wait()
	c := completion{
		exitCode: -1,
		stdout:   stdout.String(),
		stderr:   stderr.String(),
	}
	if cmd.ProcessState != nil {
		c.exitCode = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		c.err = err
	}
	return c
}

// childHandle tracks the child process so a deadline can terminate its process group
type childHandle struct {
	mu        sync.Mutex
	proc      *os.Process
	abandoned bool
	kill      bool
}

func (h *childHandle) started(p *os.Process) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.proc = p
	if h.abandoned && h.kill {
		_ = killTree(p)
	}
}

func (h *childHandle) abandon(kill bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.abandoned = true
	h.kill = kill
	if kill && h.proc != nil {
		_ = killTree(h.proc)
	}
}
