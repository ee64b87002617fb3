package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrt/internal/domain"
)

const goTestFailure = "=== RUN   TestDial\n" +
	"--- FAIL: TestDial (0.01s)\n" +
	"    peer_test.go:42: \x1b[31mexpected 200, got 503\x1b[0m\n" +
	"\n" +
	"FAIL\n" +
	"FAIL\tmrt/tests/net\t0.012s\n"

func TestOutputParser_ParseTestCounts(t *testing.T) {
	tests := []struct {
		name       string
		rec        domain.Record
		wantPassed int
		wantFailed int
	}{
		{
			name:       "verdict lines",
			rec:        domain.Record{Stdout: "--- PASS: TestA (0.00s)\n--- PASS: TestB (0.00s)\n--- FAIL: TestC (0.00s)\n", Outcome: domain.Failed},
			wantPassed: 2,
			wantFailed: 1,
		},
		{
			name:       "fallback success",
			rec:        domain.Record{Stdout: "ok\n", Outcome: domain.Success},
			wantPassed: 1,
		},
		{
			name:       "fallback failure",
			rec:        domain.Record{Stdout: "", Outcome: domain.Error},
			wantFailed: 1,
		},
	}

	p := NewOutputParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, failed := p.ParseTestCounts(tt.rec)
			assert.Equal(t, tt.wantPassed, passed)
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestOutputParser_ParseFailure(t *testing.T) {
	p := NewOutputParser()

	t.Run("go test body failure", func(t *testing.T) {
		body := &domain.Record{
			Spec:     domain.CommandSpec{Name: "go", Args: []string{"test", "-run", "^TestDial$", "./tests/net"}},
			ExitCode: 1,
			Stdout:   goTestFailure,
			Outcome:  domain.Failed,
		}
		res := domain.CaseResult{Suite: "net", Module: "peer", Name: "Dial", Outcome: domain.Failed, Stage: domain.StageBody, Body: body}

		f := p.ParseFailure(res, nil)
		assert.Equal(t, "Dial", f.TestName)
		assert.Equal(t, "peer", f.Module)
		assert.Equal(t, 1, f.ExitCode)
		assert.Equal(t, "go test -run ^TestDial$ ./tests/net", f.Command)
		require.NotEmpty(t, f.Details)
		assert.Equal(t, "--- FAIL: TestDial (0.01s)", f.Details[0])
		assert.Equal(t, "    peer_test.go:42: expected 200, got 503", f.Details[1])
		assert.Equal(t, "peer_test.go", f.File)
		assert.Equal(t, 42, f.Line)
		assert.Equal(t, "--- FAIL: TestDial (0.01s)", f.Message)
	})

	t.Run("rust panic", func(t *testing.T) {
		body := &domain.Record{
			ExitCode: 101,
			Stdout:   "running 1 test\n",
			Stderr:   "thread 'peer_test::test_dial' panicked at tests/net/peer_test.rs:10:5:\nassertion failed\n",
			Outcome:  domain.Failed,
		}
		res := domain.CaseResult{Name: "dial", Outcome: domain.Failed, Stage: domain.StageBody, Body: body, Message: "assertion failed"}

		f := p.ParseFailure(res, nil)
		assert.Equal(t, "tests/net/peer_test.rs", f.File)
		assert.Equal(t, 10, f.Line)
		assert.Equal(t, "assertion failed", f.Message)
		assert.Len(t, f.Details, 2)
	})

	t.Run("case setup failure uses the hook record", func(t *testing.T) {
		res := domain.CaseResult{
			Name:    "Dial",
			Outcome: domain.Error,
			Stage:   domain.StageCaseSetup,
			Hooks: []domain.HookResult{
				{Level: domain.LevelCase, Phase: domain.PhaseSetup, Record: domain.Record{ExitCode: 2, Stderr: "no route to host", Outcome: domain.Failed}},
			},
		}
		f := p.ParseFailure(res, nil)
		assert.Equal(t, 2, f.ExitCode)
		assert.Equal(t, []string{"no route to host"}, f.Details)
	})

	t.Run("first failed hook matches the stage", func(t *testing.T) {
		res := domain.CaseResult{
			Name:    "Dial",
			Outcome: domain.Failed,
			Stage:   domain.StageModuleTeardown,
			Body:    &domain.Record{Outcome: domain.Success},
			Hooks: []domain.HookResult{
				{Level: domain.LevelModule, Phase: domain.PhaseTeardown, Record: domain.Record{ExitCode: 4, Stderr: "module left over", Outcome: domain.Failed}},
				{Level: domain.LevelGlobal, Phase: domain.PhaseTeardown, Record: domain.Record{ExitCode: 5, Stderr: "global left over", Outcome: domain.Failed}},
			},
		}
		f := p.ParseFailure(res, nil)
		assert.Equal(t, 4, f.ExitCode)
		assert.Equal(t, []string{"module left over"}, f.Details)
	})

	t.Run("scope setup failure uses the scope hook", func(t *testing.T) {
		scope := []domain.HookResult{
			{Level: domain.LevelGlobal, Phase: domain.PhaseSetup, Record: domain.Record{Outcome: domain.Success}},
			{Level: domain.LevelModule, Phase: domain.PhaseSetup, Record: domain.Record{ExitCode: 3, Stdout: "db down", Outcome: domain.Failed}},
		}
		res := domain.CaseResult{Name: "Dial", Outcome: domain.Error, Stage: domain.StageModuleSetup, Message: "module setup TestModuleSetup failed: db down"}

		f := p.ParseFailure(res, scope)
		assert.Equal(t, 3, f.ExitCode)
		assert.Equal(t, []string{"db down"}, f.Details)
		assert.Equal(t, "module setup TestModuleSetup failed: db down", f.Message)
	})

	t.Run("cancelled case has no record", func(t *testing.T) {
		res := domain.CaseResult{Name: "Dial", Outcome: domain.Error, Stage: domain.StageCancelled, Message: "run cancelled before the case started"}
		f := p.ParseFailure(res, nil)
		assert.Empty(t, f.Command)
		assert.Empty(t, f.Details)
		assert.Equal(t, "run cancelled before the case started", f.Message)
	})
}

func TestOutputParser_BuildFailures(t *testing.T) {
	summary := domain.Summary{
		Results: []domain.CaseResult{
			{Name: "A", Outcome: domain.Success},
			{Name: "B", Outcome: domain.Failed, Stage: domain.StageBody, Body: &domain.Record{Stdout: "bad", Outcome: domain.Failed}},
			{Name: "C", Outcome: domain.Error, Stage: domain.StageCancelled},
		},
	}
	failures := NewOutputParser().BuildFailures(summary)
	require.Len(t, failures, 2)
	assert.Equal(t, "B", failures[0].TestName)
	assert.Equal(t, "C", failures[1].TestName)
}

func TestOutputParser_ExcerptCap(t *testing.T) {
	output := ""
	for i := 0; i < 100; i++ {
		output += "line\n"
	}
	assert.Len(t, NewOutputParser().excerpt(output), maxDetails)
}
