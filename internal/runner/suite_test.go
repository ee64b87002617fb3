package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrt/internal/discovery"
	"mrt/internal/domain"
)

func TestSuite_RunSequential(t *testing.T) {
	p := newProject(t)
	s := p.suite(t, "net", p.env(domain.Sequential, 1))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, "net", summary.Suite)
	assert.Equal(t, "sequential", summary.Order)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, []string{"One", "Two", "Three"}, names(summary.Results))
	for i, r := range summary.Results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, domain.StageBody, r.Stage)
		require.NotNil(t, r.Body)
	}
	assert.Contains(t, summary.Results[0].Body.Stdout, "ok net/alpha/One")

	assert.Equal(t, []string{
		call(globalFile, "TestGlobalSetup"),
		call(moduleFile, "TestModuleSetup"),
		call(alphaFile, "TestSetup_alpha"),
		call(alphaFile, "TestOne"),
		call(alphaFile, "TestTeardown_alpha"),
		call(alphaFile, "TestSetup_alpha"),
		call(alphaFile, "TestTwo"),
		call(alphaFile, "TestTeardown_alpha"),
		call(betaFile, "TestThree"),
		call(moduleFile, "TestModuleTeardown"),
		call(globalFile, "TestGlobalTeardown"),
	}, p.calls(t))

	assert.Len(t, summary.Hooks, 4)
	assert.Len(t, summary.Results[0].Hooks, 2)
	assert.Empty(t, summary.Results[2].Hooks)
}

func TestSuite_BodyFailureKeepsTeardown(t *testing.T) {
	p := newProject(t, "FAIL="+call(alphaFile, "TestOne"))
	s := p.suite(t, "net", p.env(domain.Sequential, 1))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.OK())
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)

	one := summary.Results[0]
	assert.Equal(t, domain.Failed, one.Outcome)
	assert.Equal(t, domain.StageBody, one.Stage)
	assert.Equal(t, 1, one.Body.ExitCode)
	assert.Equal(t, "boom from TestOne", one.Message)

	calls := p.calls(t)
	assert.Equal(t, call(alphaFile, "TestOne"), calls[3])
	assert.Equal(t, call(alphaFile, "TestTeardown_alpha"), calls[4])
}

func TestSuite_SetupFailures(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		fn        string
		stage     string
		wantCalls []string
	}{
		{
			name:      "global setup",
			file:      globalFile,
			fn:        "TestGlobalSetup",
			stage:     domain.StageGlobalSetup,
			wantCalls: []string{call(globalFile, "TestGlobalSetup")},
		},
		{
			name:  "module setup",
			file:  moduleFile,
			fn:    "TestModuleSetup",
			stage: domain.StageModuleSetup,
			wantCalls: []string{
				call(globalFile, "TestGlobalSetup"),
				call(moduleFile, "TestModuleSetup"),
				call(globalFile, "TestGlobalTeardown"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProject(t, "FAIL="+call(tt.file, tt.fn))
			s := p.suite(t, "net", p.env(domain.Sequential, 1))

			summary, err := s.Run(context.Background())
			require.NoError(t, err)

			assert.False(t, summary.OK())
			assert.Equal(t, 3, summary.Errored)
			for _, r := range summary.Results {
				assert.Equal(t, domain.Error, r.Outcome)
				assert.Equal(t, tt.stage, r.Stage)
				assert.Nil(t, r.Body)
				assert.Contains(t, r.Message, "boom from "+tt.fn)
			}
			assert.Equal(t, tt.wantCalls, p.calls(t))
		})
	}
}

func TestSuite_CaseSetupFailure(t *testing.T) {
	p := newProject(t, "FAIL="+call(alphaFile, "TestSetup_alpha"))
	s := p.suite(t, "net", p.env(domain.Sequential, 1))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Errored)
	assert.Equal(t, 1, summary.Passed)
	for _, r := range summary.Results[:2] {
		assert.Equal(t, domain.StageCaseSetup, r.Stage)
		assert.Nil(t, r.Body)
	}
	assert.Equal(t, domain.Success, summary.Results[2].Outcome)

	calls := p.calls(t)
	assert.NotContains(t, calls, call(alphaFile, "TestTeardown_alpha"))
	assert.NotContains(t, calls, call(alphaFile, "TestOne"))
	assert.Equal(t, call(globalFile, "TestGlobalTeardown"), calls[len(calls)-1])
}

func TestSuite_CaseTeardownFailure(t *testing.T) {
	p := newProject(t, "FAIL="+call(alphaFile, "TestTeardown_alpha"))
	s := p.suite(t, "net", p.env(domain.Sequential, 1))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Passed)
	one := summary.Results[0]
	assert.Equal(t, domain.Failed, one.Outcome)
	assert.Equal(t, domain.StageCaseTeardown, one.Stage)
	require.NotNil(t, one.Body)
	assert.Equal(t, domain.Success, one.Body.Outcome)
}

func TestSuite_ScopeTeardownFailure(t *testing.T) {
	p := newProject(t, "FAIL="+call(globalFile, "TestGlobalTeardown"))
	s := p.suite(t, "net", p.env(domain.Sequential, 1))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Passed)
	assert.False(t, summary.OK())
}

func TestSuite_RunFiltered(t *testing.T) {
	tests := []struct {
		name    string
		suite   string
		modules []string
		cases   []string
		want    []string
	}{
		{name: "no filter", suite: "net", want: []string{"One", "Two", "Three"}},
		{name: "module filter", suite: "net", modules: []string{"beta"}, want: []string{"Three"}},
		{name: "case filter", suite: "net", cases: []string{"Two"}, want: []string{"Two"}},
		{name: "unknown names are ignored", suite: "net", modules: []string{"alpha", "gamma"}, cases: []string{"One", "Nope"}, want: []string{"One"}},
		{name: "module filter resolves duplicate names", suite: "dup", modules: []string{"b"}, cases: []string{"Shared"}, want: []string{"Shared"}},
		{name: "unique case in dup suite", suite: "dup", cases: []string{"Only"}, want: []string{"Only"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProject(t)
			s := p.suite(t, tt.suite, p.env(domain.Sequential, 1))

			summary, err := s.RunFiltered(context.Background(), discovery.NewNameSet(tt.modules...), discovery.NewNameSet(tt.cases...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(summary.Results))
			assert.True(t, summary.OK())
		})
	}
}

func TestSuite_AmbiguousCase(t *testing.T) {
	p := newProject(t)
	s := p.suite(t, "dup", p.env(domain.Sequential, 1))

	summary, err := s.RunFiltered(context.Background(), nil, discovery.NewNameSet("Shared"))
	assert.True(t, errors.Is(err, ErrAmbiguousCase))
	assert.Contains(t, err.Error(), "a, b")
	assert.Empty(t, summary.Results)
	assert.Empty(t, p.calls(t))
}

func TestSuite_NothingSelected(t *testing.T) {
	p := newProject(t)
	s := p.suite(t, "net", p.env(domain.Sequential, 1))

	summary, err := s.RunFiltered(context.Background(), nil, discovery.NewNameSet("Nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total())
	assert.Empty(t, p.calls(t))
}

func TestSuite_RunParallel(t *testing.T) {
	p := newProject(t)
	s := p.suite(t, "net", p.env(domain.Parallel, 8))

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(t, "parallel", summary.Order)
	assert.Equal(t, 3, summary.Workers)
	assert.Equal(t, []string{"One", "Two", "Three"}, names(summary.Results))

	calls := p.calls(t)
	require.Len(t, calls, 11)
	assert.Equal(t, call(globalFile, "TestGlobalSetup"), calls[0])
	assert.Equal(t, call(moduleFile, "TestModuleSetup"), calls[1])
	assert.Equal(t, call(moduleFile, "TestModuleTeardown"), calls[9])
	assert.Equal(t, call(globalFile, "TestGlobalTeardown"), calls[10])
}

func TestSuite_Cancelled(t *testing.T) {
	t.Run("before the run", func(t *testing.T) {
		p := newProject(t)
		s := p.suite(t, "net", p.env(domain.Sequential, 1))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		summary, err := s.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.Errored)
		for _, r := range summary.Results {
			assert.Equal(t, domain.StageCancelled, r.Stage)
		}
		assert.Empty(t, p.calls(t))
	})

	t.Run("during a case", func(t *testing.T) {
		p := newProject(t, "SLOW="+call(alphaFile, "TestOne"))
		s := p.suite(t, "net", p.env(domain.Sequential, 1))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		start := time.Now()
		summary, err := s.Run(ctx)
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 4*time.Second)

		one := summary.Results[0]
		assert.Equal(t, domain.Error, one.Outcome)
		assert.Equal(t, domain.StageBody, one.Stage)
		for _, r := range summary.Results[1:] {
			assert.Equal(t, domain.StageCancelled, r.Stage)
		}

		// entered levels are still torn down
		calls := p.calls(t)
		assert.Equal(t, []string{
			call(alphaFile, "TestTeardown_alpha"),
			call(moduleFile, "TestModuleTeardown"),
			call(globalFile, "TestGlobalTeardown"),
		}, calls[len(calls)-3:])
	})
}

type recordingProgress struct {
	mu       sync.Mutex
	advanced []string
	finished bool
}

func (r *recordingProgress) Advance(res domain.CaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanced = append(r.advanced, res.Name)
}

func (r *recordingProgress) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

func TestSuite_Progress(t *testing.T) {
	p := newProject(t)
	s := p.suite(t, "net", p.env(domain.Parallel, 2))
	progress := &recordingProgress{}
	s.SetProgress(progress)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"One", "Two", "Three"}, progress.advanced)
	assert.True(t, progress.finished)
}

func TestNewSuite(t *testing.T) {
	t.Run("unknown suite", func(t *testing.T) {
		p := newProject(t)
		_, err := Load(p.layout, "absent", p.env(domain.Sequential, 1))
		assert.True(t, errors.Is(err, discovery.ErrSuiteNotFound))
	})

	t.Run("module files removed after discovery", func(t *testing.T) {
		p := newProject(t)
		def, err := p.layout.Discover("bare")
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(p.root, "tests/bare/only_test.go")))

		s, err := NewSuite(def, p.env(domain.Sequential, 1))
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, discovery.ErrNoCases))
	})

	t.Run("accessors", func(t *testing.T) {
		p := newProject(t)
		s := p.suite(t, "net", p.env(domain.Sequential, 1))
		assert.Equal(t, "net", s.Name())
		require.Len(t, s.Modules(), 2)
		assert.Equal(t, "alpha", s.Modules()[0].Name())
		assert.Equal(t, "net/alpha/Two", s.Modules()[0].Cases()[1].ID())

		selected, err := s.Select(discovery.NewNameSet("beta"), nil)
		require.NoError(t, err)
		require.Len(t, selected, 1)
		assert.Equal(t, "Three", selected[0].Name())
		assert.Equal(t, "beta", selected[0].Module())
	})
}
