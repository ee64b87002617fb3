package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mrt/internal/discovery"
	"mrt/internal/domain"
	"mrt/internal/execution"
)

// Module is a named group of cases from one module definition file
type Module struct {
	suite  string
	name   string
	cases  []*Case
	global discovery.HookFile
	hooks  discovery.HookFile
	env    Env
}

// NewModule creates a Module with its cases in discovery order. first is the
// suite-wide index of the module's first case.
func NewModule(suite *discovery.SuiteDef, def discovery.ModuleDef, first int, env Env) (*Module, error) {
	m := &Module{
		suite:  suite.Name,
		name:   def.Name,
		global: suite.Global,
		hooks:  suite.Module,
		env:    env,
	}
	for i, name := range def.Cases {
		if c := NewCase(suite, def, name, first+i, env); c != nil {
			m.cases = append(m.cases, c)
		}
	}
	if len(m.cases) == 0 {
		return nil, fmt.Errorf("module %s/%s: %w", suite.Name, def.Name, discovery.ErrNoCases)
	}
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string {
	return m.name
}

// Cases returns the module's cases in discovery order
func (m *Module) Cases() []*Case {
	return m.cases
}

// Run enters the global and module levels once, runs every case with the
// configured order and tears both levels down
func (m *Module) Run(ctx context.Context) domain.Summary {
	return runCases(ctx, m.env, m.suite, m.global, m.hooks, m.cases, nil)
}

// runCases runs cases inside a single global and module scope and collects a summary
func runCases(ctx context.Context, env Env, suite string, global, module discovery.HookFile, cases []*Case, progress execution.Progress) domain.Summary {
	strategy := execution.NewStrategy(env.Order, env.Workers)
	summary := domain.Summary{
		RunID:   uuid.NewString(),
		Suite:   suite,
		Order:   env.Order.String(),
		Workers: min(strategy.Workers(), max(len(cases), 1)),
		Start:   time.Now(),
	}
	log := env.Log.With().Str("suite", suite).Str("run_id", summary.RunID).Logger()
	log.Info().
		Int("cases", len(cases)).
		Str("order", summary.Order).
		Int("workers", summary.Workers).
		Msg("run started")

	// nothing to guard, so no hooks run
	if len(cases) == 0 {
		return summary
	}

	collector := execution.NewCollector(len(cases), progress)
	sc := newScope(env, execution.Target{Suite: suite})

	if ctx.Err() != nil {
		for _, c := range cases {
			collector.Add(c.skipped(domain.StageCancelled, "run cancelled before the case started"))
		}
		return finish(summary, collector, sc, log)
	}

	failed, ok := sc.enter(ctx, domain.LevelGlobal, global)
	if ok {
		failed, ok = sc.enter(ctx, domain.LevelModule, module)
	}

	if !ok {
		stage := domain.SetupStage(failed.Level)
		message := hookMessage(failed)
		for _, c := range cases {
			collector.Add(c.skipped(stage, message))
		}
	} else {
		strategy.Execute(ctx, len(cases), func(ctx context.Context, i int) {
			c := cases[i]
			if ctx.Err() != nil {
				collector.Add(c.skipped(domain.StageCancelled, "run cancelled before the case started"))
				return
			}
			collector.Add(c.execute(ctx))
		})
	}
	sc.release(ctx)
	return finish(summary, collector, sc, log)
}

func finish(summary domain.Summary, collector *execution.Collector, sc *scope, log zerolog.Logger) domain.Summary {
	summary.Results = collector.Close()
	summary.Hooks = sc.hooks
	summary.Duration = time.Since(summary.Start)
	summary.Count()

	log.Info().
		Int("passed", summary.Passed).
		Int("failed", summary.Failed).
		Int("errored", summary.Errored).
		Dur("duration", summary.Duration).
		Msg("run finished")
	return summary
}
