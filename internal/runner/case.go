package runner

import (
	"context"
	"os"
	"time"

	"mrt/internal/discovery"
	"mrt/internal/domain"
	"mrt/internal/execution"
)

// Case is one test case bound to its module file and the hooks around it
type Case struct {
	suite    string
	module   string
	name     string
	function string
	file     string
	index    int

	global   discovery.HookFile
	modHook  discovery.HookFile
	caseHook discovery.HookFile

	env Env
}

// NewCase creates a Case for name in module. It returns nil when the module
// file no longer exists.
func NewCase(suite *discovery.SuiteDef, module discovery.ModuleDef, name string, index int, env Env) *Case {
	if _, err := os.Stat(module.Path); err != nil {
		env.Log.Debug().Str("file", module.Path).Str("case", name).Msg("module file missing, case skipped")
		return nil
	}
	return &Case{
		suite:    suite.Name,
		module:   module.Name,
		name:     name,
		function: module.Function(name),
		file:     module.File,
		index:    index,
		global:   suite.Global,
		modHook:  suite.Module,
		caseHook: module.Hooks,
		env:      env,
	}
}

// Name returns the bare case name
func (c *Case) Name() string {
	return c.name
}

// Module returns the name of the owning module
func (c *Case) Module() string {
	return c.module
}

// ID returns the qualified case identifier suite/module/name
func (c *Case) ID() string {
	return c.suite + "/" + c.module + "/" + c.name
}

// Run executes the case standalone: global, module and case setup, the body,
// then every entered level's teardown in reverse order. Hooks are reported in
// execution order, and a failed outer teardown fails an otherwise passing case.
func (c *Case) Run(ctx context.Context) domain.CaseResult {
	start := time.Now()
	sc := newScope(c.env, c.target(""))

	var res domain.CaseResult
	if failed, ok := sc.enter(ctx, domain.LevelGlobal, c.global); !ok {
		res = c.setupFailed(failed)
	} else if failed, ok := sc.enter(ctx, domain.LevelModule, c.modHook); !ok {
		res = c.setupFailed(failed)
	} else {
		res = c.execute(ctx)
	}

	setups := len(sc.hooks)
	released := sc.release(ctx)
	teardowns := sc.hooks[setups:]

	hooks := make([]domain.HookResult, 0, len(sc.hooks)+len(res.Hooks))
	hooks = append(hooks, sc.hooks[:setups]...)
	hooks = append(hooks, res.Hooks...)
	res.Hooks = append(hooks, teardowns...)

	if !released && res.Outcome == domain.Success {
		for _, h := range teardowns {
			if !h.OK() {
				res.Outcome = domain.Failed
				res.Stage = domain.TeardownStage(h.Level)
				res.Message = hookMessage(h)
				break
			}
		}
	}
	res.Duration = time.Since(start)
	return res
}

// execute runs the case level only: case setup, body and case teardown.
// Outer levels are owned by the caller.
func (c *Case) execute(ctx context.Context) domain.CaseResult {
	start := time.Now()
	res := c.result()
	sc := newScope(c.env, c.target(c.name))

	c.env.Log.Debug().Str("case", c.ID()).Msg("case started")
	if failed, ok := sc.enter(ctx, domain.LevelCase, c.caseHook); !ok {
		res = c.setupFailed(failed)
	} else {
		body := c.target(c.name)
		body.File = c.file
		body.Function = c.function
		rec := c.env.Runner.RunCase(ctx, body)
		res.Body = &rec
		res.Outcome = rec.Outcome
		res.Stage = domain.StageBody
		if rec.Outcome != domain.Success {
			res.Message = recordMessage(rec)
		}
	}

	if !sc.release(ctx) && res.Outcome == domain.Success {
		res.Outcome = domain.Failed
		res.Stage = domain.StageCaseTeardown
		res.Message = hookMessage(sc.hooks[len(sc.hooks)-1])
	}

	res.Hooks = sc.hooks
	res.Duration = time.Since(start)
	c.env.Log.Debug().
		Str("case", c.ID()).
		Str("outcome", res.Outcome.String()).
		Dur("duration", res.Duration).
		Msg("case finished")
	return res
}

// skipped settles the case without running it
func (c *Case) skipped(stage, message string) domain.CaseResult {
	res := c.result()
	res.Outcome = domain.Error
	res.Stage = stage
	res.Message = message
	return res
}

func (c *Case) setupFailed(h domain.HookResult) domain.CaseResult {
	return c.skipped(domain.SetupStage(h.Level), hookMessage(h))
}

func (c *Case) result() domain.CaseResult {
	return domain.CaseResult{
		Suite:  c.suite,
		Module: c.module,
		Name:   c.name,
		Index:  c.index,
	}
}

func (c *Case) target(caseName string) execution.Target {
	return execution.Target{Suite: c.suite, Module: c.module, Case: caseName}
}
