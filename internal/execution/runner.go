package execution

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"mrt/internal/config"
	"mrt/internal/domain"
)

// Target identifies one hook or case function inside a test source file
type Target struct {
	Suite    string
	Module   string
	Case     string
	File     string // relative to the project path
	Function string
}

// Runner renders targets into commands and runs them through the bounded executor
type Runner struct {
	config   *config.Config
	executor *Executor
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, executor *Executor) *Runner {
	return &Runner{config: cfg, executor: executor}
}

// RunHook executes a setup or teardown function bounded by the hook timeout
func (r *Runner) RunHook(ctx context.Context, t Target) domain.Record {
	return r.executor.Invoke(ctx, r.Spec(t, r.config.Execution.HookTimeout, ""))
}

// RunCase executes a case body bounded by the case timeout and the configured success check
func (r *Runner) RunCase(ctx context.Context, t Target) domain.Record {
	return r.executor.Invoke(ctx, r.Spec(t, r.config.Execution.CaseTimeout, r.config.Execution.CheckStr))
}

// Spec renders the command template for t
func (r *Runner) Spec(t Target, timeout time.Duration, checkStr string) domain.CommandSpec {
	file := filepath.ToSlash(t.File)
	replacer := strings.NewReplacer(
		"{file}", file,
		"{dir}", path.Dir(file),
		"{func}", t.Function,
		"{suite}", t.Suite,
		"{module}", t.Module,
		"{case}", t.Case,
		"{target}", strings.TrimSuffix(file, path.Ext(file))+"::"+t.Function,
	)

	tmpl := r.config.Execution.Command
	spec := domain.CommandSpec{
		Timeout:  timeout,
		CheckStr: checkStr,
		Dir:      r.config.ProjectPath,
	}
	if len(tmpl) > 0 {
		spec.Name = replacer.Replace(tmpl[0])
		spec.Args = make([]string, 0, len(tmpl)-1)
		for _, arg := range tmpl[1:] {
			spec.Args = append(spec.Args, replacer.Replace(arg))
		}
	}

	// Set environment variables
	spec.Env = append(spec.Env, r.config.Env...)
	spec.Env = append(spec.Env,
		"MRT_SUITE="+t.Suite,
		"MRT_MODULE="+t.Module,
		"MRT_CASE="+t.Case,
	)
	return spec
}
