package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mrt/internal/config"
	"mrt/internal/discovery"
	"mrt/internal/domain"
	"mrt/internal/execution"
)

// dispatch records every invocation as file:func and fails or stalls the
// invocations listed in FAIL and SLOW
const dispatch = `#!/bin/sh
echo "$2:$1" >> calls.log
case ",$FAIL," in
  *",$2:$1,"*) echo "boom from $1" >&2; exit 1 ;;
esac
case ",$SLOW," in
  *",$2:$1,"*) sleep 5 ;;
esac
echo "ok $MRT_SUITE/$MRT_MODULE/$MRT_CASE"
`

var fixture = map[string]string{
	"tests/global_test.go":     "package tests\n\nfunc TestGlobalSetup() {}\n\nfunc TestGlobalTeardown() {}\n",
	"tests/net/module_test.go": "package net\n\nfunc TestModuleSetup() {}\n\nfunc TestModuleTeardown() {}\n",
	"tests/net/alpha_test.go":  "package net\n\nfunc TestSetup_alpha() {}\n\nfunc TestOne() {}\n\nfunc TestTwo() {}\n\nfunc TestTeardown_alpha() {}\n",
	"tests/net/beta_test.go":   "package net\n\nfunc TestThree() {}\n",
	"tests/dup/a_test.go":      "package dup\n\nfunc TestShared() {}\n",
	"tests/dup/b_test.go":      "package dup\n\nfunc TestShared() {}\n\nfunc TestOnly() {}\n",
	"tests/bare/only_test.go":  "package bare\n\nfunc TestAlone() {}\n",
}

const (
	globalFile = "tests/global_test.go"
	moduleFile = "tests/net/module_test.go"
	alphaFile  = "tests/net/alpha_test.go"
	betaFile   = "tests/net/beta_test.go"
)

type project struct {
	root   string
	cfg    *config.Config
	layout *discovery.Layout
}

func newProject(t *testing.T, env ...string) *project {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{"run.sh": dispatch}
	for name, content := range fixture {
		files[name] = content
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfg := config.New()
	cfg.ProjectPath = root
	cfg.Execution.Command = []string{"sh", "run.sh", "{func}", "{file}"}
	cfg.Execution.CaseTimeout = 20 * time.Second
	cfg.Execution.HookTimeout = 20 * time.Second
	cfg.Env = env
	return &project{root: root, cfg: cfg, layout: discovery.NewLayout(cfg)}
}

func (p *project) env(order domain.TestOrder, workers int) Env {
	executor := execution.NewExecutor(zerolog.Nop(), true)
	return Env{
		Runner:  execution.NewRunner(p.cfg, executor),
		Order:   order,
		Workers: workers,
		Log:     zerolog.Nop(),
	}
}

func (p *project) suite(t *testing.T, name string, env Env) *Suite {
	t.Helper()
	s, err := Load(p.layout, name, env)
	require.NoError(t, err)
	return s
}

// calls returns the recorded invocations in order
func (p *project) calls(t *testing.T) []string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(p.root, "calls.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(content))
}

func call(file, fn string) string {
	return file + ":" + fn
}

func names(results []domain.CaseResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Name)
	}
	return out
}
