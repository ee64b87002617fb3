package runner

import (
	"context"
	"fmt"
	"strings"

	"mrt/internal/discovery"
	"mrt/internal/domain"
	"mrt/internal/execution"
)

// Suite is a named group of modules sharing the global and module hooks
type Suite struct {
	name     string
	modules  []*Module
	global   discovery.HookFile
	hooks    discovery.HookFile
	env      Env
	progress execution.Progress
}

// NewSuite builds a Suite from its discovered definition. Modules whose cases
// all vanished are dropped; a suite left without cases is an error.
func NewSuite(def *discovery.SuiteDef, env Env) (*Suite, error) {
	s := &Suite{
		name:   def.Name,
		global: def.Global,
		hooks:  def.Module,
		env:    env,
	}

	index := 0
	for _, md := range def.Modules {
		m, err := NewModule(def, md, index, env)
		index += len(md.Cases)
		if err != nil {
			env.Log.Debug().Err(err).Msg("module skipped")
			continue
		}
		s.modules = append(s.modules, m)
	}
	if len(s.modules) == 0 {
		return nil, fmt.Errorf("suite %q: %w", def.Name, discovery.ErrNoCases)
	}
	return s, nil
}

// Load discovers suite name through layout and builds it
func Load(layout *discovery.Layout, name string, env Env) (*Suite, error) {
	def, err := layout.Discover(name)
	if err != nil {
		return nil, err
	}
	return NewSuite(def, env)
}

// Name returns the suite name
func (s *Suite) Name() string {
	return s.name
}

// Modules returns the suite's modules in discovery order
func (s *Suite) Modules() []*Module {
	return s.modules
}

// SetProgress registers an observer notified as each case settles. It must
// not be called while the suite is running.
func (s *Suite) SetProgress(p execution.Progress) {
	s.progress = p
}

// Run runs every case of the suite
func (s *Suite) Run(ctx context.Context) (domain.Summary, error) {
	return s.RunFiltered(ctx, nil, nil)
}

// RunFiltered runs the cases selected by the module and case filters. An
// empty filter selects everything. A case name declared in more than one
// selected module is rejected with ErrAmbiguousCase before anything runs.
func (s *Suite) RunFiltered(ctx context.Context, modules, cases discovery.NameSet) (domain.Summary, error) {
	selected, err := s.selectCases(modules, cases)
	if err != nil {
		return domain.Summary{}, err
	}
	return s.RunCases(ctx, selected), nil
}

// Select returns the cases RunFiltered would run, in discovery order
func (s *Suite) Select(modules, cases discovery.NameSet) ([]*Case, error) {
	return s.selectCases(modules, cases)
}

// RunCases runs cases previously returned by Select inside the suite's
// global and module scope
func (s *Suite) RunCases(ctx context.Context, cases []*Case) domain.Summary {
	return runCases(ctx, s.env, s.name, s.global, s.hooks, cases, s.progress)
}

func (s *Suite) selectCases(modules, cases discovery.NameSet) ([]*Case, error) {
	log := s.env.Log.With().Str("suite", s.name).Logger()

	var included []*Module
	var moduleNames []string
	for _, m := range s.modules {
		moduleNames = append(moduleNames, m.name)
		if modules.Allows(m.name) {
			included = append(included, m)
		}
	}
	for _, name := range modules.Unknown(moduleNames) {
		log.Warn().Str("module", name).Msg("module filter matches no module")
	}

	owners := make(map[string][]string)
	var caseNames []string
	for _, m := range included {
		for _, c := range m.cases {
			if len(owners[c.name]) == 0 {
				caseNames = append(caseNames, c.name)
			}
			owners[c.name] = append(owners[c.name], m.name)
		}
	}

	for _, name := range cases.Names() {
		if mods := owners[name]; len(mods) > 1 {
			return nil, fmt.Errorf("%w: %q is declared in modules %s; select one with a module filter",
				ErrAmbiguousCase, name, strings.Join(mods, ", "))
		}
	}
	for _, name := range cases.Unknown(caseNames) {
		log.Warn().Str("case", name).Msg("case filter matches no case")
	}

	var selected []*Case
	for _, m := range included {
		for _, c := range m.cases {
			if cases.Allows(c.name) {
				selected = append(selected, c)
			}
		}
	}
	if len(selected) == 0 {
		log.Warn().Msg("no cases selected")
	}
	return selected, nil
}
