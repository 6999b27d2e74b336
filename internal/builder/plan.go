package builder

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// MockTarget is the generated mock of one dependency, for one test suite.
// Planning only records the files; the mock generator runs during the build.
type MockTarget struct {
	Suite string
	// Module is the mocked dependency
	Module *Module
	// Header is the public header the mock is generated from
	Header     string
	Source     string
	MockHeader string
}

// TestPlan is a test suite with everything needed to build its runner
type TestPlan struct {
	Suite *TestSuite
	// Mocks has one entry per direct dependency of the module under test, in declaration order
	Mocks []MockTarget
	// Runner is the test program, named after the suite file
	Runner string
	// RunnerSource is the generated runner main
	RunnerSource string
}

// PlanTests resolves the mocks of every suite. Suites are checked in discovery order
// and the returned plans are sorted by suite name.
func PlanTests(g *Graph, suites []*TestSuite, cfg *Config) ([]*TestPlan, error) {
	seen := make(map[string]*TestSuite, len(suites))
	plans := make([]*TestPlan, 0, len(suites))

	for _, suite := range suites {
		if first, ok := seen[suite.Name]; ok {
			return nil, &PlanError{
				Suite: suite.Name,
				Path:  suite.Source,
				Err:   fmt.Errorf("%w (also declared in %s)", ErrDuplicateSuite, first.Source),
			}
		}
		seen[suite.Name] = suite

		// a program has no library a runner could link against
		if suite.Module.Kind == Program {
			return nil, &PlanError{Suite: suite.Name, Path: suite.Source, Err: ErrProgramUnderTest}
		}

		plan := &TestPlan{
			Suite:        suite,
			Runner:       path.Join(cfg.Layout.Runners, suite.Name),
			RunnerSource: path.Join(cfg.Layout.Runners, "runner_"+suite.Name+".c"),
		}

		// transitive dependencies are only reached through the mocked direct ones
		for _, dep := range g.Deps(suite.Module) {
			if !dep.HasHeader() {
				return nil, &PlanError{
					Suite: suite.Name,
					Path:  suite.Source,
					Err:   fmt.Errorf("%w: %s", ErrMissingHeader, dep.Header()),
				}
			}
			plan.Mocks = append(plan.Mocks, MockTarget{
				Suite:      suite.Name,
				Module:     dep,
				Header:     dep.Header(),
				Source:     path.Join(cfg.Layout.Mocks, "mock_"+dep.Name+".c"),
				MockHeader: path.Join(cfg.Layout.Mocks, "mock_"+dep.Name+".h"),
			})
		}
		plans = append(plans, plan)
	}

	slices.SortFunc(plans, func(a, b *TestPlan) int {
		return strings.Compare(a.Suite.Name, b.Suite.Name)
	})
	return plans, nil
}
