package builder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := BuildGraph([]*Module{
		library("cfgfile"),
		library("executor", "cfgfile"),
		program("myapp", "executor", "reporter"),
		library("reporter"),
	})
	require.NoError(t, err)
	return g
}

func suiteFor(t *testing.T, g *Graph, name, module string) *TestSuite {
	t.Helper()
	mod, ok := g.Module(module)
	require.True(t, ok)
	return &TestSuite{Name: name, Module: mod, Source: "tests/" + module + "/" + name + ".c"}
}

func TestPlanTests_MocksDirectDependencies(t *testing.T) {
	g := exampleGraph(t)
	plans, err := PlanTests(g, []*TestSuite{suiteFor(t, g, "test_executor", "executor")}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, plans, 1)

	plan := plans[0]
	assert.Equal(t, "tests/runners/test_executor", plan.Runner)
	assert.Equal(t, "tests/runners/runner_test_executor.c", plan.RunnerSource)

	cfgfile, _ := g.Module("cfgfile")
	want := []MockTarget{{
		Suite:      "test_executor",
		Module:     cfgfile,
		Header:     "src/cfgfile/cfgfile.h",
		Source:     "tests/mocks/mock_cfgfile.c",
		MockHeader: "tests/mocks/mock_cfgfile.h",
	}}
	if diff := cmp.Diff(want, plan.Mocks); diff != "" {
		t.Errorf("mocks mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanTests_NoDependencies(t *testing.T) {
	g := exampleGraph(t)
	plans, err := PlanTests(g, []*TestSuite{suiteFor(t, g, "test_cfgfile", "cfgfile")}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Empty(t, plans[0].Mocks)
}

func TestPlanTests_TransitiveDependenciesAreNotMocked(t *testing.T) {
	g, err := BuildGraph([]*Module{library("top", "mid"), library("mid", "base"), library("base")})
	require.NoError(t, err)

	plans, err := PlanTests(g, []*TestSuite{suiteFor(t, g, "test_top", "top")}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, plans[0].Mocks, 1)
	assert.Equal(t, "mid", plans[0].Mocks[0].Module.Name)
}

func TestPlanTests_SortedBySuite(t *testing.T) {
	g := exampleGraph(t)
	plans, err := PlanTests(g, []*TestSuite{
		suiteFor(t, g, "test_reporter", "reporter"),
		suiteFor(t, g, "test_executor", "executor"),
		suiteFor(t, g, "test_args", "executor"),
	}, DefaultConfig())
	require.NoError(t, err)

	got := make([]string, len(plans))
	for i, p := range plans {
		got[i] = p.Suite.Name
	}
	assert.Equal(t, []string{"test_args", "test_executor", "test_reporter"}, got)
}

func TestPlanTests_CustomLayout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.Mocks = "build/mocks"
	cfg.Layout.Runners = "build/runners"

	g := exampleGraph(t)
	plans, err := PlanTests(g, []*TestSuite{suiteFor(t, g, "test_executor", "executor")}, cfg)
	require.NoError(t, err)

	want := &TestPlan{
		Runner:       "build/runners/test_executor",
		RunnerSource: "build/runners/runner_test_executor.c",
		Mocks: []MockTarget{{
			Suite:      "test_executor",
			Header:     "src/cfgfile/cfgfile.h",
			Source:     "build/mocks/mock_cfgfile.c",
			MockHeader: "build/mocks/mock_cfgfile.h",
		}},
	}
	opts := cmp.Options{
		cmpopts.IgnoreFields(TestPlan{}, "Suite"),
		cmpopts.IgnoreFields(MockTarget{}, "Module"),
	}
	if diff := cmp.Diff(want, plans[0], opts); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanTests_DuplicateSuite(t *testing.T) {
	g := exampleGraph(t)
	first := suiteFor(t, g, "test_common", "executor")
	second := suiteFor(t, g, "test_common", "reporter")

	_, err := PlanTests(g, []*TestSuite{first, second}, DefaultConfig())
	require.ErrorIs(t, err, ErrDuplicateSuite)

	var perr *PlanError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "test_common", perr.Suite)
	assert.Contains(t, err.Error(), "tests/executor/test_common.c")
	assert.Contains(t, err.Error(), "tests/reporter/test_common.c")
}

func TestPlanTests_ProgramUnderTest(t *testing.T) {
	g := exampleGraph(t)
	_, err := PlanTests(g, []*TestSuite{suiteFor(t, g, "test_myapp", "myapp")}, DefaultConfig())
	require.ErrorIs(t, err, ErrProgramUnderTest)
}

func TestPlanTests_MissingHeader(t *testing.T) {
	noheader := library("noheader")
	noheader.Sources = []string{"noheader.c"}
	g, err := BuildGraph([]*Module{library("user", "noheader"), noheader})
	require.NoError(t, err)

	_, err = PlanTests(g, []*TestSuite{suiteFor(t, g, "test_user", "user")}, DefaultConfig())
	require.ErrorIs(t, err, ErrMissingHeader)
	assert.Contains(t, err.Error(), "src/noheader/noheader.h")
}
