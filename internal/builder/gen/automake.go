package gen

import (
	"path"
	"slices"
	"strings"
)

const automakeBanner = "### GENERATED BY automod - DO NOT EDIT\n"

// AutomakeGen renders a Makefile.am using libtool convenience libraries,
// Unity test runners and CMock mocks
type AutomakeGen struct {
	tc        Toolchain
	modules   map[string]Module
	tests     map[string][]Test // module name -> its test runners
	extension []byte
}

func NewAutomakeGen() *AutomakeGen {
	return &AutomakeGen{
		modules: make(map[string]Module),
		tests:   make(map[string][]Test),
	}
}

func (g *AutomakeGen) SetToolchain(tc Toolchain) { g.tc = tc }
func (g *AutomakeGen) SetExtension(ext []byte)   { g.extension = ext }

// AddModule adds a library or program
func (g *AutomakeGen) AddModule(m Module) {
	g.modules[m.Name] = m
}

// AddTest adds a test runner; it is rendered in the block of the module it tests
func (g *AutomakeGen) AddTest(t Test) {
	g.tests[t.Module] = append(g.tests[t.Module], t)
}

func (g *AutomakeGen) Generate() string {
	parts := []string{g.preamble()}

	for _, name := range sortedKeys(g.modules) {
		parts = append(parts, g.module(g.modules[name]))
	}
	if mocks := g.mocks(); mocks != "" {
		parts = append(parts, mocks)
	}
	parts = append(parts, g.postamble())

	out := strings.Join(parts, "\n")
	if len(g.extension) > 0 {
		out += "\n" + string(g.extension)
	}
	return out
}

func (g *AutomakeGen) preamble() string {
	var sb strings.Builder
	cmock := "$(top_srcdir)/" + g.tc.CMockDir

	writeln(&sb, automakeBanner)
	writeln(&sb, "ACLOCAL_AMFLAGS = -I m4")
	writeln(&sb)
	cppflags := []string{"-I$(top_srcdir)", "-I$(top_srcdir)/" + g.tc.SrcDir}
	write(&sb, listVar("AM_CPPFLAGS", append(cppflags, g.tc.Cppflags...), false))
	writeln(&sb)
	if ldflags := listVar("AM_LDFLAGS", g.tc.Ldflags, false); ldflags != "" {
		write(&sb, ldflags)
		writeln(&sb)
	}
	write(&sb, listVar("CMOCK_CPPFLAGS", []string{
		"-I" + cmock + "/vendor/unity/src",
		"-I" + cmock + "/src",
		"-I" + g.tc.MocksDir,
	}, false))
	writeln(&sb)

	for _, v := range []string{"bin_PROGRAMS", "noinst_LTLIBRARIES", "check_PROGRAMS", "check_LTLIBRARIES", "CLEANFILES", "BUILT_SOURCES"} {
		writeln(&sb, v, " =")
	}
	writeln(&sb)

	writeln(&sb, "check_LTLIBRARIES += libcmock.la")
	write(&sb, listVar("libcmock_la_SOURCES", []string{
		g.tc.CMockDir + "/src/cmock.c",
		g.tc.CMockDir + "/src/cmock.h",
		g.tc.CMockDir + "/src/cmock_internals.h",
		g.tc.CMockDir + "/vendor/unity/src/unity.c",
		g.tc.CMockDir + "/vendor/unity/src/unity.h",
		g.tc.CMockDir + "/vendor/unity/src/unity_internals.h",
	}, false))
	writeln(&sb, "libcmock_la_CPPFLAGS = $(CMOCK_CPPFLAGS)")
	writeln(&sb)
	writeln(&sb, "CLEANFILES += ", g.tc.RunnersDir, "/runner_test_*.c")

	return sb.String()
}

func (g *AutomakeGen) module(m Module) string {
	var prefix, listName, linkVar, output string
	if m.IsLib {
		output = "lib" + m.Name + ".la"
		prefix = canonicalize(output)
		listName = "noinst_LTLIBRARIES"
		linkVar = prefix + "_LIBADD"
	} else {
		output = m.Name
		prefix = canonicalize(output)
		listName = "bin_PROGRAMS"
		linkVar = prefix + "_LDADD"
	}

	links := make([]string, len(m.Links))
	for i, dep := range m.Links {
		links[i] = "lib" + dep + ".la"
	}

	parts := []string{
		"### " + m.Name + "\n",
		listVar(listName, []string{output}, true),
		listVar(prefix+"_SOURCES", m.Sources, false),
		listVar(prefix+"_CPPFLAGS", g.includeFlags("$(AM_CPPFLAGS)", m.Includes), false),
		listVar(linkVar, links, false),
	}
	tests := slices.Clone(g.tests[m.Name])
	slices.SortFunc(tests, func(a, b Test) int { return strings.Compare(a.Suite, b.Suite) })
	for _, t := range tests {
		parts = append(parts, g.test(t)...)
	}

	return joinParts(parts) + "\n"
}

func (g *AutomakeGen) test(t Test) []string {
	prefix := canonicalize(t.Runner)

	var runnerRule strings.Builder
	writeln(&runnerRule, t.RunnerSource, ": ", t.TestSource)
	g.rubyCheck(&runnerRule)
	writeln(&runnerRule, "\t$(MKDIR_P) $(@D)")
	writeln(&runnerRule, "\t", g.tc.Ruby, " $(top_srcdir)/", g.tc.CMockDir, "/vendor/unity/auto/generate_test_runner.rb $< $@")

	sources := append([]string{t.TestSource}, t.ModuleSources...)
	nodist := []string{t.RunnerSource}
	var mockFiles []string
	for _, mock := range t.Mocks {
		mockFiles = append(mockFiles, mock.Source, mock.MockHeader)
	}
	nodist = append(nodist, mockFiles...)

	parts := []string{
		listVar("check_PROGRAMS", []string{t.Runner}, true),
		runnerRule.String(),
		listVar(prefix+"_SOURCES", sources, false),
		listVar("nodist_"+prefix+"_SOURCES", nodist, false),
	}
	if len(mockFiles) > 0 {
		runnerObj := path.Join(path.Dir(t.RunnerSource), path.Base(t.Runner)+"-"+strings.TrimSuffix(path.Base(t.RunnerSource), ".c")+".$(OBJEXT)")
		parts = append(parts, runnerObj+": \\\n    "+strings.Join(mockFiles, " \\\n    ")+"\n")
	}
	parts = append(parts,
		listVar(prefix+"_LDADD", []string{"libcmock.la"}, false),
		listVar(prefix+"_CPPFLAGS", g.includeFlags("$(CMOCK_CPPFLAGS) $(AM_CPPFLAGS)", t.Includes), false),
	)
	return parts
}

// mocks renders one generation rule per mocked module; several suites may share a mock
func (g *AutomakeGen) mocks() string {
	mocks := make(map[string]Mock)
	for _, tests := range g.tests {
		for _, t := range tests {
			for _, mock := range t.Mocks {
				mocks[mock.Name] = mock
			}
		}
	}
	if len(mocks) == 0 {
		return ""
	}

	parts := []string{"### mocks\n"}
	for _, name := range sortedKeys(mocks) {
		mock := mocks[name]
		files := []string{mock.Source, mock.MockHeader}

		var rule strings.Builder
		writeln(&rule, mock.Source, " ", mock.MockHeader, ": ", mock.Header)
		g.rubyCheck(&rule)
		writeln(&rule, "\t$(MKDIR_P) ", g.tc.MocksDir)
		writeln(&rule, "\tCMOCK_DIR=$(top_srcdir)/", g.tc.CMockDir, " \\")
		writeln(&rule, "\tMOCK_OUT=", g.tc.MocksDir, " \\")
		writeln(&rule, "\t", g.tc.Ruby, " $(top_srcdir)/", g.tc.CMockDir, "/scripts/create_mock.rb $<")

		parts = append(parts,
			rule.String(),
			listVar("CLEANFILES", files, true),
			listVar("BUILT_SOURCES", files, true),
		)
	}
	return joinParts(parts) + "\n"
}

func (g *AutomakeGen) postamble() string {
	var sb strings.Builder
	writeln(&sb, "TESTS = $(check_PROGRAMS)")
	writeln(&sb)

	// listed file by file so stale build output in the CMock checkout never ends up in a dist
	write(&sb, listVar("EXTRA_DIST", []string{
		g.tc.CMockDir + "/LICENSE.txt",
		g.tc.CMockDir + "/README.md",
		g.tc.CMockDir + "/config",
		g.tc.CMockDir + "/lib",
		g.tc.CMockDir + "/scripts",
		g.tc.CMockDir + "/src/cmock.c",
		g.tc.CMockDir + "/src/cmock.h",
		g.tc.CMockDir + "/src/cmock_internals.h",
		g.tc.CMockDir + "/vendor/unity/LICENSE.txt",
		g.tc.CMockDir + "/vendor/unity/README.md",
		g.tc.CMockDir + "/vendor/unity/auto",
		g.tc.CMockDir + "/vendor/unity/src/unity.c",
		g.tc.CMockDir + "/vendor/unity/src/unity.h",
		g.tc.CMockDir + "/vendor/unity/src/unity_internals.h",
	}, false))
	return sb.String()
}

func (g *AutomakeGen) rubyCheck(sb *strings.Builder) {
	if g.tc.Ruby != "$(RUBY)" {
		return
	}
	writeln(sb, `	@test -n "$(RUBY)" || { echo "\nPlease install Ruby to run tests.\n"; exit 1; }`)
}

func (g *AutomakeGen) includeFlags(base string, dirs []string) []string {
	flags := strings.Fields(base)
	for _, dir := range dirs {
		flags = append(flags, "-I$(top_srcdir)/"+dir)
	}
	return flags
}

func joinParts(parts []string) string {
	parts = slices.DeleteFunc(parts, func(p string) bool { return p == "" })
	return strings.Join(parts, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
