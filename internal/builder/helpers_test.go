package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files (slash paths relative to the root) in a temporary directory
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// exampleTree is a small project: two libraries used by a program,
// one of them depending on a third library
func exampleTree() map[string]string {
	return map[string]string{
		"src/cfgfile/module.cfg":         "[module]\nlibrary = cfgfile\n",
		"src/cfgfile/cfgfile.c":          "#include \"cfgfile.h\"\n",
		"src/cfgfile/cfgfile.h":          "int cfgfile_func(int x);\n",
		"src/executor/module.cfg":        "[module]\nlibrary = executor\ndeps = cfgfile\n",
		"src/executor/executor.c":        "#include \"executor.h\"\n",
		"src/executor/executor.h":        "int executor_doit(int x);\n",
		"src/reporter/module.cfg":        "[module]\nlibrary = reporter\n",
		"src/reporter/reporter.c":        "#include \"reporter.h\"\n",
		"src/reporter/reporter.h":        "void reporter_print_message(void);\n",
		"src/myapp/module.cfg":           "[module]\nprogram = myapp\ndeps = executor reporter\n",
		"src/myapp/myapp.c":              "int main(void) { return 0; }\n",
		"tests/executor/test_executor.c": "#include \"mock_cfgfile.h\"\n",
	}
}

func library(name string, deps ...string) *Module {
	return &Module{Name: name, Kind: Library, Deps: deps, Dir: "src/" + name, Sources: []string{name + ".c", name + ".h"}}
}

func program(name string, deps ...string) *Module {
	return &Module{Name: name, Kind: Program, Deps: deps, Dir: "src/" + name, Sources: []string{name + ".c"}}
}

func names(mods []*Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Name
	}
	return out
}
