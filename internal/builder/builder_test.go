package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOutput(t *testing.T, b *Builder) string {
	t.Helper()
	data, err := os.ReadFile(b.OutputPath())
	require.NoError(t, err)
	return string(data)
}

func TestGenerate_Example(t *testing.T) {
	root := writeTree(t, exampleTree())
	b := NewBuilder(root, DefaultConfig())

	changed, err := b.Generate()
	require.NoError(t, err)
	assert.True(t, changed)

	out := readOutput(t, b)
	assert.True(t, strings.HasPrefix(out, "### GENERATED BY automod - DO NOT EDIT\n"))
	for _, want := range []string{
		"noinst_LTLIBRARIES += libcfgfile.la\n",
		"noinst_LTLIBRARIES += libexecutor.la\n",
		"noinst_LTLIBRARIES += libreporter.la\n",
		"bin_PROGRAMS += myapp\n",
		"libexecutor_la_LIBADD = libcfgfile.la\n",
		"myapp_LDADD = \\\n    libexecutor.la \\\n    libcfgfile.la \\\n    libreporter.la\n",
		"check_PROGRAMS += tests/runners/test_executor\n",
		"tests/mocks/mock_cfgfile.c tests/mocks/mock_cfgfile.h: src/cfgfile/cfgfile.h\n",
		"tests/runners/test_executor-runner_test_executor.$(OBJEXT): \\\n    tests/mocks/mock_cfgfile.c \\\n    tests/mocks/mock_cfgfile.h\n",
	} {
		assert.Contains(t, out, want)
	}
	// only direct dependencies are mocked
	assert.NotContains(t, out, "mock_executor")
	assert.NotContains(t, out, "mock_reporter")
}

func TestGenerate_Idempotent(t *testing.T) {
	root := writeTree(t, exampleTree())
	b := NewBuilder(root, DefaultConfig())

	_, err := b.Generate()
	require.NoError(t, err)
	first := readOutput(t, b)

	changed, err := b.Generate()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, readOutput(t, b))

	// a fresh builder over the same tree renders the same bytes
	_, rendered, upToDate, err := NewBuilder(root, DefaultConfig()).Check()
	require.NoError(t, err)
	assert.True(t, upToDate)
	assert.Equal(t, first, rendered)
}

func TestGenerate_NoTempFilesLeft(t *testing.T) {
	root := writeTree(t, exampleTree())
	b := NewBuilder(root, DefaultConfig())

	_, err := b.Generate()
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}

func TestGenerate_ExtensionAppended(t *testing.T) {
	const ext = "custom-target:\n\t@echo \"hello\"\n"
	files := exampleTree()
	files["project.mk"] = ext
	root := writeTree(t, files)
	b := NewBuilder(root, DefaultConfig())

	_, err := b.Generate()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(readOutput(t, b), "\n"+ext))
}

func TestGenerate_FailureKeepsExistingFile(t *testing.T) {
	files := exampleTree()
	files["Makefile.am"] = "# hand written\n"
	files["src/cfgfile/module.cfg"] = "[module]\nlibrary = cfgfile\ndeps = executor\n"
	root := writeTree(t, files)
	b := NewBuilder(root, DefaultConfig())

	changed, err := b.Generate()
	require.ErrorIs(t, err, ErrCycle)
	assert.False(t, changed)
	assert.Equal(t, "# hand written\n", readOutput(t, b))
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	files := exampleTree()
	files["tests/ghost/test_ghost.c"] = ""
	root := writeTree(t, files)
	b := NewBuilder(root, DefaultConfig())

	_, err := b.Generate()
	require.ErrorIs(t, err, ErrDanglingTests)
	assert.NoFileExists(t, b.OutputPath())
}

func TestCheck_OutOfDate(t *testing.T) {
	root := writeTree(t, exampleTree())
	b := NewBuilder(root, DefaultConfig())

	current, rendered, upToDate, err := b.Check()
	require.NoError(t, err)
	assert.False(t, upToDate)
	assert.Empty(t, current)
	assert.NotEmpty(t, rendered)

	_, err = b.Generate()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src/reporter/extra.c"), nil, 0o644))
	_, rendered, upToDate, err = b.Check()
	require.NoError(t, err)
	assert.False(t, upToDate)
	assert.Contains(t, rendered, "src/reporter/extra.c")
}

func TestNewBuilderInDirectory(t *testing.T) {
	files := exampleTree()
	files[ConfigFilename] = "[layout]\noutput = \"am/Makefile.am\"\n"
	root := writeTree(t, files)
	require.NoError(t, os.Mkdir(filepath.Join(root, "am"), 0o755))

	b, err := NewBuilderInDirectory(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "am", "Makefile.am"), b.OutputPath())

	_, err = b.Generate()
	require.NoError(t, err)
	assert.FileExists(t, b.OutputPath())
}

func TestGenerate_TestRunnerSeesTransitiveHeaders(t *testing.T) {
	files := exampleTree()
	files["src/cfgfile/module.cfg"] = "[module]\nlibrary = cfgfile\ndeps = util\n"
	files["src/cfgfile/cfgfile.h"] = "#include \"util.h\"\nint cfgfile_func(int x);\n"
	files["src/util/module.cfg"] = "[module]\nlibrary = util\n"
	files["src/util/util.c"] = ""
	files["src/util/util.h"] = "typedef int util_t;\n"
	root := writeTree(t, files)
	b := NewBuilder(root, DefaultConfig())

	_, err := b.Generate()
	require.NoError(t, err)
	out := readOutput(t, b)

	assert.Contains(t, out, `tests_runners_test_executor_CPPFLAGS = \
    $(CMOCK_CPPFLAGS) \
    $(AM_CPPFLAGS) \
    -I$(top_srcdir)/src/executor \
    -I$(top_srcdir)/src/cfgfile \
    -I$(top_srcdir)/src/util
`)
	// only the direct dependency is mocked
	assert.Contains(t, out, "mock_cfgfile.c")
	assert.NotContains(t, out, "mock_util")
	assert.Contains(t, out, "tests_runners_test_executor_LDADD = libcmock.la\n")
}
