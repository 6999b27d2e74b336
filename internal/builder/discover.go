package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/automod/internal/msg"
)

// TestSuite is one test source file found under the test tree, before planning
type TestSuite struct {
	// Name is the file name without extension, e.g. `test_executor`
	Name   string
	Module *Module
	// Source is the test source relative to the project root
	Source string
}

// Project is everything discovery found on disk. It is not modified after Discover returns.
type Project struct {
	// Modules are sorted by directory name
	Modules []*Module
	// ByDir maps a module directory name to its module
	ByDir  map[string]*Module
	Suites []*TestSuite
}

// Discover walks the module tree and the test tree of the project at root
func Discover(root string, cfg *Config) (*Project, error) {
	proj := &Project{ByDir: make(map[string]*Module)}
	reserved := reservedTestDirs(cfg)

	srcDir := filepath.Join(root, filepath.FromSlash(cfg.Layout.Src))
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, &DiscoveryError{Path: srcDir, Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if slices.Contains(reserved, entry.Name()) {
			return nil, &DiscoveryError{Path: filepath.Join(srcDir, entry.Name()), Err: ErrReservedName}
		}
		mod, err := discoverModule(root, cfg, entry.Name())
		if err != nil {
			return nil, err
		}
		msg.Debug("found %s %s in %s", mod.Kind, mod.Name, mod.Dir)
		proj.Modules = append(proj.Modules, mod)
		proj.ByDir[entry.Name()] = mod
	}

	testsDir := filepath.Join(root, filepath.FromSlash(cfg.Layout.Tests))
	entries, err = os.ReadDir(testsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return proj, nil // no tests is fine
	}
	if err != nil {
		return nil, &DiscoveryError{Path: testsDir, Err: err}
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || slices.Contains(reserved, name) {
			continue
		}
		mod, ok := proj.ByDir[name]
		if !ok {
			return nil, &DiscoveryError{Path: filepath.Join(testsDir, name), Err: ErrDanglingTests}
		}

		files, err := globFiles(filepath.Join(testsDir, name), cfg.Layout.TestFiles)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			suite := &TestSuite{
				Name:   strings.TrimSuffix(file, path.Ext(file)),
				Module: mod,
				Source: path.Join(cfg.Layout.Tests, name, file),
			}
			msg.Debug("found test suite %s for %s", suite.Name, mod.Name)
			proj.Suites = append(proj.Suites, suite)
		}
	}

	return proj, nil
}

// discoverModule parses the single descriptor in <src>/<dirName> and collects its sources
func discoverModule(root string, cfg *Config, dirName string) (*Module, error) {
	dir := filepath.Join(root, filepath.FromSlash(cfg.Layout.Src), dirName)

	descriptors, err := globFiles(dir, []string{cfg.Layout.Descriptor})
	if err != nil {
		return nil, err
	}
	switch {
	case len(descriptors) == 0:
		return nil, &DiscoveryError{Path: dir, Err: fmt.Errorf("%w (expected %s)", ErrNoDescriptor, cfg.Layout.Descriptor)}
	case len(descriptors) > 1:
		return nil, &DiscoveryError{Path: dir, Err: fmt.Errorf("%w: %s", ErrManyDescriptors, strings.Join(descriptors, ", "))}
	}

	mod, err := ParseModuleFromFile(filepath.Join(dir, descriptors[0]))
	if err != nil {
		return nil, err
	}

	sources, err := globFiles(dir, cfg.Layout.Sources)
	if err != nil {
		return nil, err
	}
	mod.Dir = path.Join(cfg.Layout.Src, dirName)
	mod.Sources = sources
	return mod, nil
}

// globFiles returns the sorted, deduplicated names of the files in dir matching any of the patterns
func globFiles(dir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(dir)
	var files []string
	for _, pat := range patterns {
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &DiscoveryError{Path: dir, Err: fmt.Errorf("pattern %q: %w", pat, err)}
		}
		for _, match := range matches {
			// only files directly in dir belong to it
			if strings.Contains(match, "/") {
				continue
			}
			files = append(files, match)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// reservedTestDirs are the directories under the test tree that hold generated files
func reservedTestDirs(cfg *Config) []string {
	var dirs []string
	for _, gen := range []string{cfg.Layout.Mocks, cfg.Layout.Runners} {
		if path.Dir(gen) == cfg.Layout.Tests {
			dirs = append(dirs, path.Base(gen))
		}
	}
	return dirs
}
