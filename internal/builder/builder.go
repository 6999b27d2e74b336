package builder

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/qobs-build/automod/internal/builder/gen"
	"github.com/qobs-build/automod/internal/msg"
)

const GeneratorAutomake = "automake"

// Builder generates the build descriptor of the project rooted at basedir.
// Every call recomputes everything from the files on disk.
type Builder struct {
	cfg     *Config
	basedir string
}

// Plan is the validated in-memory state the descriptor is rendered from
type Plan struct {
	Project *Project
	Graph   *Graph
	Tests   []*TestPlan
}

func NewBuilderInDirectory(path string) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(path, NewConfigEnv())
	if err != nil {
		return nil, err
	}
	return NewBuilder(path, cfg), nil
}

func NewBuilder(basedir string, cfg *Config) *Builder {
	return &Builder{cfg: cfg, basedir: basedir}
}

// OutputPath is where the build descriptor is written
func (b *Builder) OutputPath() string {
	return filepath.Join(b.basedir, filepath.FromSlash(b.cfg.Layout.Output))
}

// Plan runs discovery, graph validation and test planning, stopping at the first error
func (b *Builder) Plan() (*Plan, error) {
	proj, err := Discover(b.basedir, b.cfg)
	if err != nil {
		return nil, err
	}
	msg.Debug("discovered %d modules and %d test suites", len(proj.Modules), len(proj.Suites))

	graph, err := BuildGraph(proj.Modules)
	if err != nil {
		return nil, err
	}

	tests, err := PlanTests(graph, proj.Suites, b.cfg)
	if err != nil {
		return nil, err
	}

	return &Plan{Project: proj, Graph: graph, Tests: tests}, nil
}

func createGenerator(generator string) gen.Generator {
	switch generator {
	case GeneratorAutomake:
		return gen.NewAutomakeGen()
	default:
		panic("createGenerator: unreachable")
	}
}

// Render turns a plan into descriptor text, with the extension file appended
func (b *Builder) Render(plan *Plan) (string, error) {
	g := createGenerator(GeneratorAutomake)
	g.SetToolchain(gen.Toolchain{
		SrcDir:     b.cfg.Layout.Src,
		CMockDir:   b.cfg.Toolchain.CMock,
		MocksDir:   b.cfg.Layout.Mocks,
		RunnersDir: b.cfg.Layout.Runners,
		Ruby:       b.cfg.Toolchain.Ruby,
		Cppflags:   b.cfg.Toolchain.Cppflags,
		Ldflags:    b.cfg.Toolchain.Ldflags,
	})

	for _, mod := range plan.Graph.Modules() {
		var links []string
		for _, dep := range plan.Graph.LinkOrder(mod) {
			links = append(links, dep.Name)
		}
		g.AddModule(gen.Module{
			Name:     mod.Name,
			IsLib:    mod.Kind == Library,
			Sources:  mod.SourcePaths(),
			Includes: includeDirs(plan.Graph, mod),
			Links:    links,
		})
	}

	for _, tp := range plan.Tests {
		mod := tp.Suite.Module
		t := gen.Test{
			Suite:         tp.Suite.Name,
			Module:        mod.Name,
			Runner:        tp.Runner,
			RunnerSource:  tp.RunnerSource,
			TestSource:    tp.Suite.Source,
			ModuleSources: mod.SourcePaths(),
			// mocked headers include their own dependencies' headers
			Includes: includeDirs(plan.Graph, mod),
		}
		for _, mock := range tp.Mocks {
			t.Mocks = append(t.Mocks, gen.Mock{
				Name:       mock.Module.Name,
				Header:     mock.Header,
				Source:     mock.Source,
				MockHeader: mock.MockHeader,
			})
		}
		g.AddTest(t)
	}

	extPath := filepath.Join(b.basedir, filepath.FromSlash(b.cfg.Layout.Extension))
	ext, err := os.ReadFile(extPath)
	switch {
	case err == nil:
		msg.Debug("appending %s", b.cfg.Layout.Extension)
		g.SetExtension(ext)
	case !errors.Is(err, fs.ErrNotExist):
		return "", &EmitError{Path: extPath, Err: err}
	}

	return g.Generate(), nil
}

// includeDirs is the module directory followed by the directories of its dependencies in link order
func includeDirs(g *Graph, mod *Module) []string {
	dirs := []string{mod.Dir}
	for _, dep := range g.LinkOrder(mod) {
		dirs = append(dirs, dep.Dir)
	}
	return dirs
}

// Check renders the descriptor without writing it. It returns the current file
// contents (empty if missing), the freshly rendered text and whether they match.
func (b *Builder) Check() (current, rendered string, upToDate bool, err error) {
	plan, err := b.Plan()
	if err != nil {
		return "", "", false, err
	}
	rendered, err = b.Render(plan)
	if err != nil {
		return "", "", false, err
	}

	data, err := os.ReadFile(b.OutputPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", "", false, &EmitError{Path: b.OutputPath(), Err: err}
	}
	return string(data), rendered, bytes.Equal(data, []byte(rendered)), nil
}

// Generate writes the build descriptor. It reports false when the file on disk
// was already identical, in which case it is left untouched.
func (b *Builder) Generate() (bool, error) {
	_, rendered, upToDate, err := b.Check()
	if err != nil {
		return false, err
	}
	if upToDate {
		return false, nil
	}
	if err := writeFileAtomic(b.OutputPath(), []byte(rendered)); err != nil {
		return false, &EmitError{Path: b.OutputPath(), Err: err}
	}
	return true, nil
}

// writeFileAtomic writes data next to path and renames it into place,
// so path is either the old or the new file, never a partial one
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}
