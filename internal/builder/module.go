package builder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/go-ini/ini"
)

// ModuleKind tells whether a module builds into a library or a program
type ModuleKind int

const (
	Library ModuleKind = iota
	Program
)

func (k ModuleKind) String() string {
	switch k {
	case Library:
		return "library"
	case Program:
		return "program"
	default:
		return fmt.Sprintf("ModuleKind(%d)", int(k))
	}
}

const moduleSection = "module"

var moduleNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// Module is a single library or program declared by a descriptor file.
// Modules are created by discovery and never modified afterwards.
type Module struct {
	Name string
	Kind ModuleKind
	// Deps are the declared dependency names, in declaration order
	Deps []string
	// Dir is the module directory relative to the project root, slash-separated
	Dir string
	// Sources are the file names found directly in Dir, sorted
	Sources []string
	// Descriptor is the path of the descriptor file the module came from
	Descriptor string
}

// Header returns the public header of the module, `<dir>/<name>.h`
func (m *Module) Header() string {
	return path.Join(m.Dir, m.Name+".h")
}

// HasHeader reports whether the public header was found among the module sources
func (m *Module) HasHeader() bool {
	return slices.Contains(m.Sources, m.Name+".h")
}

// SourcePaths returns the module sources joined with the module directory
func (m *Module) SourcePaths() []string {
	paths := make([]string, len(m.Sources))
	for i, src := range m.Sources {
		paths[i] = path.Join(m.Dir, src)
	}
	return paths
}

// ValidModuleName reports whether name can be used as a module name
func ValidModuleName(name string) bool {
	return moduleNameRegex.MatchString(name)
}

// ParseModule parses the text of one descriptor file. file is only used for error messages.
// The returned module has no Dir or Sources; those are filled in by discovery.
func ParseModule(rdr io.Reader, file string) (*Module, error) {
	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, &ConfigError{Path: file, Err: err}
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:                true,
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
		// `library = "abc"` names the module `"abc"`, which is invalid
		PreserveSurroundedQuote: true,
	}, data)
	if err != nil {
		return nil, &ConfigError{Path: file, Err: fmt.Errorf("invalid descriptor: %w", err)}
	}

	sec, err := cfg.GetSection(moduleSection)
	if err != nil {
		return nil, &ConfigError{Path: file, Err: ErrMissingSection}
	}

	// unrecognized keys are ignored
	hasLib, hasProg := sec.HasKey("library"), sec.HasKey("program")
	if hasLib == hasProg {
		return nil, &ConfigError{Path: file, Err: ErrAmbiguousKind}
	}

	mod := &Module{Descriptor: file}
	if hasLib {
		mod.Kind = Library
		mod.Name = strings.TrimSpace(sec.Key("library").String())
	} else {
		mod.Kind = Program
		mod.Name = strings.TrimSpace(sec.Key("program").String())
	}
	if !ValidModuleName(mod.Name) {
		return nil, &ConfigError{Path: file, Err: fmt.Errorf("%w %q", ErrInvalidName, mod.Name)}
	}

	// dependency names are resolved by BuildGraph; a self dependency is reported there as a cycle
	if sec.HasKey("deps") {
		for _, dep := range strings.Fields(sec.Key("deps").String()) {
			if !slices.Contains(mod.Deps, dep) {
				mod.Deps = append(mod.Deps, dep)
			}
		}
	}

	return mod, nil
}

// ParseModuleFromFile parses the descriptor file at the given path
func ParseModuleFromFile(file string) (*Module, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, &ConfigError{Path: file, Err: err}
	}
	defer f.Close()

	return ParseModule(bufio.NewReader(f), file)
}
