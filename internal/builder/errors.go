package builder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// descriptor files
	ErrAmbiguousKind  = errors.New("ambiguous module kind: exactly one of `library` or `program` must be set")
	ErrInvalidName    = errors.New("invalid module name")
	ErrMissingSection = errors.New("missing [module] section")

	// filesystem layout
	ErrNoDescriptor    = errors.New("no module descriptor found")
	ErrManyDescriptors = errors.New("more than one module descriptor found")
	ErrDanglingTests   = errors.New("test directory does not match any module")
	ErrReservedName    = errors.New("directory name is reserved for generated files")

	// dependency graph
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrDependsOnProgram  = errors.New("cannot depend on a program")
	ErrDuplicateModule   = errors.New("duplicate module name")
	ErrCycle             = errors.New("dependency cycle")

	// test plan
	ErrDuplicateSuite   = errors.New("duplicate suite name")
	ErrMissingHeader    = errors.New("dependency has no public header to mock")
	ErrProgramUnderTest = errors.New("program modules cannot have unit test suites")
)

// ConfigError is a malformed descriptor or project config file
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// DiscoveryError is a structural problem with the module or test tree
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *DiscoveryError) Unwrap() error { return e.Err }

// GraphError is an invalid dependency graph. Cycle is set for ErrCycle and
// lists the cycle path with the first module repeated at the end; a module
// depending on itself is the cycle [a, a]. Path is the descriptor of Module.
type GraphError struct {
	Module string
	Path   string
	Dep    string
	Cycle  []string
	Err    error
}

func (e *GraphError) Error() string {
	var text string
	switch {
	case len(e.Cycle) > 0:
		text = fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Cycle, " -> "))
	case e.Dep != "":
		text = fmt.Sprintf("module %q: %v %q", e.Module, e.Err, e.Dep)
	default:
		text = fmt.Sprintf("module %q: %v", e.Module, e.Err)
	}
	if e.Path != "" {
		return e.Path + ": " + text
	}
	return text
}

func (e *GraphError) Unwrap() error { return e.Err }

// PlanError is an inconsistency in the test/mock plan. Besides duplicate suite names it
// covers suites that cannot be built: a suite under a program module, and a dependency
// without a public header to mock.
type PlanError struct {
	Suite string
	Path  string
	Err   error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: suite %q: %v", e.Path, e.Suite, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// EmitError is an I/O failure while writing the build descriptor
type EmitError struct {
	Path string
	Err  error
}

func (e *EmitError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *EmitError) Unwrap() error { return e.Err }
