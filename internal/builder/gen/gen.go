package gen

// Generator renders a build descriptor from resolved modules and test runners.
// Generate must be a pure function of what was added: the same input always
// renders to the same bytes.
type Generator interface {
	SetToolchain(tc Toolchain)
	AddModule(m Module)
	AddTest(t Test)
	SetExtension(ext []byte)
	Generate() string
}

// Toolchain holds the project-wide paths and flags. Paths are relative to the project root.
type Toolchain struct {
	SrcDir     string
	CMockDir   string
	MocksDir   string
	RunnersDir string
	Ruby       string
	Cppflags   []string
	Ldflags    []string
}

// Module is a library or program with its link inputs already in link order
type Module struct {
	Name    string
	IsLib   bool
	Sources []string
	// Includes are module directories whose headers the module needs
	Includes []string
	// Links are module names in link order
	Links []string
}

// Mock is a mock source/header pair generated from a dependency's public header
type Mock struct {
	Name       string
	Header     string
	Source     string
	MockHeader string
}

// Test is a unit test runner for a single module
type Test struct {
	Suite         string
	Module        string
	Runner        string
	RunnerSource  string
	TestSource    string
	ModuleSources []string
	Includes      []string
	Mocks         []Mock
}
