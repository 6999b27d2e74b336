package builder

import (
	"fmt"
	"slices"
	"strings"
)

// Graph is the validated dependency graph. Modules live in an arena and
// edges refer to them by index; an edge a -> b means "a depends on b".
type Graph struct {
	modules []*Module
	index   map[string]int
	// byName is the arena sorted by module name
	byName []int
	// edges holds resolved dependencies in declaration order
	edges [][]int
	// linkOrder holds each module's transitive dependencies in link order
	linkOrder [][]int
}

// BuildGraph resolves the declared dependencies of mods, rejects invalid graphs and
// computes the link order of every module. mods are not modified.
func BuildGraph(mods []*Module) (*Graph, error) {
	g := &Graph{
		modules: mods,
		index:   make(map[string]int, len(mods)),
		edges:   make([][]int, len(mods)),
	}

	for i, mod := range mods {
		if j, exists := g.index[mod.Name]; exists {
			return nil, &GraphError{
				Module: mod.Name,
				Err:    fmt.Errorf("%w (declared in %s and %s)", ErrDuplicateModule, mods[j].Descriptor, mod.Descriptor),
			}
		}
		g.index[mod.Name] = i
		g.byName = append(g.byName, i)
	}
	slices.SortFunc(g.byName, func(a, b int) int {
		return strings.Compare(mods[a].Name, mods[b].Name)
	})

	for _, i := range g.byName {
		mod := mods[i]
		for _, dep := range mod.Deps {
			j, ok := g.index[dep]
			if !ok {
				return nil, &GraphError{Module: mod.Name, Path: mod.Descriptor, Dep: dep, Err: ErrUnknownDependency}
			}
			if mods[j].Kind == Program {
				return nil, &GraphError{Module: mod.Name, Path: mod.Descriptor, Dep: dep, Err: ErrDependsOnProgram}
			}
			g.edges[i] = append(g.edges[i], j)
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		first := mods[g.index[cycle[0]]]
		return nil, &GraphError{Module: first.Name, Path: first.Descriptor, Cycle: cycle, Err: ErrCycle}
	}

	g.linkOrder = make([][]int, len(mods))
	for i := range mods {
		g.linkOrder[i] = g.computeLinkOrder(i)
	}

	return g, nil
}

const (
	unvisited = iota
	onPath
	done
)

// findCycle runs a depth-first search from every module, in name order, tracking the
// active path. It returns the first cycle found with its first module repeated at the end.
func (g *Graph) findCycle() []string {
	state := make([]int, len(g.modules))
	var path []int

	var visit func(int) []string
	visit = func(i int) []string {
		state[i] = onPath
		path = append(path, i)
		for _, j := range g.edges[i] {
			switch state[j] {
			case onPath:
				start := slices.Index(path, j)
				cycle := make([]string, 0, len(path)-start+1)
				for _, k := range path[start:] {
					cycle = append(cycle, g.modules[k].Name)
				}
				return append(cycle, g.modules[j].Name)
			case unvisited:
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		state[i] = done
		return nil
	}

	for _, i := range g.byName {
		if state[i] == unvisited {
			if cycle := visit(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// computeLinkOrder returns the transitive dependencies of module i so that every
// module comes before the modules it depends on, as static linking requires.
// Dependencies are visited last-declared first and appended post-order; reversing
// that list keeps unrelated dependencies in their declared order.
func (g *Graph) computeLinkOrder(i int) []int {
	visited := make([]bool, len(g.modules))
	visited[i] = true
	var post []int

	var visit func(int)
	visit = func(n int) {
		deps := g.edges[n]
		for k := len(deps) - 1; k >= 0; k-- {
			if j := deps[k]; !visited[j] {
				visited[j] = true
				visit(j)
				post = append(post, j)
			}
		}
	}
	visit(i)

	slices.Reverse(post)
	return post
}

// Modules returns every module sorted by name
func (g *Graph) Modules() []*Module {
	mods := make([]*Module, len(g.byName))
	for k, i := range g.byName {
		mods[k] = g.modules[i]
	}
	return mods
}

// Module looks up a module by name
func (g *Graph) Module(name string) (*Module, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.modules[i], true
}

// Deps returns the direct dependencies of mod in declaration order
func (g *Graph) Deps(mod *Module) []*Module {
	return g.lookup(mod, g.edges)
}

// LinkOrder returns the transitive dependencies of mod in the order they must be given to the linker
func (g *Graph) LinkOrder(mod *Module) []*Module {
	return g.lookup(mod, g.linkOrder)
}

func (g *Graph) lookup(mod *Module, table [][]int) []*Module {
	i, ok := g.index[mod.Name]
	if !ok || g.modules[i] != mod {
		panic(fmt.Sprintf("module %q is not part of this graph", mod.Name))
	}
	mods := make([]*Module, len(table[i]))
	for k, j := range table[i] {
		mods[k] = g.modules[j]
	}
	return mods
}
