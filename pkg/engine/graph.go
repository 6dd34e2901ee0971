package engine

import "fmt"

// Graph is the dependency graph over one scheduled task list. Edges are built
// only from dependencies whose target identity is present in the list; absent
// targets are treated as already satisfied.
type Graph struct {
	// order is the declaration order of the task list.
	order []TaskID

	// deps maps a task to its present dependencies.
	deps map[TaskID][]TaskID

	// dependents maps a task to the tasks waiting on it.
	dependents map[TaskID][]TaskID

	// inDegree tracks the number of present incoming edges per task.
	inDegree map[TaskID]int
}

// BuildGraph constructs the dependency graph for a task list. Task identities
// must be unique within one list.
func BuildGraph(tasks []Task) (*Graph, error) {
	g := &Graph{
		order:      make([]TaskID, 0, len(tasks)),
		deps:       make(map[TaskID][]TaskID, len(tasks)),
		dependents: make(map[TaskID][]TaskID, len(tasks)),
		inDegree:   make(map[TaskID]int, len(tasks)),
	}

	for _, t := range tasks {
		id := t.ID()
		if id == "" {
			return nil, NewPermanentError("task has empty identity", nil).
				WithCode(ErrCodeValidation)
		}
		if _, exists := g.inDegree[id]; exists {
			return nil, NewPermanentError(fmt.Sprintf("duplicate task identity: %s", id), nil).
				WithCode(ErrCodeValidation)
		}
		g.order = append(g.order, id)
		g.inDegree[id] = 0
	}

	for _, t := range tasks {
		id := t.ID()
		for _, dep := range t.Dependencies() {
			if _, present := g.inDegree[dep]; !present {
				// The dependency target is not scheduled; treat it as
				// already satisfied.
				continue
			}
			g.deps[id] = append(g.deps[id], dep)
			g.dependents[dep] = append(g.dependents[dep], id)
			g.inDegree[id]++
		}
	}

	return g, nil
}

// Deps returns the present dependencies of a task.
func (g *Graph) Deps(id TaskID) []TaskID {
	return g.deps[id]
}

// Dependents returns the tasks waiting on a task.
func (g *Graph) Dependents(id TaskID) []TaskID {
	return g.dependents[id]
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// HasCycle reports whether the graph restricted to present edges contains a
// cycle. It runs Kahn's algorithm: seed a worklist with zero-in-degree tasks,
// repeatedly remove one and decrement its dependents; if fewer tasks than the
// total are processed this way, a cycle exists.
func (g *Graph) HasCycle() bool {
	inDegree := make(map[TaskID]int, len(g.inDegree))
	for id, d := range g.inDegree {
		inDegree[id] = d
	}

	worklist := make([]TaskID, 0, len(g.order))
	for _, id := range g.order {
		if inDegree[id] == 0 {
			worklist = append(worklist, id)
		}
	}

	processed := 0
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		processed++

		for _, dep := range g.dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				worklist = append(worklist, dep)
			}
		}
	}

	return processed != len(g.order)
}
