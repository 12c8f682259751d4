// Package domain contains the core domain models for the staged build graph.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph is the stage DAG. Edges are parent links plus explicit
// artifact-import references.
type Graph struct {
	stages         map[StageID]Stage
	executionOrder []StageID
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		stages: make(map[StageID]Stage),
	}
}

// AddStage adds a stage to the graph.
// It returns an error if a stage with the same id already exists.
func (g *Graph) AddStage(s *Stage) error {
	if _, exists := g.stages[s.ID]; exists {
		return zerr.With(ErrStageAlreadyExists, "stage", s.ID.String())
	}
	g.stages[s.ID] = *s
	return nil
}

// Stage returns the stage with the given id.
func (g *Graph) Stage(id StageID) (Stage, error) {
	s, ok := g.stages[id]
	if !ok {
		return Stage{}, zerr.With(ErrStageNotFound, "stage", id.String())
	}
	return s, nil
}

// StageCount returns the number of stages in the graph.
func (g *Graph) StageCount() int {
	return len(g.stages)
}

// Validate checks that every referenced stage exists and that the graph
// is acyclic, using a depth-first topological sort. It populates the
// execution order on success. Stage ids are visited in sorted order so
// the resulting order is deterministic across runs.
func (g *Graph) Validate() error {
	g.executionOrder = make([]StageID, 0, len(g.stages))
	visited := make(map[StageID]int) // 0: unvisited, 1: visiting, 2: visited
	var path []StageID

	var visit func(u StageID) error
	visit = func(u StageID) error {
		visited[u] = 1
		path = append(path, u)

		stage, exists := g.stages[u]
		if !exists {
			return zerr.With(ErrMissingStage, "stage", u.String())
		}

		for _, src := range stage.EdgeSources() {
			if visited[src] == 1 {
				return g.buildCycleError(path, src)
			}
			if visited[src] == 0 {
				if err := visit(src); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, id := range g.sortedIDs() {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *Graph) sortedIDs() []StageID {
	ids := make([]StageID, 0, len(g.stages))
	for id := range g.stages {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b StageID) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		default:
			return 0
		}
	})
	return ids
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []StageID, src StageID) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == src {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += src.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator yielding stages in execution order
// (dependencies before dependents). Validate must have succeeded.
func (g *Graph) Walk() iter.Seq[Stage] {
	return func(yield func(Stage) bool) {
		for _, id := range g.executionOrder {
			if !yield(g.stages[id]) {
				return
			}
		}
	}
}

// Dependents returns the ids of stages that depend on the given stage,
// either as their parent or as an artifact-import source.
func (g *Graph) Dependents(id StageID) []StageID {
	var deps []StageID
	for _, candidate := range g.sortedIDs() {
		stage := g.stages[candidate]
		if slices.Contains(stage.EdgeSources(), id) {
			deps = append(deps, candidate)
		}
	}
	return deps
}

// Required returns the set of stages needed to build the given targets:
// the targets themselves plus the transitive closure of their edges.
func (g *Graph) Required(targets []StageID) (map[StageID]bool, error) {
	required := make(map[StageID]bool)

	var mark func(id StageID) error
	mark = func(id StageID) error {
		if required[id] {
			return nil
		}
		stage, exists := g.stages[id]
		if !exists {
			return zerr.With(ErrStageNotFound, "stage", id.String())
		}
		required[id] = true
		for _, src := range stage.EdgeSources() {
			if err := mark(src); err != nil {
				return err
			}
		}
		return nil
	}

	for _, t := range targets {
		if err := mark(t); err != nil {
			return nil, err
		}
	}
	return required, nil
}
