package pipeline

import (
	"fmt"

	"github.com/kluth/extension-auditter/internal/analyzer"
)

// stageGraph is the validated dependency DAG over the configured stages.
// Scheduling is event-driven (each stage waits on its dependencies' done
// channels) but the graph is checked up front so a bad wiring fails at
// construction, not mid-run.
type stageGraph struct {
	stages map[string]analyzer.Stage
	order  []string
}

func buildGraph(stages []analyzer.Stage) (*stageGraph, error) {
	byName := make(map[string]analyzer.Stage, len(stages))
	for _, s := range stages {
		if _, dup := byName[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate stage %q", s.Name())
		}
		byName[s.Name()] = s
	}

	indegree := make(map[string]int, len(stages))
	dependents := make(map[string][]string)
	for name, s := range byName {
		indegree[name] = len(s.Requires())
		for _, dep := range s.Requires() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stage %q requires unknown stage %q", name, dep)
			}
			dependents[dep] = append(dependents[dep], name)
		}
	}

	// Kahn's algorithm; anything left over is a cycle.
	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	var order []string
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(byName) {
		return nil, fmt.Errorf("stage dependency cycle detected")
	}

	return &stageGraph{stages: byName, order: order}, nil
}

// leaves returns how many stages have no dependencies; the worker pool
// never needs to be larger.
func (g *stageGraph) leaves() int {
	n := 0
	for _, s := range g.stages {
		if len(s.Requires()) == 0 {
			n++
		}
	}
	return n
}
