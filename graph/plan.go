package graph

import (
	"fmt"
	"sort"
)

// Plan is an ordered partition of a workflow's nodes into levels. Nodes
// within a level have no edges between them and may run in parallel;
// levels are totally ordered. Predecessors keeps, per node, the sources
// of its incoming edges in edge-insertion order.
type Plan struct {
	Levels       [][]string
	Predecessors map[string][]string
}

// Order returns the plan flattened into a single node sequence.
func (p *Plan) Order() []string {
	var out []string
	for _, level := range p.Levels {
		out = append(out, level...)
	}
	return out
}

// BuildPlan groups nodes into execution levels with Kahn's algorithm.
// Ties within a level break by ascending node id so plans are
// deterministic. Nodes left over when the frontier empties mean a cycle.
func BuildPlan(g *Graph) (*Plan, error) {
	wf := g.workflow
	inDegree := make(map[string]int, len(wf.Nodes))
	for id := range wf.Nodes {
		inDegree[id] = len(g.predecessors[id])
	}

	plan := &Plan{
		Predecessors: make(map[string][]string, len(wf.Nodes)),
	}
	for id := range wf.Nodes {
		plan.Predecessors[id] = append([]string(nil), g.predecessors[id]...)
	}

	remaining := len(wf.Nodes)
	frontier := zeroDegree(inDegree)
	for len(frontier) > 0 {
		sort.Strings(frontier)
		plan.Levels = append(plan.Levels, frontier)
		remaining -= len(frontier)

		var next []string
		for _, id := range frontier {
			inDegree[id] = -1
			for _, succ := range g.successors[id] {
				inDegree[succ]--
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		frontier = next
	}
	if remaining > 0 {
		return nil, InvalidGraphError{Reason: REASON_CYCLE, Detail: fmt.Sprintf("%d nodes are part of a cycle", remaining)}
	}
	return plan, nil
}

func zeroDegree(inDegree map[string]int) []string {
	var out []string
	for id, degree := range inDegree {
		if degree == 0 {
			out = append(out, id)
		}
	}
	return out
}
