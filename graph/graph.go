package graph

import (
	"fmt"
	"sort"

	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/registry"
)

type Reason string

const REASON_UNKNOWN_NODE Reason = "unknown_node"
const REASON_DUPLICATE_ID Reason = "duplicate_id"
const REASON_SELF_LOOP Reason = "self_loop"
const REASON_UNKNOWN_KIND Reason = "unknown_kind"
const REASON_BAD_CONFIG Reason = "bad_config"
const REASON_CYCLE Reason = "cycle"

type InvalidGraphError struct {
	Reason Reason
	Detail string
}

func (e InvalidGraphError) Error() string {
	return fmt.Sprintf("invalid graph: %s: %s", e.Reason, e.Detail)
}

// Graph indexes a workflow's edge relation for constant-time predecessor
// and successor lookups. Adjacency lists keep edge insertion order.
type Graph struct {
	workflow     *model.Workflow
	predecessors map[string][]string
	successors   map[string][]string
}

func New(wf *model.Workflow) *Graph {
	g := &Graph{
		workflow:     wf,
		predecessors: make(map[string][]string, len(wf.Nodes)),
		successors:   make(map[string][]string, len(wf.Nodes)),
	}
	for _, edge := range wf.Edges {
		g.predecessors[edge.Target] = append(g.predecessors[edge.Target], edge.Source)
		g.successors[edge.Source] = append(g.successors[edge.Source], edge.Target)
	}
	return g
}

func (g *Graph) Predecessors(nodeId string) []string {
	return g.predecessors[nodeId]
}

func (g *Graph) Successors(nodeId string) []string {
	return g.successors[nodeId]
}

// Validate checks a workflow in a fixed order: node ids, edge endpoints,
// self-loops, duplicate edges, registered kinds, config schemas, acyclicity.
// The first violation found is returned as an InvalidGraphError.
func Validate(wf *model.Workflow, reg *registry.Registry) error {
	nodeIds := sortedNodeIds(wf)
	for _, id := range nodeIds {
		if id == "" {
			return InvalidGraphError{Reason: REASON_DUPLICATE_ID, Detail: "empty node id"}
		}
	}
	seen := make(map[model.Edge]bool, len(wf.Edges))
	for _, edge := range wf.Edges {
		if _, ok := wf.Nodes[edge.Source]; !ok {
			return InvalidGraphError{Reason: REASON_UNKNOWN_NODE, Detail: fmt.Sprintf("edge source %q does not exist", edge.Source)}
		}
		if _, ok := wf.Nodes[edge.Target]; !ok {
			return InvalidGraphError{Reason: REASON_UNKNOWN_NODE, Detail: fmt.Sprintf("edge target %q does not exist", edge.Target)}
		}
		if edge.Source == edge.Target {
			return InvalidGraphError{Reason: REASON_SELF_LOOP, Detail: fmt.Sprintf("node %q depends on itself", edge.Source)}
		}
		if seen[edge] {
			return InvalidGraphError{Reason: REASON_DUPLICATE_ID, Detail: fmt.Sprintf("duplicate edge %s->%s", edge.Source, edge.Target)}
		}
		seen[edge] = true
	}
	for _, id := range nodeIds {
		n := wf.Nodes[id]
		if !reg.Has(n.Kind) {
			return InvalidGraphError{Reason: REASON_UNKNOWN_KIND, Detail: fmt.Sprintf("node %q has unknown kind %q", id, n.Kind)}
		}
	}
	for _, id := range nodeIds {
		n := wf.Nodes[id]
		desc, err := reg.Get(n.Kind)
		if err != nil {
			return InvalidGraphError{Reason: REASON_UNKNOWN_KIND, Detail: err.Error()}
		}
		if err := desc.ConfigSchema.ValidateConfig(n.Config); err != nil {
			return InvalidGraphError{Reason: REASON_BAD_CONFIG, Detail: fmt.Sprintf("node %q: %v", id, err)}
		}
	}
	if _, err := BuildPlan(New(wf)); err != nil {
		return err
	}
	return nil
}

func sortedNodeIds(wf *model.Workflow) []string {
	ids := make([]string, 0, len(wf.Nodes))
	for id := range wf.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
