package graph

import (
	"testing"

	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/node"
	"github.com/loomworks/loom/registry"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *registry.Registry {
	reg := registry.New()
	for _, desc := range node.Builtins() {
		require.NoError(t, reg.Register(desc))
	}
	return reg
}

func literal(value any) model.Node {
	return model.Node{Kind: node.KIND_LITERAL, Config: map[string]any{"value": value}}
}

func echo(text string) model.Node {
	return model.Node{Kind: node.KIND_ECHO, Config: map[string]any{"text": text}}
}

func TestValidate(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, reg *registry.Registry){
		"valid workflow":          testValidWorkflow,
		"empty node id":           testEmptyNodeId,
		"unknown edge endpoint":   testUnknownEndpoint,
		"self loop":               testSelfLoop,
		"duplicate edge":          testDuplicateEdge,
		"unknown kind":            testUnknownKind,
		"bad config":              testBadConfig,
		"cycle":                   testCycle,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, testRegistry(t))
		})
	}
}

func testValidWorkflow(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Id: "wf",
		Nodes: map[string]model.Node{
			"A": literal("hi"),
			"B": echo("{{A}}"),
		},
		Edges: []model.Edge{{Source: "A", Target: "B"}},
	}
	require.NoError(t, Validate(wf, reg))
}

func testEmptyNodeId(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"": literal(1)},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_DUPLICATE_ID, err.(InvalidGraphError).Reason)
}

func testUnknownEndpoint(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"A": literal(1)},
		Edges: []model.Edge{{Source: "A", Target: "B"}},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_UNKNOWN_NODE, err.(InvalidGraphError).Reason)
}

func testSelfLoop(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"A": literal(1)},
		Edges: []model.Edge{{Source: "A", Target: "A"}},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_SELF_LOOP, err.(InvalidGraphError).Reason)
}

func testDuplicateEdge(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"A": literal(1), "B": echo("x")},
		Edges: []model.Edge{
			{Source: "A", Target: "B"},
			{Source: "A", Target: "B"},
		},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_DUPLICATE_ID, err.(InvalidGraphError).Reason)
}

func testUnknownKind(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"A": {Kind: "nope", Config: map[string]any{}}},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_UNKNOWN_KIND, err.(InvalidGraphError).Reason)
}

func testBadConfig(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{
			// echo requires text
			"A": {Kind: node.KIND_ECHO, Config: map[string]any{"prefix": "x"}},
		},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_BAD_CONFIG, err.(InvalidGraphError).Reason)
}

func testCycle(t *testing.T, reg *registry.Registry) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"A": literal(1), "B": echo("x")},
		Edges: []model.Edge{
			{Source: "A", Target: "B"},
			{Source: "B", Target: "A"},
		},
	}
	err := Validate(wf, reg)
	require.Error(t, err)
	require.Equal(t, REASON_CYCLE, err.(InvalidGraphError).Reason)
}

func TestPredecessorsKeepEdgeOrder(t *testing.T) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{
			"J": echo("x"), "U": literal(1), "L": literal(2),
		},
		Edges: []model.Edge{
			{Source: "U", Target: "J"},
			{Source: "L", Target: "J"},
		},
	}
	g := New(wf)
	require.Equal(t, []string{"U", "L"}, g.Predecessors("J"))
	require.Equal(t, []string{"J"}, g.Successors("U"))
	require.Empty(t, g.Predecessors("U"))
}

func TestBuildPlanLevels(t *testing.T) {
	// fan out / fan in: R -> L,U -> J
	wf := &model.Workflow{
		Nodes: map[string]model.Node{
			"R": literal(42),
			"L": echo("{{R}}"),
			"U": echo("{{R}}"),
			"J": echo("{{L}}|{{U}}"),
		},
		Edges: []model.Edge{
			{Source: "R", Target: "L"},
			{Source: "R", Target: "U"},
			{Source: "L", Target: "J"},
			{Source: "U", Target: "J"},
		},
	}
	plan, err := BuildPlan(New(wf))
	require.NoError(t, err)
	require.Equal(t, [][]string{{"R"}, {"L", "U"}, {"J"}}, plan.Levels)
	require.Equal(t, []string{"R", "L", "U", "J"}, plan.Order())
}

func TestBuildPlanCoversEveryNodeOnce(t *testing.T) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{
			"a": literal(1), "b": literal(2), "c": echo("x"),
			"d": echo("y"), "e": echo("z"),
		},
		Edges: []model.Edge{
			{Source: "a", Target: "c"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "d"},
			{Source: "b", Target: "e"},
		},
	}
	g := New(wf)
	plan, err := BuildPlan(g)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, level := range plan.Levels {
		for _, id := range level {
			seen[id]++
		}
		// no two nodes in one level are connected by an edge
		inLevel := map[string]bool{}
		for _, id := range level {
			inLevel[id] = true
		}
		for _, id := range level {
			for _, succ := range g.Successors(id) {
				require.False(t, inLevel[succ], "edge inside level %v", level)
			}
		}
	}
	require.Len(t, seen, len(wf.Nodes))
	for id, count := range seen {
		require.Equal(t, 1, count, "node %s", id)
	}
}

func TestBuildPlanCycle(t *testing.T) {
	wf := &model.Workflow{
		Nodes: map[string]model.Node{"A": literal(1), "B": literal(2)},
		Edges: []model.Edge{
			{Source: "A", Target: "B"},
			{Source: "B", Target: "A"},
		},
	}
	_, err := BuildPlan(New(wf))
	require.Error(t, err)
	require.Equal(t, REASON_CYCLE, err.(InvalidGraphError).Reason)
}
