package engine

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestResolveInputs(t *testing.T) {
	g := NewGraph()
	g.AddNode(domain.NodeDef{ID: "A", Type: "x"})
	g.AddNode(domain.NodeDef{ID: "B", Type: "x"})
	g.AddNode(domain.NodeDef{
		ID:   "C",
		Type: "x",
		Data: domain.NodeData{Inputs: map[string]any{"static": 1, "override": "static"}},
	})

	edges := []domain.EdgeDef{
		{ID: "e1", Source: "A", Target: "C", SourceHandle: "text", TargetHandle: "input"},
		{ID: "e2", Source: "B", Target: "C", SourceHandle: "value", TargetHandle: "override"},
		// без targetHandle — пропускается
		{ID: "e3", Source: "A", Target: "C", SourceHandle: "text"},
		// выхода "missing" у источника нет — пропускается
		{ID: "e4", Source: "B", Target: "C", SourceHandle: "missing", TargetHandle: "other"},
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}

	results := map[string]map[string]any{
		"A": {"text": "hi"},
		"B": {"value": "from-edge"},
	}

	got := ResolveInputs(context.Background(), g, "C", results)
	want := map[string]any{
		"input":    "hi",
		"static":   1,
		"override": "static",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveInputs_NoIncomingEdges(t *testing.T) {
	static := map[string]any{"value": "hello", "n": 3.0}

	g := NewGraph()
	g.AddNode(domain.NodeDef{ID: "A", Type: "x", Data: domain.NodeData{Inputs: static}})
	g.AddNode(domain.NodeDef{ID: "B", Type: "x"})
	require.NoError(t, g.AddEdge(domain.EdgeDef{ID: "e", Source: "A", Target: "B", SourceHandle: "v", TargetHandle: "v"}))

	results := map[string]map[string]any{"B": {"noise": true}}

	got := ResolveInputs(context.Background(), g, "A", results)
	if diff := cmp.Diff(static, got); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}

	empty := ResolveInputs(context.Background(), NewGraph(), "ghost", nil)
	if len(empty) != 0 {
		t.Errorf("expected empty inputs, got %v", empty)
	}
}

func TestResolveInputs_LastEdgeWins(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"}, nil)
	require.NoError(t, g.AddEdge(domain.EdgeDef{ID: "e1", Source: "A", Target: "C", SourceHandle: "out", TargetHandle: "in"}))
	require.NoError(t, g.AddEdge(domain.EdgeDef{ID: "e2", Source: "B", Target: "C", SourceHandle: "out", TargetHandle: "in"}))

	results := map[string]map[string]any{
		"A": {"out": "a"},
		"B": {"out": "b"},
	}

	got := ResolveInputs(context.Background(), g, "C", results)
	if got["in"] != "b" {
		t.Errorf("expected value from the last edge, got %v", got["in"])
	}
}
