package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Langweave/internal/domain"
)

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"nodes": [`))
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestParse_InputsMustBeObject(t *testing.T) {
	_, err := Parse([]byte(`{"nodes": [{"id": "a", "type": "x", "data": {"inputs": "oops"}}], "edges": []}`))
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestParse_StaticInputs(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(def.Nodes) != 3 || len(def.Edges) != 2 {
		t.Fatalf("expected 3 nodes and 2 edges, got %d and %d", len(def.Nodes), len(def.Edges))
	}
	if def.Nodes[0].Data.Inputs["value"] != "hi" {
		t.Errorf("expected static input value=hi, got %v", def.Nodes[0].Data.Inputs)
	}
	if def.Nodes[0].Data.Extra["label"] != "Input" {
		t.Errorf("expected extra label, got %v", def.Nodes[0].Data.Extra)
	}
	if def.Edges[0].SourceHandle != "text" || def.Edges[0].TargetHandle != "text" {
		t.Errorf("unexpected handles: %+v", def.Edges[0])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     domain.FlowDefinition
		wantErr error
	}{
		{
			name:    "empty flow is valid",
			def:     domain.FlowDefinition{},
			wantErr: nil,
		},
		{
			name: "empty node ID",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "", Type: "x"}},
			},
			wantErr: ErrEmptyNodeID,
		},
		{
			name: "empty node type",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "a"}},
			},
			wantErr: ErrEmptyNodeType,
		},
		{
			name: "duplicate node ID",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "a", Type: "x"}, {ID: "a", Type: "y"}},
			},
			wantErr: ErrDuplicateNodeID,
		},
		{
			name: "empty edge ID",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "a", Type: "x"}, {ID: "b", Type: "x"}},
				Edges: []domain.EdgeDef{{Source: "a", Target: "b"}},
			},
			wantErr: ErrEmptyEdgeID,
		},
		{
			name: "duplicate edge ID",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "a", Type: "x"}, {ID: "b", Type: "x"}},
				Edges: []domain.EdgeDef{
					{ID: "e", Source: "a", Target: "b"},
					{ID: "e", Source: "b", Target: "a"},
				},
			},
			wantErr: ErrDuplicateEdgeID,
		},
		{
			name: "dangling edge",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "a", Type: "x"}},
				Edges: []domain.EdgeDef{{ID: "e", Source: "a", Target: "ghost"}},
			},
			wantErr: ErrDanglingEdge,
		},
		{
			name: "cycle",
			def: domain.FlowDefinition{
				Nodes: []domain.NodeDef{{ID: "a", Type: "x"}, {ID: "b", Type: "x"}},
				Edges: []domain.EdgeDef{
					{ID: "e1", Source: "a", Target: "b"},
					{ID: "e2", Source: "b", Target: "a"},
				},
			},
			wantErr: ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.def)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, err := Build(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}
}
