package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph строит граф из списка узлов и пар "source→target".
func buildGraph(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()

	g := NewGraph()
	for _, id := range nodes {
		g.AddNode(domain.NodeDef{ID: id, Type: "noop"})
	}
	for i, e := range edges {
		err := g.AddEdge(domain.EdgeDef{
			ID:     fmt.Sprintf("e%d", i),
			Source: e[0],
			Target: e[1],
		})
		require.NoError(t, err)
	}
	return g
}

func TestTopologicalSort_SimpleChain(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})

	order, err := TopologicalSort(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestTopologicalSort_InsertionOrderTieBreak(t *testing.T) {
	// Независимые узлы выполняются в порядке добавления, а не по ID
	g := buildGraph(t, []string{"zeta", "alpha", "mid"}, nil)

	order, err := TopologicalSort(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, order)
}

func TestTopologicalSort_Diamond(t *testing.T) {
	// A → C → D
	// A → B → D
	// Рёбра из A добавлены в порядке C, B: C идёт первым.
	g := buildGraph(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "C"}, {"A", "B"}, {"B", "D"}, {"C", "D"}},
	)

	order, err := TopologicalSort(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B", "D"}, order)
}

func TestTopologicalSort_TargetInsertedBeforeSource(t *testing.T) {
	g := buildGraph(t, []string{"B", "A"}, [][2]string{{"A", "B"}})

	order, err := TopologicalSort(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestTopologicalSort_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
	}{
		{
			name:  "two nodes",
			nodes: []string{"A", "B"},
			edges: [][2]string{{"A", "B"}, {"B", "A"}},
		},
		{
			name:  "self loop",
			nodes: []string{"A"},
			edges: [][2]string{{"A", "A"}},
		},
		{
			name:  "cycle behind a valid prefix",
			nodes: []string{"start", "X", "Y", "Z"},
			edges: [][2]string{{"start", "X"}, {"X", "Y"}, {"Y", "Z"}, {"Z", "X"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)

			order, err := TopologicalSort(g)
			if !errors.Is(err, ErrCyclicDependency) {
				t.Fatalf("expected ErrCyclicDependency, got %v", err)
			}
			if order != nil {
				t.Errorf("expected no partial order, got %v", order)
			}
		})
	}
}

func TestTopologicalSort_Empty(t *testing.T) {
	order, err := TopologicalSort(NewGraph())
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	nodes := []string{"n1", "n2", "n3", "n4", "n5"}
	edges := [][2]string{{"n1", "n4"}, {"n2", "n4"}, {"n3", "n5"}, {"n4", "n5"}}

	first, err := TopologicalSort(buildGraph(t, nodes, edges))
	require.NoError(t, err)

	for range 20 {
		again, err := TopologicalSort(buildGraph(t, nodes, edges))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Для любого DAG порядок содержит каждый узел ровно один раз,
// и источник каждого ребра стоит раньше приёмника.
func TestTopologicalSort_RandomDAGProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := range 200 {
		n := 1 + rng.Intn(12)

		// Случайная перестановка задаёт скрытый топологический порядок;
		// рёбра идут только "вперёд" по нему, поэтому граф ацикличен.
		rank := rng.Perm(n)
		nodes := make([]string, n)
		for i := range nodes {
			nodes[i] = fmt.Sprintf("n%d", i)
		}

		var edges [][2]string
		for i := range n {
			for j := range n {
				if rank[i] < rank[j] && rng.Float64() < 0.3 {
					edges = append(edges, [2]string{nodes[i], nodes[j]})
				}
			}
		}
		rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })

		g := buildGraph(t, nodes, edges)
		order, err := TopologicalSort(g)
		require.NoError(t, err, "iteration %d", iter)
		require.Len(t, order, n)

		pos := make(map[string]int, n)
		for i, id := range order {
			_, dup := pos[id]
			require.False(t, dup, "node %s appears twice", id)
			pos[id] = i
		}
		for _, e := range edges {
			assert.Less(t, pos[e[0]], pos[e[1]], "edge %s→%s out of order", e[0], e[1])
		}
	}
}

// Для любого графа с циклом сортировка возвращает ошибку.
func TestTopologicalSort_RandomCycleProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := range 100 {
		n := 2 + rng.Intn(10)
		nodes := make([]string, n)
		for i := range nodes {
			nodes[i] = fmt.Sprintf("n%d", i)
		}

		// Цикл по случайному подмножеству узлов длиной >= 2
		perm := rng.Perm(n)
		k := 2 + rng.Intn(n-1)
		var edges [][2]string
		for i := range k {
			edges = append(edges, [2]string{nodes[perm[i]], nodes[perm[(i+1)%k]]})
		}

		order, err := TopologicalSort(buildGraph(t, nodes, edges))
		require.ErrorIs(t, err, ErrCyclicDependency, "iteration %d", iter)
		require.Nil(t, order)
	}
}
