package engine

import (
	"fmt"
	"slices"

	"github.com/shaiso/Langweave/internal/domain"
)

// Graph — граф flow: узлы и рёбра в порядке добавления.
//
// Порядок добавления важен: от него зависит порядок выполнения
// независимых узлов (см. TopologicalSort). Graph строится заново
// для каждого выполнения и принадлежит одному executor'у,
// поэтому синхронизация не нужна.
type Graph struct {
	nodes     map[string]*domain.NodeDef
	nodeOrder []string

	edges     map[string]*domain.EdgeDef
	edgeOrder []string
}

// NewGraph создаёт пустой граф.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*domain.NodeDef),
		edges: make(map[string]*domain.EdgeDef),
	}
}

// AddNode добавляет узел или заменяет узел с тем же ID.
// При замене узел сохраняет исходную позицию в порядке добавления.
func (g *Graph) AddNode(node domain.NodeDef) {
	if _, exists := g.nodes[node.ID]; !exists {
		g.nodeOrder = append(g.nodeOrder, node.ID)
	}
	n := node
	g.nodes[node.ID] = &n
}

// AddEdge добавляет ребро или заменяет ребро с тем же ID.
// Оба конца ребра должны ссылаться на уже добавленные узлы.
func (g *Graph) AddEdge(edge domain.EdgeDef) error {
	if _, ok := g.nodes[edge.Source]; !ok {
		return NewEdgeError(edge.ID, "source",
			fmt.Sprintf("source node %q does not exist", edge.Source), ErrDanglingEdge)
	}
	if _, ok := g.nodes[edge.Target]; !ok {
		return NewEdgeError(edge.ID, "target",
			fmt.Sprintf("target node %q does not exist", edge.Target), ErrDanglingEdge)
	}

	if _, exists := g.edges[edge.ID]; !exists {
		g.edgeOrder = append(g.edgeOrder, edge.ID)
	}
	e := edge
	g.edges[edge.ID] = &e
	return nil
}

// RemoveNode удаляет узел и все рёбра, которые его касаются.
// Возвращает false, если узла не было.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	g.nodeOrder = slices.DeleteFunc(g.nodeOrder, func(n string) bool { return n == id })

	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(eid string) bool {
		e := g.edges[eid]
		if e.Source == id || e.Target == id {
			delete(g.edges, eid)
			return true
		}
		return false
	})
	return true
}

// RemoveEdge удаляет ребро. Возвращает false, если ребра не было.
func (g *Graph) RemoveEdge(id string) bool {
	if _, ok := g.edges[id]; !ok {
		return false
	}
	delete(g.edges, id)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(e string) bool { return e == id })
	return true
}

// Node возвращает узел по ID.
func (g *Graph) Node(id string) (domain.NodeDef, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return domain.NodeDef{}, false
	}
	return *n, true
}

// Edge возвращает ребро по ID.
func (g *Graph) Edge(id string) (domain.EdgeDef, bool) {
	e, ok := g.edges[id]
	if !ok {
		return domain.EdgeDef{}, false
	}
	return *e, true
}

// Nodes возвращает узлы в порядке добавления.
func (g *Graph) Nodes() []domain.NodeDef {
	out := make([]domain.NodeDef, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges возвращает рёбра в порядке добавления.
func (g *Graph) Edges() []domain.EdgeDef {
	out := make([]domain.EdgeDef, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}
	return out
}

// NodeIDs возвращает ID узлов в порядке добавления.
func (g *Graph) NodeIDs() []string {
	return slices.Clone(g.nodeOrder)
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.nodeOrder)
}

// IncomingEdges возвращает рёбра, входящие в узел, в порядке добавления.
func (g *Graph) IncomingEdges(nodeID string) []domain.EdgeDef {
	var out []domain.EdgeDef
	for _, id := range g.edgeOrder {
		if e := g.edges[id]; e.Target == nodeID {
			out = append(out, *e)
		}
	}
	return out
}

// OutgoingEdges возвращает рёбра, исходящие из узла, в порядке добавления.
func (g *Graph) OutgoingEdges(nodeID string) []domain.EdgeDef {
	var out []domain.EdgeDef
	for _, id := range g.edgeOrder {
		if e := g.edges[id]; e.Source == nodeID {
			out = append(out, *e)
		}
	}
	return out
}

// Definition сериализует граф в формат обмена.
func (g *Graph) Definition() domain.FlowDefinition {
	return domain.FlowDefinition{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	}
}

// FromDefinition строит граф из определения flow.
//
// Узлы добавляются первыми, затем рёбра, в порядке следования
// в определении. Ребро с несуществующим концом даёт ValidationError.
func FromDefinition(def domain.FlowDefinition) (*Graph, error) {
	g := NewGraph()
	for _, n := range def.Nodes {
		g.AddNode(n)
	}
	for _, e := range def.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
