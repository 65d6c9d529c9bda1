package engine

// TopologicalSort возвращает порядок выполнения узлов (алгоритм Кана).
//
// Порядок детерминирован:
//   - очередь засевается узлами без входящих рёбер в порядке их добавления в граф;
//   - соседи узла обходятся в порядке добавления рёбер.
//
// Одинаково построенный граф всегда даёт одинаковый порядок.
// Если граф содержит цикл, возвращается ErrCyclicDependency и nil.
func TopologicalSort(g *Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.nodeOrder))
	adjacency := make(map[string][]string, len(g.nodeOrder))

	for _, id := range g.nodeOrder {
		inDegree[id] = 0
	}
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		inDegree[e.Target]++
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	// Очередь узлов с inDegree = 0
	queue := make([]string, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.nodeOrder))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	// Если не все узлы обработаны — есть цикл
	if len(order) != len(g.nodeOrder) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}
