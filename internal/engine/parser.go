package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Langweave/internal/domain"
)

// Parse разбирает JSON определения flow.
func Parse(data []byte) (domain.FlowDefinition, error) {
	var def domain.FlowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return domain.FlowDefinition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return def, nil
}

// Validate выполняет структурную валидацию определения flow.
//
// Проверяет:
//   - у каждого узла есть ID и тип
//   - ID узлов уникальны
//   - у каждого ребра есть ID, ID рёбер уникальны
//   - оба конца каждого ребра ссылаются на существующие узлы
//   - граф ацикличен
//
// Пустой flow валиден: его выполнение сразу завершается успешно.
// Проверка типов компонентов выполняется executor'ом, т.к. требует реестра.
func Validate(def domain.FlowDefinition) error {
	nodeIDs := make(map[string]bool, len(def.Nodes))

	for _, n := range def.Nodes {
		if n.ID == "" {
			return NewValidationError("", "id", "node has empty ID", ErrEmptyNodeID)
		}
		if nodeIDs[n.ID] {
			return NewValidationError(n.ID, "id",
				fmt.Sprintf("duplicate node ID: %s", n.ID), ErrDuplicateNodeID)
		}
		nodeIDs[n.ID] = true

		if n.Type == "" {
			return NewValidationError(n.ID, "type", "node has empty type", ErrEmptyNodeType)
		}
	}

	edgeIDs := make(map[string]bool, len(def.Edges))
	for _, e := range def.Edges {
		if e.ID == "" {
			return NewEdgeError("", "id", "edge has empty ID", ErrEmptyEdgeID)
		}
		if edgeIDs[e.ID] {
			return NewEdgeError(e.ID, "id",
				fmt.Sprintf("duplicate edge ID: %s", e.ID), ErrDuplicateEdgeID)
		}
		edgeIDs[e.ID] = true
	}

	g, err := FromDefinition(def)
	if err != nil {
		return err
	}

	if _, err := TopologicalSort(g); err != nil {
		return err
	}

	return nil
}

// Build валидирует определение и строит по нему граф.
func Build(def domain.FlowDefinition) (*Graph, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	return FromDefinition(def)
}
