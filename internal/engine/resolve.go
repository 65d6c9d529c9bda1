package engine

import (
	"context"
	"log/slog"

	"github.com/shaiso/Langweave/internal/telemetry"
)

// ResolveInputs собирает входы узла.
//
// Для каждого входящего ребра с заданными sourceHandle и targetHandle
// значение results[source][sourceHandle] записывается в inputs[targetHandle].
// Ребро без одного из handle или с handle, которого нет среди выходов
// источника, пропускается без ошибки.
//
// Статические inputs из data узла накладываются последними
// и перекрывают значения из рёбер.
func ResolveInputs(ctx context.Context, g *Graph, nodeID string, results map[string]map[string]any) map[string]any {
	inputs := make(map[string]any)
	logger := telemetry.FromContext(ctx)

	for _, edge := range g.IncomingEdges(nodeID) {
		if edge.SourceHandle == "" || edge.TargetHandle == "" {
			logger.Debug("edge without handles skipped",
				slog.String("edge_id", edge.ID),
				slog.String("node_id", nodeID),
			)
			continue
		}

		outputs, ok := results[edge.Source]
		if !ok {
			continue
		}
		value, ok := outputs[edge.SourceHandle]
		if !ok {
			logger.Debug("source handle not found in outputs",
				slog.String("edge_id", edge.ID),
				slog.String("source", edge.Source),
				slog.String("source_handle", edge.SourceHandle),
			)
			continue
		}
		inputs[edge.TargetHandle] = value
	}

	if node, ok := g.nodes[nodeID]; ok {
		for k, v := range node.Data.Inputs {
			inputs[k] = v
		}
	}

	return inputs
}
