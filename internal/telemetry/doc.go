// Package telemetry обеспечивает наблюдаемость Langweave.
//
// Включает:
//   - logging.go — structured logging через slog, логгер в context
//   - metrics.go — Prometheus метрики выполнения flow и API
//
// API, worker и scheduler пишут логи в едином формате
// и отдают метрики на /metrics. CLI пишет логи в stderr.
package telemetry
