package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLoggerTo инициализирует глобальный логгер с выводом в w.
// CLI пишет логи в stderr, чтобы не смешивать их с результатом.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLoggerTo(w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// SetupLogger инициализирует глобальный логгер с выводом в stdout.
func SetupLogger() *slog.Logger {
	return SetupLoggerTo(os.Stdout)
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithExecutionID возвращает логгер с добавленным execution_id.
func WithExecutionID(logger *slog.Logger, executionID string) *slog.Logger {
	return logger.With("execution_id", executionID)
}

// WithNodeID возвращает логгер с добавленными node_id и типом компонента.
func WithNodeID(logger *slog.Logger, nodeID, componentType string) *slog.Logger {
	return logger.With("node_id", nodeID, "component", componentType)
}

// WithFlowID возвращает логгер с добавленным flow_id.
func WithFlowID(logger *slog.Logger, flowID string) *slog.Logger {
	return logger.With("flow_id", flowID)
}
