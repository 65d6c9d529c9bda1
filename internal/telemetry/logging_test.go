package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			if got := LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupLoggerTo_JSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "INFO")
	t.Setenv("LOG_FORMAT", "json")

	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf)

	WithNodeID(WithExecutionID(logger, "exec-1"), "n1", "text_input").Info("node completed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if record["execution_id"] != "exec-1" || record["node_id"] != "n1" || record["component"] != "text_input" {
		t.Errorf("unexpected attributes: %v", record)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
}
