package flow

import (
	"os"
	"strconv"
	"time"
)

// DefaultTimeout — ограничение на выполнение flow в сервисах.
const DefaultTimeout = 300 * time.Second

// TimeoutFromEnv читает FLOW_EXECUTION_TIMEOUT (в секундах).
// Некорректное или неположительное значение заменяется на DefaultTimeout.
func TimeoutFromEnv() time.Duration {
	raw := os.Getenv("FLOW_EXECUTION_TIMEOUT")
	if raw == "" {
		return DefaultTimeout
	}
	sec, err := strconv.Atoi(raw)
	if err != nil || sec <= 0 {
		return DefaultTimeout
	}
	return time.Duration(sec) * time.Second
}
