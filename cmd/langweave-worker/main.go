// Langweave Worker — выполняет flows асинхронно.
//
// Worker:
//   - Получает execution.pending из RabbitMQ
//   - Периодически забирает pending executions из БД (polling fallback)
//   - Выполняет flow и публикует события в langweave.events
//   - Сохраняет статус и результаты выполнения
//
// Workers масштабируются горизонтально: execution забирается атомарно.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
	"github.com/shaiso/Langweave/internal/repo"
	"github.com/shaiso/Langweave/internal/secrets"
	"github.com/shaiso/Langweave/internal/telemetry"
	"github.com/shaiso/Langweave/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting langweave-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	cipher, err := secrets.NewCipherFromEnv()
	if err != nil {
		logger.Error("failed to init secrets cipher", "error", err)
		os.Exit(1)
	}

	cfg := worker.Config{
		Flows:      repo.NewFlowRepo(pool),
		Executions: repo.NewExecutionRepo(pool),
		Variables:  repo.NewVariableRepo(pool, cipher),
		Timeout:    flow.TimeoutFromEnv(),
		Logger:     logger,
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		cfg.Conn = mqConn
		cfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	w := worker.New(cfg)
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}
	server := &http.Server{Addr: port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	// Останавливаем worker: текущие выполнения дописывают результаты
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("langweave-worker stopped")
}
