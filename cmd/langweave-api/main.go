// Langweave API — HTTP API для flows, executions, переменных и расписаний.
//
// API:
//   - Хранит flows, executions, переменные и расписания в PostgreSQL
//   - Выполняет flows синхронно (/run) и в streaming режиме (websocket)
//   - Ставит асинхронные выполнения в RabbitMQ для worker'ов
//   - Транслирует события асинхронных выполнений из RabbitMQ в websocket
//
// Без RabbitMQ API продолжает работать: асинхронные executions
// подхватит polling worker'а, а /executions/{id}/events отвечает 503.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Langweave/internal/api"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
	"github.com/shaiso/Langweave/internal/repo"
	"github.com/shaiso/Langweave/internal/secrets"
	"github.com/shaiso/Langweave/internal/telemetry"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting langweave-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	cipher, err := secrets.NewCipherFromEnv()
	if err != nil {
		logger.Error("failed to init secrets cipher", "error", err)
		os.Exit(1)
	}

	cfg := api.Config{
		Flows:      repo.NewFlowRepo(pool),
		Executions: repo.NewExecutionRepo(pool),
		Variables:  repo.NewVariableRepo(pool, cipher),
		Schedules:  repo.NewScheduleRepo(pool),
		Timeout:    flow.TimeoutFromEnv(),
		Logger:     logger,
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, async executions rely on worker polling", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		cfg.Publisher = mq.NewPublisher(mqConn, logger)
		cfg.Events = mqConn
	}

	handler := api.NewHandler(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		// Graceful shutdown с таймаутом 10 секунд
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
