// Langweave Scheduler — запускает flows по расписанию.
//
// Несколько экземпляров могут работать одновременно: тики выполняет
// только лидер, удерживающий pg_advisory_lock.
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

	"github.com/shaiso/Langweave/internal/mq"
	"github.com/shaiso/Langweave/internal/repo"
	"github.com/shaiso/Langweave/internal/scheduler"
	"github.com/shaiso/Langweave/internal/telemetry"
)

// schedLockKey — ключ advisory lock лидера.
const schedLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting langweave-scheduler")

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

	cfg := scheduler.Config{
		Schedules:  repo.NewScheduleRepo(pool),
		Flows:      repo.NewFlowRepo(pool),
		Executions: repo.NewExecutionRepo(pool),
		Logger:     logger,
	}

	// RabbitMQ: без него executions подхватит polling worker'а
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, executions rely on worker polling", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		cfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	sched := scheduler.New(cfg)
	lock := repo.NewAdvisoryLock(pool, schedLockKey)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sched.Run(ctx, scheduler.IntervalFromEnv(), lock); err != nil {
			logger.Error("scheduler stopped with error", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("SCHEDULER_PORT"); v != "" {
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
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("langweave-scheduler stopped")
}
