// Toolflow Worker — выполняет вызовы flows из очереди invocations.requested.
//
// Worker:
//   - Получает invocation.requested из RabbitMQ
//   - Выполняет flow через оркестратор, трасса пишется в PostgreSQL
//   - Публикует execution.finished
//
// Workers масштабируются горизонтально.
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

	"github.com/shaiso/toolflow/internal/config"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/mq"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/orchestrator"
	"github.com/shaiso/toolflow/internal/repo"
	"github.com/shaiso/toolflow/internal/telemetry"
	"github.com/shaiso/toolflow/internal/worker"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting toolflow-worker")

	if err := errors.Join(cfg.RequireDatabase(), cfg.RequireRabbitMQ()); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.SetupTracing(ctx, "toolflow-worker")
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	var flows repo.FlowStore = repo.NewFlowRepo(pool)
	if cfg.RedisAddr != "" {
		rdb, err := repo.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis not available, flow cache disabled", "error", err)
		} else {
			defer rdb.Close()
			flows = repo.NewFlowCache(repo.FlowCacheConfig{
				Source: flows,
				Client: rdb,
				TTL:    cfg.FlowCacheTTL,
				Logger: logger,
			})
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Flows: flows,
		Registry: nodes.DefaultRegistry(nodes.Options{
			Validator: guard.NewValidator(cfg.ResolveHosts),
			Timeout:   cfg.HTTPTimeout,
		}),
		Recorder:     repo.NewExecutionRepo(pool),
		MaxCallDepth: cfg.MaxCallDepth,
		Logger:       logger,
	})

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Info("rabbitmq connected")

	w := worker.New(worker.Config{
		Conn:      mqConn,
		Invoker:   orch,
		Publisher: mq.NewPublisher(mqConn, logger),
		Logger:    logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			http.Error(w, "rabbitmq disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.WorkerAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info("toolflow-worker stopped")
}
