// Toolflow API — HTTP API для редактирования и вызова flows.
//
// Зависимости:
//   - PostgreSQL (DB_URL) — flows и трассы выполнения
//   - Redis (REDIS_ADDR, опционально) — кэш flows
//   - RabbitMQ (RABBITMQ_URL, опционально) — асинхронные вызовы ?async=true
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

	"github.com/shaiso/toolflow/internal/api"
	"github.com/shaiso/toolflow/internal/config"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/mq"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/orchestrator"
	"github.com/shaiso/toolflow/internal/repo"
	"github.com/shaiso/toolflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting toolflow-api")

	if err := cfg.RequireDatabase(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Трейсинг
	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.SetupTracing(ctx, "toolflow-api")
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// База данных
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Flows: Postgres, опционально через Redis
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
			logger.Info("flow cache enabled", "ttl", cfg.FlowCacheTTL)
		}
	}
	executions := repo.NewExecutionRepo(pool)

	registry := nodes.DefaultRegistry(nodes.Options{
		Validator: guard.NewValidator(cfg.ResolveHosts),
		Timeout:   cfg.HTTPTimeout,
	})

	orch := orchestrator.New(orchestrator.Config{
		Flows:        flows,
		Registry:     registry,
		Recorder:     executions,
		MaxCallDepth: cfg.MaxCallDepth,
		Logger:       logger,
	})

	// RabbitMQ для ?async=true
	var publisher api.InvocationPublisher
	if cfg.RabbitMQURL != "" {
		mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("rabbitmq not available, async invocation disabled", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher = mq.NewPublisher(mqConn, logger)
			logger.Info("rabbitmq connected")
		}
	}

	handler := api.NewHandler(api.Config{
		Flows:      flows,
		Executions: executions,
		Registry:   registry,
		Invoker:    orch,
		Publisher:  publisher,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.APIAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
