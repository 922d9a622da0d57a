package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/mq"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/repo"
)

// Invoker выполняет flow (orchestrator.Orchestrator).
type Invoker interface {
	Invoke(ctx context.Context, flowID, trigger string, params map[string]any) (*domain.FlowExecution, error)
}

// InvocationPublisher ставит вызов в очередь (mq.Publisher).
type InvocationPublisher interface {
	PublishInvocationRequested(ctx context.Context, payload mq.InvocationRequestedPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	flows      repo.FlowStore
	executions repo.ExecutionStore
	registry   *nodes.Registry
	invoker    Invoker
	publisher  InvocationPublisher
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Flows — хранилище flow. Если включён кэш, сюда передаётся FlowCache,
	// тогда сохранение сбрасывает ключ.
	Flows      repo.FlowStore
	Executions repo.ExecutionStore
	Registry   *nodes.Registry
	Invoker    Invoker

	// Publisher — опционально; без него ?async=true отвечает 503.
	Publisher InvocationPublisher

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		flows:      cfg.Flows,
		executions: cfg.Executions,
		registry:   cfg.Registry,
		invoker:    cfg.Invoker,
		publisher:  cfg.Publisher,
		logger:     logger,
	}
}
