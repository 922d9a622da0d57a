package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/orchestrator"
	"github.com/shaiso/toolflow/internal/repo"
)

// LocalOptions — настройки локального выполнения.
type LocalOptions struct {
	// HTTPTimeout — таймаут api_call по умолчанию.
	HTTPTimeout time.Duration

	// ResolveHosts — проверять адреса, в которые резолвится хост.
	ResolveHosts bool

	// MaxCallDepth — предел вложенности call_flow.
	MaxCallDepth int

	// Logger — по умолчанию логи отбрасываются.
	Logger *slog.Logger
}

// LocalRegistry создаёт реестр встроенных типов для локальной работы.
func LocalRegistry(opts LocalOptions) *nodes.Registry {
	return nodes.DefaultRegistry(nodes.Options{
		Validator: guard.NewValidator(opts.ResolveHosts),
		Timeout:   opts.HTTPTimeout,
	})
}

// RunLocal выполняет flow без сервисов: flows и трассы в памяти.
// Первый flow вызывается, остальные доступны для call_flow.
func RunLocal(ctx context.Context, flows []*domain.Flow, trigger string, params map[string]any, opts LocalOptions) (*domain.FlowExecution, error) {
	if len(flows) == 0 {
		return nil, fmt.Errorf("%w: no flows given", ErrInvalidFlowFile)
	}

	store, err := repo.NewMemoryFlowStore(flows...)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	orch := orchestrator.New(orchestrator.Config{
		Flows:        store,
		Registry:     LocalRegistry(opts),
		Recorder:     repo.NewMemoryExecutionStore(),
		MaxCallDepth: opts.MaxCallDepth,
		Logger:       logger,
	})

	return orch.Invoke(ctx, flows[0].ID, trigger, params)
}

// findNode ищет узел по ID, затем по slug.
func findNode(flow *domain.Flow, ref string) (*domain.Node, error) {
	if n := flow.NodeByID(ref); n != nil {
		return n, nil
	}
	if n := flow.NodeBySlug(ref); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, ref)
}
