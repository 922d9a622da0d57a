package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/telemetry"
)

// DefaultMaxCallDepth — глубина вложенных вызовов flow по умолчанию.
const DefaultMaxCallDepth = 8

const tracerName = "github.com/shaiso/toolflow/internal/orchestrator"

// FlowSource загружает flow по ID.
type FlowSource interface {
	GetFlow(ctx context.Context, id string) (*domain.Flow, error)
}

// Recorder сохраняет завершённые выполнения.
type Recorder interface {
	Save(ctx context.Context, exec *domain.FlowExecution) error
}

// Orchestrator выполняет flow по запросу.
//
// Разделяемое состояние — только реестр типов и источник flow,
// поэтому один Orchestrator обслуживает конкурентные вызовы.
type Orchestrator struct {
	flows    FlowSource
	registry *nodes.Registry
	recorder Recorder

	maxDepth int

	logger *slog.Logger
	tracer trace.Tracer
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Flows — источник flow (обязателен).
	Flows FlowSource

	// Registry — реестр типов узлов (обязателен).
	Registry *nodes.Registry

	// Recorder — сохранение трасс (опционально).
	Recorder Recorder

	// MaxCallDepth — глубина call_flow (default: 8).
	MaxCallDepth int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	maxDepth := cfg.MaxCallDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCallDepth
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		flows:    cfg.Flows,
		registry: cfg.Registry,
		recorder: cfg.Recorder,
		maxDepth: maxDepth,
		logger:   logger,
		tracer:   telemetry.Tracer(tracerName),
	}
}

// Registry возвращает реестр типов узлов.
func (o *Orchestrator) Registry() *nodes.Registry {
	return o.registry
}

// MaxCallDepth возвращает ограничение глубины вложенных вызовов.
func (o *Orchestrator) MaxCallDepth() int {
	return o.maxDepth
}

// invocation — один вызов flow в стеке вложенных вызовов.
type invocation struct {
	flowID  string
	trigger string
	params  map[string]any

	parentID *uuid.UUID
	depth    int

	// stack — flow, выполняющиеся выше по стеку, включая текущий.
	stack []string
}

// Invoke выполняет flow, начиная с триггера.
//
// trigger — slug триггера или его toolName. Пустое имя допустимо,
// если во flow ровно один триггер.
//
// Ошибка возвращается, только если flow не загружен или выключен.
// Всё остальное записывается в FlowExecution со статусом error.
func (o *Orchestrator) Invoke(ctx context.Context, flowID, trigger string, params map[string]any) (*domain.FlowExecution, error) {
	return o.invoke(ctx, invocation{
		flowID:  flowID,
		trigger: trigger,
		params:  params,
	})
}

func (o *Orchestrator) invoke(ctx context.Context, inv invocation) (*domain.FlowExecution, error) {
	flow, err := o.flows.GetFlow(ctx, inv.flowID)
	if err != nil {
		return nil, fmt.Errorf("load flow %s: %w", inv.flowID, err)
	}
	if !flow.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrFlowInactive, flow.ID)
	}

	exec := domain.NewFlowExecution(flow.ID, inv.trigger, inv.params)
	exec.ParentExecutionID = inv.parentID
	exec.Depth = inv.depth
	inv.stack = append(slices.Clone(inv.stack), flow.ID)

	logger := telemetry.WithExecutionID(telemetry.WithFlowID(o.logger, flow.ID), exec.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	ctx, span := o.tracer.Start(ctx, "flow.invoke", trace.WithAttributes(
		telemetry.AttrFlowID.String(flow.ID),
		telemetry.AttrExecutionID.String(exec.ID.String()),
		telemetry.AttrTrigger.String(inv.trigger),
		telemetry.AttrDepth.Int(inv.depth),
	))
	defer span.End()

	logger.Info("flow invoked", "trigger", inv.trigger, "depth", inv.depth)

	o.runFlow(ctx, flow, exec, inv)

	span.SetAttributes(telemetry.AttrStatus.String(string(exec.Status)))
	if exec.ErrorInfo != nil {
		telemetry.SetSpanError(span, fmt.Errorf("%s: %s", exec.ErrorInfo.Kind, exec.ErrorInfo.Message),
			attribute.String("toolflow.error.kind", string(exec.ErrorInfo.Kind)))
	}

	o.finish(ctx, exec, logger)

	return exec, nil
}

// finish пишет метрики, лог и сохраняет трассу.
// Ошибка сохранения не меняет результат вызова.
func (o *Orchestrator) finish(ctx context.Context, exec *domain.FlowExecution, logger *slog.Logger) {
	telemetry.ObserveExecution(exec)

	if exec.Status == domain.ExecutionStatusFulfilled {
		logger.Info("flow fulfilled",
			"nodes", len(exec.NodeExecutions),
			"duration", exec.Duration(),
		)
	} else if exec.ErrorInfo != nil {
		logger.Warn("flow failed",
			"node_id", exec.ErrorInfo.NodeID,
			"kind", exec.ErrorInfo.Kind,
			"error", exec.ErrorInfo.Message,
		)
	}

	if o.recorder == nil {
		return
	}
	if err := o.recorder.Save(context.WithoutCancel(ctx), exec); err != nil {
		logger.Error("failed to record execution", "error", err)
	}
}
