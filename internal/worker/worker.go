package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/mq"
	"github.com/shaiso/toolflow/internal/orchestrator"
	"github.com/shaiso/toolflow/internal/repo"
	"github.com/shaiso/toolflow/internal/telemetry"
)

const defaultPrefetch = 5

// Invoker выполняет flow (orchestrator.Orchestrator).
type Invoker interface {
	Invoke(ctx context.Context, flowID, trigger string, params map[string]any) (*domain.FlowExecution, error)
}

// FinishedPublisher публикует итог вызова (mq.Publisher).
type FinishedPublisher interface {
	PublishExecutionFinished(ctx context.Context, payload mq.ExecutionFinishedPayload) error
}

// Worker выполняет вызовы flow из очереди invocations.requested.
type Worker struct {
	conn      *mq.Connection
	invoker   Invoker
	publisher FinishedPublisher
	prefetch  int

	consumer *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Conn — соединение с RabbitMQ. Нужно только для Start.
	Conn *mq.Connection

	// Invoker — оркестратор.
	Invoker Invoker

	// Publisher — публикация execution.finished (опционально).
	Publisher FinishedPublisher

	// Prefetch — сколько вызовов выполняется одновременно (default: 5).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		conn:      cfg.Conn,
		invoker:   cfg.Invoker,
		publisher: cfg.Publisher,
		prefetch:  prefetch,
		logger:    logger,
	}
}

// Start запускает consumer очереди invocations.requested.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return ErrNoConnection
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    mq.QueueInvocationsRequested,
		Handler:  w.HandleMessage,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("invocation consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started", "prefetch", w.prefetch)
	return nil
}

// Stop останавливает Worker и ждёт завершения consumer.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.consumer != nil {
		w.consumer.Stop()
	}
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// HandleMessage обрабатывает одно сообщение invocation.requested.
func (w *Worker) HandleMessage(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeInvocationRequested {
		return mq.Permanent(fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type))
	}

	payload, err := mq.ParsePayload[mq.InvocationRequestedPayload](msg)
	if err != nil {
		return mq.Permanent(err)
	}
	if payload.FlowID == "" {
		return mq.Permanent(ErrMissingFlowID)
	}

	logger := telemetry.WithFlowID(w.logger, payload.FlowID).With("request_id", payload.RequestID)
	logger.Debug("invocation received", "trigger", payload.Trigger)

	exec, err := w.invoker.Invoke(telemetry.WithLogger(ctx, logger), payload.FlowID, payload.Trigger, payload.Params)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, orchestrator.ErrFlowInactive) {
			logger.Warn("invocation rejected", "error", err)
			return mq.Permanent(err)
		}
		return fmt.Errorf("invoke %s: %w", payload.FlowID, err)
	}

	logger.Info("invocation finished",
		"execution_id", exec.ID,
		"status", exec.Status,
	)

	if w.publisher == nil {
		return nil
	}
	if err := w.publisher.PublishExecutionFinished(ctx, mq.NewExecutionFinished(payload.RequestID, exec)); err != nil {
		logger.Error("failed to publish execution.finished", "execution_id", exec.ID, "error", err)
	}
	return nil
}
