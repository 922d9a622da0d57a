package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
)

// Ограничения выборки выполнений.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// FlowStore — хранилище flow.
type FlowStore interface {
	GetFlow(ctx context.Context, id string) (*domain.Flow, error)
	List(ctx context.Context) ([]domain.Flow, error)
	Save(ctx context.Context, flow *domain.Flow) error
}

// ExecutionStore — хранилище трасс выполнения.
type ExecutionStore interface {
	Save(ctx context.Context, exec *domain.FlowExecution) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FlowExecution, error)
	List(ctx context.Context, filter ExecutionFilter) ([]domain.FlowExecution, error)
}

// ExecutionFilter — параметры выборки выполнений.
type ExecutionFilter struct {
	FlowID string
	Status domain.ExecutionStatus
	Limit  int
	Offset int
}

// Normalize приводит Limit и Offset к допустимым значениям.
func (f ExecutionFilter) Normalize() ExecutionFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Match проверяет, подходит ли выполнение под фильтр.
func (f ExecutionFilter) Match(exec *domain.FlowExecution) bool {
	if f.FlowID != "" && exec.FlowID != f.FlowID {
		return false
	}
	if f.Status != "" && exec.Status != f.Status {
		return false
	}
	return true
}
