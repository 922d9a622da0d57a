package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
)

// MemoryFlowStore — FlowStore в памяти процесса.
// Используется локальным запуском в CLI и тестами.
// Значения копируются на входе и выходе.
type MemoryFlowStore struct {
	flows map[string]*domain.Flow
	mu    sync.RWMutex
}

// NewMemoryFlowStore создаёт хранилище с начальными flow.
func NewMemoryFlowStore(flows ...*domain.Flow) (*MemoryFlowStore, error) {
	s := &MemoryFlowStore{flows: make(map[string]*domain.Flow, len(flows))}
	for _, f := range flows {
		if err := s.Save(context.Background(), f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// GetFlow возвращает копию flow.
func (s *MemoryFlowStore) GetFlow(_ context.Context, id string) (*domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: flow %s", ErrNotFound, id)
	}
	return cloneFlow(f)
}

// List возвращает копии всех flow, новые первыми.
func (s *MemoryFlowStore) List(_ context.Context) ([]domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flows := make([]domain.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		c, err := cloneFlow(f)
		if err != nil {
			return nil, err
		}
		flows = append(flows, *c)
	}
	sort.Slice(flows, func(i, j int) bool {
		if flows[i].CreatedAt.Equal(flows[j].CreatedAt) {
			return flows[i].ID < flows[j].ID
		}
		return flows[i].CreatedAt.After(flows[j].CreatedAt)
	})
	return flows, nil
}

// Save создаёт или обновляет flow.
func (s *MemoryFlowStore) Save(_ context.Context, flow *domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.flows[flow.ID]; ok {
		flow.CreatedAt = existing.CreatedAt
	} else if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}
	flow.UpdatedAt = now

	c, err := cloneFlow(flow)
	if err != nil {
		return err
	}
	s.flows[flow.ID] = c
	return nil
}

// MemoryExecutionStore — ExecutionStore в памяти процесса.
type MemoryExecutionStore struct {
	execs map[uuid.UUID]*domain.FlowExecution
	mu    sync.RWMutex
}

// NewMemoryExecutionStore создаёт пустое хранилище.
func NewMemoryExecutionStore() *MemoryExecutionStore {
	return &MemoryExecutionStore{execs: make(map[uuid.UUID]*domain.FlowExecution)}
}

// Save создаёт или обновляет выполнение.
func (s *MemoryExecutionStore) Save(_ context.Context, exec *domain.FlowExecution) error {
	c, err := cloneExecution(exec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs[exec.ID] = c
	return nil
}

// GetByID возвращает копию выполнения.
func (s *MemoryExecutionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.FlowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.execs[id]
	if !ok {
		return nil, fmt.Errorf("%w: execution %s", ErrNotFound, id)
	}
	return cloneExecution(e)
}

// List возвращает выполнения с фильтрацией, новые первыми.
func (s *MemoryExecutionStore) List(_ context.Context, filter ExecutionFilter) ([]domain.FlowExecution, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	matched := make([]*domain.FlowExecution, 0, len(s.execs))
	for _, e := range s.execs {
		if filter.Match(e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	if filter.Offset >= len(matched) {
		return []domain.FlowExecution{}, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]domain.FlowExecution, 0, len(matched))
	for _, e := range matched {
		c, err := cloneExecution(e)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}
