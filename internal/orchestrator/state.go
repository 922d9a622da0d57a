package orchestrator

import (
	"sync"

	"github.com/shaiso/toolflow/internal/domain"
)

// ExecutionState — результаты выполненных узлов одного вызова.
//
// Узлы читают его через nodes.ValueSource: по ID (GetNodeValue)
// и по slug (шаблоны {{slug.path}}).
type ExecutionState struct {
	byID   map[string]any
	bySlug map[string]any

	// lastOutput — результат последнего выполненного узла.
	lastOutput any

	// terminalOutput — результат последнего терминального узла.
	terminalOutput any
	hasTerminal    bool

	mu sync.RWMutex
}

// NewExecutionState создаёт пустое состояние.
func NewExecutionState() *ExecutionState {
	return &ExecutionState{
		byID:   make(map[string]any),
		bySlug: make(map[string]any),
	}
}

// Store сохраняет результат узла.
func (s *ExecutionState) Store(node *domain.Node, output any, terminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[node.ID] = output
	if node.Slug != "" {
		s.bySlug[node.Slug] = output
	}
	s.lastOutput = output
	if terminal {
		s.terminalOutput = output
		s.hasTerminal = true
	}
}

// NodeValue возвращает результат узла по ID.
func (s *ExecutionState) NodeValue(nodeID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byID[nodeID]
	return v, ok
}

// TemplateValues возвращает копию результатов по slug.
func (s *ExecutionState) TemplateValues() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]any, len(s.bySlug))
	for k, v := range s.bySlug {
		values[k] = v
	}
	return values
}

// Output возвращает результат вызова: последний терминальный узел,
// а если терминальные узлы не выполнялись, последний выполненный.
func (s *ExecutionState) Output() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.hasTerminal {
		return s.terminalOutput
	}
	return s.lastOutput
}

// Len возвращает количество выполненных узлов.
func (s *ExecutionState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
