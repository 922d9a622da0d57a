package orchestrator

import (
	"errors"
	"fmt"

	"github.com/shaiso/toolflow/internal/domain"
)

// Ошибки оркестратора.
var (
	// ErrFlowInactive — flow выключен и не может быть вызван.
	ErrFlowInactive = errors.New("flow is not active")

	// ErrTriggerNotFound — во flow нет подходящего триггера.
	ErrTriggerNotFound = errors.New("trigger not found")

	// ErrAmbiguousTrigger — имени соответствует несколько триггеров.
	ErrAmbiguousTrigger = errors.New("ambiguous trigger")

	// ErrMaxDepthExceeded — превышена глубина вложенных вызовов flow.
	ErrMaxDepthExceeded = errors.New("max flow call depth exceeded")

	// ErrRecursiveFlowCall — flow уже выполняется выше по стеку вызовов.
	ErrRecursiveFlowCall = errors.New("recursive flow call")
)

// PanicError — паника внутри узла.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("node panicked: %v", e.Value)
}

// SubFlowError — вложенный flow завершился ошибкой.
type SubFlowError struct {
	FlowID      string
	ExecutionID string
	Info        domain.ErrorInfo
}

func (e *SubFlowError) Error() string {
	if e.Info.NodeName != "" {
		return fmt.Sprintf("sub-flow %s failed at %s: %s", e.FlowID, e.Info.NodeName, e.Info.Message)
	}
	return fmt.Sprintf("sub-flow %s failed: %s", e.FlowID, e.Info.Message)
}
