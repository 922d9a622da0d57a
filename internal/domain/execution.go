package domain

import (
	"time"

	"github.com/google/uuid"
)

// FlowExecution — трасса одного вызова flow.
//
// Создаётся в статусе pending, завершается ровно один раз:
// MarkFulfilled или MarkFailed. Повторная отметка игнорируется.
type FlowExecution struct {
	// ID — уникальный идентификатор выполнения.
	ID uuid.UUID `json:"id"`

	// FlowID — выполняемый flow.
	FlowID string `json:"flow_id"`

	// Trigger — slug или имя инструмента, переданное при вызове.
	Trigger string `json:"trigger,omitempty"`

	// ParentExecutionID — выполнение, из которого flow вызван через call_flow.
	ParentExecutionID *uuid.UUID `json:"parent_execution_id,omitempty"`

	// Depth — глубина вложенности (0 для вызова верхнего уровня).
	Depth int `json:"depth"`

	// Status — текущий статус.
	Status ExecutionStatus `json:"status"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// InitialParams — параметры вызова.
	InitialParams map[string]any `json:"initial_params,omitempty"`

	// NodeExecutions — записи по узлам в порядке выполнения.
	NodeExecutions []NodeExecutionData `json:"node_executions"`

	// Output — результат терминального узла (для fulfilled).
	Output any `json:"output,omitempty"`

	// ErrorInfo — описание ошибки (для error).
	ErrorInfo *ErrorInfo `json:"error_info,omitempty"`
}

// ErrorInfo — ошибка, прервавшая выполнение.
type ErrorInfo struct {
	NodeID   string    `json:"node_id,omitempty"`
	NodeName string    `json:"node_name,omitempty"`
	NodeType string    `json:"node_type,omitempty"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`

	// Stack — стек вызовов, если узел упал с паникой.
	Stack string `json:"stack,omitempty"`
}

// NewFlowExecution создаёт выполнение в статусе pending.
func NewFlowExecution(flowID, trigger string, params map[string]any) *FlowExecution {
	if params == nil {
		params = make(map[string]any)
	}
	return &FlowExecution{
		ID:             uuid.New(),
		FlowID:         flowID,
		Trigger:        trigger,
		Status:         ExecutionStatusPending,
		StartedAt:      time.Now().UTC(),
		InitialParams:  params,
		NodeExecutions: make([]NodeExecutionData, 0),
	}
}

// AppendNode добавляет запись о выполнении узла.
func (e *FlowExecution) AppendNode(data NodeExecutionData) {
	e.NodeExecutions = append(e.NodeExecutions, data)
}

// LastNode возвращает последнюю запись или nil.
func (e *FlowExecution) LastNode() *NodeExecutionData {
	if len(e.NodeExecutions) == 0 {
		return nil
	}
	return &e.NodeExecutions[len(e.NodeExecutions)-1]
}

// NodeByID возвращает запись о выполнении узла или nil.
func (e *FlowExecution) NodeByID(nodeID string) *NodeExecutionData {
	for i := range e.NodeExecutions {
		if e.NodeExecutions[i].NodeID == nodeID {
			return &e.NodeExecutions[i]
		}
	}
	return nil
}

// IsFinished возвращает true, если выполнение завершено.
func (e *FlowExecution) IsFinished() bool {
	return e.Status.IsTerminal()
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, пока выполнение не завершено.
func (e *FlowExecution) Duration() time.Duration {
	if e.EndedAt == nil {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// MarkFulfilled завершает выполнение успешно.
func (e *FlowExecution) MarkFulfilled(output any) {
	if e.IsFinished() {
		return
	}
	now := time.Now().UTC()
	e.Status = ExecutionStatusFulfilled
	e.EndedAt = &now
	e.Output = output
}

// MarkFailed завершает выполнение с ошибкой.
func (e *FlowExecution) MarkFailed(info ErrorInfo) {
	if e.IsFinished() {
		return
	}
	now := time.Now().UTC()
	e.Status = ExecutionStatusError
	e.EndedAt = &now
	e.ErrorInfo = &info
}
