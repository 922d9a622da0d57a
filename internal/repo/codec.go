package repo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

// flowRecord — строка таблицы flows.
type flowRecord struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	Nodes       []byte
	Connections []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// encodeFlow готовит flow к записи.
func encodeFlow(flow *domain.Flow) (*flowRecord, error) {
	nodes := flow.Nodes
	if nodes == nil {
		nodes = []domain.Node{}
	}
	conns := flow.Connections
	if conns == nil {
		conns = []domain.Connection{}
	}

	nodesJSON, err := xjson.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal nodes: %v", ErrInvalidRecord, err)
	}
	connsJSON, err := xjson.Marshal(conns)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal connections: %v", ErrInvalidRecord, err)
	}

	return &flowRecord{
		ID:          flow.ID,
		Name:        flow.Name,
		Description: flow.Description,
		IsActive:    flow.IsActive,
		Nodes:       nodesJSON,
		Connections: connsJSON,
		CreatedAt:   flow.CreatedAt,
		UpdatedAt:   flow.UpdatedAt,
	}, nil
}

// decode восстанавливает flow из строки.
func (r *flowRecord) decode() (*domain.Flow, error) {
	flow := &domain.Flow{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		Nodes:       []domain.Node{},
		Connections: []domain.Connection{},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Nodes) > 0 {
		if err := xjson.Unmarshal(r.Nodes, &flow.Nodes); err != nil {
			return nil, fmt.Errorf("%w: flow %s nodes: %v", ErrInvalidRecord, r.ID, err)
		}
	}
	if len(r.Connections) > 0 {
		if err := xjson.Unmarshal(r.Connections, &flow.Connections); err != nil {
			return nil, fmt.Errorf("%w: flow %s connections: %v", ErrInvalidRecord, r.ID, err)
		}
	}
	return flow, nil
}

// executionRecord — строка таблицы flow_executions.
type executionRecord struct {
	ID                uuid.UUID
	FlowID            string
	ParentExecutionID *uuid.UUID
	Trigger           string
	Depth             int
	Status            domain.ExecutionStatus
	InitialParams     []byte
	NodeExecutions    []byte
	Output            []byte
	ErrorInfo         []byte
	StartedAt         time.Time
	EndedAt           *time.Time
}

// encodeExecution готовит выполнение к записи.
// Пустые Output и ErrorInfo пишутся как NULL.
func encodeExecution(exec *domain.FlowExecution) (*executionRecord, error) {
	rec := &executionRecord{
		ID:                exec.ID,
		FlowID:            exec.FlowID,
		ParentExecutionID: exec.ParentExecutionID,
		Trigger:           exec.Trigger,
		Depth:             exec.Depth,
		Status:            exec.Status,
		StartedAt:         exec.StartedAt,
		EndedAt:           exec.EndedAt,
	}

	var err error
	if rec.InitialParams, err = nullJSON(exec.InitialParams, len(exec.InitialParams) == 0); err != nil {
		return nil, fmt.Errorf("%w: initial params: %v", ErrInvalidRecord, err)
	}
	nodeExecs := exec.NodeExecutions
	if nodeExecs == nil {
		nodeExecs = []domain.NodeExecutionData{}
	}
	if rec.NodeExecutions, err = xjson.Marshal(nodeExecs); err != nil {
		return nil, fmt.Errorf("%w: node executions: %v", ErrInvalidRecord, err)
	}
	if rec.Output, err = nullJSON(exec.Output, exec.Output == nil); err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrInvalidRecord, err)
	}
	if rec.ErrorInfo, err = nullJSON(exec.ErrorInfo, exec.ErrorInfo == nil); err != nil {
		return nil, fmt.Errorf("%w: error info: %v", ErrInvalidRecord, err)
	}

	return rec, nil
}

// decode восстанавливает выполнение из строки.
func (r *executionRecord) decode() (*domain.FlowExecution, error) {
	exec := &domain.FlowExecution{
		ID:                r.ID,
		FlowID:            r.FlowID,
		ParentExecutionID: r.ParentExecutionID,
		Trigger:           r.Trigger,
		Depth:             r.Depth,
		Status:            r.Status,
		StartedAt:         r.StartedAt,
		EndedAt:           r.EndedAt,
		InitialParams:     map[string]any{},
		NodeExecutions:    []domain.NodeExecutionData{},
	}

	if len(r.InitialParams) > 0 {
		if err := xjson.Unmarshal(r.InitialParams, &exec.InitialParams); err != nil {
			return nil, fmt.Errorf("%w: initial params: %v", ErrInvalidRecord, err)
		}
	}
	if len(r.NodeExecutions) > 0 {
		if err := xjson.Unmarshal(r.NodeExecutions, &exec.NodeExecutions); err != nil {
			return nil, fmt.Errorf("%w: node executions: %v", ErrInvalidRecord, err)
		}
	}
	if len(r.Output) > 0 {
		if err := xjson.Unmarshal(r.Output, &exec.Output); err != nil {
			return nil, fmt.Errorf("%w: output: %v", ErrInvalidRecord, err)
		}
	}
	if len(r.ErrorInfo) > 0 {
		exec.ErrorInfo = &domain.ErrorInfo{}
		if err := xjson.Unmarshal(r.ErrorInfo, exec.ErrorInfo); err != nil {
			return nil, fmt.Errorf("%w: error info: %v", ErrInvalidRecord, err)
		}
	}

	return exec, nil
}

// nullJSON сериализует значение или возвращает nil для NULL.
func nullJSON(v any, isNull bool) ([]byte, error) {
	if isNull {
		return nil, nil
	}
	return xjson.Marshal(v)
}

// cloneFlow возвращает глубокую копию flow.
func cloneFlow(flow *domain.Flow) (*domain.Flow, error) {
	rec, err := encodeFlow(flow)
	if err != nil {
		return nil, err
	}
	return rec.decode()
}

// cloneExecution возвращает глубокую копию выполнения.
func cloneExecution(exec *domain.FlowExecution) (*domain.FlowExecution, error) {
	rec, err := encodeExecution(exec)
	if err != nil {
		return nil, err
	}
	return rec.decode()
}
