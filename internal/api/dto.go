package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/toolflow/internal/domain"
)

// Flow DTOs

// PutFlowRequest — запрос на создание или замену flow.
// ID берётся из пути.
type PutFlowRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	IsActive    *bool               `json:"is_active,omitempty"`
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

// ToDomain строит flow с заданным ID. IsActive по умолчанию true.
func (r PutFlowRequest) ToDomain(id string) *domain.Flow {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.Flow{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    active,
		Nodes:       r.Nodes,
		Connections: r.Connections,
	}
}

// FlowSummary — flow в списке.
type FlowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	NodeCount   int       `json:"node_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FlowSummaryFromDomain конвертирует domain.Flow в FlowSummary.
func FlowSummaryFromDomain(f domain.Flow) FlowSummary {
	return FlowSummary{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		IsActive:    f.IsActive,
		NodeCount:   len(f.Nodes),
		UpdatedAt:   f.UpdatedAt,
	}
}

// Graph DTOs

// AddConnectionRequest — новая связь.
type AddConnectionRequest struct {
	ID           string `json:"id,omitempty"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// ToDomain конвертирует запрос в domain.Connection.
func (r AddConnectionRequest) ToDomain() domain.Connection {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return domain.Connection{
		ID:           id,
		SourceNodeID: r.SourceNodeID,
		SourceHandle: r.SourceHandle,
		TargetNodeID: r.TargetNodeID,
		TargetHandle: r.TargetHandle,
	}
}

// NeighborsResponse — предки или потомки узла.
type NeighborsResponse struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

// RenameNodeRequest — новый slug узла.
type RenameNodeRequest struct {
	Slug string `json:"slug" validate:"required"`
}

// RewriteResponse — flow после переписывания ссылок.
type RewriteResponse struct {
	Flow              *domain.Flow `json:"flow"`
	UpdatedReferences int          `json:"updated_references"`
}

// Invocation DTOs

// InvokeRequest — параметры вызова flow.
type InvokeRequest struct {
	Trigger string         `json:"trigger,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// InvokeAcceptedResponse — вызов поставлен в очередь.
type InvokeAcceptedResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	FlowID    string    `json:"flow_id"`
}

// Execution DTOs

// ExecutionSummary — выполнение в списке, без трассы узлов.
type ExecutionSummary struct {
	ID                uuid.UUID              `json:"id"`
	FlowID            string                 `json:"flow_id"`
	Trigger           string                 `json:"trigger,omitempty"`
	ParentExecutionID *uuid.UUID             `json:"parent_execution_id,omitempty"`
	Depth             int                    `json:"depth"`
	Status            domain.ExecutionStatus `json:"status"`
	ErrorKind         domain.ErrorKind       `json:"error_kind,omitempty"`
	NodeCount         int                    `json:"node_count"`
	StartedAt         time.Time              `json:"started_at"`
	EndedAt           *time.Time             `json:"ended_at,omitempty"`
	DurationMs        int64                  `json:"duration_ms"`
}

// ExecutionSummaryFromDomain конвертирует domain.FlowExecution в ExecutionSummary.
func ExecutionSummaryFromDomain(e domain.FlowExecution) ExecutionSummary {
	s := ExecutionSummary{
		ID:                e.ID,
		FlowID:            e.FlowID,
		Trigger:           e.Trigger,
		ParentExecutionID: e.ParentExecutionID,
		Depth:             e.Depth,
		Status:            e.Status,
		NodeCount:         len(e.NodeExecutions),
		StartedAt:         e.StartedAt,
		EndedAt:           e.EndedAt,
		DurationMs:        e.Duration().Milliseconds(),
	}
	if e.ErrorInfo != nil {
		s.ErrorKind = e.ErrorInfo.Kind
	}
	return s
}
