package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

// DefaultAPIURL — адрес API по умолчанию.
const DefaultAPIURL = "http://localhost:8080"

// --- Response types (дублируются из api/dto.go, клиент не импортирует internal/api) ---

// FlowSummary — flow в списке.
type FlowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	NodeCount   int       `json:"node_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExecutionSummary — выполнение в списке.
type ExecutionSummary struct {
	ID                string                 `json:"id"`
	FlowID            string                 `json:"flow_id"`
	Trigger           string                 `json:"trigger,omitempty"`
	ParentExecutionID string                 `json:"parent_execution_id,omitempty"`
	Depth             int                    `json:"depth"`
	Status            domain.ExecutionStatus `json:"status"`
	ErrorKind         domain.ErrorKind       `json:"error_kind,omitempty"`
	NodeCount         int                    `json:"node_count"`
	StartedAt         time.Time              `json:"started_at"`
	DurationMs        int64                  `json:"duration_ms"`
}

// InvokeAccepted — вызов поставлен в очередь.
type InvokeAccepted struct {
	RequestID string `json:"request_id"`
	FlowID    string `json:"flow_id"`
}

// RewriteResult — flow после переписывания ссылок.
type RewriteResult struct {
	Flow              *domain.Flow `json:"flow"`
	UpdatedReferences int          `json:"updated_references"`
}

// --- Request types ---

// InvokeRequest — параметры вызова.
type InvokeRequest struct {
	Trigger string         `json:"trigger,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// ListExecutionsOpts — параметры фильтрации выполнений.
type ListExecutionsOpts struct {
	FlowID string
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data xjson.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ответ API с кодом ошибки.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для toolflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithHTTPClient заменяет HTTP-клиент (для тестов).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// --- Node types ---

// ListNodeTypes возвращает типы узлов, известные серверу.
func (c *Client) ListNodeTypes(ctx context.Context) ([]domain.NodeTypeDefinition, error) {
	var defs []domain.NodeTypeDefinition
	err := c.get(ctx, "/api/v1/node-types", &defs)
	return defs, err
}

// --- Flows ---

// ListFlows возвращает все flows.
func (c *Client) ListFlows(ctx context.Context) ([]FlowSummary, error) {
	var flows []FlowSummary
	err := c.get(ctx, "/api/v1/flows", &flows)
	return flows, err
}

// GetFlow возвращает flow по ID.
func (c *Client) GetFlow(ctx context.Context, id string) (*domain.Flow, error) {
	var flow domain.Flow
	if err := c.get(ctx, "/api/v1/flows/"+url.PathEscape(id), &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// PutFlow создаёт или заменяет flow.
func (c *Client) PutFlow(ctx context.Context, flow *domain.Flow) (*domain.Flow, error) {
	body := map[string]any{
		"name":        flow.Name,
		"description": flow.Description,
		"is_active":   flow.IsActive,
		"nodes":       flow.Nodes,
		"connections": flow.Connections,
	}
	var saved domain.Flow
	if err := c.do(ctx, http.MethodPut, "/api/v1/flows/"+url.PathEscape(flow.ID), body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// RenameNode меняет slug узла на сервере.
func (c *Client) RenameNode(ctx context.Context, flowID, nodeID, slug string) (*RewriteResult, error) {
	path := fmt.Sprintf("/api/v1/flows/%s/nodes/%s/slug", url.PathEscape(flowID), url.PathEscape(nodeID))
	var result RewriteResult
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"slug": slug}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Invocation ---

// Invoke синхронно вызывает flow.
func (c *Client) Invoke(ctx context.Context, flowID string, req InvokeRequest) (*domain.FlowExecution, error) {
	var exec domain.FlowExecution
	if err := c.do(ctx, http.MethodPost, "/api/v1/flows/"+url.PathEscape(flowID)+"/invoke", req, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// InvokeAsync ставит вызов flow в очередь.
func (c *Client) InvokeAsync(ctx context.Context, flowID string, req InvokeRequest) (*InvokeAccepted, error) {
	var accepted InvokeAccepted
	if err := c.do(ctx, http.MethodPost, "/api/v1/flows/"+url.PathEscape(flowID)+"/invoke?async=true", req, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// --- Executions ---

// GetExecution возвращает выполнение с трассой узлов.
func (c *Client) GetExecution(ctx context.Context, id string) (*domain.FlowExecution, error) {
	var exec domain.FlowExecution
	if err := c.get(ctx, "/api/v1/executions/"+url.PathEscape(id), &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// ListExecutions возвращает выполнения с фильтрацией.
func (c *Client) ListExecutions(ctx context.Context, opts ListExecutionsOpts) ([]ExecutionSummary, error) {
	params := url.Values{}
	if opts.FlowID != "" {
		params.Set("flow_id", opts.FlowID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/v1/executions"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var execs []ExecutionSummary
	err := c.get(ctx, path, &execs)
	return execs, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := xjson.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er errorResponse
		if xjson.Unmarshal(data, &er) == nil {
			apiErr.Code = er.Error.Code
			apiErr.Message = er.Error.Message
		}
		return apiErr
	}

	if result == nil {
		return nil
	}

	var dr dataResponse
	if err := xjson.Unmarshal(data, &dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return xjson.Unmarshal(dr.Data, result)
}
