package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/mq"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/orchestrator"
	"github.com/shaiso/toolflow/internal/repo"
	"github.com/shaiso/toolflow/internal/xjson"
)

// fakePublisher запоминает поставленные в очередь вызовы.
type fakePublisher struct {
	mu       sync.Mutex
	payloads []mq.InvocationRequestedPayload
	err      error
}

func (p *fakePublisher) PublishInvocationRequested(_ context.Context, payload mq.InvocationRequestedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

// stubTransport отвечает на все запросы api_call одним JSON.
type stubTransport struct{}

func (stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"name":"Ada"}`)),
	}, nil
}

type testServer struct {
	mux        *http.ServeMux
	flows      *repo.MemoryFlowStore
	executions *repo.MemoryExecutionStore
	publisher  *fakePublisher
}

func newTestServer(t *testing.T, flows ...*domain.Flow) *testServer {
	t.Helper()

	flowStore, err := repo.NewMemoryFlowStore(flows...)
	require.NoError(t, err)
	executions := repo.NewMemoryExecutionStore()
	registry := nodes.DefaultRegistry(nodes.Options{Transport: stubTransport{}})

	orch := orchestrator.New(orchestrator.Config{
		Flows:    flowStore,
		Registry: registry,
		Recorder: executions,
	})
	pub := &fakePublisher{}

	h := NewHandler(Config{
		Flows:      flowStore,
		Executions: executions,
		Registry:   registry,
		Invoker:    orch,
		Publisher:  pub,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &testServer{mux: mux, flows: flowStore, executions: executions, publisher: pub}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// envelope разбирает {"data": ...} в T.
func envelope[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, xjson.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, xjson.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func conn(from, to string) domain.Connection {
	return domain.Connection{ID: from + "-" + to, SourceNodeID: from, SourceHandle: "main", TargetNodeID: to, TargetHandle: "main"}
}

// userFlow: trigger → apiCall → result.
func userFlow() *domain.Flow {
	return &domain.Flow{
		ID:       "users",
		Name:     "Users",
		IsActive: true,
		Nodes: []domain.Node{
			{ID: "n1", Slug: "trigger", Type: nodes.NodeTypeTrigger, Parameters: map[string]any{"toolName": "get_user"}},
			{ID: "n2", Slug: "apiCall", Type: nodes.NodeTypeAPICall, Parameters: map[string]any{"url": "https://api.example.com/users/1"}},
			{ID: "n3", Slug: "result", Type: nodes.NodeTypeReturn, Parameters: map[string]any{"text": "User: {{apiCall.body.name}}"}},
		},
		Connections: []domain.Connection{conn("n1", "n2"), conn("n2", "n3")},
	}
}

const userFlowBody = `{
	"name": "Users",
	"nodes": [
		{"id": "n1", "slug": "trigger", "type": "trigger", "parameters": {"toolName": "get_user"}},
		{"id": "n2", "slug": "apiCall", "type": "api_call", "parameters": {"url": "https://api.example.com/users/1"}},
		{"id": "n3", "slug": "result", "type": "return", "parameters": {"text": "User: {{apiCall.body.name}}"}}
	],
	"connections": [
		{"source_node_id": "n1", "source_handle": "main", "target_node_id": "n2", "target_handle": "main"},
		{"source_node_id": "n2", "source_handle": "main", "target_node_id": "n3", "target_handle": "main"}
	]
}`

// --- Node types ---

func TestListNodeTypes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/node-types", "")
	require.Equal(t, http.StatusOK, rec.Code)

	defs := envelope[[]domain.NodeTypeDefinition](t, rec)
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, nodes.NodeTypeTrigger)
	assert.Contains(t, names, nodes.NodeTypeAPICall)
	assert.Contains(t, names, nodes.NodeTypeReturn)
}

// --- Flows ---

func TestPutFlow_CreatesAndGets(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/flows/users", userFlowBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := s.flows.GetFlow(context.Background(), "users")
	require.NoError(t, err)
	assert.True(t, saved.IsActive)
	assert.Len(t, saved.Nodes, 3)

	rec = s.do(t, http.MethodGet, "/api/v1/flows/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := envelope[domain.Flow](t, rec)
	assert.Equal(t, "users", got.ID)
	assert.Equal(t, "Users", got.Name)

	rec = s.do(t, http.MethodGet, "/api/v1/flows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := envelope[[]FlowSummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].NodeCount)
}

func TestPutFlow_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   ErrorCode
	}{
		{
			name:   "malformed json",
			body:   `{"nodes": [`,
			status: http.StatusBadRequest,
			code:   ErrCodeBadRequest,
		},
		{
			name:   "unknown node type",
			body:   `{"nodes": [{"id": "a", "slug": "a", "type": "teleport"}]}`,
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeValidationFailed,
		},
		{
			name: "cycle",
			body: `{"nodes": [
				{"id": "a", "slug": "a", "type": "transform"},
				{"id": "b", "slug": "b", "type": "transform"}
			], "connections": [
				{"source_node_id": "a", "target_node_id": "b"},
				{"source_node_id": "b", "target_node_id": "a"}
			]}`,
			status: http.StatusConflict,
			code:   ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPut, "/api/v1/flows/bad", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec).Code)

			_, err := s.flows.GetFlow(context.Background(), "bad")
			assert.ErrorIs(t, err, repo.ErrNotFound)
		})
	}
}

func TestGetFlow_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/flows/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, errorCode(t, rec).Code)
}

// --- Graph editing ---

func TestAddConnection(t *testing.T) {
	flow := userFlow()
	flow.Connections = flow.Connections[:1]
	s := newTestServer(t, flow)

	rec := s.do(t, http.MethodPost, "/api/v1/flows/users/connections",
		`{"source_node_id": "n2", "source_handle": "main", "target_node_id": "n3", "target_handle": "main"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	saved, err := s.flows.GetFlow(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, saved.Connections, 2)
	assert.NotEmpty(t, saved.Connections[1].ID)
}

func TestAddConnection_CycleConflict(t *testing.T) {
	flow := &domain.Flow{
		ID:       "loop",
		IsActive: true,
		Nodes: []domain.Node{
			{ID: "a", Slug: "a", Type: nodes.NodeTypeTransform},
			{ID: "b", Slug: "b", Type: nodes.NodeTypeTransform},
		},
		Connections: []domain.Connection{conn("a", "b")},
	}
	s := newTestServer(t, flow)

	rec := s.do(t, http.MethodPost, "/api/v1/flows/loop/connections",
		`{"source_node_id": "b", "source_handle": "main", "target_node_id": "a", "target_handle": "main"}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "a", errorCode(t, rec).NodeID)

	saved, err := s.flows.GetFlow(context.Background(), "loop")
	require.NoError(t, err)
	assert.Len(t, saved.Connections, 1)
}

func TestAddConnection_MissingField(t *testing.T) {
	s := newTestServer(t, userFlow())
	rec := s.do(t, http.MethodPost, "/api/v1/flows/users/connections", `{"source_node_id": "n1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorCode(t, rec).Message, "targetnodeid is required")
}

func TestUpstreamDownstream(t *testing.T) {
	s := newTestServer(t, userFlow())

	rec := s.do(t, http.MethodGet, "/api/v1/flows/users/nodes/n3/upstream", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"n1", "n2"}, envelope[NeighborsResponse](t, rec).NodeIDs)

	rec = s.do(t, http.MethodGet, "/api/v1/flows/users/nodes/n1/downstream", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"n2", "n3"}, envelope[NeighborsResponse](t, rec).NodeIDs)

	rec = s.do(t, http.MethodGet, "/api/v1/flows/users/nodes/zz/upstream", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenameNode(t *testing.T) {
	s := newTestServer(t, userFlow())

	rec := s.do(t, http.MethodPut, "/api/v1/flows/users/nodes/n2/slug", `{"slug": "fetchUser"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, envelope[RewriteResponse](t, rec).UpdatedReferences)

	saved, err := s.flows.GetFlow(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, "fetchUser", saved.NodeByID("n2").Slug)
	assert.Equal(t, "User: {{fetchUser.body.name}}", saved.NodeByID("n3").Parameters["text"])
}

func TestRenameNode_DuplicateSlug(t *testing.T) {
	s := newTestServer(t, userFlow())
	rec := s.do(t, http.MethodPut, "/api/v1/flows/users/nodes/n2/slug", `{"slug": "result"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMigrateReferences(t *testing.T) {
	flow := userFlow()
	flow.Nodes[2].Parameters["text"] = "User: {{n2.body.name}}"
	s := newTestServer(t, flow)

	rec := s.do(t, http.MethodPost, "/api/v1/flows/users/migrate-references", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, envelope[RewriteResponse](t, rec).UpdatedReferences)

	saved, err := s.flows.GetFlow(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, "User: {{apiCall.body.name}}", saved.NodeByID("n3").Parameters["text"])
}

// --- Invocation ---

func TestInvokeFlow_Sync(t *testing.T) {
	s := newTestServer(t, userFlow())

	rec := s.do(t, http.MethodPost, "/api/v1/flows/users/invoke", `{"trigger": "get_user"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	exec := envelope[domain.FlowExecution](t, rec)
	assert.Equal(t, domain.ExecutionStatusFulfilled, exec.Status)
	assert.Equal(t, map[string]any{"text": "User: Ada"}, exec.Output)
	assert.Len(t, exec.NodeExecutions, 3)

	saved, err := s.executions.GetByID(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusFulfilled, saved.Status)
}

func TestInvokeFlow_ErrorExecutionIs200(t *testing.T) {
	s := newTestServer(t, userFlow())

	rec := s.do(t, http.MethodPost, "/api/v1/flows/users/invoke", `{"trigger": "nope"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	exec := envelope[domain.FlowExecution](t, rec)
	assert.Equal(t, domain.ExecutionStatusError, exec.Status)
	require.NotNil(t, exec.ErrorInfo)
	assert.Equal(t, domain.ErrorKindTriggerNotFound, exec.ErrorInfo.Kind)
}

func TestInvokeFlow_NotFoundAndInactive(t *testing.T) {
	inactive := userFlow()
	inactive.ID = "off"
	inactive.IsActive = false
	s := newTestServer(t, inactive)

	rec := s.do(t, http.MethodPost, "/api/v1/flows/nope/invoke", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/flows/off/invoke", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvokeFlow_Async(t *testing.T) {
	s := newTestServer(t, userFlow())

	rec := s.do(t, http.MethodPost, "/api/v1/flows/users/invoke?async=true", `{"params": {"id": 7}}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	accepted := envelope[InvokeAcceptedResponse](t, rec)
	assert.NotEqual(t, uuid.Nil, accepted.RequestID)

	require.Len(t, s.publisher.payloads, 1)
	assert.Equal(t, accepted.RequestID, s.publisher.payloads[0].RequestID)
	assert.Equal(t, "users", s.publisher.payloads[0].FlowID)
	assert.Equal(t, xjson.Number("7"), s.publisher.payloads[0].Params["id"])

	execs, err := s.executions.List(context.Background(), repo.ExecutionFilter{})
	require.NoError(t, err)
	assert.Empty(t, execs)
}

func TestInvokeFlow_AsyncFailures(t *testing.T) {
	s := newTestServer(t, userFlow())

	rec := s.do(t, http.MethodPost, "/api/v1/flows/nope/invoke?async=true", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.publisher.err = errors.New("channel closed")
	rec = s.do(t, http.MethodPost, "/api/v1/flows/users/invoke?async=true", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// --- Executions ---

func TestExecutions_ListAndGet(t *testing.T) {
	s := newTestServer(t, userFlow())

	s.do(t, http.MethodPost, "/api/v1/flows/users/invoke", `{"trigger": "get_user"}`)
	s.do(t, http.MethodPost, "/api/v1/flows/users/invoke", `{"trigger": "nope"}`)

	rec := s.do(t, http.MethodGet, "/api/v1/executions?flow_id=users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, envelope[[]ExecutionSummary](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/v1/executions?status=error", "")
	require.Equal(t, http.StatusOK, rec.Code)
	failed := envelope[[]ExecutionSummary](t, rec)
	require.Len(t, failed, 1)
	assert.Equal(t, domain.ErrorKindTriggerNotFound, failed[0].ErrorKind)

	rec = s.do(t, http.MethodGet, "/api/v1/executions/"+failed[0].ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, failed[0].ID, envelope[domain.FlowExecution](t, rec).ID)
}

func TestExecutions_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/executions?status=bogus", http.StatusBadRequest},
		{"/api/v1/executions?limit=x", http.StatusBadRequest},
		{"/api/v1/executions/not-a-uuid", http.StatusBadRequest},
		{"/api/v1/executions/" + uuid.NewString(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.status, s.do(t, http.MethodGet, tt.path, "").Code)
		})
	}
}

// --- Middleware ---

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Chain(Recovery(logger), Logging(logger), Metrics())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternalError, errorCode(t, rec).Code)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(mark("a"), mark("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
