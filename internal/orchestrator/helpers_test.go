package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/nodes"
)

var errFlowNotFound = errors.New("flow not found")

// memFlows — FlowSource в памяти.
type memFlows map[string]*domain.Flow

func (m memFlows) GetFlow(_ context.Context, id string) (*domain.Flow, error) {
	f, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errFlowNotFound, id)
	}
	return f, nil
}

// memRecorder запоминает сохранённые выполнения.
type memRecorder struct {
	mu    sync.Mutex
	saved []*domain.FlowExecution
	err   error
}

func (r *memRecorder) Save(_ context.Context, exec *domain.FlowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, exec)
	return r.err
}

// roundTripperFunc — заглушка транспорта api_call.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// scriptedNode — тип узла с заданным поведением.
type scriptedNode struct {
	name string
	run  func(ec *nodes.ExecutionContext) (*nodes.Result, error)
}

func (n *scriptedNode) Type() string { return n.name }

func (n *scriptedNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{Name: n.name, Inputs: []string{"main"}, Outputs: []string{"main"}}
}

func (n *scriptedNode) Execute(_ context.Context, ec *nodes.ExecutionContext) (*nodes.Result, error) {
	return n.run(ec)
}

// testRegistry — встроенные типы с заглушкой транспорта и тестовые типы.
func testRegistry(t *testing.T, transport http.RoundTripper, extra ...nodes.Node) *nodes.Registry {
	t.Helper()

	builtin := []nodes.Node{
		nodes.NewTriggerNode(),
		nodes.NewAPICallNode(nodes.Options{Transport: transport}),
		nodes.NewTransformNode(),
		nodes.NewInterfaceNode(),
		nodes.NewReturnNode(),
		nodes.NewCallFlowNode(),
	}
	reg, err := nodes.NewRegistry(append(builtin, extra...)...)
	require.NoError(t, err)
	return reg
}

func link(from, to string) domain.Connection {
	return domain.Connection{
		ID:           from + "-" + to,
		SourceNodeID: from,
		SourceHandle: "main",
		TargetNodeID: to,
		TargetHandle: "main",
	}
}

func triggerNode(id string, params map[string]any) domain.Node {
	return domain.Node{ID: id, Slug: id, Type: nodes.NodeTypeTrigger, Parameters: params}
}

// userFlow: UserIntent → ApiCall → Return.
func userFlow(url string) *domain.Flow {
	return &domain.Flow{
		ID:       "users",
		Name:     "Users",
		IsActive: true,
		Nodes: []domain.Node{
			{
				ID: "n1", Slug: "trigger", Type: nodes.NodeTypeTrigger, Name: "UserIntent",
				Parameters: map[string]any{
					"toolName": "get_user",
					"parameters": []any{
						map[string]any{"name": "id", "type": "string", "default": "42"},
					},
				},
			},
			{
				ID: "n2", Slug: "apiCall", Type: nodes.NodeTypeAPICall, Name: "ApiCall",
				Parameters: map[string]any{"url": url},
			},
			{
				ID: "n3", Slug: "result", Type: nodes.NodeTypeReturn, Name: "Return",
				Parameters: map[string]any{"text": "User: {{apiCall.body.name}}"},
			},
		},
		Connections: []domain.Connection{link("n1", "n2"), link("n2", "n3")},
	}
}

// callerFlow — триггер, затем call_flow на target, затем return.
func callerFlow(id, target string) *domain.Flow {
	return &domain.Flow{
		ID:       id,
		IsActive: true,
		Nodes: []domain.Node{
			triggerNode("start", nil),
			{
				ID: "call", Slug: "call", Type: nodes.NodeTypeCallFlow, Name: "Call " + target,
				Parameters: map[string]any{
					"flowId":     target,
					"parameters": map[string]any{"from": id},
				},
			},
			{
				ID: "done", Slug: "done", Type: nodes.NodeTypeReturn,
				Parameters: map[string]any{"nested": "{{call}}"},
			},
		},
		Connections: []domain.Connection{link("start", "call"), link("call", "done")},
	}
}
