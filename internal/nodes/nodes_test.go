package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/toolflow/internal/xjson"
)

// stubValues — результаты узлов для тестов.
type stubValues map[string]any

func (s stubValues) NodeValue(nodeID string) (any, bool) {
	v, ok := s[nodeID]
	return v, ok
}

func (s stubValues) TemplateValues() map[string]any {
	return s
}

// --- Transform ---

func TestTransformNode(t *testing.T) {
	values := stubValues{"apiCall": map[string]any{"body": map[string]any{"name": "Ada", "tags": []any{"x"}}}}

	res, err := NewTransformNode().Execute(context.Background(), &ExecutionContext{
		RawParameters: map[string]any{"mappings": map[string]any{
			"tags":     "{{apiCall.body.tags}}",
			"greeting": "Hello, {{apiCall.body.name}}",
			"count":    "{{ghost.count}}",
		}},
		Parameters: map[string]any{"mappings": map[string]any{
			"tags":     `["x"]`,
			"greeting": "Hello, Ada",
			"count":    "{{ghost.count}}",
			"number":   "12",
			"flag":     "false",
			"obj":      `{"a":1}`,
		}},
		Values: values,
	})
	require.NoError(t, err)

	out := res.Output.(map[string]any)
	assert.Equal(t, []any{"x"}, out["tags"])
	assert.Equal(t, "Hello, Ada", out["greeting"])
	assert.Equal(t, "{{ghost.count}}", out["count"])
	assert.Equal(t, xjson.Number("12"), out["number"])
	assert.Equal(t, false, out["flag"])
	assert.Len(t, out["obj"], 1)
}

func TestTransformNode_Empty(t *testing.T) {
	res, err := NewTransformNode().Execute(context.Background(), &ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, res.Output)
}

func TestTransformNode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTransformNode().Execute(ctx, &ExecutionContext{})
	assert.ErrorIs(t, err, ErrNodeCancelled)
}

// --- Interface / Return ---

func TestInterfaceNode(t *testing.T) {
	res, err := NewInterfaceNode().Execute(context.Background(), &ExecutionContext{Parameters: map[string]any{
		"component": "card",
		"props":     map[string]any{"title": "Ada"},
	}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"component": "card", "props": map[string]any{"title": "Ada"}}, res.Output)
}

func TestReturnNode(t *testing.T) {
	params := map[string]any{"text": "User: Ada"}
	res, err := NewReturnNode().Execute(context.Background(), &ExecutionContext{Parameters: params})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "User: Ada"}, res.Output)
}

// --- CallFlow ---

type stubCaller struct {
	flowID, trigger string
	params          map[string]any
	output          any
	err             error
}

func (s *stubCaller) CallFlow(_ context.Context, flowID, trigger string, params map[string]any) (any, error) {
	s.flowID, s.trigger, s.params = flowID, trigger, params
	return s.output, s.err
}

func TestCallFlowNode(t *testing.T) {
	caller := &stubCaller{output: map[string]any{"text": "done"}}

	res, err := NewCallFlowNode().Execute(context.Background(), &ExecutionContext{
		Parameters: map[string]any{
			"flowId":     "child",
			"trigger":    "start",
			"parameters": map[string]any{"id": "42"},
		},
		Flows: caller,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "done"}, res.Output)
	assert.Equal(t, "child", caller.flowID)
	assert.Equal(t, "start", caller.trigger)
	assert.Equal(t, map[string]any{"id": "42"}, caller.params)
}

func TestCallFlowNode_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewCallFlowNode().Execute(context.Background(), &ExecutionContext{
		Parameters: map[string]any{"flowId": "child"},
		Flows:      &stubCaller{err: boom},
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewCallFlowNode().Execute(context.Background(), &ExecutionContext{
		Parameters: map[string]any{"flowId": "child"},
	})
	assert.ErrorIs(t, err, ErrNoFlowCaller)

	_, err = NewCallFlowNode().Execute(context.Background(), &ExecutionContext{
		Parameters: map[string]any{},
		Flows:      &stubCaller{},
	})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

// --- Helpers ---

func TestMergeParameters(t *testing.T) {
	merged := MergeParameters(
		map[string]any{"method": "GET", "headers": map[string]any{"Accept": "json"}, "keep": 1},
		map[string]any{"method": "POST", "headers": map[string]any{"X": "y"}},
	)
	assert.Equal(t, map[string]any{
		"method":  "POST",
		"headers": map[string]any{"Accept": "json", "X": "y"},
		"keep":    1,
	}, merged)
}

func TestGetters(t *testing.T) {
	params := map[string]any{"s": "x", "i": float64(3), "b": "true", "m": map[string]any{"k": "v", "n": 1}}
	assert.Equal(t, "x", GetString(params, "s"))
	assert.Equal(t, 3, GetInt(params, "i"))
	assert.True(t, GetBool(params, "b", false))
	assert.True(t, GetBool(params, "missing", true))
	assert.Equal(t, map[string]string{"k": "v"}, GetStringMap(params, "m"))
}
