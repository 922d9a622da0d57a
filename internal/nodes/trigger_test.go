package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/xjson"
)

func triggerParams() map[string]any {
	return map[string]any{
		"toolName": "get_user",
		"parameters": []any{
			map[string]any{"name": "id", "type": "string", "default": "42"},
			map[string]any{"name": "limit", "type": "integer"},
			map[string]any{"name": "verbose", "type": "boolean"},
			map[string]any{"name": "filter", "type": "object"},
			map[string]any{"name": "token", "type": "string", "required": true, "description": "API token"},
		},
	}
}

func TestTriggerNode_Defaults(t *testing.T) {
	n := NewTriggerNode()
	ec := &ExecutionContext{
		Parameters: triggerParams(),
		Input:      map[string]any{"token": "t", "extra": "dropped"},
	}

	res, err := n.Execute(context.Background(), ec)
	require.NoError(t, err)
	require.True(t, res.Success())
	assert.Equal(t, map[string]any{"id": "42", "token": "t"}, res.Output)
}

func TestTriggerNode_Coercion(t *testing.T) {
	n := NewTriggerNode()
	ec := &ExecutionContext{
		Parameters: triggerParams(),
		Input: map[string]any{
			"id":      7,
			"limit":   "10",
			"verbose": "true",
			"filter":  `{"active":true}`,
			"token":   "t",
		},
	}

	res, err := n.Execute(context.Background(), ec)
	require.NoError(t, err)

	out := res.Output.(map[string]any)
	assert.Equal(t, "7", out["id"])
	assert.Equal(t, int64(10), out["limit"])
	assert.Equal(t, true, out["verbose"])
	assert.Equal(t, map[string]any{"active": true}, out["filter"])
}

func TestTriggerNode_Errors(t *testing.T) {
	n := NewTriggerNode()

	_, err := n.Execute(context.Background(), &ExecutionContext{
		Parameters: triggerParams(),
		Input:      map[string]any{},
	})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = n.Execute(context.Background(), &ExecutionContext{
		Parameters: triggerParams(),
		Input:      map[string]any{"token": "t", "limit": "1.5"},
	})
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = n.Execute(context.Background(), &ExecutionContext{
		Parameters: map[string]any{"parameters": []any{map[string]any{"type": "string"}}},
	})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestTriggerNode_NoDeclaredParamsPassThrough(t *testing.T) {
	res, err := NewTriggerNode().Execute(context.Background(), &ExecutionContext{
		Input: map[string]any{"anything": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"anything": 1}, res.Output)
}

func TestTriggerNode_InputSchema(t *testing.T) {
	schema := NewTriggerNode().InputSchema(triggerParams())

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"token"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Len(t, props, 5)
	assert.Equal(t, map[string]any{"type": "string", "default": "42"}, props["id"])

	// Схема валидна для gojsonschema
	assert.NoError(t, ValidateAgainstSchema(schema, map[string]any{"token": "x"}))
	assert.ErrorIs(t, ValidateAgainstSchema(schema, map[string]any{}), ErrInvalidParameters)
}

func TestInvocationSchema(t *testing.T) {
	reg := DefaultRegistry(Options{})

	trigger, err := reg.Lookup(NodeTypeTrigger)
	require.NoError(t, err)
	schema := InvocationSchema(trigger, triggerParams())
	assert.Equal(t, []any{"token"}, schema["required"])
	assert.Len(t, schema["properties"], 5)

	ret, err := reg.Lookup(NodeTypeReturn)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "object"}, InvocationSchema(ret, map[string]any{"text": "x"}))
}

func TestCoerceParams_Numbers(t *testing.T) {
	specs := []ParamSpec{{Name: "n", Type: ParamTypeNumber}}

	out, err := CoerceParams(specs, map[string]any{"n": xjson.Number("2.5")})
	require.NoError(t, err)
	assert.Equal(t, 2.5, out["n"])

	_, err = CoerceParams(specs, map[string]any{"n": "abc"})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestCoerceParams_Integers(t *testing.T) {
	specs := []ParamSpec{{Name: "n", Type: ParamTypeInteger}}

	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"number above 2^53", xjson.Number("9007199254740993"), 9007199254740993},
		{"max int64", xjson.Number("9223372036854775807"), 9223372036854775807},
		{"string", "9007199254740993", 9007199254740993},
		{"whole float", 12.0, 12},
		{"exponent", xjson.Number("1e3"), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := CoerceParams(specs, map[string]any{"n": tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out["n"])
		})
	}

	for _, bad := range []any{1e300, -1e300, xjson.Number("1e19"), "9223372036854775808", 2.5} {
		_, err := CoerceParams(specs, map[string]any{"n": bad})
		assert.ErrorIs(t, err, ErrInvalidParameters, "value %v", bad)
	}
}

func TestToolName(t *testing.T) {
	node := &domain.Node{Parameters: map[string]any{"toolName": "get_user", "description": "d"}}
	assert.Equal(t, "get_user", ToolName(node))
	assert.Equal(t, "d", ToolDescription(node))
}
