package nodes

import (
	"context"
	"strings"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/engine"
	"github.com/shaiso/toolflow/internal/xjson"
)

const (
	// NodeTypeTransform — тип узла трансформации.
	NodeTypeTransform = "transform"

	// Ключ параметров.
	paramMappings = "mappings"
)

// TransformNode — преобразование результатов предыдущих узлов.
//
// Параметры:
//
//	{
//	    "mappings": {
//	        "user": "{{apiCall.body}}",
//	        "greeting": "Hello, {{apiCall.body.name}}",
//	        "count": "{{apiCall.body.total}}"
//	    }
//	}
//
// Значение, целиком состоящее из одного плейсхолдера, сохраняет исходный тип.
// Остальные значения разрешаются как строки и затем, если возможно, парсятся как JSON.
type TransformNode struct{}

// NewTransformNode создаёт TransformNode.
func NewTransformNode() *TransformNode {
	return &TransformNode{}
}

// Type возвращает тип узла.
func (n *TransformNode) Type() string {
	return NodeTypeTransform
}

// Definition возвращает контракт типа.
func (n *TransformNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{
		Name:        NodeTypeTransform,
		DisplayName: "Transform",
		Description: "Reshapes upstream outputs into a new object.",
		Inputs:      []string{"main"},
		Outputs:     []string{"main"},
		DefaultParameters: map[string]any{
			paramMappings: map[string]any{},
		},
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				paramMappings: map[string]any{"type": "object"},
			},
		},
	}
}

// Execute выполняет трансформацию.
func (n *TransformNode) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	raw := GetMap(ec.RawParameters, paramMappings)
	resolved := GetMap(ec.Parameters, paramMappings)
	if len(resolved) == 0 {
		return Succeeded(map[string]any{}), nil
	}

	values := ec.TemplateValues()
	outputs := make(map[string]any, len(resolved))

	for key, value := range resolved {
		if tmpl, ok := raw[key].(string); ok {
			if path, single := engine.SinglePlaceholder(tmpl); single {
				if v, found := engine.LookupPath(values, path); found {
					outputs[key] = v
					continue
				}
			}
		}

		if s, ok := value.(string); ok {
			outputs[key] = parseValue(s)
		} else {
			outputs[key] = value
		}
	}

	return Succeeded(outputs), nil
}

// parseValue пытается распарсить строку как JSON.
// Если не получается — возвращает строку как есть.
func parseValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	switch trimmed[0] {
	case '{', '[', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v any
		if err := xjson.UnmarshalNumbers([]byte(trimmed), &v); err == nil {
			return v
		}
	}

	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}

	return value
}
