package nodes

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/xjson"
)

const (
	// NodeTypeTrigger — тип узла-триггера.
	NodeTypeTrigger = "trigger"

	// Ключи параметров триггера.
	paramToolName    = "toolName"
	paramDescription = "description"
	paramParameters  = "parameters"
)

// Типы параметров триггера.
const (
	ParamTypeString  = "string"
	ParamTypeNumber  = "number"
	ParamTypeInteger = "integer"
	ParamTypeBoolean = "boolean"
	ParamTypeObject  = "object"
	ParamTypeArray   = "array"
)

// ParamSpec — объявленный параметр вызова.
type ParamSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// TriggerNode — точка входа flow.
//
// Параметры:
//
//	{
//	    "toolName": "get_user",
//	    "description": "Fetch a user by id",
//	    "parameters": [
//	        {"name": "id", "type": "string", "required": true, "default": "42"}
//	    ]
//	}
//
// Output: параметры вызова, приведённые к объявленным типам.
// Если список параметров пуст, вход передаётся без изменений.
type TriggerNode struct{}

var _ SchemaProvider = (*TriggerNode)(nil)

// NewTriggerNode создаёт TriggerNode.
func NewTriggerNode() *TriggerNode {
	return &TriggerNode{}
}

// Type возвращает тип узла.
func (n *TriggerNode) Type() string {
	return NodeTypeTrigger
}

// Definition возвращает контракт типа.
func (n *TriggerNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{
		Name:        NodeTypeTrigger,
		DisplayName: "Trigger",
		Description: "Entry point of a flow; receives the tool invocation parameters.",
		Inputs:      []string{},
		Outputs:     []string{"main"},
		DefaultParameters: map[string]any{
			paramParameters: []any{},
		},
	}
}

// Execute приводит параметры вызова к объявленным типам.
func (n *TriggerNode) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	specs, err := ParseParamSpecs(ec.Parameters)
	if err != nil {
		return nil, err
	}

	coerced, err := CoerceParams(specs, ec.Input)
	if err != nil {
		return nil, err
	}

	return Succeeded(coerced), nil
}

// InputSchema строит JSON Schema параметров вызова из объявленного списка.
func (n *TriggerNode) InputSchema(params map[string]any) map[string]any {
	specs, err := ParseParamSpecs(params)
	if err != nil {
		specs = nil
	}

	properties := make(map[string]any, len(specs))
	required := make([]any, 0)
	for _, s := range specs {
		prop := map[string]any{}
		if s.Type != "" {
			prop["type"] = s.Type
		}
		if s.Description != "" {
			prop["description"] = s.Description
		}
		if s.Default != nil {
			prop["default"] = s.Default
		}
		properties[s.Name] = prop
		if s.Required && s.Default == nil {
			required = append(required, s.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ToolName возвращает имя инструмента триггера.
func ToolName(node *domain.Node) string {
	return GetString(node.Parameters, paramToolName)
}

// ToolDescription возвращает описание инструмента триггера.
func ToolDescription(node *domain.Node) string {
	return GetString(node.Parameters, paramDescription)
}

// ParseParamSpecs извлекает список объявленных параметров.
func ParseParamSpecs(params map[string]any) ([]ParamSpec, error) {
	raw, ok := params[paramParameters]
	if !ok || raw == nil {
		return nil, nil
	}

	var specs []ParamSpec
	if err := xjson.Remarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("%w: trigger parameters: %v", ErrInvalidParameters, err)
	}

	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: trigger parameter without name", ErrInvalidParameters)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate trigger parameter %s", ErrInvalidParameters, s.Name)
		}
		seen[s.Name] = true
	}

	return specs, nil
}

// CoerceParams проверяет и приводит параметры вызова.
//
// Необъявленные параметры отбрасываются. Отсутствующий параметр берёт
// значение по умолчанию; обязательный без значения — ErrMissingParameter.
func CoerceParams(specs []ParamSpec, input map[string]any) (map[string]any, error) {
	if len(specs) == 0 {
		out := make(map[string]any, len(input))
		for k, v := range input {
			out[k] = v
		}
		return out, nil
	}

	out := make(map[string]any, len(specs))
	for _, s := range specs {
		value, present := input[s.Name]
		if !present || value == nil {
			if s.Default != nil {
				value = s.Default
			} else if s.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingParameter, s.Name)
			} else {
				continue
			}
		}

		coerced, err := coerce(s.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParameters, s.Name, err)
		}
		out[s.Name] = coerced
	}

	return out, nil
}

// coerce приводит значение к типу параметра.
func coerce(typ string, value any) (any, error) {
	switch typ {
	case "", "any":
		return value, nil

	case ParamTypeString:
		switch value.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return guard.Stringify(value), nil

	case ParamTypeNumber:
		f, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		return f, nil

	case ParamTypeInteger:
		return toInt64(value)

	case ParamTypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(v))
		}
		return nil, fmt.Errorf("expected boolean, got %T", value)

	case ParamTypeObject:
		switch v := value.(type) {
		case map[string]any:
			return v, nil
		case string:
			var m map[string]any
			if err := xjson.Unmarshal([]byte(v), &m); err != nil {
				return nil, fmt.Errorf("expected object: %v", err)
			}
			return m, nil
		}
		return nil, fmt.Errorf("expected object, got %T", value)

	case ParamTypeArray:
		switch v := value.(type) {
		case []any:
			return v, nil
		case string:
			var a []any
			if err := xjson.Unmarshal([]byte(v), &a); err != nil {
				return nil, fmt.Errorf("expected array: %v", err)
			}
			return a, nil
		}
		return nil, fmt.Errorf("expected array, got %T", value)

	default:
		return nil, fmt.Errorf("unknown parameter type %q", typ)
	}
}

// toInt64 приводит значение к int64 без потери точности.
// Дробные и выходящие за диапазон int64 значения отклоняются.
func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case xjson.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, nil
		}
	}

	f, err := toFloat(value)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", value)
	}
	// float64(math.MaxInt64) округляется до 2^63, граница исключена
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("integer out of range: %v", value)
	}
	return int64(f), nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case xjson.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("expected number, got %T", value)
}
