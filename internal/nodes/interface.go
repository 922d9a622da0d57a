package nodes

import (
	"context"

	"github.com/shaiso/toolflow/internal/domain"
)

// NodeTypeInterface — тип узла отображения в UI.
const NodeTypeInterface = "interface"

// InterfaceNode описывает, как показать данные пользователю.
//
// Параметры:
//
//	{"component": "card", "props": {"title": "{{apiCall.body.name}}"}}
//
// Output: {"component": "card", "props": {...}} с разрешёнными props.
type InterfaceNode struct{}

// NewInterfaceNode создаёт InterfaceNode.
func NewInterfaceNode() *InterfaceNode {
	return &InterfaceNode{}
}

// Type возвращает тип узла.
func (n *InterfaceNode) Type() string {
	return NodeTypeInterface
}

// Definition возвращает контракт типа.
func (n *InterfaceNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{
		Name:        NodeTypeInterface,
		DisplayName: "Interface",
		Description: "Describes a UI component rendered from upstream data.",
		Inputs:      []string{"main"},
		Outputs:     []string{"main"},
		DefaultParameters: map[string]any{
			"component": "text",
			"props":     map[string]any{},
		},
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"component"},
			"properties": map[string]any{
				"component": map[string]any{"type": "string", "minLength": 1},
				"props":     map[string]any{"type": "object"},
			},
		},
	}
}

// Execute возвращает описание компонента.
func (n *InterfaceNode) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	props := GetMap(ec.Parameters, "props")
	if props == nil {
		props = map[string]any{}
	}

	return Succeeded(map[string]any{
		"component": GetString(ec.Parameters, "component"),
		"props":     props,
	}), nil
}
