package nodes

import (
	"context"

	"github.com/shaiso/toolflow/internal/domain"
)

// NodeTypeReturn — тип терминального узла.
const NodeTypeReturn = "return"

// ReturnNode — результат flow.
//
// Параметры произвольные, например:
//
//	{"text": "User: {{apiCall.body.name}}", "data": "{{apiCall.body}}"}
//
// Output: параметры после разрешения шаблонов.
type ReturnNode struct{}

// NewReturnNode создаёт ReturnNode.
func NewReturnNode() *ReturnNode {
	return &ReturnNode{}
}

// Type возвращает тип узла.
func (n *ReturnNode) Type() string {
	return NodeTypeReturn
}

// Definition возвращает контракт типа.
func (n *ReturnNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{
		Name:        NodeTypeReturn,
		DisplayName: "Return",
		Description: "Terminal node; its output becomes the result of the flow.",
		Inputs:      []string{"main"},
		Outputs:     []string{},
	}
}

// Execute возвращает разрешённые параметры.
func (n *ReturnNode) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	output := make(map[string]any, len(ec.Parameters))
	for k, v := range ec.Parameters {
		output[k] = v
	}
	return Succeeded(output), nil
}
