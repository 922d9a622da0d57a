package nodes

import (
	"context"
	"fmt"

	"github.com/shaiso/toolflow/internal/domain"
)

const (
	// NodeTypeCallFlow — тип узла вложенного вызова flow.
	NodeTypeCallFlow = "call_flow"

	paramFlowID  = "flowId"
	paramTrigger = "trigger"
)

// CallFlowNode синхронно вызывает другой flow.
//
// Параметры:
//
//	{
//	    "flowId": "lookup-user",
//	    "trigger": "by_id",
//	    "parameters": {"id": "{{trigger.id}}"}
//	}
//
// Output: результат вложенного flow. Ошибка вложенного flow — ошибка узла.
type CallFlowNode struct{}

// NewCallFlowNode создаёт CallFlowNode.
func NewCallFlowNode() *CallFlowNode {
	return &CallFlowNode{}
}

// Type возвращает тип узла.
func (n *CallFlowNode) Type() string {
	return NodeTypeCallFlow
}

// Definition возвращает контракт типа.
func (n *CallFlowNode) Definition() domain.NodeTypeDefinition {
	return domain.NodeTypeDefinition{
		Name:        NodeTypeCallFlow,
		DisplayName: "Call Flow",
		Description: "Invokes another flow and waits for its result.",
		Inputs:      []string{"main"},
		Outputs:     []string{"main"},
		DefaultParameters: map[string]any{
			paramParameters: map[string]any{},
		},
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{paramFlowID},
			"properties": map[string]any{
				paramFlowID:     map[string]any{"type": "string", "minLength": 1},
				paramTrigger:    map[string]any{"type": "string"},
				paramParameters: map[string]any{"type": "object"},
			},
		},
	}
}

// Execute вызывает flow и возвращает его результат.
func (n *CallFlowNode) Execute(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	flowID := GetString(ec.Parameters, paramFlowID)
	if flowID == "" {
		return nil, fmt.Errorf("%w: %s: flowId is required", ErrInvalidParameters, NodeTypeCallFlow)
	}

	output, err := ec.CallFlow(ctx, flowID, GetString(ec.Parameters, paramTrigger), GetMap(ec.Parameters, paramParameters))
	if err != nil {
		return nil, fmt.Errorf("call flow %s: %w", flowID, err)
	}

	return Succeeded(output), nil
}
