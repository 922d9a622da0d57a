package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/shaiso/toolflow/internal/domain"
)

// subCaller реализует nodes.FlowCaller для одного вызова.
// Вложенный flow выполняется синхронно тем же Orchestrator.
type subCaller struct {
	o      *Orchestrator
	parent *domain.FlowExecution
	inv    invocation
}

// CallFlow выполняет вложенный flow и возвращает его результат.
func (c *subCaller) CallFlow(ctx context.Context, flowID, trigger string, params map[string]any) (any, error) {
	depth := c.inv.depth + 1
	if depth > c.o.maxDepth {
		return nil, fmt.Errorf("%w: depth %d, limit %d", ErrMaxDepthExceeded, depth, c.o.maxDepth)
	}
	if slices.Contains(c.inv.stack, flowID) {
		return nil, fmt.Errorf("%w: %s", ErrRecursiveFlowCall, flowID)
	}

	parentID := c.parent.ID
	child, err := c.o.invoke(ctx, invocation{
		flowID:   flowID,
		trigger:  trigger,
		params:   params,
		parentID: &parentID,
		depth:    depth,
		stack:    c.inv.stack,
	})
	if err != nil {
		return nil, err
	}

	if child.Status != domain.ExecutionStatusFulfilled {
		info := domain.ErrorInfo{Kind: domain.ErrorKindNodeFailure, Message: "sub-flow did not complete"}
		if child.ErrorInfo != nil {
			info = *child.ErrorInfo
		}
		return nil, &SubFlowError{
			FlowID:      flowID,
			ExecutionID: child.ID.String(),
			Info:        info,
		}
	}

	return child.Output, nil
}
