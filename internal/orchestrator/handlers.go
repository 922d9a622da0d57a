package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/engine"
	"github.com/shaiso/toolflow/internal/guard"
	"github.com/shaiso/toolflow/internal/nodes"
	"github.com/shaiso/toolflow/internal/telemetry"
)

// plannedNode — узел DAG вместе с реализацией его типа.
type plannedNode struct {
	node     *domain.Node
	impl     nodes.Node
	terminal bool
}

// runFlow выполняет flow и завершает exec.
func (o *Orchestrator) runFlow(ctx context.Context, flow *domain.Flow, exec *domain.FlowExecution, inv invocation) {
	// 1. Триггер
	triggerNode, err := o.resolveTrigger(flow, inv.trigger)
	if err != nil {
		exec.MarkFailed(domain.ErrorInfo{Kind: classify(err), Message: err.Error()})
		return
	}

	// 2. Порядок выполнения
	dag, err := engine.BuildDAG(flow, triggerNode.ID)
	if err != nil {
		exec.MarkFailed(domain.ErrorInfo{Kind: classify(err), Message: err.Error()})
		return
	}

	// 3. Все типы узлов известны до запуска первого узла
	plan := make([]plannedNode, 0, len(dag.Order))
	for _, dn := range dag.Order {
		impl, err := o.registry.Lookup(dn.Node.Type)
		if err != nil {
			exec.MarkFailed(nodeError(dn.Node, err, ""))
			return
		}
		plan = append(plan, plannedNode{
			node:     dn.Node,
			impl:     impl,
			terminal: impl.Definition().IsTerminal(),
		})
	}

	// 4. Узлы по порядку, до первой ошибки
	state := NewExecutionState()
	caller := &subCaller{o: o, parent: exec, inv: inv}

	for _, p := range plan {
		if err := ctx.Err(); err != nil {
			exec.MarkFailed(nodeError(p.node, fmt.Errorf("%w: %v", nodes.ErrNodeCancelled, err), ""))
			return
		}
		if info := o.runNode(ctx, p, exec, state, caller, inv); info != nil {
			exec.MarkFailed(*info)
			return
		}
	}

	exec.MarkFulfilled(state.Output())
}

// runNode выполняет один узел и добавляет запись в трассу.
// Возвращает ErrorInfo, если узел завершился ошибкой.
func (o *Orchestrator) runNode(
	ctx context.Context,
	p plannedNode,
	exec *domain.FlowExecution,
	state *ExecutionState,
	caller *subCaller,
	inv invocation,
) *domain.ErrorInfo {
	node := p.node
	logger := telemetry.WithNodeID(telemetry.FromContext(ctx), node.ID, node.Type)

	ctx, span := o.tracer.Start(ctx, "node.execute", trace.WithAttributes(
		telemetry.AttrNodeID.String(node.ID),
		telemetry.AttrNodeType.String(node.Type),
	))
	defer span.End()

	data := domain.NewNodeExecution(node)
	fail := func(err error, stack string, elapsed *time.Duration) *domain.ErrorInfo {
		if elapsed != nil {
			data.Fail(err.Error(), *elapsed)
		} else {
			data.Status = domain.NodeStatusError
			data.Error = err.Error()
		}
		exec.AppendNode(data)
		telemetry.ObserveNode(&data)
		telemetry.SetSpanError(span, err)
		logger.Warn("node failed", "error", err)

		info := nodeError(node, err, stack)
		return &info
	}

	// Параметры: defaults типа + параметры экземпляра, затем шаблоны
	raw := nodes.MergeParameters(p.impl.Definition().DefaultParameters, node.Parameters)
	res := engine.ResolveParameters(raw, state.TemplateValues())
	data.InputData = res.Parameters

	if len(res.UnresolvedVars) > 0 {
		logger.Warn("unresolved template variables", "vars", strings.Join(res.UnresolvedVars, ", "))
	}
	if len(res.BlockedVars) > 0 {
		logger.Warn("blocked template values", "vars", strings.Join(res.BlockedVars, ", "))
	}

	if err := nodes.ValidateParameters(p.impl, res.Parameters); err != nil {
		return fail(err, "", nil)
	}

	ec := &nodes.ExecutionContext{
		FlowID:         exec.FlowID,
		ExecutionID:    exec.ID,
		NodeID:         node.ID,
		Node:           node,
		Parameters:     res.Parameters,
		RawParameters:  raw,
		UnresolvedVars: res.UnresolvedVars,
		BlockedVars:    res.BlockedVars,
		Input:          inv.params,
		Depth:          inv.depth,
		Values:         state,
		Flows:          caller,
		Logger:         logger,
	}

	start := time.Now()
	result, err := execute(ctx, p.impl, ec)
	elapsed := time.Since(start)

	if err != nil {
		var stack string
		var pe *PanicError
		if errors.As(err, &pe) {
			stack = pe.Stack
		}
		return fail(err, stack, &elapsed)
	}
	if result == nil {
		result = nodes.Succeeded(nil)
	}
	if !result.Success() {
		data.OutputData = result.Output
		return fail(errors.New(result.Error), "", &elapsed)
	}

	data.Complete(result.Output, elapsed)
	exec.AppendNode(data)
	state.Store(node, result.Output, p.terminal)
	telemetry.ObserveNode(&data)

	logger.Debug("node completed", "duration", elapsed)
	return nil
}

// execute вызывает узел, превращая панику в PanicError.
func execute(ctx context.Context, impl nodes.Node, ec *nodes.ExecutionContext) (result *nodes.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return impl.Execute(ctx, ec)
}

// resolveTrigger находит узел-триггер по slug, toolName или ID.
func (o *Orchestrator) resolveTrigger(flow *domain.Flow, name string) (*domain.Node, error) {
	var candidates []*domain.Node
	for i := range flow.Nodes {
		n := &flow.Nodes[i]
		def, err := o.registry.Definition(n.Type)
		if err != nil || !def.IsTrigger() {
			continue
		}
		if name == "" || n.Slug == name || n.ID == name || nodes.ToolName(n) == name {
			candidates = append(candidates, n)
		}
	}

	switch {
	case len(candidates) == 1:
		return candidates[0], nil
	case len(candidates) == 0 && name == "":
		return nil, fmt.Errorf("%w: flow %s has no trigger", ErrTriggerNotFound, flow.ID)
	case len(candidates) == 0:
		return nil, fmt.Errorf("%w: %s", ErrTriggerNotFound, name)
	case name == "":
		return nil, fmt.Errorf("%w: flow %s has %d triggers, name one", ErrAmbiguousTrigger, flow.ID, len(candidates))
	default:
		return nil, fmt.Errorf("%w: %d triggers match %s", ErrAmbiguousTrigger, len(candidates), name)
	}
}

// nodeError описывает ошибку узла для FlowExecution.
func nodeError(node *domain.Node, err error, stack string) domain.ErrorInfo {
	return domain.ErrorInfo{
		NodeID:   node.ID,
		NodeName: node.DisplayName(),
		NodeType: node.Type,
		Kind:     classify(err),
		Message:  err.Error(),
		Stack:    stack,
	}
}

// classify определяет вид ошибки по цепочке errors.
func classify(err error) domain.ErrorKind {
	var sub *SubFlowError
	switch {
	case errors.As(err, &sub):
		return sub.Info.Kind
	case errors.Is(err, guard.ErrSSRFBlocked):
		return domain.ErrorKindSSRFBlocked
	case errors.Is(err, nodes.ErrUnknownNodeType):
		return domain.ErrorKindUnknownNodeType
	case errors.Is(err, engine.ErrCycleDetected):
		return domain.ErrorKindCycleDetected
	case errors.Is(err, nodes.ErrInvalidParameters), errors.Is(err, nodes.ErrMissingParameter):
		return domain.ErrorKindInvalidParameters
	case errors.Is(err, nodes.ErrUnresolvedVariable):
		return domain.ErrorKindUnresolvedVariable
	case errors.Is(err, ErrMaxDepthExceeded), errors.Is(err, ErrRecursiveFlowCall):
		return domain.ErrorKindMaxDepthExceeded
	case errors.Is(err, ErrTriggerNotFound), errors.Is(err, ErrAmbiguousTrigger):
		return domain.ErrorKindTriggerNotFound
	default:
		return domain.ErrorKindNodeFailure
	}
}
