package mcp

import (
	"errors"
	"fmt"

	"github.com/localrivet/gomcp/server"

	"github.com/shaiso/toolflow/internal/cli"
	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/nodes"
)

type (
	describeFlowArgs struct {
		FlowID string `json:"flow_id"`
	}

	invokeFlowArgs struct {
		FlowID  string         `json:"flow_id"`
		Trigger string         `json:"trigger,omitempty"`
		Params  map[string]any `json:"params,omitempty"`
	}

	// flowListing — flow в ответе list_flows.
	flowListing struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	// triggerTool — триггер flow как инструмент.
	triggerTool struct {
		NodeID      string         `json:"node_id"`
		Slug        string         `json:"slug"`
		ToolName    string         `json:"tool_name"`
		Description string         `json:"description,omitempty"`
		InputSchema map[string]any `json:"input_schema"`
	}

	flowDescription struct {
		ID          string        `json:"id"`
		Name        string        `json:"name"`
		Description string        `json:"description,omitempty"`
		Triggers    []triggerTool `json:"triggers"`
	}
)

// ErrInvalidParams — аргументы инструмента некорректны.
var ErrInvalidParams = errors.New("invalid params")

func (s *Server) registerTools(srv server.Server) {
	srv.Tool(
		"list_flows",
		"List active toolflow flows that can be invoked",
		func(_ *server.Context, _ any) (any, error) {
			return s.listFlows()
		},
	)

	srv.Tool(
		"describe_flow",
		"Describe the triggers of a flow: tool names and parameter schemas",
		func(_ *server.Context, args describeFlowArgs) (any, error) {
			return s.describeFlow(args)
		},
	)

	srv.Tool(
		"invoke_flow",
		"Invoke a flow through one of its triggers and return its output",
		func(_ *server.Context, args invokeFlowArgs) (any, error) {
			return s.invokeFlow(args)
		},
	)
}

func (s *Server) listFlows() (any, error) {
	ctx, cancel := s.callContext()
	defer cancel()

	flows, err := s.client.ListFlows(ctx)
	if err != nil {
		return nil, err
	}

	listing := make([]flowListing, 0, len(flows))
	for _, f := range flows {
		if !f.IsActive {
			continue
		}
		listing = append(listing, flowListing{ID: f.ID, Name: f.Name, Description: f.Description})
	}
	return textResult(listing)
}

func (s *Server) describeFlow(args describeFlowArgs) (any, error) {
	if args.FlowID == "" {
		return nil, errInvalidParams("flow_id is required")
	}

	ctx, cancel := s.callContext()
	defer cancel()

	flow, err := s.client.GetFlow(ctx, args.FlowID)
	if err != nil {
		return nil, err
	}
	return textResult(describe(flow, s.registry))
}

func (s *Server) invokeFlow(args invokeFlowArgs) (any, error) {
	if args.FlowID == "" {
		return nil, errInvalidParams("flow_id is required")
	}

	ctx, cancel := s.callContext()
	defer cancel()

	exec, err := s.client.Invoke(ctx, args.FlowID, cli.InvokeRequest{
		Trigger: args.Trigger,
		Params:  args.Params,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("flow invoked via mcp",
		"flow_id", args.FlowID,
		"execution_id", exec.ID,
		"status", exec.Status,
	)
	return executionResult(exec)
}

// describe собирает описание триггеров flow.
// Триггер — узел, тип которого не имеет входов.
func describe(flow *domain.Flow, registry *nodes.Registry) flowDescription {
	desc := flowDescription{
		ID:          flow.ID,
		Name:        flow.Name,
		Description: flow.Description,
		Triggers:    []triggerTool{},
	}
	for i := range flow.Nodes {
		n := &flow.Nodes[i]
		node, err := registry.Lookup(n.Type)
		if err != nil || !node.Definition().IsTrigger() {
			continue
		}
		desc.Triggers = append(desc.Triggers, triggerTool{
			NodeID:      n.ID,
			Slug:        n.Slug,
			ToolName:    nodes.ToolName(n),
			Description: nodes.ToolDescription(n),
			InputSchema: nodes.InvocationSchema(node, n.Parameters),
		})
	}
	return desc
}

func errInvalidParams(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, message)
}
