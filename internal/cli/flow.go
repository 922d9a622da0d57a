package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/toolflow/internal/domain"
	"github.com/shaiso/toolflow/internal/engine"
)

// NewFlowCmd создаёт группу команд для работы с flows.
//
// validate, run и rename работают с локальными файлами без сервисов,
// list, show и push обращаются к API.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows",
	}

	cmd.AddCommand(
		newFlowValidateCmd(outputFn),
		newFlowRunCmd(outputFn),
		newFlowRenameCmd(outputFn),
		newFlowListCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowPushCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a flow file (YAML or JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			flow, err := LoadFlowFile(args[0])
			if err != nil {
				return err
			}
			if err := engine.ValidateFlow(flow, LocalRegistry(LocalOptions{})); err != nil {
				return err
			}

			headers := []string{"ID", "SLUG", "TYPE", "UPSTREAM"}
			rows := make([][]string, len(flow.Nodes))
			for i, n := range flow.Nodes {
				upstream := engine.FindUpstreamNodeIDs(n.ID, flow.Connections).Sorted()
				rows[i] = []string{n.ID, n.Slug, n.Type, strings.Join(upstream, ",")}
			}

			out.Success(fmt.Sprintf("Flow %s is valid: %d nodes, %d connections",
				flow.ID, len(flow.Nodes), len(flow.Connections)))
			out.Print(headers, rows, flow)
			return nil
		},
	}
}

func newFlowRunCmd(outputFn func() *Output) *cobra.Command {
	var (
		trigger string
		params  []string
		opts    = LocalOptions{HTTPTimeout: 30 * time.Second, ResolveHosts: true}
	)

	cmd := &cobra.Command{
		Use:   "run FILE [FILE...]",
		Short: "Run a flow locally; extra files are available to call_flow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := ParseParams(params)
			if err != nil {
				return err
			}

			flows := make([]*domain.Flow, 0, len(args))
			for _, path := range args {
				flow, err := LoadFlowFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				flows = append(flows, flow)
			}

			exec, err := RunLocal(cmd.Context(), flows, trigger, input, opts)
			if err != nil {
				return err
			}

			printExecution(outputFn(), exec)
			return executionError(exec)
		},
	}

	cmd.Flags().StringVar(&trigger, "trigger", "", "Trigger slug or tool name (optional if the flow has one trigger)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Invocation parameter key=value (repeatable)")
	cmd.Flags().DurationVar(&opts.HTTPTimeout, "timeout", opts.HTTPTimeout, "Default api_call timeout")
	cmd.Flags().BoolVar(&opts.ResolveHosts, "resolve-hosts", opts.ResolveHosts, "Check resolved addresses of api_call hosts")
	cmd.Flags().IntVar(&opts.MaxCallDepth, "max-depth", 0, "Maximum call_flow nesting (0 = default)")

	return cmd
}

func newFlowRenameCmd(outputFn func() *Output) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "rename FILE NODE NEW_SLUG",
		Short: "Rename a node slug and rewrite template references to it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ref, slug := args[0], args[1], args[2]
			out := outputFn()

			flow, err := LoadFlowFile(path)
			if err != nil {
				return err
			}
			node, err := findNode(flow, ref)
			if err != nil {
				return err
			}

			oldSlug := node.Slug
			count, err := engine.RenameNode(flow, node.ID, slug)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = path
			}
			if err := WriteFlowFile(outPath, flow); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Renamed %s -> %s, %d references updated", oldSlug, slug, count))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the result to another file")

	return cmd
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List flows stored on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, err := clientFn().ListFlows(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "ACTIVE", "NODES", "UPDATED"}
			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = []string{
					f.ID, f.Name, strconv.FormatBool(f.IsActive),
					strconv.Itoa(f.NodeCount), f.UpdatedAt.Format("2006-01-02 15:04:05"),
				}
			}

			outputFn().Print(headers, rows, flows)
			return nil
		},
	}
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show FLOW_ID",
		Short: "Show a flow stored on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := clientFn().GetFlow(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "SLUG", "TYPE", "NAME"}
			rows := make([][]string, len(flow.Nodes))
			for i, n := range flow.Nodes {
				rows[i] = []string{n.ID, n.Slug, n.Type, n.Name}
			}

			outputFn().Print(headers, rows, flow)
			return nil
		},
	}
}

func newFlowPushCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "push FILE",
		Short: "Upload a flow file to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := LoadFlowFile(args[0])
			if err != nil {
				return err
			}

			saved, err := clientFn().PutFlow(cmd.Context(), flow)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Flow saved: %s", saved.ID))
			if out.JSONMode() {
				out.JSON(saved)
			}
			return nil
		},
	}
}
