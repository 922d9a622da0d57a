package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/toolflow/internal/domain"
)

// NewExecutionCmd создаёт группу команд для просмотра выполнений.
func NewExecutionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "execution",
		Aliases: []string{"exec"},
		Short:   "Inspect flow executions",
	}

	cmd.AddCommand(
		newExecutionListCmd(clientFn, outputFn),
		newExecutionGetCmd(clientFn, outputFn),
	)

	return cmd
}

func newExecutionListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListExecutionsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			execs, err := clientFn().ListExecutions(cmd.Context(), opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "FLOW", "STATUS", "ERROR", "NODES", "DEPTH", "DURATION_MS", "STARTED"}
			rows := make([][]string, len(execs))
			for i, e := range execs {
				rows[i] = []string{
					e.ID, e.FlowID, string(e.Status), string(e.ErrorKind),
					strconv.Itoa(e.NodeCount), strconv.Itoa(e.Depth),
					strconv.FormatInt(e.DurationMs, 10), e.StartedAt.Format("2006-01-02 15:04:05"),
				}
			}

			outputFn().Print(headers, rows, execs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.FlowID, "flow", "", "Filter by flow ID")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (pending, fulfilled, error)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of executions")

	return cmd
}

func newExecutionGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get EXECUTION_ID",
		Short: "Show an execution with its node trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := clientFn().GetExecution(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printExecution(outputFn(), exec)
			return nil
		},
	}
}

// printExecution выводит трассу узлов и итог выполнения.
func printExecution(out *Output, exec *domain.FlowExecution) {
	if out.JSONMode() {
		out.JSON(exec)
		return
	}

	headers := []string{"NODE", "NAME", "TYPE", "STATUS", "TIME_MS", "ERROR"}
	rows := make([][]string, len(exec.NodeExecutions))
	for i, n := range exec.NodeExecutions {
		elapsed := "-"
		if n.ExecutionTimeMs != nil {
			elapsed = strconv.FormatInt(*n.ExecutionTimeMs, 10)
		}
		rows[i] = []string{n.NodeID, n.NodeName, n.NodeType, string(n.Status), elapsed, n.Error}
	}
	out.Table(headers, rows)

	out.Success(fmt.Sprintf("Execution %s: %s (%d ms)", exec.ID, exec.Status, exec.Duration().Milliseconds()))
	if exec.ErrorInfo != nil {
		out.Error(fmt.Sprintf("%s at node %s: %s", exec.ErrorInfo.Kind, exec.ErrorInfo.NodeID, exec.ErrorInfo.Message))
		return
	}
	if exec.Output != nil {
		out.JSON(exec.Output)
	}
}

// executionError возвращает ошибку для выполнения со статусом error.
func executionError(exec *domain.FlowExecution) error {
	if exec.Status != domain.ExecutionStatusError {
		return nil
	}
	if exec.ErrorInfo == nil {
		return ErrExecutionFailed
	}
	return fmt.Errorf("%w: %s", ErrExecutionFailed, exec.ErrorInfo.Kind)
}
