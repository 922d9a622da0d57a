package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInvokeCmd создаёт команду вызова flow через API.
func NewInvokeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		trigger string
		params  []string
		async   bool
	)

	cmd := &cobra.Command{
		Use:   "invoke FLOW_ID",
		Short: "Invoke a flow on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := ParseParams(params)
			if err != nil {
				return err
			}

			client := clientFn()
			out := outputFn()
			req := InvokeRequest{Trigger: trigger, Params: input}

			if async {
				accepted, err := client.InvokeAsync(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Invocation queued: %s", accepted.RequestID))
				if out.JSONMode() {
					out.JSON(accepted)
				}
				return nil
			}

			exec, err := client.Invoke(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			printExecution(out, exec)
			return executionError(exec)
		},
	}

	cmd.Flags().StringVar(&trigger, "trigger", "", "Trigger slug or tool name")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Invocation parameter key=value (repeatable)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the invocation and return immediately")

	return cmd
}
