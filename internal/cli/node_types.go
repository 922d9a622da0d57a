package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/toolflow/internal/domain"
)

// NewNodeTypesCmd создаёт команду вывода типов узлов.
// По умолчанию — встроенные типы; с --remote — типы сервера.
func NewNodeTypesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "node-types",
		Short: "List available node types",
		RunE: func(cmd *cobra.Command, args []string) error {
			var defs []domain.NodeTypeDefinition
			if remote {
				var err error
				if defs, err = clientFn().ListNodeTypes(cmd.Context()); err != nil {
					return err
				}
			} else {
				defs = LocalRegistry(LocalOptions{}).Definitions()
			}

			headers := []string{"NAME", "INPUTS", "OUTPUTS", "DESCRIPTION"}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = []string{d.Name, handles(d.Inputs), handles(d.Outputs), d.Description}
			}

			outputFn().Print(headers, rows, defs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Query the API server instead of the built-in registry")

	return cmd
}

func handles(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
