package cli

import (
	"github.com/spf13/cobra"
)

// NewNodeTypesCmd создаёт команду для просмотра доступных типов узлов.
func NewNodeTypesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "node-types",
		Short: "List available node types",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			types, err := client.ListNodeTypes()
			if err != nil {
				return err
			}

			headers := []string{"TYPE", "CATEGORY"}
			rows := make([][]string, len(types))
			for i, t := range types {
				rows[i] = []string{t.Type, t.Category}
			}

			out.Print(headers, rows, types)
			return nil
		},
	}
}
