package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewExecutionCmd создаёт группу команд для просмотра executions.
func NewExecutionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution",
		Short: "Inspect executions",
	}

	cmd.AddCommand(newExecutionShowCmd(clientFn, outputFn))

	return cmd
}

var executionHeaders = []string{"ID", "FLOW_ID", "VERSION", "STATUS", "ERROR", "CREATED"}

func executionRow(e ExecutionResponse) []string {
	return []string{e.ID, e.FlowID, strconv.Itoa(e.FlowVersion), e.Status, e.Error, e.CreatedAt}
}

func newExecutionShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var results bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show execution details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			exec, err := client.GetExecution(args[0])
			if err != nil {
				return err
			}

			out.Print(executionHeaders, [][]string{executionRow(*exec)}, exec)
			if results && !out.jsonMode {
				out.Results(exec.Results)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&results, "results", false, "Also print node results")

	return cmd
}
