package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewFlowCmd создаёт группу команд для управления flows на сервере.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows on the API server",
	}

	cmd.AddCommand(
		newFlowListCmd(clientFn, outputFn),
		newFlowCreateCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowDeleteCmd(clientFn, outputFn),
		newFlowRunCmd(clientFn, outputFn),
		newFlowExecutionsCmd(clientFn, outputFn),
	)

	return cmd
}

var flowHeaders = []string{"ID", "NAME", "VERSION", "CREATED"}

func flowRow(f FlowResponse) []string {
	return []string{f.ID, f.Name, strconv.Itoa(f.Version), f.CreatedAt}
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListFlows(limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = flowRow(f)
			}

			out.Print(flowHeaders, rows, flows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newFlowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Create a flow from a definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			def, err := LoadDefinition(args[0])
			if err != nil {
				return err
			}
			data, err := json.Marshal(def)
			if err != nil {
				return fmt.Errorf("failed to encode flow definition: %w", err)
			}

			flow, err := client.CreateFlow(CreateFlowRequest{
				Name:        name,
				Description: description,
				Data:        data,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow created: %s", flow.ID))
			out.Print(flowHeaders, [][]string{flowRow(*flow)}, flow)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Flow name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Flow description")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show flow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flow, err := client.GetFlow(args[0])
			if err != nil {
				return err
			}

			out.Print(flowHeaders, [][]string{flowRow(*flow)}, flow)
			return nil
		},
	}
}

func newFlowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteFlow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow deleted: %s", args[0]))
			return nil
		},
	}
}

func newFlowRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var contextPairs []string
	var async bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run ID",
		Short: "Run a flow on the server",
		Long: `Run a flow on the server.

By default the flow runs synchronously and the node results are printed.
With --async the execution is queued and its ID is printed; check it later
with "execution show".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			overrides, err := ParseContext(contextPairs)
			if err != nil {
				return err
			}
			req := RunRequest{Context: overrides}

			if async {
				exec, err := client.CreateExecution(args[0], req)
				if err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Execution queued: %s", exec.ID))
				out.Print(executionHeaders, [][]string{executionRow(*exec)}, exec)
				return nil
			}

			client.SetTimeout(timeout)
			result, err := client.RunFlow(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Execution %s: %s", result.ExecutionID, result.Status))
			out.Results(result.Results)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Context values as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the execution instead of waiting for results")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute+defaultTimeout, "Request timeout for synchronous runs")

	return cmd
}

func newFlowExecutionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "executions ID",
		Short: "List executions of a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			execs, err := client.ListExecutions(args[0], limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(execs))
			for i, e := range execs {
				rows[i] = executionRow(e)
			}

			out.Print(executionHeaders, rows, execs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}
