package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewExecutionCmd создаёт группу команд для управления выполнениями.
func NewExecutionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution",
		Short: "Manage workflow executions",
	}

	cmd.AddCommand(
		newExecutionStartCmd(clientFn, outputFn),
		newExecutionShowCmd(clientFn, outputFn),
		newExecutionCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newExecutionStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var triggerJSON string
	var wait bool

	cmd := &cobra.Command{
		Use:   "start WORKFLOW_ID",
		Short: "Start a workflow execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var trigger map[string]any
			if triggerJSON != "" {
				if err := json.Unmarshal([]byte(triggerJSON), &trigger); err != nil {
					return fmt.Errorf("invalid trigger JSON: %w", err)
				}
			}

			exec, err := client.ExecuteWorkflow(args[0], trigger)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Execution started: %s", exec.ExecutionID))

			if !wait {
				out.Print(
					[]string{"EXECUTION_ID"},
					[][]string{{exec.ExecutionID}},
					exec,
				)
				return nil
			}

			snap, err := waitTerminal(client, exec.ExecutionID)
			if err != nil {
				return err
			}

			printExecution(out, snap)
			return nil
		},
	}

	cmd.Flags().StringVar(&triggerJSON, "trigger", "", "Trigger data as JSON object")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the execution to finish")

	return cmd
}

func newExecutionShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show execution status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			snap, err := client.GetExecution(args[0])
			if err != nil {
				return err
			}

			printExecution(out, snap)
			return nil
		},
	}
}

func newExecutionCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			snap, err := client.CancelExecution(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Execution cancelled: %s", snap.ExecutionID))
			printExecution(out, snap)
			return nil
		},
	}
}

// waitTerminal опрашивает выполнение до терминального статуса.
func waitTerminal(client *Client, executionID string) (*ExecutionResponse, error) {
	for {
		snap, err := client.GetExecution(executionID)
		if err != nil {
			return nil, err
		}

		switch snap.Status {
		case "completed", "failed", "cancelled":
			return snap, nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func printExecution(out *Output, snap *ExecutionResponse) {
	headers := []string{"EXECUTION_ID", "WORKFLOW_ID", "STATUS", "ERROR"}
	rows := [][]string{{snap.ExecutionID, snap.WorkflowID, snap.Status, snap.Error}}
	out.Print(headers, rows, snap)
}
