package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunStartCmd(clientFn, outputFn),
		newRunListCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunLedgerCmd(clientFn, outputFn),
		newRunApproveCmd(clientFn, outputFn),
	)

	return cmd
}

var runHeaders = []string{"ID", "WORKFLOW_ID", "CREATED"}

func runRow(r RunResponse) []string {
	return []string{r.ID, r.WorkflowID, r.CreatedAt}
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var inputJSON string

	cmd := &cobra.Command{
		Use:   "start WORKFLOW_ID",
		Short: "Start a workflow run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{}
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &req.Input); err != nil {
					return fmt.Errorf("invalid --input JSON: %w", err)
				}
			}

			run, err := client.CreateRun(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run started: %s", run.ID))
			out.Print(runHeaders, [][]string{runRow(*run)}, run)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputJSON, "input", "", "Run input as JSON object")

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list WORKFLOW_ID",
		Short: "List runs of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(args[0], limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = runRow(r)
			}

			out.Print(runHeaders, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to return")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(runHeaders, [][]string{runRow(*run)}, run)
			return nil
		},
	}
}

func newRunLedgerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger RUN_ID",
		Short: "Show the execution ledger of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			entries, err := client.ListLedger(args[0])
			if err != nil {
				return err
			}

			headers := []string{"NODE_ID", "TYPE", "STATUS", "CREATED"}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.NodeID, e.NodeType, e.Status, e.CreatedAt}
			}

			out.Print(headers, rows, entries)
			return nil
		},
	}
}

func newRunApproveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var decision string

	cmd := &cobra.Command{
		Use:   "approve RUN_ID",
		Short: "Submit a decision for a run waiting for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.SubmitApproval(args[0], decision)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Decision %q submitted for run %s", decision, run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "Decision text, e.g. approve or reject (required)")
	cmd.MarkFlagRequired("decision")

	return cmd
}
