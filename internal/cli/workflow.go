package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func workflowRow(wf WorkflowResponse) []string {
	return []string{wf.ID, wf.Name, wf.Description, wf.CreatedAt}
}

var workflowHeaders = []string{"ID", "NAME", "DESCRIPTION", "CREATED"}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = workflowRow(wf)
			}

			out.Print(workflowHeaders, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var graphFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workflow from a graph JSON file",
		Long: "Create a workflow from a JSON file describing the graph:\n" +
			"name, user_id, nodes (id, type, config) and edges (source, target).",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(graphFile)
			if err != nil {
				return fmt.Errorf("failed to read graph file: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("graph file is not valid JSON")
			}

			wf, err := client.CreateWorkflow(json.RawMessage(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %s", wf.ID))
			out.Print(workflowHeaders, [][]string{workflowRow(*wf)}, wf)
			return nil
		},
	}

	cmd.Flags().StringVar(&graphFile, "graph-file", "", "Path to graph JSON file (required)")
	cmd.MarkFlagRequired("graph-file")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(workflowHeaders, [][]string{workflowRow(*wf)}, wf)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var description string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateWorkflowRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}

			wf, err := client.UpdateWorkflow(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Workflow updated")
			out.Print(workflowHeaders, [][]string{workflowRow(*wf)}, wf)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New workflow name")
	cmd.Flags().StringVar(&description, "description", "", "New workflow description")

	return cmd
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteWorkflow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow deleted: %s", args[0]))
			return nil
		},
	}
}
