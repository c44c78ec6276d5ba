package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewToolCmd создаёт группу команд для управления tools.
func NewToolCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Manage tools",
	}

	cmd.AddCommand(
		newToolListCmd(clientFn, outputFn),
		newToolCreateCmd(clientFn, outputFn),
		newToolShowCmd(clientFn, outputFn),
		newToolDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

var toolHeaders = []string{"ID", "NAME", "METHOD", "URL", "CREATED"}

func toolRow(t ToolResponse) []string {
	return []string{t.ID, t.Name, t.Method, t.APIURL, t.CreatedAt}
}

func newToolListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tools, err := client.ListTools()
			if err != nil {
				return err
			}

			rows := make([][]string, len(tools))
			for i, t := range tools {
				rows[i] = toolRow(t)
			}

			out.Print(toolHeaders, rows, tools)
			return nil
		},
	}
}

func newToolCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var specFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tool from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(specFile)
			if err != nil {
				return fmt.Errorf("failed to read tool file: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("tool file is not valid JSON")
			}

			tool, err := client.CreateTool(json.RawMessage(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Tool created: %s", tool.ID))
			out.Print(toolHeaders, [][]string{toolRow(*tool)}, tool)
			return nil
		},
	}

	cmd.Flags().StringVar(&specFile, "tool-file", "", "Path to tool JSON file (required)")
	cmd.MarkFlagRequired("tool-file")

	return cmd
}

func newToolShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show tool details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tool, err := client.GetTool(args[0])
			if err != nil {
				return err
			}

			out.Print(toolHeaders, [][]string{toolRow(*tool)}, tool)
			return nil
		},
	}
}

func newToolDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteTool(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Tool deleted: %s", args[0]))
			return nil
		},
	}
}
