// Cogniflow CLI — инструмент командной строки для управления
// workflows, runs, tools и schedules через HTTP API.
//
// Использование:
//
//	cogniflow [--api-url URL] [--user-id ID] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	workflow  Управление workflows
//	run       Управление runs
//	tool      Управление tools
//	schedule  Управление schedules
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cogniflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var userID string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "cogniflow",
		Short:         "Cogniflow CLI — workflow execution tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", os.Getenv("COGNIFLOW_USER_ID"), "User ID for scoped requests")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, userID) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewToolCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
