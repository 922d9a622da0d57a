// Toolflow CLI — проверка и локальный запуск flow-файлов,
// вызов flows и просмотр выполнений через HTTP API.
//
// Использование:
//
//	toolflow [--api-url URL] [--json] <command> [subcommand] [flags]
//
// Команды:
//
//	flow        validate, run, rename (локально); list, show, push (API)
//	invoke      Вызов flow через API
//	execution   Просмотр выполнений
//	node-types  Типы узлов
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/toolflow/internal/cli"
	"github.com/shaiso/toolflow/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	defaultURL := cli.DefaultAPIURL
	if cfg, err := config.FromEnv(); err == nil {
		defaultURL = cfg.APIURL
	}

	rootCmd := &cobra.Command{
		Use:           "toolflow",
		Short:         "Toolflow CLI — build, run and inspect tool flows",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewInvokeCmd(clientFn, outputFn),
		cli.NewExecutionCmd(clientFn, outputFn),
		cli.NewNodeTypesCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
