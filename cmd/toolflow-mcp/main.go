// Toolflow MCP — MCP-сервер поверх stdio, который публикует flows
// как инструменты. Обращается к toolflow API (TOOLFLOW_API_URL).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shaiso/toolflow/internal/cli"
	"github.com/shaiso/toolflow/internal/config"
	"github.com/shaiso/toolflow/internal/mcp"
	"github.com/shaiso/toolflow/internal/telemetry"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	apiURL := flag.String("api-url", cfg.APIURL, "Toolflow API base URL")
	flag.Parse()

	// stdout занят протоколом MCP.
	logger := telemetry.SetupStderrLogger(cfg.LogLevel, cfg.LogFormat)

	server := mcp.NewServer(mcp.Config{
		Client: cli.NewClient(*apiURL),
		Logger: logger,
	})
	if err := server.Run(); err != nil {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
