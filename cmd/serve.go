package cmd

import (
	"context"
	"fmt"

	"awsmcp/internal/app"

	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveDebug      bool
	serveTransport  string
	servePort       int
	serveRESTPort   int
)

// serveCmd starts the MCP tool server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the awsmcp MCP server",
	Long: `Starts the MCP server exposing the cloudwatch_logs_query, rds_data_query,
dynamodb_operations and system_metrics tools.

Transports:
  streamable-http  HTTP endpoint at http://<host>:<port>/mcp (default)
  sse              Server-Sent Events at /sse with messages posted to /message
  stdio            JSON-RPC over stdin/stdout; logs go to stderr

With --rest-port the REST bridge is started as well, serving /mcp/cloudwatch-logs,
/mcp/rds-data, /mcp/dynamodb-data, /mcp/system-metrics and /mcp/health.

Configuration:
  awsmcp loads ~/.config/awsmcp/config.yaml, then .awsmcp/config.yaml in the
  current directory, then environment variables (AWS_REGION, AWS_PROFILE,
  DATABASE_URL, NODE_ENV, APP_NAME, PORT, MCP_TRANSPORT, REST_PORT, LOG_LEVEL).
  --config replaces both files with a single one.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveConfigPath, serveDebug, rootCmd.Version)
	cfg.Transport = serveTransport
	cfg.Port = servePort
	cfg.RESTPort = serveRESTPort

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Configuration file (skips the user and project layers)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "Transport: streamable-http, sse or stdio")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "MCP listen port (default 8000)")
	serveCmd.Flags().IntVar(&serveRESTPort, "rest-port", 0, "Start the REST bridge on this port")
}
