package cmd

import (
	"context"
	"fmt"

	"awsmcp/internal/cli"
	"awsmcp/internal/config"
	"awsmcp/internal/tools"

	"github.com/spf13/cobra"
)

var (
	queryOutputFormat string
	queryQuiet        bool
	queryEndpoint     string
	queryTimeout      string

	logsHoursBack int
	logsLimit     int

	rdsTableName   string
	rdsDatabaseURL string

	dynamoTenantCode string
	metricsTenant    string
)

// queryCmd groups the tool commands
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a tool against a running awsmcp server",
	Long: `Run one of the awsmcp tools against a running server and print the result.

Available commands:
  logs      - Search a CloudWatch Logs group
  rds       - Query the Postgres database
  dynamodb  - Scan a DynamoDB table
  metrics   - Show system metrics

Note: the server must be running with the streamable-http transport
(use 'awsmcp serve') before using these commands.`,
}

var queryLogsCmd = &cobra.Command{
	Use:   "logs <log-group> <query>",
	Short: "Search a CloudWatch Logs group",
	Long: `Search a CloudWatch Logs group with a natural-language query.

Examples:
  awsmcp query logs app-logs "エラーログを検索"
  awsmcp query logs app-logs "500エラー" --hours-back 6 --limit 20`,
	Args: cobra.ExactArgs(2),
	RunE: runQueryLogs,
}

var queryRDSCmd = &cobra.Command{
	Use:   "rds <natural-query>",
	Short: "Query the Postgres database",
	Long: `Translate a natural-language request into SQL and run it.

Examples:
  awsmcp query rds "ユーザー数を教えて" --table users`,
	Args: cobra.ExactArgs(1),
	RunE: runQueryRDS,
}

var queryDynamoDBCmd = &cobra.Command{
	Use:   "dynamodb <table> <natural-query>",
	Short: "Scan a DynamoDB table",
	Long: `Scan a DynamoDB table, or count its items when the request asks for a count.

With --tenant the table name is qualified as <env>-<app>-<table> and
items are filtered to that tenant.`,
	Args: cobra.ExactArgs(2),
	RunE: runQueryDynamoDB,
}

var queryMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show system metrics",
	Args:  cobra.NoArgs,
	RunE:  runQueryMetrics,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.AddCommand(queryLogsCmd)
	queryCmd.AddCommand(queryRDSCmd)
	queryCmd.AddCommand(queryDynamoDBCmd)
	queryCmd.AddCommand(queryMetricsCmd)

	queryCmd.PersistentFlags().StringVarP(&queryOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	queryCmd.PersistentFlags().BoolVarP(&queryQuiet, "quiet", "q", false, "Suppress non-essential output")
	queryCmd.PersistentFlags().StringVar(&queryEndpoint, "endpoint", "", "Server URL (default from configuration)")
	queryCmd.PersistentFlags().StringVar(&queryTimeout, "timeout", "", "Request timeout, e.g. 30s (default 6m)")

	queryLogsCmd.Flags().IntVar(&logsHoursBack, "hours-back", tools.DefaultHoursBack, "Hours to search back from now")
	queryLogsCmd.Flags().IntVar(&logsLimit, "limit", tools.DefaultLimit, "Maximum number of results")

	queryRDSCmd.Flags().StringVar(&rdsTableName, "table", "", "Table to query (default users)")
	queryRDSCmd.Flags().StringVar(&rdsDatabaseURL, "database-url", "", "Postgres DSN (default DATABASE_URL on the server)")

	queryDynamoDBCmd.Flags().StringVar(&dynamoTenantCode, "tenant", "", "Tenant code")
	queryMetricsCmd.Flags().StringVar(&metricsTenant, "tenant", "", "Tenant code")
}

func runQueryLogs(cmd *cobra.Command, args []string) error {
	return executeTool(cmd, tools.ToolLogsQuery, map[string]interface{}{
		"log_group":  args[0],
		"query":      args[1],
		"hours_back": logsHoursBack,
		"limit":      logsLimit,
	})
}

func runQueryRDS(cmd *cobra.Command, args []string) error {
	arguments := map[string]interface{}{
		"natural_query": args[0],
	}
	if rdsTableName != "" {
		arguments["table_name"] = rdsTableName
	}
	if rdsDatabaseURL != "" {
		arguments["database_url"] = rdsDatabaseURL
	}
	return executeTool(cmd, tools.ToolRDSQuery, arguments)
}

func runQueryDynamoDB(cmd *cobra.Command, args []string) error {
	arguments := map[string]interface{}{
		"table_name":    args[0],
		"natural_query": args[1],
	}
	if dynamoTenantCode != "" {
		arguments["tenant_code"] = dynamoTenantCode
	}
	return executeTool(cmd, tools.ToolDynamoDB, arguments)
}

func runQueryMetrics(cmd *cobra.Command, args []string) error {
	arguments := map[string]interface{}{}
	if metricsTenant != "" {
		arguments["tenant_code"] = metricsTenant
	}
	return executeTool(cmd, tools.ToolSystemMetrics, arguments)
}

func executeTool(cmd *cobra.Command, toolName string, arguments map[string]interface{}) error {
	executor, err := newExecutor(cmd, queryOutputFormat, queryQuiet, queryEndpoint, queryTimeout)
	if err != nil {
		return err
	}
	defer executor.Close()

	ctx := commandContext(cmd)
	if err := executor.Connect(ctx); err != nil {
		return err
	}

	return executor.Execute(ctx, toolName, arguments)
}

// newExecutor builds a ToolExecutor for the server at endpoint, or at the
// configured local server when endpoint is empty.
func newExecutor(cmd *cobra.Command, format string, quiet bool, endpoint, timeout string) (*cli.ToolExecutor, error) {
	outputFormat, err := cli.ParseOutputFormat(format)
	if err != nil {
		return nil, err
	}

	if endpoint == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		endpoint = cli.EndpointFromConfig(&cfg)
	}

	client := cli.NewCLIClientWithEndpoint(endpoint)
	client.SetVersion(rootCmd.Version)
	if timeout != "" {
		d, err := parseTimeout(timeout)
		if err != nil {
			return nil, err
		}
		client.SetTimeout(d)
	}

	return cli.NewToolExecutor(client, cli.ExecutorOptions{
		Format: outputFormat,
		Quiet:  quiet,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	}), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
