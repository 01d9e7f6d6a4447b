package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"awsmcp/internal/gateway"
	"awsmcp/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolLogsQuery     = "cloudwatch_logs_query"
	ToolRDSQuery      = "rds_data_query"
	ToolDynamoDB      = "dynamodb_operations"
	ToolSystemMetrics = "system_metrics"
)

// Definitions returns the MCP tool definitions in registration order.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolLogsQuery,
			mcp.WithDescription("CloudWatch Logsを自然言語で検索"),
			mcp.WithString("log_group",
				mcp.Required(),
				mcp.Description("ロググループ名"),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("自然言語での検索クエリ（例：「エラーログを検索」「警告を含むログ」）"),
			),
			mcp.WithNumber("hours_back",
				mcp.Description("何時間前からのログを検索するか"),
				mcp.DefaultNumber(DefaultHoursBack),
			),
			mcp.WithNumber("limit",
				mcp.Description("取得する最大件数"),
				mcp.DefaultNumber(DefaultLimit),
			),
		),
		mcp.NewTool(ToolRDSQuery,
			mcp.WithDescription("RDSデータを自然言語で検索"),
			mcp.WithString("natural_query",
				mcp.Required(),
				mcp.Description("自然言語での検索クエリ（例：「ユーザー数を教えて」「最新のデータを取得」）"),
			),
			mcp.WithString("table_name",
				mcp.Description("対象テーブル名（省略時はデフォルト）"),
			),
			mcp.WithString("database_url",
				mcp.Description("データベース接続URL（省略時は環境変数から取得）"),
			),
		),
		mcp.NewTool(ToolDynamoDB,
			mcp.WithDescription("DynamoDBデータを自然言語で操作"),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description("DynamoDBテーブル名"),
			),
			mcp.WithString("natural_query",
				mcp.Required(),
				mcp.Description("自然言語での操作クエリ（例：「データ件数を確認」「最新のレコードを取得」）"),
			),
			mcp.WithString("tenant_code",
				mcp.Description("テナントコード（マルチテナント対応）"),
			),
		),
		mcp.NewTool(ToolSystemMetrics,
			mcp.WithDescription("システム稼働状況メトリクスを取得"),
			mcp.WithString("tenant_code",
				mcp.Description("テナントコード（省略時は全体メトリクス）"),
			),
		),
	}
}

// Register adds every tool and resource to s.
func (f *Facade) Register(s *server.MCPServer) {
	handlers := map[string]server.ToolHandlerFunc{
		ToolLogsQuery:     f.HandleLogsQuery,
		ToolRDSQuery:      f.HandleRDSQuery,
		ToolDynamoDB:      f.HandleDynamoDB,
		ToolSystemMetrics: f.HandleSystemMetrics,
	}
	for _, tool := range Definitions() {
		s.AddTool(tool, handlers[tool.Name])
	}
	f.registerResources(s)

	logging.Debug("Tools", "Registered %d tools and %d resources", len(handlers), len(staticResources)+1)
}

// HandleLogsQuery handles the cloudwatch_logs_query tool call
func (f *Facade) HandleLogsQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logGroup, err := req.RequireString("log_group")
	if err != nil {
		return invalidArgument(err), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return invalidArgument(err), nil
	}

	res := f.Logs(ctx, LogsParams{
		LogGroup:  logGroup,
		Query:     query,
		HoursBack: req.GetInt("hours_back", DefaultHoursBack),
		Limit:     req.GetInt("limit", DefaultLimit),
	})
	return envelopeResult(res.Envelope(), res.Status)
}

// HandleRDSQuery handles the rds_data_query tool call
func (f *Facade) HandleRDSQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	naturalQuery, err := req.RequireString("natural_query")
	if err != nil {
		return invalidArgument(err), nil
	}

	res := f.Relational(ctx, RelationalParams{
		NaturalQuery: naturalQuery,
		TableName:    req.GetString("table_name", ""),
		DatabaseURL:  req.GetString("database_url", ""),
	})
	return envelopeResult(res.Envelope(), res.Status)
}

// HandleDynamoDB handles the dynamodb_operations tool call
func (f *Facade) HandleDynamoDB(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table_name")
	if err != nil {
		return invalidArgument(err), nil
	}
	naturalQuery, err := req.RequireString("natural_query")
	if err != nil {
		return invalidArgument(err), nil
	}

	res := f.Documents(ctx, DocumentParams{
		TableName:    table,
		NaturalQuery: naturalQuery,
		TenantCode:   req.GetString("tenant_code", ""),
	})
	return envelopeResult(res.Envelope(), res.Status)
}

// HandleSystemMetrics handles the system_metrics tool call
func (f *Facade) HandleSystemMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := f.Metrics(ctx, req.GetString("tenant_code", ""))
	return envelopeResult(snap.Envelope(), snap.Status)
}

// InvalidArgumentEnvelope is the envelope returned when a required argument
// is missing or malformed.
func InvalidArgumentEnvelope(err error) map[string]interface{} {
	return map[string]interface{}{
		"status":     gateway.StatusError,
		"error":      err.Error(),
		"error_kind": gateway.KindInvalidArgument,
	}
}

func invalidArgument(err error) *mcp.CallToolResult {
	result, _ := envelopeResult(InvalidArgumentEnvelope(err), gateway.StatusError)
	return result
}

func envelopeResult(env map[string]interface{}, status gateway.Status) (*mcp.CallToolResult, error) {
	resultJSON, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	result := mcp.NewToolResultText(string(resultJSON))
	result.IsError = status == gateway.StatusError
	return result, nil
}
