package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName        = "AWS Resource MCP Server"
	ServerVersion     = "1.0.0"
	ServerDescription = "自然言語でAWSリソースにアクセスするためのMCPサーバー"

	ServerInfoURI = "aws://server-info"
)

// ServerCapabilities lists what the server offers, in display order.
var ServerCapabilities = []string{
	"CloudWatch Logs検索",
	"RDSデータクエリ",
	"DynamoDB操作",
	"システムメトリクス取得",
}

// StaticResource is a fixed text resource describing one backend.
type StaticResource struct {
	URI         string
	Name        string
	Description string
	Text        string
}

var staticResources = []StaticResource{
	{URI: "aws://logs", Name: "logs", Description: "CloudWatch Logsリソース情報", Text: "CloudWatch Logs - システムログの検索と分析"},
	{URI: "aws://rds", Name: "rds", Description: "RDSリソース情報", Text: "Amazon RDS - リレーショナルデータベースのデータ検索"},
	{URI: "aws://dynamodb", Name: "dynamodb", Description: "DynamoDBリソース情報", Text: "Amazon DynamoDB - NoSQLデータベースの操作"},
	{URI: "aws://metrics", Name: "metrics", Description: "システムメトリクスリソース情報", Text: "System Metrics - システム稼働状況とパフォーマンス指標"},
}

// StaticResources returns a copy of the static resource table.
func StaticResources() []StaticResource {
	return append([]StaticResource(nil), staticResources...)
}

// ServerInfo is the manifest served at aws://server-info. Version is the
// manifest version and stays ServerVersion; Build carries the binary version.
type ServerInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Build        string   `json:"build,omitempty"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// ServerInfo returns the server manifest.
func (f *Facade) ServerInfo() ServerInfo {
	return ServerInfo{
		Name:         ServerName,
		Version:      ServerVersion,
		Build:        f.version,
		Description:  ServerDescription,
		Capabilities: append([]string(nil), ServerCapabilities...),
	}
}

func (f *Facade) registerResources(s *server.MCPServer) {
	for _, res := range staticResources {
		s.AddResource(
			mcp.NewResource(res.URI, res.Name,
				mcp.WithResourceDescription(res.Description),
				mcp.WithMIMEType("text/plain"),
			),
			staticHandler(res),
		)
	}

	s.AddResource(
		mcp.NewResource(ServerInfoURI, "server-info",
			mcp.WithResourceDescription("Server manifest"),
			mcp.WithMIMEType("application/json"),
		),
		f.handleServerInfo,
	)
}

func staticHandler(res StaticResource) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      res.URI,
				MIMEType: "text/plain",
				Text:     res.Text,
			},
		}, nil
	}
}

func (f *Facade) handleServerInfo(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(f.ServerInfo(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ServerInfoURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
