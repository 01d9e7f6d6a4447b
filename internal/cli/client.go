package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"awsmcp/internal/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultTimeout bounds a single request. Log queries may poll for several
// minutes before the server answers.
const DefaultTimeout = 6 * time.Minute

// CLIClient provides a simplified MCP client for CLI commands
type CLIClient struct {
	endpoint string
	client   client.MCPClient
	timeout  time.Duration
	version  string
}

// NewCLIClient creates a client for the server described by cfg.
func NewCLIClient(cfg *config.Config) *CLIClient {
	return NewCLIClientWithEndpoint(EndpointFromConfig(cfg))
}

// NewCLIClientWithEndpoint creates a new CLI client with a specific endpoint
func NewCLIClientWithEndpoint(endpoint string) *CLIClient {
	return &CLIClient{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		version:  "dev",
	}
}

// EndpointFromConfig returns the local streamable-http URL of the server
// configured in cfg.
func EndpointFromConfig(cfg *config.Config) string {
	host := cfg.Server.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	path := cfg.Server.EndpointPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)) + path
}

// SetTimeout overrides the per-request timeout.
func (c *CLIClient) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

// SetVersion sets the client version reported during the handshake.
func (c *CLIClient) SetVersion(version string) {
	c.version = version
}

// Endpoint returns the server URL.
func (c *CLIClient) Endpoint() string {
	return c.endpoint
}

// Connect establishes connection to the MCP server
func (c *CLIClient) Connect(ctx context.Context) error {
	httpClient, err := client.NewStreamableHttpClient(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to create streamable-http client: %w", err)
	}
	c.client = httpClient

	if err := httpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start streamable-http client: %w", err)
	}

	if err := c.initialize(ctx); err != nil {
		httpClient.Close()
		c.client = nil
		return fmt.Errorf("initialization failed for %s: %w", c.endpoint, err)
	}

	return nil
}

// CallTool executes a tool and returns the result
func (c *CLIClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(timeoutCtx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	return result, nil
}

// CallToolSimple executes a tool and returns the text content as a string.
// Tool errors are returned as errors carrying the error envelope text.
func (c *CLIClient) CallToolSimple(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	result, err := c.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}

	text := resultText(result)
	if result.IsError {
		return "", fmt.Errorf("tool error: %s", text)
	}
	return text, nil
}

// CallToolJSON executes a tool and returns the decoded envelope
func (c *CLIClient) CallToolJSON(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	textResult, err := c.CallToolSimple(ctx, name, args)
	if err != nil {
		return nil, err
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal([]byte(textResult), &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode tool result: %w", err)
	}
	return envelope, nil
}

// ListResources returns the resources the server advertises.
func (c *CLIClient) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.ListResources(timeoutCtx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return result.Resources, nil
}

// ReadResource returns the text of the resource at uri.
func (c *CLIClient) ReadResource(ctx context.Context, uri string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("client not connected")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.ReadResource(timeoutCtx, mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: uri},
	})
	if err != nil {
		return "", fmt.Errorf("failed to read resource %s: %w", uri, err)
	}

	var parts []string
	for _, content := range result.Contents {
		switch text := content.(type) {
		case mcp.TextResourceContents:
			parts = append(parts, text.Text)
		case *mcp.TextResourceContents:
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Close closes the connection
func (c *CLIClient) Close() error {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
	return nil
}

// initialize performs the MCP protocol handshake
func (c *CLIClient) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    "awsmcp-cli",
				Version: c.version,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.Initialize(timeoutCtx, req)
	return err
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if textContent, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, textContent.Text)
		}
	}
	return strings.Join(parts, "\n")
}
