package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"awsmcp/internal/config"
	"awsmcp/internal/gateway"
	"awsmcp/internal/tools"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFacade() *tools.Facade {
	return tools.New(gateway.New(gateway.Options{}), tools.Options{})
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{}, newFacade())
	assert.Equal(t, "0.0.0.0", s.config.Host)
	assert.Equal(t, config.TransportStreamableHTTP, s.config.Transport)
	assert.Equal(t, "/mcp", s.config.EndpointPath)
	assert.Equal(t, tools.ServerVersion, s.config.Version)
}

func TestServer_StreamableHTTP(t *testing.T) {
	s := New(Config{Host: "127.0.0.1", Port: 0, Transport: config.TransportStreamableHTTP}, newFacade())
	require.NoError(t, s.Start(context.Background()))
	defer func() { assert.NoError(t, s.Stop(context.Background())) }()

	assert.Contains(t, s.Endpoint(), "http://127.0.0.1:")
	assert.Contains(t, s.Endpoint(), "/mcp")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := client.NewStreamableHttpClient(s.Endpoint())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Start(ctx))

	init, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "awsmcp-test", Version: "0.0.0"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, tools.ServerName, init.ServerInfo.Name)

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Tools, 4)

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: tools.ToolSystemMetrics},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestServer_Stdio(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	defer inW.Close()
	defer outR.Close()

	s := New(Config{Transport: config.TransportStdio, Stdin: inR, Stdout: outW}, newFacade())
	require.NoError(t, s.Start(context.Background()))
	assert.Empty(t, s.Endpoint())

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(outR)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	_, err := io.WriteString(inW, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`+"\n")
	require.NoError(t, err)

	select {
	case line := <-lines:
		var resp struct {
			ID     int `json:"id"`
			Result struct {
				ServerInfo struct {
					Name string `json:"name"`
				} `json:"serverInfo"`
			} `json:"result"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		assert.Equal(t, 1, resp.ID)
		assert.Equal(t, tools.ServerName, resp.Result.ServerInfo.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no initialize response on stdout")
	}

	require.NoError(t, s.Stop(context.Background()))
	_ = outW.Close()
}

func TestServer_Lifecycle(t *testing.T) {
	t.Run("unsupported transport", func(t *testing.T) {
		s := New(Config{Transport: "carrier-pigeon"}, newFacade())
		err := s.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported transport")
	})

	t.Run("stop before start", func(t *testing.T) {
		s := New(Config{}, newFacade())
		assert.Error(t, s.Stop(context.Background()))
	})

	t.Run("double start", func(t *testing.T) {
		s := New(Config{Host: "127.0.0.1", Transport: config.TransportSSE}, newFacade())
		require.NoError(t, s.Start(context.Background()))
		defer s.Stop(context.Background())

		assert.Error(t, s.Start(context.Background()))
		assert.Contains(t, s.Endpoint(), "/sse")
	})
}
