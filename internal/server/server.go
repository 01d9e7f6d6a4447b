// Package server runs the MCP tool server over streamable HTTP, SSE or stdio.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"awsmcp/internal/config"
	"awsmcp/internal/tools"
	"awsmcp/pkg/logging"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	keepAliveInterval = 30 * time.Second
)

// Config configures a Server.
type Config struct {
	Host         string
	Port         int
	Transport    string
	EndpointPath string
	Version      string

	// Stdin and Stdout are used by the stdio transport. They default to the
	// process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

// Server serves the tool facade on one transport.
type Server struct {
	config Config
	facade *tools.Facade

	mcp        *mcpserver.MCPServer
	httpServer *http.Server
	addr       string

	cancelFunc context.CancelFunc
	errCh      chan error
	wg         sync.WaitGroup
	mu         sync.RWMutex
}

// New creates a server for facade. Zero config fields take the defaults of
// config.GetDefaultConfig.
func New(cfg Config, facade *tools.Facade) *Server {
	defaults := config.GetDefaultConfig().Server
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.Transport == "" {
		cfg.Transport = defaults.Transport
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = defaults.EndpointPath
	}
	if cfg.Version == "" {
		cfg.Version = tools.ServerVersion
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	return &Server{
		config: cfg,
		facade: facade,
		errCh:  make(chan error, 1),
	}
}

// Start registers the tools and starts serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mcp != nil {
		return fmt.Errorf("server already started")
	}

	mcp := mcpserver.NewMCPServer(
		tools.ServerName,
		s.config.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithRecovery(),
	)
	s.facade.Register(mcp)

	runCtx, cancel := context.WithCancel(ctx)

	var err error
	switch s.config.Transport {
	case config.TransportStdio:
		s.startStdio(runCtx, mcp)
	case config.TransportSSE, config.TransportStreamableHTTP:
		err = s.startHTTP(mcp)
	default:
		err = fmt.Errorf("unsupported transport %q", s.config.Transport)
	}
	if err != nil {
		cancel()
		return err
	}

	s.mcp = mcp
	s.cancelFunc = cancel
	return nil
}

func (s *Server) startStdio(ctx context.Context, mcp *mcpserver.MCPServer) {
	stdio := mcpserver.NewStdioServer(mcp)

	logging.Info("Server", "Serving MCP on stdio")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := stdio.Listen(ctx, s.config.Stdin, s.config.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.report(fmt.Errorf("stdio transport: %w", err))
			return
		}
		s.report(nil)
	}()
}

func (s *Server) startHTTP(mcp *mcpserver.MCPServer) error {
	listenAddr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}
	s.addr = ln.Addr().String()

	mux := http.NewServeMux()
	switch s.config.Transport {
	case config.TransportSSE:
		sse := mcpserver.NewSSEServer(
			mcp,
			mcpserver.WithBaseURL(s.baseURL()),
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
			mcpserver.WithKeepAlive(true),
			mcpserver.WithKeepAliveInterval(keepAliveInterval),
		)
		mux.Handle("/", sse)
	default:
		mux.Handle(s.config.EndpointPath, mcpserver.NewStreamableHTTPServer(mcp))
	}

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logging.Info("Server", "Starting MCP %s server on %s", s.config.Transport, s.addr)

	httpServer := s.httpServer
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server", err, "MCP HTTP server error")
			s.report(err)
		}
	}()
	return nil
}

// Stop shuts the transport down and waits for it to exit.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.mcp == nil {
		s.mu.Unlock()
		return fmt.Errorf("server not started")
	}

	logging.Info("Server", "Stopping MCP server")

	cancelFunc := s.cancelFunc
	httpServer := s.httpServer
	s.mu.Unlock()

	cancelFunc()

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Server", "Graceful shutdown incomplete, closing connections: %v", err)
			_ = httpServer.Close()
		}
	}

	s.wg.Wait()

	s.mu.Lock()
	s.mcp = nil
	s.httpServer = nil
	s.cancelFunc = nil
	s.mu.Unlock()

	return nil
}

// Errors delivers the first fatal transport error. For stdio it also
// delivers nil when the input stream ends.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Addr returns the bound listen address for HTTP transports.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Endpoint returns the URL clients connect to, or "" for stdio.
func (s *Server) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.config.Transport {
	case config.TransportSSE:
		return s.baseURL() + "/sse"
	case config.TransportStreamableHTTP:
		return s.baseURL() + s.config.EndpointPath
	default:
		return ""
	}
}

func (s *Server) baseURL() string {
	host, port, err := net.SplitHostPort(s.addr)
	if err != nil {
		host, port = s.config.Host, strconv.Itoa(s.config.Port)
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func (s *Server) report(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}
