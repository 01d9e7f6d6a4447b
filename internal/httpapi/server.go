// Package httpapi is a REST bridge over the tool facade for callers that do
// not speak MCP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"awsmcp/internal/gateway"
	"awsmcp/internal/tools"
	"awsmcp/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Facade is the tool surface the bridge forwards to.
type Facade interface {
	Logs(ctx context.Context, p tools.LogsParams) gateway.LogResult
	Relational(ctx context.Context, p tools.RelationalParams) gateway.SQLResult
	Documents(ctx context.Context, p tools.DocumentParams) gateway.DocumentResult
	Metrics(ctx context.Context, tenant string) gateway.MetricsSnapshot
	ServerInfo() tools.ServerInfo
}

// Server serves the REST bridge.
type Server struct {
	addr   string
	facade Facade
	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// NewServer creates a REST bridge listening on addr.
func NewServer(addr string, facade Facade) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		facade: facade,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Routes builds the gin engine with every bridge route.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	api := r.Group("/mcp")
	api.POST("/cloudwatch-logs", s.handleLogs)
	api.POST("/rds-data", s.handleRDS)
	api.POST("/dynamodb-data", s.handleDynamoDB)
	api.GET("/system-metrics", s.handleMetrics)
	api.GET("/health", s.handleHealth)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Log queries may poll for several minutes.
		WriteTimeout: 6 * time.Minute,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = listener.Addr().String()

	logging.Info("HTTPAPI", "REST bridge listening on %s", s.addr)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTPAPI", err, "REST bridge stopped")
		}
	}()
	return nil
}

// Addr returns the listen address, resolved once Start has bound it.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		logging.Debug("HTTPAPI", "%s %s -> %d in %s [%s]",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), id)
	}
}
