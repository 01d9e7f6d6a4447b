package httpapi

import (
	"net/http"
	"time"

	"awsmcp/internal/gateway"
	"awsmcp/internal/tools"

	"github.com/gin-gonic/gin"
)

type logsRequest struct {
	LogGroup  string `json:"logGroup" binding:"required"`
	Query     string `json:"query" binding:"required"`
	HoursBack int    `json:"hoursBack" binding:"omitempty,min=1,max=168"`
	Limit     int    `json:"limit" binding:"omitempty,min=1,max=1000"`
}

type rdsRequest struct {
	NaturalQuery string `json:"naturalQuery" binding:"required"`
	TableName    string `json:"tableName"`
	DatabaseURL  string `json:"databaseUrl"`
}

type dynamoDBRequest struct {
	TableName    string `json:"tableName" binding:"required"`
	NaturalQuery string `json:"naturalQuery" binding:"required"`
	TenantCode   string `json:"tenantCode"`
}

func (s *Server) handleLogs(c *gin.Context) {
	var req logsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res := s.facade.Logs(c.Request.Context(), tools.LogsParams{
		LogGroup:  req.LogGroup,
		Query:     req.Query,
		HoursBack: req.HoursBack,
		Limit:     req.Limit,
	})
	respond(c, res.Envelope(), res.Err)
}

func (s *Server) handleRDS(c *gin.Context) {
	var req rdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res := s.facade.Relational(c.Request.Context(), tools.RelationalParams{
		NaturalQuery: req.NaturalQuery,
		TableName:    req.TableName,
		DatabaseURL:  req.DatabaseURL,
	})
	respond(c, res.Envelope(), res.Err)
}

func (s *Server) handleDynamoDB(c *gin.Context) {
	var req dynamoDBRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res := s.facade.Documents(c.Request.Context(), tools.DocumentParams{
		TableName:    req.TableName,
		NaturalQuery: req.NaturalQuery,
		TenantCode:   req.TenantCode,
	})
	respond(c, res.Envelope(), res.Err)
}

func (s *Server) handleMetrics(c *gin.Context) {
	snap := s.facade.Metrics(c.Request.Context(), c.Query("tenantCode"))
	respond(c, snap.Envelope(), nil)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": gateway.StatusSuccess,
		"data": gin.H{
			"mcp_server_healthy": true,
			"server_info":        s.facade.ServerInfo(),
			"timestamp":          s.now().UTC().Format(time.RFC3339),
		},
	})
}

// respond wraps a tool envelope as {status, data}. Failed envelopes also
// surface error and error_kind at the top level.
func respond(c *gin.Context, env map[string]interface{}, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": gateway.StatusSuccess, "data": env})
		return
	}
	kind := gateway.KindOf(err)
	c.JSON(statusFor(kind), gin.H{
		"status":     gateway.StatusError,
		"error":      err.Error(),
		"error_kind": kind,
		"data":       env,
	})
}

func badRequest(c *gin.Context, err error) {
	env := tools.InvalidArgumentEnvelope(err)
	env["data"] = nil
	c.JSON(http.StatusBadRequest, env)
}

func statusFor(kind gateway.ErrorKind) int {
	switch kind {
	case gateway.KindInvalidArgument:
		return http.StatusBadRequest
	case gateway.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	case gateway.KindTimedOut:
		return http.StatusGatewayTimeout
	case gateway.KindCanceled:
		return 499
	default:
		return http.StatusBadGateway
	}
}
