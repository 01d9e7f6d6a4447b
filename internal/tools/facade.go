// Package tools exposes the gateway operations as MCP tools and resources.
//
// The Facade normalizes caller parameters (time windows, default DSN, tenant
// table names) and delegates to a Backend. Both the MCP handlers and the
// REST bridge go through the same Facade so the two surfaces return the same
// envelopes.
package tools

import (
	"context"
	"fmt"
	"time"

	"awsmcp/internal/gateway"
	"awsmcp/internal/translate"

	"github.com/benbjohnson/clock"
)

const (
	DefaultHoursBack = 24
	DefaultLimit     = 100

	// MaxHoursBack bounds the log search window to one year.
	MaxHoursBack = 24 * 365
)

// Backend executes queries. *gateway.Gateway implements it.
type Backend interface {
	QueryLogs(ctx context.Context, q gateway.LogQuery) gateway.LogResult
	QueryRelational(ctx context.Context, dsn, text, table string) gateway.SQLResult
	QueryDocumentStore(ctx context.Context, table, text, tenant string) gateway.DocumentResult
	SystemMetrics(ctx context.Context, tenant string) gateway.MetricsSnapshot
}

// Options configures a Facade.
type Options struct {
	// DatabaseURL is used when a relational call does not carry its own DSN.
	DatabaseURL string
	Environment string
	AppName     string
	Version     string
	Clock       clock.Clock
}

// LogsParams are the arguments of cloudwatch_logs_query.
type LogsParams struct {
	LogGroup  string
	Query     string
	HoursBack int
	Limit     int
}

// RelationalParams are the arguments of rds_data_query.
type RelationalParams struct {
	NaturalQuery string
	TableName    string
	DatabaseURL  string
}

// DocumentParams are the arguments of dynamodb_operations.
type DocumentParams struct {
	TableName    string
	NaturalQuery string
	TenantCode   string
}

// Facade normalizes tool parameters and forwards them to a Backend.
type Facade struct {
	backend     Backend
	databaseURL string
	environment string
	appName     string
	version     string
	clock       clock.Clock
}

// New creates a Facade over backend.
func New(backend Backend, opts Options) *Facade {
	f := &Facade{
		backend:     backend,
		databaseURL: opts.DatabaseURL,
		environment: opts.Environment,
		appName:     opts.AppName,
		version:     opts.Version,
		clock:       opts.Clock,
	}
	if f.clock == nil {
		f.clock = clock.New()
	}
	if f.environment == "" {
		f.environment = "dev"
	}
	if f.appName == "" {
		f.appName = "main"
	}
	if f.version == "" {
		f.version = ServerVersion
	}
	return f
}

// Logs searches a log group over the last HoursBack hours. Zero values take
// the defaults; out-of-range values are rejected without calling the backend.
func (f *Facade) Logs(ctx context.Context, p LogsParams) gateway.LogResult {
	hours := p.HoursBack
	if hours == 0 {
		hours = DefaultHoursBack
	}
	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	var err error
	switch {
	case hours < 1 || hours > MaxHoursBack:
		err = gateway.InvalidArgument("logs query", "hours_back must be between 1 and %d, got %d", MaxHoursBack, hours)
	case limit < 1 || limit > gateway.MaxLogLimit:
		err = gateway.InvalidArgument("logs query", "limit must be between 1 and %d, got %d", gateway.MaxLogLimit, limit)
	}
	if err != nil {
		return gateway.LogResult{
			Status:   gateway.StatusError,
			Query:    translate.TranslateLogQuery(p.Query),
			LogGroup: p.LogGroup,
			Err:      err,
		}
	}

	end := f.clock.Now()
	return f.backend.QueryLogs(ctx, gateway.LogQuery{
		LogGroup: p.LogGroup,
		Text:     p.Query,
		Start:    end.Add(-time.Duration(hours) * time.Hour),
		End:      end,
		Limit:    limit,
	})
}

// Relational queries Postgres. An empty DSN falls back to the configured
// one; when both are empty the backend reports a configuration error
// without connecting.
func (f *Facade) Relational(ctx context.Context, p RelationalParams) gateway.SQLResult {
	dsn := p.DatabaseURL
	if dsn == "" {
		dsn = f.databaseURL
	}
	return f.backend.QueryRelational(ctx, dsn, p.NaturalQuery, p.TableName)
}

// Documents scans a DynamoDB table, qualifying the table name for tenants.
func (f *Facade) Documents(ctx context.Context, p DocumentParams) gateway.DocumentResult {
	table := f.TenantTable(p.TableName, p.TenantCode)
	return f.backend.QueryDocumentStore(ctx, table, p.NaturalQuery, p.TenantCode)
}

// Metrics returns the system metrics snapshot for tenant, or for the whole
// system when tenant is empty.
func (f *Facade) Metrics(ctx context.Context, tenant string) gateway.MetricsSnapshot {
	return f.backend.SystemMetrics(ctx, tenant)
}

// TenantTable returns <env>-<app>-<table> when tenant is set and table
// unchanged otherwise.
func (f *Facade) TenantTable(table, tenant string) string {
	if tenant == "" {
		return table
	}
	return fmt.Sprintf("%s-%s-%s", f.environment, f.appName, table)
}
