// Package gateway executes translated queries against CloudWatch Logs,
// Postgres, DynamoDB and CloudWatch metrics.
//
// A Gateway owns its client handles for the lifetime of the process and is
// safe for concurrent use. None of its operations return Go errors: every
// outcome is a result value tagged with a Status, and failures carry an
// *Error whose Kind tells callers what went wrong.
package gateway

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5"
)

const (
	defaultPollInterval   = time.Second
	defaultQueryTimeout   = 5 * time.Minute
	defaultConnectTimeout = 10 * time.Second
	defaultLogLimit       = 100
	defaultScanLimit      = 100
	defaultLookback       = 24 * time.Hour
)

// LogsAPI is the subset of the CloudWatch Logs client used for Insights queries.
type LogsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
	StopQuery(ctx context.Context, params *cloudwatchlogs.StopQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StopQueryOutput, error)
}

// DocumentAPI is the subset of the DynamoDB client used for scans.
type DocumentAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// MetricsAPI is the subset of the CloudWatch client used for statistics.
type MetricsAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// SQLConn is a single relational connection.
type SQLConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// Connector opens a relational connection for a DSN.
type Connector func(ctx context.Context, dsn string) (SQLConn, error)

// PgxConnector returns a Connector backed by pgx with the given connect timeout.
func PgxConnector(connectTimeout time.Duration) Connector {
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	return func(ctx context.Context, dsn string) (SQLConn, error) {
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, err
		}
		cfg.ConnectTimeout = connectTimeout
		conn, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Options configures a Gateway. Nil clients make the matching operations
// fail with a configuration error.
type Options struct {
	Logs      LogsAPI
	Documents DocumentAPI
	Metrics   MetricsAPI
	Connector Connector
	Clock     clock.Clock

	PollInterval time.Duration
	QueryTimeout time.Duration

	// Environment and AppName qualify the per-entity tables counted by
	// SystemMetrics.
	Environment string
	AppName     string
}

// Gateway executes queries against the configured backends.
type Gateway struct {
	logs      LogsAPI
	documents DocumentAPI
	metrics   MetricsAPI
	connect   Connector
	clock     clock.Clock

	pollInterval time.Duration
	queryTimeout time.Duration
	environment  string
	appName      string
}

// New creates a Gateway from opts, filling in defaults.
func New(opts Options) *Gateway {
	g := &Gateway{
		logs:         opts.Logs,
		documents:    opts.Documents,
		metrics:      opts.Metrics,
		connect:      opts.Connector,
		clock:        opts.Clock,
		pollInterval: opts.PollInterval,
		queryTimeout: opts.QueryTimeout,
		environment:  opts.Environment,
		appName:      opts.AppName,
	}
	if g.clock == nil {
		g.clock = clock.New()
	}
	if g.connect == nil {
		g.connect = PgxConnector(defaultConnectTimeout)
	}
	if g.pollInterval <= 0 {
		g.pollInterval = defaultPollInterval
	}
	if g.queryTimeout <= 0 {
		g.queryTimeout = defaultQueryTimeout
	}
	if g.environment == "" {
		g.environment = "dev"
	}
	if g.appName == "" {
		g.appName = "main"
	}
	return g
}

// NewFromAWSConfig builds the AWS clients from cfg and creates a Gateway.
// Clients already set in opts are kept.
func NewFromAWSConfig(cfg aws.Config, opts Options) *Gateway {
	if opts.Logs == nil {
		opts.Logs = cloudwatchlogs.NewFromConfig(cfg)
	}
	if opts.Documents == nil {
		opts.Documents = dynamodb.NewFromConfig(cfg)
	}
	if opts.Metrics == nil {
		opts.Metrics = cloudwatch.NewFromConfig(cfg)
	}
	return New(opts)
}
