package gateway

import (
	"context"
	"fmt"
	"time"

	"awsmcp/internal/translate"
	"awsmcp/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const stopQueryTimeout = 5 * time.Second

// MaxLogLimit is the largest result limit Logs Insights accepts.
const MaxLogLimit = 10000

// QueryLogs runs a Logs Insights query built from q.Text and waits for it to
// reach a terminal status. The wait is bounded by the configured query
// timeout and by ctx.
func (g *Gateway) QueryLogs(ctx context.Context, q LogQuery) LogResult {
	query := translate.TranslateLogQuery(q.Text)
	result := LogResult{Query: query, LogGroup: q.LogGroup}

	fail := func(err error) LogResult {
		logging.Error("Gateway", err, "CloudWatch Logs query on %s failed", q.LogGroup)
		result.Status = StatusError
		result.Err = err
		return result
	}

	if g.logs == nil {
		return fail(newError(KindConfigurationMissing, "logs query", fmt.Errorf("%w: CloudWatch Logs client", ErrConfigurationMissing)))
	}

	now := g.clock.Now()
	start, end := q.Start, q.End
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-defaultLookback)
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultLogLimit
	}
	if limit < 0 || limit > MaxLogLimit {
		return fail(InvalidArgument("logs query", "limit must be between 1 and %d, got %d", MaxLogLimit, limit))
	}
	if !start.Before(end) {
		return fail(InvalidArgument("logs query", "start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}

	started, err := g.logs.StartQuery(ctx, &cloudwatchlogs.StartQueryInput{
		LogGroupName: aws.String(q.LogGroup),
		StartTime:    aws.Int64(start.Unix()),
		EndTime:      aws.Int64(end.Unix()),
		QueryString:  aws.String(query),
		Limit:        aws.Int32(int32(limit)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return fail(contextError("start query", ctx.Err()))
		}
		return fail(newError(KindBackendFailure, "start query", err))
	}

	queryID := aws.ToString(started.QueryId)
	logging.Debug("Gateway", "Started Insights query %s on %s: %s", queryID, q.LogGroup, query)

	out, err := g.waitForQuery(ctx, queryID)
	if err != nil {
		return fail(err)
	}

	result.Status = StatusSuccess
	result.Results = flattenResults(out.Results)
	if out.Statistics != nil {
		result.Statistics = LogStatistics{
			RecordsMatched: out.Statistics.RecordsMatched,
			RecordsScanned: out.Statistics.RecordsScanned,
			BytesScanned:   out.Statistics.BytesScanned,
		}
	}
	return result
}

// waitForQuery polls GetQueryResults until the query is terminal.
func (g *Gateway) waitForQuery(parent context.Context, queryID string) (*cloudwatchlogs.GetQueryResultsOutput, error) {
	ctx, cancel := g.clock.WithTimeout(parent, g.queryTimeout)
	defer cancel()

	for {
		out, err := g.logs.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{
			QueryId: aws.String(queryID),
		})
		if err != nil {
			if ctx.Err() != nil {
				g.stopQuery(parent, queryID)
				return nil, contextError("get query results", ctx.Err())
			}
			return nil, newError(KindBackendFailure, "get query results", err)
		}

		switch out.Status {
		case types.QueryStatusComplete:
			return out, nil
		case types.QueryStatusFailed, types.QueryStatusCancelled, types.QueryStatusTimeout:
			return nil, newError(KindBackendFailure, "get query results",
				fmt.Errorf("%w: query %s ended with status %s", ErrQueryFailed, queryID, out.Status))
		}

		timer := g.clock.Timer(g.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			g.stopQuery(parent, queryID)
			return nil, contextError("wait for query", ctx.Err())
		case <-timer.C:
		}
	}
}

// stopQuery cancels an abandoned query so it stops consuming Insights
// capacity. Failures are only logged.
func (g *Gateway) stopQuery(parent context.Context, queryID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), stopQueryTimeout)
	defer cancel()

	if _, err := g.logs.StopQuery(ctx, &cloudwatchlogs.StopQueryInput{QueryId: aws.String(queryID)}); err != nil {
		logging.Warn("Gateway", "Failed to stop abandoned query %s: %v", queryID, err)
	}
}

// flattenResults converts Insights rows into field/value maps.
func flattenResults(rows [][]types.ResultField) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(row))
		for _, field := range row {
			record[aws.ToString(field.Field)] = aws.ToString(field.Value)
		}
		out = append(out, record)
	}
	return out
}
