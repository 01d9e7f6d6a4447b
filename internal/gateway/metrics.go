package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"awsmcp/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"golang.org/x/sync/errgroup"
)

// MetricEntities are the tables counted by SystemMetrics.
var MetricEntities = []string{"users", "projects", "tasks"}

// aggregateMetric is a 24h hourly sum fetched from CloudWatch.
type aggregateMetric struct {
	Key        string
	Namespace  string
	MetricName string
}

var aggregateMetrics = []aggregateMetric{
	{Key: "lambda_invocations_24h", Namespace: "AWS/Lambda", MetricName: "Invocations"},
	{Key: "api_requests_24h", Namespace: "AWS/ApiGateway", MetricName: "Count"},
}

const (
	metricsLookback = defaultLookback
	metricsPeriod   = 3600
	countQueryText  = "件数"
)

// EntityTable returns the table counted for entity. Tenant tables are named
// <env>-<tenant>-<entity>, shared ones <env>-<app>-<entity>.
func (g *Gateway) EntityTable(tenant, entity string) string {
	scope := g.appName
	if tenant != "" {
		scope = tenant
	}
	return fmt.Sprintf("%s-%s-%s", g.environment, scope, entity)
}

// SystemMetrics gathers per-entity item counts and two 24h CloudWatch sums.
// Every sub-fetch runs concurrently; a failed one is logged, recorded as
// zero and listed in Degraded. The snapshot itself always succeeds.
func (g *Gateway) SystemMetrics(ctx context.Context, tenant string) MetricsSnapshot {
	snapshot := MetricsSnapshot{
		Status:  StatusSuccess,
		Metrics: make(map[string]float64, len(MetricEntities)+len(aggregateMetrics)),
		Tenant:  tenant,
	}

	var mu sync.Mutex
	record := func(key string, value float64, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		snapshot.Metrics[key] = value
		if failed {
			snapshot.Degraded = append(snapshot.Degraded, key)
		}
	}

	group, gctx := errgroup.WithContext(ctx)

	for _, entity := range MetricEntities {
		key := entity + "_count"
		table := g.EntityTable(tenant, entity)
		group.Go(func() error {
			res := g.QueryDocumentStore(gctx, table, countQueryText, tenant)
			if res.Status != StatusSuccess {
				logging.Warn("Metrics", "Failed to get count for %s: %v", entity, res.Err)
				record(key, 0, true)
				return nil
			}
			record(key, float64(res.Count), false)
			return nil
		})
	}

	now := g.clock.Now()
	for _, metric := range aggregateMetrics {
		group.Go(func() error {
			sum, err := g.sumMetric(gctx, metric, now)
			if err != nil {
				logging.Warn("Metrics", "Failed to get %s/%s metrics: %v", metric.Namespace, metric.MetricName, err)
				record(metric.Key, 0, true)
				return nil
			}
			record(metric.Key, sum, false)
			return nil
		})
	}

	_ = group.Wait()

	sort.Strings(snapshot.Degraded)
	snapshot.Timestamp = g.clock.Now()
	return snapshot
}

func (g *Gateway) sumMetric(ctx context.Context, metric aggregateMetric, now time.Time) (float64, error) {
	if g.metrics == nil {
		return 0, newError(KindConfigurationMissing, "metric statistics", fmt.Errorf("%w: CloudWatch client", ErrConfigurationMissing))
	}

	out, err := g.metrics.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(metric.Namespace),
		MetricName: aws.String(metric.MetricName),
		StartTime:  aws.Time(now.Add(-metricsLookback)),
		EndTime:    aws.Time(now),
		Period:     aws.Int32(metricsPeriod),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticSum},
	})
	if err != nil {
		return 0, newError(KindBackendFailure, "metric statistics", err)
	}

	var sum float64
	for _, point := range out.Datapoints {
		sum += aws.ToFloat64(point.Sum)
	}
	return sum, nil
}
