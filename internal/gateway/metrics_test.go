package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingDocuments(counts map[string]int32, failing map[string]bool) *fakeDocuments {
	return &fakeDocuments{scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
		table := aws.ToString(in.TableName)
		if failing[table] {
			return nil, errors.New("AccessDeniedException")
		}
		return &dynamodb.ScanOutput{Count: counts[table]}, nil
	}}
}

func TestEntityTable(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		tenant string
		want   string
	}{
		{name: "shared defaults", tenant: "", want: "dev-main-users"},
		{name: "tenant", tenant: "acme", want: "dev-acme-users"},
		{name: "custom env", opts: Options{Environment: "prod", AppName: "portal"}, want: "prod-portal-users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.opts)
			assert.Equal(t, tt.want, g.EntityTable(tt.tenant, "users"))
		})
	}
}

func TestSystemMetrics_AllSucceed(t *testing.T) {
	mock := clock.NewMock()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.Set(now)

	docs := countingDocuments(map[string]int32{
		"dev-acme-users":    10,
		"dev-acme-projects": 4,
		"dev-acme-tasks":    25,
	}, nil)
	metrics := &fakeMetrics{sums: map[string][]float64{
		"AWS/Lambda":     {100, 50.5},
		"AWS/ApiGateway": {7},
	}}
	g := New(Options{Documents: docs, Metrics: metrics, Clock: mock})

	snap := g.SystemMetrics(context.Background(), "acme")

	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Equal(t, map[string]float64{
		"users_count":            10,
		"projects_count":         4,
		"tasks_count":            25,
		"lambda_invocations_24h": 150.5,
		"api_requests_24h":       7,
	}, snap.Metrics)
	assert.Empty(t, snap.Degraded)
	assert.Equal(t, now, snap.Timestamp)

	for _, in := range docs.scanned() {
		assert.NotNil(t, in.FilterExpression, "tenant scans are filtered")
	}

	env := snap.Envelope()
	assert.Equal(t, "acme", env["tenant"])
	assert.Equal(t, "2025-06-01T12:00:00Z", env["timestamp"])
	assert.Equal(t, []string{}, env["degraded"])
}

func TestSystemMetrics_PartialFailure(t *testing.T) {
	docs := countingDocuments(map[string]int32{
		"dev-main-users": 3,
		"dev-main-tasks": 9,
	}, map[string]bool{"dev-main-projects": true})
	metrics := &fakeMetrics{
		sums:   map[string][]float64{"AWS/Lambda": {12}},
		errors: map[string]error{"AWS/ApiGateway": errors.New("throttled")},
	}
	g := New(Options{Documents: docs, Metrics: metrics})

	snap := g.SystemMetrics(context.Background(), "")

	assert.Equal(t, StatusSuccess, snap.Status)
	assert.Equal(t, float64(3), snap.Metrics["users_count"])
	assert.Equal(t, float64(0), snap.Metrics["projects_count"])
	assert.Equal(t, float64(9), snap.Metrics["tasks_count"])
	assert.Equal(t, float64(12), snap.Metrics["lambda_invocations_24h"])
	assert.Equal(t, float64(0), snap.Metrics["api_requests_24h"])
	assert.Equal(t, []string{"api_requests_24h", "projects_count"}, snap.Degraded)

	env := snap.Envelope()
	assert.Nil(t, env["tenant"])
	for _, in := range docs.scanned() {
		assert.Nil(t, in.FilterExpression)
	}
}

func TestSystemMetrics_NoClients(t *testing.T) {
	g := New(Options{})

	snap := g.SystemMetrics(context.Background(), "")

	assert.Equal(t, StatusSuccess, snap.Status)
	require.Len(t, snap.Metrics, len(MetricEntities)+len(aggregateMetrics))
	for key, value := range snap.Metrics {
		assert.Zero(t, value, key)
	}
	assert.Len(t, snap.Degraded, len(MetricEntities)+len(aggregateMetrics))
}
