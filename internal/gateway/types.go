package gateway

import (
	"time"
)

// Status is the outcome tag carried by every result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// LogQuery describes a CloudWatch Logs Insights request.
type LogQuery struct {
	LogGroup string
	Text     string
	Start    time.Time // zero means now-24h
	End      time.Time // zero means now
	Limit    int
}

// LogStatistics mirrors the Insights query statistics.
type LogStatistics struct {
	RecordsMatched float64 `json:"recordsMatched"`
	RecordsScanned float64 `json:"recordsScanned"`
	BytesScanned   float64 `json:"bytesScanned"`
}

// LogResult is the outcome of QueryLogs.
type LogResult struct {
	Status     Status
	Results    []map[string]string
	Statistics LogStatistics
	Query      string
	LogGroup   string
	Err        error
}

// Envelope renders the result in its wire shape.
func (r LogResult) Envelope() map[string]interface{} {
	env := map[string]interface{}{
		"status":    r.Status,
		"query":     r.Query,
		"log_group": r.LogGroup,
	}
	if r.Status == StatusError {
		addError(env, r.Err)
		return env
	}
	results := r.Results
	if results == nil {
		results = []map[string]string{}
	}
	env["results"] = results
	env["statistics"] = r.Statistics
	return env
}

// SQLResult is the outcome of QueryRelational.
type SQLResult struct {
	Status Status
	Data   []map[string]interface{}
	Query  string
	Err    error
}

// Envelope renders the result in its wire shape.
func (r SQLResult) Envelope() map[string]interface{} {
	env := map[string]interface{}{
		"status": r.Status,
		"query":  r.Query,
	}
	if r.Status == StatusError {
		addError(env, r.Err)
		return env
	}
	data := r.Data
	if data == nil {
		data = []map[string]interface{}{}
	}
	env["data"] = data
	env["count"] = len(data)
	return env
}

// DocumentResult is the outcome of QueryDocumentStore. CountOnly results
// carry Count without Data.
type DocumentResult struct {
	Status    Status
	Table     string
	Text      string
	CountOnly bool
	Count     int
	Data      []map[string]interface{}
	Err       error
}

// Envelope renders the result in its wire shape.
func (r DocumentResult) Envelope() map[string]interface{} {
	env := map[string]interface{}{
		"status": r.Status,
		"table":  r.Table,
	}
	if r.Status == StatusError {
		env["query"] = r.Text
		addError(env, r.Err)
		return env
	}
	env["count"] = r.Count
	if !r.CountOnly {
		data := r.Data
		if data == nil {
			data = []map[string]interface{}{}
		}
		env["data"] = data
	}
	return env
}

// MetricsSnapshot is the outcome of SystemMetrics. Degraded lists the metric
// keys that were zeroed because their fetch failed.
type MetricsSnapshot struct {
	Status    Status
	Metrics   map[string]float64
	Timestamp time.Time
	Tenant    string
	Degraded  []string
}

// Envelope renders the snapshot in its wire shape.
func (s MetricsSnapshot) Envelope() map[string]interface{} {
	var tenant interface{}
	if s.Tenant != "" {
		tenant = s.Tenant
	}
	degraded := s.Degraded
	if degraded == nil {
		degraded = []string{}
	}
	return map[string]interface{}{
		"status":    s.Status,
		"metrics":   s.Metrics,
		"timestamp": s.Timestamp.Format(time.RFC3339),
		"tenant":    tenant,
		"degraded":  degraded,
	}
}

func addError(env map[string]interface{}, err error) {
	if err == nil {
		err = ErrQueryFailed
	}
	env["error"] = err.Error()
	env["error_kind"] = KindOf(err)
}
