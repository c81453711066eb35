// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Pipeline records merge run metrics. A nil *Pipeline is a no-op.
type Pipeline struct {
	Runs         *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	InputFiles   *prometheus.GaugeVec
	InputRows    *prometheus.GaugeVec
	RowIssues    *prometheus.GaugeVec
	MergedRows   prometheus.Gauge
	InvalidDates prometheus.Gauge
}

// NewPipeline registers the merge metrics with reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aadhaar_merge_runs_total",
			Help: "Merge runs by outcome",
		}, []string{"status"}),

		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aadhaar_merge_duration_seconds",
			Help:    "Duration of a merge run from glob to persisted table",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		InputFiles: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aadhaar_merge_input_files",
			Help: "Input files read by category in the last run",
		}, []string{"category"}),

		InputRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aadhaar_merge_input_rows",
			Help: "Input rows read by category in the last run",
		}, []string{"category"}),

		RowIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aadhaar_merge_row_issues",
			Help: "Count cells that failed to parse by category in the last run",
		}, []string{"category"}),

		MergedRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "aadhaar_merge_master_rows",
			Help: "Rows in the last persisted master table",
		}),

		InvalidDates: f.NewGauge(prometheus.GaugeOpts{
			Name: "aadhaar_merge_invalid_dates",
			Help: "Master rows carrying the invalid-date marker in the last run",
		}),
	}
}

// IncrementRun records a run outcome.
func (m *Pipeline) IncrementRun(status string) {
	if m != nil {
		m.Runs.WithLabelValues(status).Inc()
	}
}

// ObserveRunDuration records the total run duration.
func (m *Pipeline) ObserveRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}

// ObserveCategory records per-category input volumes.
func (m *Pipeline) ObserveCategory(category string, files, rows, issues int) {
	if m != nil {
		m.InputFiles.WithLabelValues(category).Set(float64(files))
		m.InputRows.WithLabelValues(category).Set(float64(rows))
		m.RowIssues.WithLabelValues(category).Set(float64(issues))
	}
}

// SetMerged records the size of the persisted table.
func (m *Pipeline) SetMerged(rows, invalidDates int) {
	if m != nil {
		m.MergedRows.Set(float64(rows))
		m.InvalidDates.Set(float64(invalidDates))
	}
}

// Dashboard records API-side metrics. A nil *Dashboard is a no-op.
type Dashboard struct {
	TableReloads  *prometheus.CounterVec
	TableRecords  prometheus.Gauge
	GeoAvailable  prometheus.Gauge
	ViewRequests  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewDashboard registers the dashboard metrics with reg.
func NewDashboard(reg prometheus.Registerer) *Dashboard {
	f := promauto.With(reg)
	return &Dashboard{
		TableReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aadhaar_dashboard_table_reloads_total",
			Help: "Master table loads into the query store by outcome",
		}, []string{"status"}),

		TableRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "aadhaar_dashboard_table_records",
			Help: "Records in the currently loaded master table",
		}),

		GeoAvailable: f.NewGauge(prometheus.GaugeOpts{
			Name: "aadhaar_dashboard_geo_available",
			Help: "1 when the geocoordinate reference is loaded, 0 otherwise",
		}),

		ViewRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aadhaar_dashboard_view_requests_total",
			Help: "Dashboard view requests by view and HTTP status",
		}, []string{"view", "status"}),

		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aadhaar_dashboard_query_duration_seconds",
			Help:    "Duration of query store aggregations by view",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"view"}),
	}
}

// IncrementReload records a table reload outcome.
func (m *Dashboard) IncrementReload(status string) {
	if m != nil {
		m.TableReloads.WithLabelValues(status).Inc()
	}
}

// SetTableRecords records the loaded table size.
func (m *Dashboard) SetTableRecords(n int) {
	if m != nil {
		m.TableRecords.Set(float64(n))
	}
}

// SetGeoAvailable records whether map views can be served.
func (m *Dashboard) SetGeoAvailable(ok bool) {
	if m != nil {
		v := 0.0
		if ok {
			v = 1
		}
		m.GeoAvailable.Set(v)
	}
}

// IncrementView records a view request.
func (m *Dashboard) IncrementView(view string, status int) {
	if m != nil {
		m.ViewRequests.WithLabelValues(view, statusLabel(status)).Inc()
	}
}

// ObserveQuery records how long a view's aggregation took.
func (m *Dashboard) ObserveQuery(view string, d time.Duration) {
	if m != nil {
		m.QueryDuration.WithLabelValues(view).Observe(d.Seconds())
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
