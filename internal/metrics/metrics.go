package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RepositoryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_repository_operation_duration_seconds",
			Help:    "Weekly update repository operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "outcome"},
	)

	ChildRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_repository_child_rows_written_total",
			Help: "Child item rows inserted while saving weekly update sections",
		},
		[]string{"table"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveRepository records one repository call. A nil err counts as "ok".
func ObserveRepository(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RepositoryOperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
}

func AddChildRows(table string, n int) {
	if n <= 0 {
		return
	}
	ChildRowsWritten.WithLabelValues(table).Add(float64(n))
}

func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
