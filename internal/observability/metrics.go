package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planodash_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planodash_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	dashboardComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planodash_dashboard_computations_total",
			Help: "Dashboard computations by outcome.",
		},
		[]string{"outcome"},
	)

	dashboardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planodash_dashboard_duration_seconds",
			Help:    "Time spent deriving one dashboard.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	loadedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planodash_loaded_rows",
			Help: "Rows held in memory per source table.",
		},
		[]string{"table"},
	)

	loadIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planodash_load_issues_total",
			Help: "Problems met while loading sources, by error code.",
		},
		[]string{"code"},
	)
)

// MetricsHandler serves the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDashboard counts one computation. outcome is "ok", "empty" or an
// error code.
func RecordDashboard(outcome string, duration time.Duration) {
	dashboardComputations.WithLabelValues(outcome).Inc()
	dashboardDuration.Observe(duration.Seconds())
}

func SetLoadedRows(table string, rows int) {
	loadedRows.WithLabelValues(table).Set(float64(rows))
}

func RecordLoadIssue(code string) {
	loadIssues.WithLabelValues(code).Inc()
}
