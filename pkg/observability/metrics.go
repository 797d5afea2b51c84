// Package observability holds the process-wide Prometheus collectors.
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
	// httpRequestsTotal counts requests by route pattern, method and status.
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// httpRequestDuration tracks handler latency.
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projecthub_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"route", "method"})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_messages_sent_total",
		Help: "Messages stored by kind (direct or broadcast)",
	}, []string{"kind"})

	accessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_access_denied_total",
		Help: "Requests rejected by an access rule, by resource",
	}, []string{"resource"})

	blobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_blob_operations_total",
		Help: "Blob store operations by operation and result",
	}, []string{"operation", "result"})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// MessageSent counts a stored message.
func MessageSent(kind string) {
	messagesSent.WithLabelValues(kind).Inc()
}

// AccessDenied counts a rejected access check.
func AccessDenied(resource string) {
	accessDenied.WithLabelValues(resource).Inc()
}

// BlobOperation counts a blob store call.
func BlobOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	blobOperations.WithLabelValues(operation, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
