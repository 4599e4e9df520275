package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API. A nil *Metrics records
// nothing.
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Record operation metrics
	recordOperationsTotal *prometheus.CounterVec
	recordBytes           *prometheus.HistogramVec

	// Value check metrics
	valueChecksTotal *prometheus.CounterVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	handler http.Handler
}

// NewMetrics creates the API metrics and registers them with reg. A nil reg
// uses the default Prometheus registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	handler := promhttp.Handler()
	if reg != nil {
		registerer = reg
		handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	factory := promauto.With(registerer)

	m := &Metrics{
		handler: handler,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attrdata_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attrdata_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "attrdata_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		recordOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attrdata_record_operations_total",
				Help: "Total number of record operations",
			},
			[]string{"operation", "group", "status"},
		),

		recordBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attrdata_record_bytes",
				Help:    "Encoded size of archived records in bytes",
				Buckets: prometheus.ExponentialBuckets(8, 4, 8),
			},
			[]string{"group"},
		),

		valueChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attrdata_value_checks_total",
				Help: "Total number of value checks by result",
			},
			[]string{"group", "result"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attrdata_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),
	}

	return m
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.handler == nil {
		return promhttp.Handler()
	}
	return m.handler
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordOperation records a record operation on group
func (m *Metrics) RecordOperation(operation, group string, success bool) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.recordOperationsTotal.WithLabelValues(operation, group, status).Inc()
}

// RecordSize records the encoded size of a stored record
func (m *Metrics) RecordSize(group string, size int) {
	if m == nil {
		return
	}
	m.recordBytes.WithLabelValues(group).Observe(float64(size))
}

// RecordCheck records a value check; result is "valid" or the error kind
func (m *Metrics) RecordCheck(group, result string) {
	if m == nil {
		return
	}
	m.valueChecksTotal.WithLabelValues(group, result).Inc()
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
