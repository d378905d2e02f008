// Package telemetry exposes Prometheus metrics for the HTTP surface and the
// steganography operations.
package telemetry

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors on a private registry.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	verdictsTotal     *prometheus.CounterVec

	embedPSNR prometheus.Histogram
	embedSSIM prometheus.Histogram
	embedBER  prometheus.Histogram

	weightsLoaded    prometheus.Gauge
	websocketClients prometheus.Gauge
	queueDepth       prometheus.Gauge
	uploadsPruned    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stegano_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stegano_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stegano_operations_total",
				Help: "Steganography operations by type and outcome",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stegano_operation_duration_seconds",
				Help:    "Forward pass latency per operation",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"operation"},
		),
		verdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stegano_analyze_verdicts_total",
				Help: "Steganalysis verdicts",
			},
			[]string{"verdict"},
		),
		embedPSNR: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stegano_embed_psnr_db",
			Help:    "PSNR of stego images against their cover",
			Buckets: []float64{10, 20, 25, 30, 35, 40, 45, 50, 100},
		}),
		embedSSIM: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stegano_embed_ssim",
			Help:    "SSIM of stego images against their cover",
			Buckets: []float64{0, 0.5, 0.8, 0.9, 0.95, 0.98, 0.99, 1},
		}),
		embedBER: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stegano_embed_ber",
			Help:    "Bit error rate of the self-check extraction",
			Buckets: []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		weightsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stegano_weights_loaded",
			Help: "1 when a trained checkpoint is loaded, 0 for random weights",
		}),
		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stegano_websocket_clients",
			Help: "Connected activity feed clients",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stegano_processing_queue_depth",
			Help: "Jobs waiting for a worker",
		}),
		uploadsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stegano_uploads_pruned_total",
			Help: "Upload files deleted to stay under the directory limit",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.operationsTotal,
		m.operationDuration,
		m.verdictsTotal,
		m.embedPSNR,
		m.embedSSIM,
		m.embedBER,
		m.weightsLoaded,
		m.websocketClients,
		m.queueDepth,
		m.uploadsPruned,
	)
	return m
}

// RecordOperation records one engine call.
func (m *Metrics) RecordOperation(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEmbedQuality records the stego report of a successful embedding.
func (m *Metrics) RecordEmbedQuality(psnr, ssim, ber float64) {
	m.embedPSNR.Observe(psnr)
	m.embedSSIM.Observe(ssim)
	m.embedBER.Observe(ber)
}

// RecordVerdict counts a steganalysis decision.
func (m *Metrics) RecordVerdict(isStego bool) {
	verdict := "clean"
	if isStego {
		verdict = "stego"
	}
	m.verdictsTotal.WithLabelValues(verdict).Inc()
}

// SetWeightsLoaded reports whether a checkpoint is in use.
func (m *Metrics) SetWeightsLoaded(loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	m.weightsLoaded.Set(v)
}

func (m *Metrics) SetWebsocketClients(n int) {
	m.websocketClients.Set(float64(n))
}

func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) AddUploadsPruned(n int) {
	m.uploadsPruned.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency. The endpoint label is the matched
// ServeMux pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack is required by the websocket upgrader.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support http.Hijacker")
}
