package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	signatureRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saha_signature_rejections_total",
			Help: "Requests rejected by the signature verifier.",
		},
		[]string{"reason"},
	)
)

// Client side metrics.
var (
	signedRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "saha_client_signed_requests_total",
		Help: "Outgoing API requests signed by the request pipeline.",
	})

	classifiedFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saha_client_failures_total",
			Help: "Failed API calls by classified kind.",
		},
		[]string{"kind"},
	)

	guardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saha_guard_decisions_total",
			Help: "Navigation guard outcomes.",
		},
		[]string{"guard", "state"},
	)
)

var initOnce sync.Once

// Init registers all collectors in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration, signatureRejections,
			signedRequests, classifiedFailures, guardDecisions,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SignedRequest counts one signed outgoing call.
func SignedRequest() { signedRequests.Inc() }

// ClassifiedFailure counts one failed call of the given kind.
func ClassifiedFailure(kind string) { classifiedFailures.WithLabelValues(kind).Inc() }

// GuardDecision counts one guard outcome.
func GuardDecision(guard, state string) { guardDecisions.WithLabelValues(guard, state).Inc() }

// SignatureRejected counts one request rejected by the verifier.
func SignatureRejected(reason string) { signatureRejections.WithLabelValues(reason).Inc() }

// Instrument records in-flight, count and latency per canonical path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath drops the query string and replaces numeric segments with :id
// so metric label cardinality stays bounded.
func CanonicalPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
