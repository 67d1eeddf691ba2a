package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ratewave/featuregate/internal/engine"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flag_evaluations_total",
			Help: "Flag decisions by feature, result and reason",
		},
		[]string{"feature", "result", "reason"},
	)
	conditionDenies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flag_condition_denies_total",
			Help: "Implicit denies by the condition field that caused them",
		},
		[]string{"field"},
	)

	SnapshotFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_features",
		Help: "Number of features currently in the in-memory config snapshot",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, evaluations, conditionDenies, SnapshotFeatures)
}

// Decisions is an engine.Observer feeding the evaluation counters.
type Decisions struct{}

func (Decisions) ObserveDecision(d engine.Decision) {
	result := "deny"
	if d.Enabled {
		result = "allow"
	}
	evaluations.WithLabelValues(d.Feature, result, string(d.Reason)).Inc()
	if d.DeniedBy != "" {
		conditionDenies.WithLabelValues(d.DeniedBy).Inc()
	}
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
