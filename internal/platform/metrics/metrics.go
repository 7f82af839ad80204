package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	HTTPDuration       *prometheus.HistogramVec
	SectionsSaved      *prometheus.CounterVec
	SectionsSubmitted  *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	CollectionOps      *prometheus.CounterVec
	Logins             *prometheus.CounterVec
	ApplicantsCreated  prometheus.Counter
}

// New creates the collectors on a private registry so tests can build many.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dossier_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		SectionsSaved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_sections_saved_total",
			Help: "Partial section saves",
		}, []string{"section"}),
		SectionsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_sections_submitted_total",
			Help: "Sections that passed validation and were marked complete",
		}, []string{"section"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_section_validation_failures_total",
			Help: "Section submits rejected by the validation gate",
		}, []string{"section"}),
		CollectionOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_collection_operations_total",
			Help: "Repeatable collection create/delete operations",
		}, []string{"collection", "op"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		ApplicantsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "dossier_applicants_created_total",
			Help: "Total number of applicant accounts created",
		}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncSectionSaved(section int) {
	m.SectionsSaved.WithLabelValues(strconv.Itoa(section)).Inc()
}

func (m *Metrics) IncSectionSubmitted(section int) {
	m.SectionsSubmitted.WithLabelValues(strconv.Itoa(section)).Inc()
}

func (m *Metrics) IncValidationFailure(section int) {
	m.ValidationFailures.WithLabelValues(strconv.Itoa(section)).Inc()
}

func (m *Metrics) IncCollectionOp(collection, op string) {
	m.CollectionOps.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) IncLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

// IncrementApplicantsCreated increments the applicants created counter by 1.
func (m *Metrics) IncrementApplicantsCreated() {
	m.ApplicantsCreated.Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Latency records request durations labelled with the chi route pattern,
// keeping path parameters out of label cardinality.
func (m *Metrics) Latency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}
