package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

// Metrics is safe to use as a nil pointer, which records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	negotiation *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "expense_http_request_duration_seconds",
				Help:    "HTTP request latency by route and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		negotiation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_negotiation_total",
				Help: "Negotiated wire formats by side (request, response)",
			},
			[]string{"side", "format"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_record_outcomes_total",
				Help: "Results of record attempts (accepted, rejected, malformed, unsupported)",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.negotiation, m.outcomes)
	return m
}

// Instrument counts and times requests served by h under the route label.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	if m == nil {
		return h
	}
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(
		m.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), h),
	)
}

func (m *Metrics) ObserveNegotiation(side string, f domain.Format) {
	if m == nil {
		return
	}
	m.negotiation.WithLabelValues(side, f.String()).Inc()
}

func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
