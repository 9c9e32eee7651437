package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors exported at /metrics.
type Metrics struct {
	requests           *prometheus.CounterVec
	latency            *prometheus.HistogramVec
	errors             *prometheus.CounterVec
	ticketsCreated     prometheus.Counter
	transitions        *prometheus.CounterVec
	capacityRejections prometheus.Counter
}

// NewMetrics creates collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "helpdesk_http_requests_total", Help: "Count of HTTP requests"},
			[]string{"method", "route", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helpdesk_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "helpdesk_http_errors_total", Help: "Count of error responses by code"},
			[]string{"method", "route", "code"},
		),
		ticketsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "helpdesk_tickets_created_total", Help: "Tickets opened"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "helpdesk_ticket_transitions_total", Help: "Committed ticket status changes"},
			[]string{"from", "to"},
		),
		capacityRejections: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "helpdesk_capacity_rejections_total", Help: "Transitions refused by the technician in-progress cap"},
		),
	}
	reg.MustRegister(m.requests, m.latency, m.errors, m.ticketsCreated, m.transitions, m.capacityRejections)
	return m
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error response by domain code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

func (m *Metrics) TicketCreated() {
	if m == nil {
		return
	}
	m.ticketsCreated.Inc()
}

func (m *Metrics) TicketTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) CapacityRejected() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
}
