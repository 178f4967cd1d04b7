package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maxwbh/boleto-cnab-api/internal/infra/transport"
)

// Collector exports per-attempt transport metrics. It implements
// transport.Observer and registers on the registerer it is built with, so
// several clients in one process can each own a Collector on their own
// registry.
type Collector struct {
	// AttemptsTotal tracks HTTP attempts per endpoint, method and outcome
	AttemptsTotal *prometheus.CounterVec

	// ErrorsTotal tracks failed attempts per endpoint and error kind
	ErrorsTotal *prometheus.CounterVec

	// RetriesTotal tracks attempts that were followed by a retry
	RetriesTotal *prometheus.CounterVec

	// ResponsesTotal tracks received status codes per endpoint
	ResponsesTotal *prometheus.CounterVec

	// AttemptLatency tracks attempt latency
	AttemptLatency *prometheus.HistogramVec
}

// NewCollector registers the boleto client metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boleto_client_attempts_total",
				Help: "Total number of HTTP attempts against the boleto service",
			},
			[]string{"endpoint", "method", "outcome"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boleto_client_errors_total",
				Help: "Total number of failed attempts by error kind",
			},
			[]string{"endpoint", "kind"},
		),
		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boleto_client_retries_total",
				Help: "Total number of attempts that were retried",
			},
			[]string{"endpoint", "method"},
		),
		ResponsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boleto_client_responses_total",
				Help: "Total number of responses received by status code",
			},
			[]string{"endpoint", "code"},
		),
		AttemptLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boleto_client_attempt_latency_seconds",
				Help:    "Attempt latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
	}
}

// ObserveAttempt implements transport.Observer.
func (c *Collector) ObserveAttempt(a transport.Attempt) {
	method := a.Method
	if method == "" {
		method = http.MethodGet
	}

	c.AttemptsTotal.WithLabelValues(a.Path, method, a.Outcome()).Inc()
	c.AttemptLatency.WithLabelValues(a.Path, method).Observe(a.Latency.Seconds())

	if a.StatusCode != 0 {
		c.ResponsesTotal.WithLabelValues(a.Path, strconv.Itoa(a.StatusCode)).Inc()
	}
	if a.Err != nil {
		c.ErrorsTotal.WithLabelValues(a.Path, a.Outcome()).Inc()
	}
	if a.WillRetry {
		c.RetriesTotal.WithLabelValues(a.Path, method).Inc()
	}
}
