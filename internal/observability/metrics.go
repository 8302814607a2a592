package observability

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stressoscope"

// Metrics exposes Prometheus collectors for analyses, provider calls and HTTP
// traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	analyses         *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// MustNewMetrics registers the collectors with reg, reusing collectors that
// are already registered under the same name. Any other registration error
// panics, mirroring promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		analyses: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Stress analyses produced, by provenance source.",
			},
			[]string{"source"},
		)),
		providerDuration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "request_duration_seconds",
				Help:      "Latency of text-completion provider calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "status"},
		)),
		httpRequests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, by route and status code.",
			},
			[]string{"method", "route", "status"},
		)),
		httpDuration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

// IncAnalysis counts one analysis for the given source tag.
func (m *Metrics) IncAnalysis(source string) {
	if m == nil || m.analyses == nil {
		return
	}
	m.analyses.WithLabelValues(source).Inc()
}

// ObserveProvider records the latency of a provider call.
func (m *Metrics) ObserveProvider(provider string, err error, d time.Duration) {
	if m == nil || m.providerDuration == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
