package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

// OutcomeSuccess labels a run that published its result. Failed runs are
// labelled with composite.Kind of their error.
const OutcomeSuccess = "success"

// Metrics holds the agent's own Prometheus collectors.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	lastValue   *prometheus.GaugeVec
	gatherer    prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg. reg must also
// be a Gatherer (e.g. prometheus.NewRegistry or prometheus.DefaultRegisterer)
// for Handler to serve them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "composite_runs_total",
			Help: "Composite runs by outcome (success or error kind).",
		}, []string{"composite", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "composite_run_duration_seconds",
			Help:    "Wall time of one composite run, fetch to publish.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"composite"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "composite_last_success_timestamp_seconds",
			Help: "Unix time of the last successful publish.",
		}, []string{"composite"}),
		lastValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "composite_last_value",
			Help: "Last published value; the sum for statistic-set results.",
		}, []string{"composite"}),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess, m.lastValue)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// ObserveRun records one finished run. res is only read when err is nil.
func (m *Metrics) ObserveRun(name string, at time.Time, took time.Duration, res types.Result, err error) {
	m.duration.WithLabelValues(name).Observe(took.Seconds())
	if err != nil {
		m.runs.WithLabelValues(name, composite.Kind(err)).Inc()
		return
	}
	m.runs.WithLabelValues(name, OutcomeSuccess).Inc()
	m.lastSuccess.WithLabelValues(name).Set(float64(at.Unix()))

	switch res.Kind() {
	case types.KindValue:
		m.lastValue.WithLabelValues(name).Set(*res.Value)
	case types.KindStatistics:
		m.lastValue.WithLabelValues(name).Set(res.Statistics.Sum)
	}
}

// Forget drops the gauges of a composite removed by a config reload. Counters
// are kept so rates stay continuous.
func (m *Metrics) Forget(name string) {
	m.lastSuccess.DeleteLabelValues(name)
	m.lastValue.DeleteLabelValues(name)
}

// Handler serves the registered collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
