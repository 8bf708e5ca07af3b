package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modalstream"

// Recorder exports session counters on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	Samples     prometheus.Counter
	Transitions *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Stale       *prometheus.CounterVec
	Reconciles  *prometheus.CounterVec
	Mismatches  prometheus.Counter
	SimTime     prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "samples_total",
			Help:      "Samples applied to the series set",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions",
		}, []string{"from", "to"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "failures_total",
			Help:      "Failures surfaced to the user by kind",
		}, []string{"kind"}),
		Stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "stale_events_total",
			Help:      "Events dropped because their connection was no longer current",
		}, []string{"event"}),
		Reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "modal",
			Name:      "reconciles_total",
			Help:      "Modal summaries applied by outcome (rebuilt, retuned)",
		}, []string{"outcome"}),
		Mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "modal",
			Name:      "mismatches_total",
			Help:      "Modal summaries that arrived with invalid periods",
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "sim_time_seconds",
			Help:      "Simulated time of the latest sample",
		}),
	}
	r.registry.MustRegister(r.Samples, r.Transitions, r.Failures, r.Stale, r.Reconciles, r.Mismatches, r.SimTime)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) SampleApplied(t float64) {
	r.Samples.Inc()
	r.SimTime.Set(t)
}

func (r *Recorder) Transition(from, to string) {
	r.Transitions.WithLabelValues(from, to).Inc()
}

func (r *Recorder) Failure(kind string) {
	r.Failures.WithLabelValues(kind).Inc()
}

func (r *Recorder) StaleEvent(event string) {
	r.Stale.WithLabelValues(event).Inc()
}

func (r *Recorder) Reconciled(outcome string, mismatch bool) {
	r.Reconciles.WithLabelValues(outcome).Inc()
	if mismatch {
		r.Mismatches.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
