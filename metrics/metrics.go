// Package metrics exposes training and evaluation progress as prometheus
// collectors.
package metrics

import (
	"net/http"

	"github.com/netrixframework/qlearn/rl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics observes runs and keeps the collectors on its own registry
type Metrics struct {
	// Episodes counts finished episodes by mode
	Episodes *prometheus.CounterVec
	// Successes counts episodes whose last reward was the success reward
	Successes *prometheus.CounterVec
	// Steps counts environment steps by mode
	Steps *prometheus.CounterVec
	// EpisodeLength is the distribution of steps per episode
	EpisodeLength *prometheus.HistogramVec
	// Runs counts finished runs by mode and status
	Runs *prometheus.CounterVec
	// Epsilon is the current exploration probability
	Epsilon prometheus.Gauge
	// Rolling is the success count over the trailing window
	Rolling prometheus.Gauge

	registry *prometheus.Registry
}

var _ rl.Observer = &Metrics{}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		Episodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qlearn_episodes_total",
			Help: "The total number of finished episodes",
		}, []string{"mode"}),
		Successes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qlearn_episode_successes_total",
			Help: "The total number of episodes that reached the goal",
		}, []string{"mode"}),
		Steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qlearn_steps_total",
			Help: "The total number of environment steps",
		}, []string{"mode"}),
		EpisodeLength: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qlearn_episode_length_steps",
			Help:    "Number of steps taken per episode",
			Buckets: prometheus.LinearBuckets(10, 20, 10),
		}, []string{"mode"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qlearn_runs_total",
			Help: "The total number of finished runs",
		}, []string{"mode", "status"}),
		Epsilon: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qlearn_epsilon",
			Help: "The exploration probability of the current run",
		}),
		Rolling: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qlearn_rolling_successes",
			Help: "Successful episodes within the trailing window",
		}),
		registry: registry,
	}
}

func (m *Metrics) EpisodeDone(s rl.EpisodeStats) {
	mode := modeLabel(s.Training)
	m.Episodes.WithLabelValues(mode).Inc()
	if s.Success {
		m.Successes.WithLabelValues(mode).Inc()
	}
	m.Steps.WithLabelValues(mode).Add(float64(s.Steps))
	m.EpisodeLength.WithLabelValues(mode).Observe(float64(s.Steps))
	m.Epsilon.Set(s.Epsilon)
	m.Rolling.Set(s.Rolling)
}

func (m *Metrics) RunDone(s rl.RunStats) {
	status := "ok"
	if s.Err != nil {
		status = "error"
	}
	m.Runs.WithLabelValues(modeLabel(s.Training), status).Inc()
	m.Epsilon.Set(s.Epsilon)
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func modeLabel(training bool) string {
	if training {
		return "train"
	}
	return "eval"
}
