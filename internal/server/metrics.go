package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each server owns
// its registry so tests can run several side by side.
type Metrics struct {
	registry     *prometheus.Registry
	generations  prometheus.Counter
	jobsStarted  prometheus.Counter
	jobsFinished *prometheus.CounterVec
	runningJobs  prometheus.Gauge
	bestFitness  *prometheus.GaugeVec
	stepSeconds  prometheus.Histogram
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evoshapes_generations_total",
			Help: "Generations stepped across all jobs.",
		}),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evoshapes_jobs_started_total",
			Help: "Jobs accepted by the server.",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evoshapes_jobs_finished_total",
			Help: "Jobs that reached a final state.",
		}, []string{"state"}),
		runningJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evoshapes_running_jobs",
			Help: "Jobs currently evolving.",
		}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evoshapes_best_fitness",
			Help: "Best fitness of a job's current population.",
		}, []string{"job_id"}),
		stepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evoshapes_generation_seconds",
			Help:    "Wall time of one generation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.generations,
		m.jobsStarted,
		m.jobsFinished,
		m.runningJobs,
		m.bestFitness,
		m.stepSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) jobStarted() {
	m.jobsStarted.Inc()
	m.runningJobs.Inc()
}

func (m *Metrics) jobFinished(state JobState) {
	m.runningJobs.Dec()
	m.jobsFinished.With(prometheus.Labels{"state": string(state)}).Inc()
}

func (m *Metrics) generation(jobID string, best float64, seconds float64) {
	m.generations.Inc()
	m.stepSeconds.Observe(seconds)
	m.bestFitness.With(prometheus.Labels{"job_id": jobID}).Set(best)
}
