package report

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are per-process launch counters. They can be dumped to a
// node_exporter textfile after the launch.
type Metrics struct {
	registry *prometheus.Registry

	launchesStarted  *prometheus.CounterVec
	launchesFinished *prometheus.CounterVec
	spawnFailures    *prometheus.CounterVec
	nodesRequested   *prometheus.GaugeVec
	duration         *prometheus.GaugeVec
	lastExitCode     *prometheus.GaugeVec
}

// NewMetrics creates metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		launchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "n5spark_launches_started_total",
			Help: "Wrapper processes started",
		}, []string{"job"}),
		launchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "n5spark_launches_finished_total",
			Help: "Wrapper processes finished, by exit reason",
		}, []string{"job", "reason"}),
		spawnFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "n5spark_spawn_failures_total",
			Help: "Wrapper processes that could not be started",
		}, []string{"job"}),
		nodesRequested: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "n5spark_nodes_requested",
			Help: "Node count of the last launch",
		}, []string{"job"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "n5spark_launch_duration_seconds",
			Help: "Wall time of the last launch",
		}, []string{"job"}),
		lastExitCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "n5spark_launch_exit_code",
			Help: "Exit code of the last launch",
		}, []string{"job"}),
	}

	m.registry.MustRegister(
		m.launchesStarted,
		m.launchesFinished,
		m.spawnFailures,
		m.nodesRequested,
		m.duration,
		m.lastExitCode,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncrStarted counts a started launch
func (m *Metrics) IncrStarted(job string, nodes int) {
	m.launchesStarted.WithLabelValues(job).Inc()
	m.nodesRequested.WithLabelValues(job).Set(float64(nodes))
}

// IncrSpawnFailed counts a wrapper that never started
func (m *Metrics) IncrSpawnFailed(job string) {
	m.spawnFailures.WithLabelValues(job).Inc()
}

// RecordResult updates counters from a finished launch
func (m *Metrics) RecordResult(r *Result) {
	m.launchesFinished.WithLabelValues(r.Job, r.ExitReason).Inc()
	m.duration.WithLabelValues(r.Job).Set(r.Duration.Seconds())
	m.lastExitCode.WithLabelValues(r.Job).Set(float64(r.ExitCode))
}

// WriteTextfile writes the current values in Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
