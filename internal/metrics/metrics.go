// Package metrics exposes engine state as Prometheus collectors: gauges
// for job counts and queue depth, a histogram for job latency.
// Every Collector owns a private registry rather than registering against
// the global default one — a process can run more than one Manager, each
// with its own Collector, without collectors colliding on metric names.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coreunit/jobengine/internal/engine"
)

// Collector implements engine.MetricsRecorder.
type Collector struct {
	registry *prometheus.Registry

	installed     prometheus.Gauge
	running       prometheus.Gauge
	failed        prometheus.Gauge
	runQueueDepth prometheus.Gauge

	duration *prometheus.HistogramVec
}

var _ engine.MetricsRecorder = (*Collector)(nil)

// NewCollector builds a Collector registered against its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		installed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobengine_installed_jobs",
			Help: "Number of jobs currently installed across all units.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobengine_running_jobs",
			Help: "Number of jobs currently in the running state.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobengine_failed_jobs",
			Help: "Cumulative count of jobs that finished with a failed result.",
		}),
		runQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobengine_run_queue_depth",
			Help: "Number of jobs currently waiting in the run queue.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobengine_job_duration_seconds",
			Help:    "Time from install to terminal result, by job type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_type"}),
	}

	reg.MustRegister(c.installed, c.running, c.failed, c.runQueueDepth, c.duration)
	return c
}

// SetCounts implements engine.MetricsRecorder.
func (c *Collector) SetCounts(installed, running, failed uint64, runQueueDepth int) {
	c.installed.Set(float64(installed))
	c.running.Set(float64(running))
	c.failed.Set(float64(failed))
	c.runQueueDepth.Set(float64(runQueueDepth))
}

// ObserveDuration implements engine.MetricsRecorder.
func (c *Collector) ObserveDuration(typ engine.JobType, d time.Duration) {
	c.duration.WithLabelValues(typ.String()).Observe(d.Seconds())
}

// Handler returns an http.Handler serving this Collector's registry in the
// Prometheus exposition format, for jobctl serve-metrics to mount.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
