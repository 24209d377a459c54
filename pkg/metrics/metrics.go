// Package metrics exports scheduler and host activity as Prometheus metrics.
//
// A Collector is a reactive.Observer; attach it with reactive.WithObserver
// and count host operations with vdom.WithOpObserver(c.ObserveOp):
//
//	c := metrics.New(metrics.WithRegistry(reg))
//	rt := reactive.New(reactive.WithObserver(c))
//	r := vdom.NewRenderer(rt, host, vdom.WithOpObserver(c.ObserveOp))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/reflux/pkg/reactive"
	"github.com/vango-dev/reflux/pkg/vdom"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "reflux").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "reflux",
		// Flushes are in-process; most finish well under a millisecond.
		Buckets:  []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Collector records flush and host-operation metrics.
type Collector struct {
	flushes       prometheus.Counter
	jobs          *prometheus.CounterVec
	jobFailures   *prometheus.CounterVec
	flushDuration prometheus.Histogram
	pending       prometheus.Gauge
	hostOps       *prometheus.CounterVec
}

var _ reactive.Observer = (*Collector)(nil)

// New registers the collector's metrics and returns it. Registering twice
// with the same registry panics, as promauto does.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	c := &Collector{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "jobs_total",
			Help:        "Total number of jobs run by the scheduler, by class",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),

		jobFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "job_failures_total",
			Help:        "Total number of jobs that panicked, by job name",
			ConstLabels: config.ConstLabels,
		}, []string{"job"}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_pending_jobs",
			Help:        "Number of jobs taken by the last flush",
			ConstLabels: config.ConstLabels,
		}),

		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops_total",
			Help:        "Total number of primitive host operations, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),
	}

	// Pre-create op series so dashboards see zeros.
	for _, k := range vdom.OpKinds() {
		c.hostOps.WithLabelValues(k.String())
	}
	for _, class := range []string{"derived", "render"} {
		c.jobs.WithLabelValues(class)
	}
	return c
}

// FlushStarted implements reactive.Observer.
func (c *Collector) FlushStarted(pending int) {
	c.pending.Set(float64(pending))
}

// JobFailed implements reactive.Observer.
func (c *Collector) JobFailed(job string, _ error) {
	c.jobFailures.WithLabelValues(job).Inc()
}

// FlushFinished implements reactive.Observer.
func (c *Collector) FlushFinished(stats reactive.FlushStats) {
	c.flushes.Inc()
	c.jobs.WithLabelValues("derived").Add(float64(stats.Derived))
	c.jobs.WithLabelValues("render").Add(float64(stats.Jobs - stats.Derived))
	c.flushDuration.Observe(stats.Duration.Seconds())
}

// ObserveOp counts one host operation. Pass it to vdom.WithOpObserver.
func (c *Collector) ObserveOp(kind vdom.OpKind) {
	c.hostOps.WithLabelValues(kind.String()).Inc()
}
