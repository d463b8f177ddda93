package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds the dispatcher's Prometheus instruments. A nil Collector
// is valid and records nothing.
type Collector struct {
	tasksSubmitted prometheus.Counter
	tasksRejected  *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	queueDepth     prometheus.Gauge
	inflight       prometheus.Gauge
	agents         *prometheus.GaugeVec
	dispatchSteps  prometheus.Counter
	handlerPanics  prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector registering on reg. Pass nil to use the
// default registerer. Creating two collectors with the same namespace on one
// registerer panics, as promauto does.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.tasksSubmitted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_submitted_total",
		Help:      "Total number of tasks accepted by the dispatcher",
	})

	c.tasksRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_rejected_total",
		Help:      "Total number of task submissions rejected before queueing",
	}, []string{"reason"})

	c.tasksFinished = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_finished_total",
		Help:      "Total number of tasks reaching a terminal status",
	}, []string{"status"})

	c.taskDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Wall time from assignment to terminal status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	c.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of tasks waiting for dispatch",
	})

	c.inflight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_inflight",
		Help:      "Number of tasks currently assigned or running",
	})

	c.agents = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "agents",
		Help:      "Number of registered agents by state",
	}, []string{"state"})

	c.dispatchSteps = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_steps_total",
		Help:      "Total number of dispatch steps executed",
	})

	c.handlerPanics = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_panics_total",
		Help:      "Total number of handler panics captured at the agent boundary",
	})

	return c
}

// ObserveSubmit records an accepted task submission.
func (c *Collector) ObserveSubmit() {
	if c == nil {
		return
	}
	c.tasksSubmitted.Inc()
}

// ObserveReject records a rejected submission (queue_full, rate_limited, closed).
func (c *Collector) ObserveReject(reason string) {
	if c == nil {
		return
	}
	c.tasksRejected.WithLabelValues(reason).Inc()
}

// ObserveFinish records a task reaching a terminal status.
func (c *Collector) ObserveFinish(status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.tasksFinished.WithLabelValues(status).Inc()
	if duration > 0 {
		c.taskDuration.WithLabelValues(status).Observe(duration.Seconds())
	}
}

// ObserveDispatchStep records one dispatch step.
func (c *Collector) ObserveDispatchStep() {
	if c == nil {
		return
	}
	c.dispatchSteps.Inc()
}

// ObservePanic records a captured handler panic.
func (c *Collector) ObservePanic() {
	if c == nil {
		return
	}
	c.handlerPanics.Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}

// SetInflight updates the inflight gauge.
func (c *Collector) SetInflight(n int) {
	if c == nil {
		return
	}
	c.inflight.Set(float64(n))
}

// SetAgents updates the agent count for one state.
func (c *Collector) SetAgents(state string, n int) {
	if c == nil {
		return
	}
	c.agents.WithLabelValues(state).Set(float64(n))
}
