package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/taskflow/agent"
	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/types"
)

// Option customizes an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSelectionPolicy overrides the agent selection policy configured by
// DispatcherConfig.SelectionPolicy.
func WithSelectionPolicy(policy agent.SelectionPolicy) Option {
	return func(o *Orchestrator) {
		if policy != nil {
			o.policy = policy
		}
	}
}

// WithMetrics enables Prometheus collection on the given registerer.
func WithMetrics(namespace string, reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		o.metricsNamespace = namespace
		o.metricsReg = reg
	}
}

// WithEventLog writes every terminal task event to path as JSON lines.
func WithEventLog(path string) Option {
	return func(o *Orchestrator) {
		o.eventLogPath = path
	}
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// TaskOption customizes a single task at submission time.
type TaskOption func(*types.Task)

// WithPriority sets the task priority. Higher runs first.
func WithPriority(p types.Priority) TaskOption {
	return func(t *types.Task) { t.Priority = p }
}

// WithTimeout bounds handler execution for this task, overriding
// DispatcherConfig.DefaultTimeout. Zero means no limit.
func WithTimeout(d time.Duration) TaskOption {
	return func(t *types.Task) { t.Timeout = d }
}

func policyFromConfig(cfg config.DispatcherConfig) agent.SelectionPolicy {
	switch cfg.SelectionPolicy {
	case "least_recently_used":
		return agent.NewLeastRecentlyUsed()
	default:
		return agent.NewRoundRobin()
	}
}
