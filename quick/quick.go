// Package quick provides a convenience entry point for standing up an
// orchestrator with minimal boilerplate. It delegates to config.Loader and
// orchestrator.New internally.
//
// Usage:
//
//	import "github.com/BaSui01/taskflow/quick"
//
//	o, err := quick.New(
//		quick.WithHandlerFunc("resize", resizeImage),
//		quick.WithHandlerFunc("transcode", transcodeVideo),
//	)
package quick

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/orchestrator"
	"github.com/BaSui01/taskflow/types"
)

// Option configures the orchestrator created by New.
type Option func(*options)

type agentSpec struct {
	name    string
	handler types.Handler
}

type options struct {
	cfgPath  string
	cfg      *config.Config
	logger   *zap.Logger
	agents   []agentSpec
	orchOpts []orchestrator.Option
}

// WithConfigFile loads configuration from a YAML file, with TASKFLOW_*
// environment variables taking precedence.
func WithConfigFile(path string) Option {
	return func(o *options) { o.cfgPath = path }
}

// WithConfig uses a pre-built configuration, skipping file and env loading.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger. Defaults to one built from the
// loaded LogConfig.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAgent registers an agent on the new orchestrator.
func WithAgent(name string, handler types.Handler) Option {
	return func(o *options) { o.agents = append(o.agents, agentSpec{name, handler}) }
}

// WithHandlerFunc registers an agent around a plain function.
func WithHandlerFunc(name string, fn func(ctx context.Context, payload any) (any, error)) Option {
	return WithAgent(name, types.HandlerFunc(fn))
}

// WithMetrics enables Prometheus collection on the given registerer.
func WithMetrics(namespace string, reg prometheus.Registerer) Option {
	return func(o *options) {
		o.orchOpts = append(o.orchOpts, orchestrator.WithMetrics(namespace, reg))
	}
}

// WithEventLog writes terminal task events to path as JSON lines.
func WithEventLog(path string) Option {
	return func(o *options) {
		o.orchOpts = append(o.orchOpts, orchestrator.WithEventLog(path))
	}
}

// New creates an orchestrator and registers the given agents.
func New(opts ...Option) (*orchestrator.Orchestrator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		loader := config.NewLoader()
		if o.cfgPath != "" {
			loader = loader.WithConfigPath(o.cfgPath)
		}
		loaded, err := loader.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg.Log)
	}

	orchOpts := append([]orchestrator.Option{orchestrator.WithLogger(logger)}, o.orchOpts...)
	orch, err := orchestrator.New(cfg, orchOpts...)
	if err != nil {
		return nil, err
	}

	for _, spec := range o.agents {
		if _, err := orch.RegisterAgent(spec.name, spec.handler); err != nil {
			_ = orch.Shutdown(context.Background(), false)
			return nil, err
		}
	}
	return orch, nil
}
