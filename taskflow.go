// Package taskflow provides a top-level convenience entry point for creating
// orchestrators with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/taskflow"
//
//	o, err := taskflow.New(taskflow.WithHandlerFunc("resize", resizeImage))
//	task, err := o.Submit(ctx, "resize", img, taskflow.WithPriority(5))
//
// This is a thin wrapper around [quick.New]; both produce identical results.
// Use this package when you prefer the shorter import path.
package taskflow

import (
	"github.com/BaSui01/taskflow/orchestrator"
	"github.com/BaSui01/taskflow/quick"
)

// Option configures the orchestrator created by [New].
type Option = quick.Option

// Orchestrator is the scheduling core; see [orchestrator.Orchestrator].
type Orchestrator = orchestrator.Orchestrator

// TaskEvent is the terminal record of one task.
type TaskEvent = orchestrator.TaskEvent

// New creates an [orchestrator.Orchestrator] with minimal configuration.
func New(opts ...Option) (*Orchestrator, error) {
	return quick.New(opts...)
}

// Re-export construction shortcuts so callers never need to import quick/.

// WithConfigFile loads configuration from a YAML file.
var WithConfigFile = quick.WithConfigFile

// WithConfig uses a pre-built configuration.
var WithConfig = quick.WithConfig

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger

// WithAgent registers an agent on the new orchestrator.
var WithAgent = quick.WithAgent

// WithHandlerFunc registers an agent around a plain function.
var WithHandlerFunc = quick.WithHandlerFunc

// WithMetrics enables Prometheus collection.
var WithMetrics = quick.WithMetrics

// WithEventLog writes terminal task events to a JSONL file.
var WithEventLog = quick.WithEventLog

// Per-task submission options.

// WithPriority sets the task priority. Higher runs first.
var WithPriority = orchestrator.WithPriority

// WithTimeout bounds handler execution for one task.
var WithTimeout = orchestrator.WithTimeout
