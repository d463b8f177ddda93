// Package ctxkeys defines the context keys the dispatcher sets on handler
// invocations, so handlers and their logs can identify the work they run.
package ctxkeys

import "context"

// contextKey is the key type for values stored in a context.
type contextKey string

const (
	taskIDKey   contextKey = "task_id"
	taskNameKey contextKey = "task_name"
	agentIDKey  contextKey = "agent_id"
)

// WithTaskID sets the task id.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// TaskID returns the task id, if set.
func TaskID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(taskIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithTaskName sets the task name.
func WithTaskName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, taskNameKey, name)
}

// TaskName returns the task name, if set.
func TaskName(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(taskNameKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithAgentID sets the executing agent's id.
func WithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, agentIDKey, agentID)
}

// AgentID returns the executing agent's id, if set.
func AgentID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(agentIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
