package agent

import "errors"

var (
	// ErrDuplicateAgent an agent with the same id is already registered
	ErrDuplicateAgent = errors.New("agent already registered")

	// ErrAgentNotFound no agent with the given id is registered
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentBusy the agent already holds an in-flight task
	ErrAgentBusy = errors.New("agent is busy")

	// ErrAgentUnavailable the agent is not accepting work
	ErrAgentUnavailable = errors.New("agent is unavailable")

	// ErrHandlerNil an agent cannot be created without a handler
	ErrHandlerNil = errors.New("agent handler is nil")
)
