package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the framework.
type ErrorCode string

// Registry error codes
const (
	ErrDuplicateAgent ErrorCode = "DUPLICATE_AGENT"
	ErrAgentNotFound  ErrorCode = "AGENT_NOT_FOUND"
	ErrAgentBusy      ErrorCode = "AGENT_BUSY"
)

// Dispatcher error codes
const (
	ErrQueueFull          ErrorCode = "QUEUE_FULL"
	ErrInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrTaskNotFound       ErrorCode = "TASK_NOT_FOUND"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrOrchestratorClosed ErrorCode = "ORCHESTRATOR_CLOSED"
)

// Handler error codes. Handler failures are captured at the agent boundary and
// surfaced only through the terminal task event, never propagated to crash the
// dispatcher.
const (
	ErrHandlerError ErrorCode = "HANDLER_ERROR"
	ErrHandlerPanic ErrorCode = "HANDLER_PANIC"
	ErrTimeout      ErrorCode = "TIMEOUT"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	TaskID    string    `json:"task_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps cause in an Error with the given code and message.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithTask tags the error with a task id.
func (e *Error) WithTask(taskID string) *Error {
	e.TaskID = taskID
	return e
}

// WithAgent tags the error with an agent id.
func (e *Error) WithAgent(agentID string) *Error {
	e.AgentID = agentID
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError extracts a *Error from err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if e, ok := AsError(err); ok {
		return e.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
