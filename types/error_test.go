package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrHandlerError, "handler failed").
		WithCause(root).
		WithTask("task-1").
		WithAgent("agent-1").
		WithRetryable(true)

	if GetErrorCode(err) != ErrHandlerError {
		t.Fatalf("expected code %s, got %s", ErrHandlerError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if err.TaskID != "task-1" || err.AgentID != "agent-1" {
		t.Fatalf("expected task/agent tags, got %q/%q", err.TaskID, err.AgentID)
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_WrapAndIsErrorCode(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := WrapError(ErrHandlerPanic, "handler panicked", cause)

	if !IsErrorCode(err, ErrHandlerPanic) {
		t.Fatalf("expected HANDLER_PANIC code")
	}
	if IsErrorCode(err, ErrTimeout) {
		t.Fatalf("did not expect TIMEOUT code")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to cause")
	}
}

func TestError_HelpersOnForeignError(t *testing.T) {
	t.Parallel()

	err := errors.New("plain")
	if GetErrorCode(err) != "" {
		t.Fatalf("expected empty code for foreign error")
	}
	if IsRetryable(err) {
		t.Fatalf("foreign errors are never retryable")
	}
	if _, ok := AsError(err); ok {
		t.Fatalf("AsError should fail for foreign error")
	}
}
