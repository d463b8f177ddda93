package testutil

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

// TestContext returns a context with a 30 second timeout, cancelled on test
// cleanup.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout returns a context with a custom timeout, cancelled
// on test cleanup.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already-cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// AssertEventuallyTrue polls condition until it holds or timeout passes.
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("condition not met within %s", timeout)
}

// AssertEventuallyEqual polls get until it returns expected or timeout passes.
func AssertEventuallyEqual(t *testing.T, expected any, get func() any, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var last any
	for time.Now().Before(deadline) {
		last = get()
		if reflect.DeepEqual(expected, last) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("expected %v within %s, last value %v", expected, timeout, last)
}

// MustJSON marshals v, failing the test on error.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// MustParseJSON unmarshals data into a map, failing the test on error.
func MustParseJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}
