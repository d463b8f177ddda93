// Package testutil provides shared helpers for taskflow tests, so packages
// do not re-implement similar test infrastructure.
//
// Core helpers:
//
//   - Context helpers: TestContext / TestContextWithTimeout / CancelledContext,
//     with automatic Cleanup registration
//   - Async assertions: AssertEventuallyTrue / AssertEventuallyEqual, polling
//     until a condition holds or the deadline passes
//   - Data helpers: MustJSON / MustParseJSON for test payload construction
//
// The mocks subpackage provides MockHandler, a scriptable types.Handler with
// fixed results, error injection, artificial latency and call counting.
//
// Usage:
//
//	ctx := testutil.TestContext(t)
//	h := mocks.NewMockHandler().WithResult("done")
//	out, err := h.Execute(ctx, payload)
package testutil
