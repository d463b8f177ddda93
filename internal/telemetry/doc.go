// Package telemetry owns the OpenTelemetry SDK lifecycle for a dispatcher
// process: resource identity, OTLP exporters, sampling and shutdown. Span
// creation itself lives in the orchestrator, which traces each handler
// execution. When telemetry is disabled the global providers stay noop and
// nothing connects to an external service.
package telemetry
