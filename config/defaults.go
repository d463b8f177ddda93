package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dispatcher: DefaultDispatcherConfig(),
		Pool:       DefaultPoolConfig(),
		EventLog:   DefaultEventLogConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultDispatcherConfig returns the default dispatcher configuration:
// unbounded queue, round-robin selection, no default timeout.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxQueueDepth:   0,
		SelectionPolicy: "round_robin",
		DefaultTimeout:  0,
		GracePeriod:     5 * time.Second,
		SubmitRPS:       0,
		SubmitBurst:     0,
		ArchiveSize:     1024,
	}
}

// DefaultPoolConfig returns the default worker pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxWorkers:  64,
		QueueSize:   256,
		IdleTimeout: 60 * time.Second,
	}
}

// DefaultEventLogConfig returns the default event log configuration (off).
func DefaultEventLogConfig() EventLogConfig {
	return EventLogConfig{
		Enabled: false,
		Path:    "events.jsonl",
	}
}

// DefaultLogConfig returns the default log configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "taskflow",
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration (off).
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "taskflow",
		SampleRate:   1.0,
	}
}
