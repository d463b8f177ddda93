/*
Package config provides the configuration surface of the taskflow framework.

Configuration is loaded with a builder-style Loader in three layers, later
layers overriding earlier ones:

	defaults -> YAML file -> environment variables

Environment keys are derived from struct tags with a configurable prefix,
TASKFLOW by default, e.g. TASKFLOW_DISPATCHER_MAX_QUEUE_DEPTH.
*/
package config
