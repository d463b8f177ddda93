/*
Package types provides the shared type definitions of the taskflow framework.

types is the lowest-level public package and depends on no other framework
package. Everything shared across agent, orchestrator and config lives here
to avoid circular imports.

Core interfaces and types:

  - Handler / HandlerFunc — opaque task execution logic invoked by an agent
  - Task                  — immutable unit of work (id, name, payload, priority)
  - TaskStatus            — task state machine with a fixed transition table
  - Priority              — ordering hint, higher values dispatch first
  - Error / ErrorCode     — structured error taxonomy (code, message, cause)
*/
package types
