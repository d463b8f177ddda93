/*
Package agent provides the executor side of the taskflow framework: the Agent
type wrapping an opaque handler, the agent lifecycle state machine, the
Registry tracking all registered agents, and pluggable idle-agent selection
policies.

An agent runs one task at a time. The dispatcher acquires an agent before
handing it work and releases it afterwards; the agent additionally enforces
this invariant itself and rejects overlapping executions with ErrAgentBusy.
*/
package agent
