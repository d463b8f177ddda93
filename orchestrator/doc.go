/*
Package orchestrator implements the scheduling core of the taskflow framework:
it accepts tasks, matches them to idle agents, executes handlers on a worker
pool, and reports outcomes on a result/event stream.

Scheduling is strict priority with FIFO within a priority tier. The
dispatcher's bookkeeping (queue, task status, inflight map) is single-writer
under one mutex; only handler execution runs concurrently. Submission and
cancellation never block the caller.

Events are delivered in completion order, not submission order, and every task
produces exactly one terminal event.
*/
package orchestrator
