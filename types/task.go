package types

import (
	"time"

	"github.com/google/uuid"
)

// Priority is an ordering hint for task dispatch. Higher values dispatch
// first; ties break by submission order (FIFO). The zero value is a valid
// default.
//
// There is no priority aging: a steady stream of high-priority tasks starves
// lower tiers. That is a documented property of a pure-priority queue, not
// something the dispatcher compensates for.
type Priority int

// PriorityDefault is the priority assigned when none is given.
const PriorityDefault Priority = 0

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	StatusQueued    TaskStatus = "queued"    // Awaiting dispatch
	StatusAssigned  TaskStatus = "assigned"  // Paired with an agent, not yet running
	StatusRunning   TaskStatus = "running"   // Handler executing
	StatusCompleted TaskStatus = "completed" // Handler returned successfully
	StatusFailed    TaskStatus = "failed"    // Handler error, panic or timeout
	StatusCancelled TaskStatus = "cancelled" // Cancelled by the caller or on shutdown
)

// validStatusTransitions defines the legal task state machine. Only the
// dispatcher mutates task status, and only through this table.
var validStatusTransitions = map[TaskStatus][]TaskStatus{
	StatusQueued:   {StatusAssigned, StatusCancelled},
	StatusAssigned: {StatusRunning, StatusCancelled},
	StatusRunning:  {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransitionStatus reports whether from -> to is a legal status transition.
func CanTransitionStatus(from, to TaskStatus) bool {
	for _, s := range validStatusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal status. A task reaches exactly one
// terminal status exactly once.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is an immutable unit of work. After creation no field may change
// except Status, which only the dispatcher advances via the transition table.
type Task struct {
	// ID is the unique task identifier, assigned at creation.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Payload is opaque data interpreted by the executing agent's handler.
	Payload any `json:"payload,omitempty"`

	// Priority orders dispatch; higher dispatches first.
	Priority Priority `json:"priority"`

	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`

	// Timeout bounds handler execution. Zero means no per-task timeout.
	Timeout time.Duration `json:"timeout,omitempty"`

	// CreatedAt is the submission time.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is set when the handler begins executing.
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt is set when the task reaches a terminal status.
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// NewTask creates a Queued task with a fresh unique id.
func NewTask(name string, payload any, priority Priority) *Task {
	return &Task{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   payload,
		Priority:  priority,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}
}

// Transition advances the task status, rejecting anything outside the
// transition table.
func (t *Task) Transition(to TaskStatus) error {
	if !CanTransitionStatus(t.Status, to) {
		return NewError(ErrInvalidTransition,
			"invalid task status transition: "+string(t.Status)+" -> "+string(to))
	}
	t.Status = to
	return nil
}

// Snapshot returns a copy of the task safe to hand to callers. The payload is
// shared by reference; callers must not mutate it.
func (t *Task) Snapshot() Task {
	return *t
}
