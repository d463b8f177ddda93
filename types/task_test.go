package types

import (
	"testing"

	"pgregory.net/rapid"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	task := NewTask("resize", map[string]any{"width": 64}, 3)
	if task.ID == "" {
		t.Fatalf("expected a fresh id")
	}
	if task.Status != StatusQueued {
		t.Fatalf("new task must start Queued, got %s", task.Status)
	}
	if task.Priority != 3 {
		t.Fatalf("priority not carried: %d", task.Priority)
	}
	if task.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	other := NewTask("resize", nil, 3)
	if other.ID == task.ID {
		t.Fatalf("ids must be unique")
	}
}

func TestTask_TransitionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to TaskStatus
		ok       bool
	}{
		{StatusQueued, StatusAssigned, true},
		{StatusQueued, StatusCancelled, true},
		{StatusQueued, StatusRunning, false},
		{StatusQueued, StatusCompleted, false},
		{StatusAssigned, StatusRunning, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusAssigned, StatusCompleted, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusCancelled, true},
		{StatusRunning, StatusQueued, false},
		{StatusCompleted, StatusQueued, false},
		{StatusFailed, StatusRunning, false},
		{StatusCancelled, StatusCancelled, false},
	}

	for _, tc := range cases {
		task := NewTask("t", nil, 0)
		task.Status = tc.from
		err := task.Transition(tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s -> %s: expected rejection", tc.from, tc.to)
			} else if !IsErrorCode(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: expected INVALID_TRANSITION, got %v", tc.from, tc.to, err)
			}
		}
	}
}

// Property: no sequence of legal transitions ever leaves a terminal status,
// and every run that terminates did so through exactly one terminal state.
func TestTask_TransitionProperties(t *testing.T) {
	t.Parallel()

	statuses := []TaskStatus{
		StatusQueued, StatusAssigned, StatusRunning,
		StatusCompleted, StatusFailed, StatusCancelled,
	}

	rapid.Check(t, func(rt *rapid.T) {
		task := NewTask("prop", nil, 0)
		terminals := 0

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			to := rapid.SampledFrom(statuses).Draw(rt, "to")
			wasTerminal := task.Status.Terminal()
			err := task.Transition(to)
			if wasTerminal && err == nil {
				rt.Fatalf("transition out of terminal status %s allowed", task.Status)
			}
			if err == nil && to.Terminal() {
				terminals++
			}
		}

		if terminals > 1 {
			rt.Fatalf("task reached %d terminal states", terminals)
		}
	})
}
