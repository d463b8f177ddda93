package channel

import (
	"testing"
	"time"
)

func TestUnbounded_FIFO(t *testing.T) {
	t.Parallel()

	u := NewUnbounded[int]()
	for i := 0; i < 100; i++ {
		u.Push(i)
	}
	u.Close()

	got := 0
	for v := range u.Out() {
		if v != got {
			t.Fatalf("out of order: got %d, want %d", v, got)
		}
		got++
	}
	if got != 100 {
		t.Fatalf("delivered %d of 100", got)
	}
}

func TestUnbounded_PushNeverBlocks(t *testing.T) {
	t.Parallel()

	u := NewUnbounded[int]()
	defer u.Kill()

	done := make(chan struct{})
	go func() {
		// No receiver draining; pushes must still return.
		for i := 0; i < 10000; i++ {
			u.Push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Push blocked")
	}
}

func TestUnbounded_CloseFlushes(t *testing.T) {
	t.Parallel()

	u := NewUnbounded[string]()
	u.Push("a")
	u.Push("b")
	u.Close()
	u.Push("dropped")

	var got []string
	for v := range u.Out() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected flush result: %v", got)
	}
}

func TestUnbounded_KillDiscards(t *testing.T) {
	t.Parallel()

	u := NewUnbounded[int]()
	for i := 0; i < 50; i++ {
		u.Push(i)
	}
	u.Kill()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-u.Out():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("out channel never closed after Kill")
		}
	}
}
