package orchestrator

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SwarmTask describes one task in a batch submission.
type SwarmTask struct {
	Name    string
	Payload any
	Options []TaskOption
}

// SwarmResult is the outcome of a Swarm call: the terminal events of every
// task that was accepted, in completion order, plus per-index submission
// errors for tasks the orchestrator refused.
type SwarmResult struct {
	Events       []TaskEvent
	SubmitErrors map[int]error
}

// Swarm submits a batch of tasks and blocks until every accepted task
// reaches a terminal status or ctx expires. Tasks the orchestrator refuses,
// from backpressure or rate limiting, are reported in SubmitErrors rather
// than failing the batch.
func (o *Orchestrator) Swarm(ctx context.Context, tasks []SwarmTask) (*SwarmResult, error) {
	res := &SwarmResult{SubmitErrors: make(map[int]error)}
	if len(tasks) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(tasks))
	for i, st := range tasks {
		t, err := o.Submit(ctx, st.Name, st.Payload, st.Options...)
		if err != nil {
			res.SubmitErrors[i] = err
			continue
		}
		ids = append(ids, t.ID)
	}

	events := make([]TaskEvent, len(ids))
	g, waitCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			ev, err := o.Wait(waitCtx, id)
			if err != nil {
				return err
			}
			events[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	res.Events = events
	return res, nil
}
