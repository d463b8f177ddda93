package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/types"
)

func TestSwarmRunsBatch(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	for i := 0; i < 3; i++ {
		_, err := o.RegisterAgent(fmt.Sprintf("worker-%d", i), echoHandler())
		require.NoError(t, err)
	}

	tasks := make([]SwarmTask, 10)
	for i := range tasks {
		tasks[i] = SwarmTask{Name: fmt.Sprintf("t-%d", i), Payload: i}
	}

	res, err := o.Swarm(context.Background(), tasks)
	require.NoError(t, err)
	require.Empty(t, res.SubmitErrors)
	require.Len(t, res.Events, 10)

	for _, ev := range res.Events {
		assert.Equal(t, types.StatusCompleted, ev.Status)
	}
	// completion order
	for i := 1; i < len(res.Events); i++ {
		assert.False(t, res.Events[i].Timestamp.Before(res.Events[i-1].Timestamp))
	}
}

func TestSwarmReportsSubmitErrors(t *testing.T) {
	o := newTestOrchestrator(t, func(cfg *config.Config) {
		cfg.Dispatcher.MaxQueueDepth = 2
	})
	// no agents: everything queues, so the third task is refused

	tasks := []SwarmTask{
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	res, err := o.Swarm(ctx, tasks)

	// accepted tasks never finish without agents, so the wait times out
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, res.SubmitErrors, 1)
	assert.True(t, types.IsErrorCode(res.SubmitErrors[2], types.ErrQueueFull))
}

func TestSwarmEmptyBatch(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	res, err := o.Swarm(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.SubmitErrors)
}

func TestSwarmMixedOutcomes(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	_, err := o.RegisterAgent("picky", types.HandlerFunc(func(ctx context.Context, payload any) (any, error) {
		if payload.(int)%2 == 0 {
			return payload, nil
		}
		return nil, fmt.Errorf("odd payload %v", payload)
	}))
	require.NoError(t, err)

	tasks := make([]SwarmTask, 6)
	for i := range tasks {
		tasks[i] = SwarmTask{Name: fmt.Sprintf("t-%d", i), Payload: i}
	}

	res, err := o.Swarm(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, res.Events, 6)

	var completed, failed int
	for _, ev := range res.Events {
		switch ev.Status {
		case types.StatusCompleted:
			completed++
		case types.StatusFailed:
			failed++
		}
	}
	assert.Equal(t, 3, completed)
	assert.Equal(t, 3, failed)
}
