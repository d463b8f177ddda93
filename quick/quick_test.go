package quick

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/types"
)

func TestNewWithHandlerFunc(t *testing.T) {
	o, err := New(
		WithHandlerFunc("upper", func(ctx context.Context, payload any) (any, error) {
			return strings.ToUpper(payload.(string)), nil
		}),
	)
	require.NoError(t, err)
	defer o.Shutdown(context.Background(), false)

	task, err := o.Submit(context.Background(), "shout", "hello")
	require.NoError(t, err)

	ev, err := o.Wait(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, ev.Status)
	assert.Equal(t, "HELLO", ev.Output)
}

func TestNewWithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dispatcher.MaxQueueDepth = 1

	o, err := New(WithConfig(cfg))
	require.NoError(t, err)
	defer o.Shutdown(context.Background(), false)

	_, err = o.Submit(context.Background(), "a", nil)
	require.NoError(t, err)
	_, err = o.Submit(context.Background(), "b", nil)
	assert.True(t, types.IsErrorCode(err, types.ErrQueueFull))
}

func TestNewRegistersAllAgents(t *testing.T) {
	handler := types.HandlerFunc(func(ctx context.Context, payload any) (any, error) {
		return nil, nil
	})
	// same name twice is fine, ids differ; duplicates are by id
	o, err := New(
		WithAgent("worker", handler),
		WithAgent("worker", handler),
	)
	require.NoError(t, err)
	require.Equal(t, 2, o.Registry().Len())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Shutdown(ctx, false))
}
