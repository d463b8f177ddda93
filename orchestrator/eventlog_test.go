package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/types"
)

func TestEventLogWritesTerminalEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	cfg := config.DefaultConfig()
	cfg.Dispatcher.GracePeriod = 100 * time.Millisecond
	o, err := New(cfg, WithEventLog(path))
	require.NoError(t, err)

	_, err = o.RegisterAgent("echo", echoHandler())
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		task, err := o.Submit(context.Background(), "logged", i)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	for _, id := range ids {
		_, err := o.Wait(context.Background(), id)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Shutdown(ctx, true))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	seen := make(map[string]types.TaskStatus)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev TaskEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		seen[ev.TaskID] = ev.Status
	}
	require.NoError(t, scanner.Err())

	require.Len(t, seen, 3)
	for _, id := range ids {
		assert.Equal(t, types.StatusCompleted, seen[id])
	}
}

func TestEventLogRecordsFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	cfg := config.DefaultConfig()
	o, err := New(cfg, WithEventLog(path))
	require.NoError(t, err)

	_, err = o.RegisterAgent("panicky", types.HandlerFunc(func(ctx context.Context, payload any) (any, error) {
		panic("kaboom")
	}))
	require.NoError(t, err)

	task, err := o.Submit(context.Background(), "doomed", nil)
	require.NoError(t, err)
	_, err = o.Wait(context.Background(), task.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.Shutdown(ctx, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var ev TaskEvent
	require.NoError(t, json.Unmarshal(data[:len(data)-1], &ev))
	assert.Equal(t, task.ID, ev.TaskID)
	assert.Equal(t, types.StatusFailed, ev.Status)
	assert.Contains(t, ev.Error, "kaboom")
}

func TestEventLogBadPath(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := New(cfg, WithEventLog(filepath.Join(t.TempDir(), "no", "such", "dir", "x.jsonl")))
	require.Error(t, err)
}
