package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// eventLog appends terminal task events to a file as JSON lines. It consumes
// its own bus subscription so logging never slows the dispatch path; the
// backlog lives in the subscription's queue.
type eventLog struct {
	f      *os.File
	enc    *json.Encoder
	logger *zap.Logger
	done   chan struct{}
}

func newEventLog(path string, logger *zap.Logger) (*eventLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &eventLog{
		f:      f,
		enc:    json.NewEncoder(f),
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// run consumes events until the subscription channel closes, then syncs and
// closes the file. Run it on its own goroutine.
func (l *eventLog) run(sub *Subscription) {
	defer close(l.done)
	for ev := range sub.C {
		if ev.Err != nil && ev.Error == "" {
			ev.Error = ev.Err.Error()
		}
		if err := l.enc.Encode(ev); err != nil {
			l.logger.Warn("event log write failed",
				zap.String("task_id", ev.TaskID),
				zap.Error(err))
		}
	}
	if err := l.f.Sync(); err != nil {
		l.logger.Warn("event log sync failed", zap.Error(err))
	}
	if err := l.f.Close(); err != nil {
		l.logger.Warn("event log close failed", zap.Error(err))
	}
}

// wait blocks until run has flushed and closed the file.
func (l *eventLog) wait() {
	<-l.done
}
