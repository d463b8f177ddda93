package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/taskflow/agent"
	"github.com/BaSui01/taskflow/config"
	"github.com/BaSui01/taskflow/internal/ctxkeys"
	"github.com/BaSui01/taskflow/internal/metrics"
	"github.com/BaSui01/taskflow/internal/pool"
	"github.com/BaSui01/taskflow/types"
)

// taskRecord is the orchestrator's bookkeeping for one task, from submission
// to archival. All mutable fields are guarded by the orchestrator mutex.
type taskRecord struct {
	task   *types.Task
	ctx    context.Context
	cancel context.CancelFunc

	// done closes when the task reaches a terminal status; event is valid
	// after that.
	done  chan struct{}
	event TaskEvent

	// cancelRequested marks a Cancel that arrived while the task was
	// assigned or running.
	cancelRequested bool

	agent *agent.Agent
	gen   uint64
}

// Orchestrator owns the task queue, the agent registry and the dispatch
// loop. All bookkeeping writes happen under one mutex; handler execution
// runs on the worker pool.
type Orchestrator struct {
	cfg    config.DispatcherConfig
	logger *zap.Logger
	policy agent.SelectionPolicy

	registry *agent.Registry
	pool     *pool.WorkerPool
	bus      *eventBus
	limiter  *rate.Limiter
	metrics  *metrics.Collector
	tracer   trace.Tracer
	now      func() time.Time

	mu       sync.Mutex
	queue    *taskQueue
	records  map[string]*taskRecord
	inflight map[string]*taskRecord
	archive  []string
	seq      uint64
	closed   bool

	// trigger wakes the dispatch loop; capacity 1 coalesces bursts.
	trigger chan struct{}
	done    chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc

	eventLog *eventLog

	// option staging, consumed by New
	metricsNamespace string
	metricsReg       prometheus.Registerer
	eventLogPath     string
}

// New builds an orchestrator from cfg. The zero-value DispatcherConfig gives
// an unbounded queue, round-robin selection and no timeouts; use
// config.DefaultConfig for production defaults.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:        cfg.Dispatcher,
		logger:     zap.NewNop(),
		now:        time.Now,
		queue:      newTaskQueue(),
		records:    make(map[string]*taskRecord),
		inflight:   make(map[string]*taskRecord),
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		tracer:     otel.Tracer("taskflow/orchestrator"),
	}
	o.policy = policyFromConfig(cfg.Dispatcher)
	for _, opt := range opts {
		opt(o)
	}

	if o.metricsReg == nil && cfg.Metrics.Enabled {
		o.metricsNamespace = cfg.Metrics.Namespace
		o.metricsReg = prometheus.DefaultRegisterer
	}
	if o.metricsReg != nil {
		o.metrics = metrics.NewCollector(o.metricsNamespace, o.metricsReg, o.logger)
	}

	o.registry = agent.NewRegistry(o.policy, o.logger)
	o.pool = pool.New(pool.Config{
		MaxWorkers:  cfg.Pool.MaxWorkers,
		QueueSize:   cfg.Pool.QueueSize,
		IdleTimeout: cfg.Pool.IdleTimeout,
	})
	o.bus = newEventBus(o.logger)

	if cfg.Dispatcher.SubmitRPS > 0 {
		burst := cfg.Dispatcher.SubmitBurst
		if burst <= 0 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(cfg.Dispatcher.SubmitRPS), burst)
	}

	path := o.eventLogPath
	if path == "" && cfg.EventLog.Enabled {
		path = cfg.EventLog.Path
	}
	if path != "" {
		log, err := newEventLog(path, o.logger)
		if err != nil {
			baseCancel()
			return nil, err
		}
		o.eventLog = log
		go log.run(o.bus.Subscribe())
	}

	go o.dispatchLoop()
	return o, nil
}

// RegisterAgent creates an agent around handler and adds it to the registry.
func (o *Orchestrator) RegisterAgent(name string, handler types.Handler) (*agent.Agent, error) {
	a, err := agent.New(name, handler, o.logger)
	if err != nil {
		return nil, err
	}
	if err := o.registry.Register(a); err != nil {
		if errors.Is(err, agent.ErrDuplicateAgent) {
			return nil, types.WrapError(types.ErrDuplicateAgent, "agent already registered", err).
				WithAgent(a.ID())
		}
		return nil, err
	}
	o.updateAgentGauges()
	o.triggerDispatch()
	return a, nil
}

// UnregisterAgent removes the agent. Without force a busy agent is refused
// with agent.ErrAgentBusy; with force its in-flight task is cancelled and the
// slot reclaimed.
func (o *Orchestrator) UnregisterAgent(id string, force bool) error {
	if force {
		// Cancel the agent's inflight task before reclaiming the slot so
		// the late handler return is discarded, not double-counted.
		o.mu.Lock()
		for _, rec := range o.inflight {
			if rec.agent != nil && rec.agent.ID() == id {
				rec.cancelRequested = true
				rec.cancel()
				o.forceFinalizeLocked(rec,
					fmt.Errorf("agent unregistered while task was running: %w", context.Canceled))
				break
			}
		}
		o.mu.Unlock()
	}
	if err := o.registry.Unregister(id, force); err != nil {
		switch {
		case errors.Is(err, agent.ErrAgentBusy):
			return types.WrapError(types.ErrAgentBusy, "agent holds an in-flight task", err).
				WithAgent(id)
		case errors.Is(err, agent.ErrAgentNotFound):
			return types.WrapError(types.ErrAgentNotFound, "unknown agent", err).WithAgent(id)
		}
		return err
	}
	o.updateAgentGauges()
	return nil
}

// Registry exposes the agent registry for inspection.
func (o *Orchestrator) Registry() *agent.Registry { return o.registry }

// Submit enqueues a task and returns its snapshot. The task runs when an
// agent frees up; subscribe or Wait for its terminal event.
func (o *Orchestrator) Submit(ctx context.Context, name string, payload any, opts ...TaskOption) (*types.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.limiter != nil && !o.limiter.Allow() {
		o.metrics.ObserveReject("rate_limited")
		return nil, types.NewError(types.ErrRateLimited, "submission rate limit exceeded").
			WithRetryable(true)
	}

	task := types.NewTask(name, payload, 0)
	task.Timeout = o.cfg.DefaultTimeout
	for _, opt := range opts {
		opt(task)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.metrics.ObserveReject("closed")
		return nil, types.NewError(types.ErrOrchestratorClosed, "orchestrator is shut down")
	}
	if o.cfg.MaxQueueDepth > 0 && o.queue.Len() >= o.cfg.MaxQueueDepth {
		o.mu.Unlock()
		o.metrics.ObserveReject("queue_full")
		return nil, types.NewError(types.ErrQueueFull,
			fmt.Sprintf("queue depth limit %d reached", o.cfg.MaxQueueDepth)).
			WithTask(task.ID).WithRetryable(true)
	}

	taskCtx, taskCancel := context.WithCancel(o.baseCtx)
	rec := &taskRecord{
		task:   task,
		ctx:    taskCtx,
		cancel: taskCancel,
		done:   make(chan struct{}),
	}
	o.records[task.ID] = rec
	o.seq++
	o.queue.push(rec, o.seq)
	o.metrics.SetQueueDepth(o.queue.Len())
	snapshot := task.Snapshot()
	o.mu.Unlock()

	o.metrics.ObserveSubmit()
	o.logger.Debug("task submitted",
		zap.String("task_id", task.ID),
		zap.String("task_name", task.Name),
		zap.Int("priority", int(task.Priority)))
	o.triggerDispatch()
	return &snapshot, nil
}

// Cancel requests cancellation of a task. Queued tasks finalize immediately;
// running tasks get their context cancelled and finalize when the handler
// returns, or when the grace period reclaims the agent.
func (o *Orchestrator) Cancel(taskID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.records[taskID]
	if !ok {
		return types.NewError(types.ErrTaskNotFound, "unknown task").WithTask(taskID)
	}
	switch {
	case rec.task.Status.Terminal():
		return types.NewError(types.ErrInvalidTransition,
			fmt.Sprintf("task already %s", rec.task.Status)).WithTask(taskID)
	case rec.task.Status == types.StatusQueued:
		o.queue.remove(taskID)
		o.metrics.SetQueueDepth(o.queue.Len())
		o.finalizeLocked(rec, types.StatusCancelled, nil, context.Canceled)
		return nil
	default:
		rec.cancelRequested = true
		rec.cancel()
		o.watchGrace(rec)
		return nil
	}
}

// Wait blocks until the task reaches a terminal status and returns its event.
func (o *Orchestrator) Wait(ctx context.Context, taskID string) (TaskEvent, error) {
	o.mu.Lock()
	rec, ok := o.records[taskID]
	o.mu.Unlock()
	if !ok {
		return TaskEvent{}, types.NewError(types.ErrTaskNotFound, "unknown task").WithTask(taskID)
	}
	select {
	case <-rec.done:
		return rec.event, nil
	case <-ctx.Done():
		return TaskEvent{}, ctx.Err()
	}
}

// Task returns a snapshot of a queued, running or recently finished task.
// Finished tasks age out of the archive ring.
func (o *Orchestrator) Task(taskID string) (types.Task, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.records[taskID]
	if !ok {
		return types.Task{}, types.NewError(types.ErrTaskNotFound, "unknown task").WithTask(taskID)
	}
	return rec.task.Snapshot(), nil
}

// Subscribe returns a subscription delivering every terminal task event in
// completion order.
func (o *Orchestrator) Subscribe() *Subscription {
	return o.bus.Subscribe()
}

// QueueDepth reports the number of queued tasks.
func (o *Orchestrator) QueueDepth() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Len()
}

// InflightCount reports the number of assigned or running tasks.
func (o *Orchestrator) InflightCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// Shutdown stops the orchestrator. With drain it first lets queued and
// running work finish; without it queued tasks are cancelled and running
// ones get their contexts cancelled. ctx bounds the wait either way.
func (o *Orchestrator) Shutdown(ctx context.Context, drain bool) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true

	if !drain {
		for _, rec := range o.queue.drain() {
			o.finalizeLocked(rec, types.StatusCancelled, nil, context.Canceled)
		}
		o.metrics.SetQueueDepth(0)
		for _, rec := range o.inflight {
			rec.cancelRequested = true
			rec.cancel()
			o.watchGrace(rec)
		}
	}
	o.mu.Unlock()

	err := o.awaitQuiescence(ctx)

	close(o.done)
	o.baseCancel()
	o.bus.Close()
	if o.eventLog != nil {
		o.eventLog.wait()
	}

	// A handler that ignores cancellation would hang pool.Close forever, so
	// the wait for workers is bounded by the grace period.
	poolDone := make(chan struct{})
	go func() {
		o.pool.Close()
		close(poolDone)
	}()
	grace := o.cfg.GracePeriod
	if grace <= 0 {
		grace = time.Second
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-poolDone:
	case <-timer.C:
		o.logger.Warn("worker pool close timed out, abandoning stuck workers")
	}

	o.logger.Info("orchestrator shut down", zap.Bool("drain", drain), zap.Error(err))
	return err
}

func (o *Orchestrator) awaitQuiescence(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		o.mu.Lock()
		idle := o.queue.Len() == 0 && len(o.inflight) == 0
		o.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) triggerDispatch() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) dispatchLoop() {
	for {
		select {
		case <-o.done:
			return
		case <-o.trigger:
			for o.dispatchStep() {
			}
		}
	}
}

// dispatchStep pairs the best queued task with an idle agent. Returns false
// when no pairing is possible.
func (o *Orchestrator) dispatchStep() bool {
	o.mu.Lock()
	if o.queue.Len() == 0 {
		o.mu.Unlock()
		return false
	}
	a, ok := o.registry.SelectIdle()
	if !ok {
		o.mu.Unlock()
		return false
	}
	gen, err := a.Acquire()
	if err != nil {
		// lost the slot to a concurrent state change, try again
		o.mu.Unlock()
		return true
	}
	rec := o.queue.pop()
	rec.agent = a
	rec.gen = gen
	if err := rec.task.Transition(types.StatusAssigned); err != nil {
		// cancelled between pop and assignment
		a.Release(gen)
		o.mu.Unlock()
		return true
	}
	o.inflight[rec.task.ID] = rec
	o.metrics.SetQueueDepth(o.queue.Len())
	o.metrics.SetInflight(len(o.inflight))
	o.metrics.ObserveDispatchStep()
	o.mu.Unlock()

	o.updateAgentGauges()
	o.logger.Debug("task assigned",
		zap.String("task_id", rec.task.ID),
		zap.String("agent_id", a.ID()),
		zap.String("agent_name", a.Name()))

	if err := o.pool.Submit(o.baseCtx, func(context.Context) error {
		o.run(rec)
		return nil
	}); err != nil {
		// pool saturated or closing, fall back to a plain goroutine so the
		// assignment is never stranded
		go o.run(rec)
	}
	return true
}

// run executes the task's handler on its agent and finalizes the record.
func (o *Orchestrator) run(rec *taskRecord) {
	o.mu.Lock()
	if o.inflight[rec.task.ID] != rec {
		o.mu.Unlock()
		return
	}
	if err := rec.task.Transition(types.StatusRunning); err != nil {
		o.mu.Unlock()
		return
	}
	rec.task.StartedAt = o.now()
	o.mu.Unlock()

	ctx := rec.ctx
	var timeoutCancel context.CancelFunc
	if rec.task.Timeout > 0 {
		ctx, timeoutCancel = context.WithTimeout(ctx, rec.task.Timeout)
		defer timeoutCancel()
	}
	ctx = ctxkeys.WithTaskID(ctx, rec.task.ID)
	ctx = ctxkeys.WithTaskName(ctx, rec.task.Name)
	ctx = ctxkeys.WithAgentID(ctx, rec.agent.ID())

	// reclaim the agent if the handler ignores cancellation
	stopWatch := o.startGraceWatch(rec, ctx)
	defer stopWatch()

	ctx, span := o.tracer.Start(ctx, "taskflow.task.execute",
		trace.WithAttributes(
			attribute.String("task.id", rec.task.ID),
			attribute.String("task.name", rec.task.Name),
			attribute.String("agent.id", rec.agent.ID()),
			attribute.Int("task.priority", int(rec.task.Priority)),
		))
	output, err := rec.agent.Execute(ctx, rec.gen, rec.task.Payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	o.finish(rec, output, err, ctx.Err())
}

// finish resolves the terminal status of an executed task. Late completions,
// where the record was already force-finalized, are discarded.
func (o *Orchestrator) finish(rec *taskRecord, output any, execErr, ctxErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inflight[rec.task.ID] != rec {
		o.logger.Debug("late handler return discarded",
			zap.String("task_id", rec.task.ID),
			zap.Error(execErr))
		return
	}

	status := types.StatusCompleted
	finalErr := execErr
	switch {
	case rec.cancelRequested || errors.Is(execErr, context.Canceled) || errors.Is(ctxErr, context.Canceled):
		status = types.StatusCancelled
		if finalErr == nil {
			finalErr = context.Canceled
		}
	case errors.Is(execErr, context.DeadlineExceeded) || errors.Is(ctxErr, context.DeadlineExceeded):
		status = types.StatusFailed
		finalErr = types.WrapError(types.ErrTimeout,
			fmt.Sprintf("task exceeded its %s timeout", rec.task.Timeout), execErr).
			WithTask(rec.task.ID).WithAgent(rec.agent.ID()).WithRetryable(true)
	case execErr != nil:
		status = types.StatusFailed
		if e, ok := types.AsError(execErr); ok {
			if e.Code == types.ErrHandlerPanic {
				o.metrics.ObservePanic()
			}
		} else {
			finalErr = types.WrapError(types.ErrHandlerError, "handler failed", execErr).
				WithTask(rec.task.ID).WithAgent(rec.agent.ID())
		}
	}

	rec.agent.Release(rec.gen)
	o.finalizeLocked(rec, status, output, finalErr)
}

// forceFinalizeLocked reclaims an agent slot from an unresponsive handler and
// finalizes its task. The inflight entry is removed first so the eventual
// handler return is discarded. Caller holds the mutex.
func (o *Orchestrator) forceFinalizeLocked(rec *taskRecord, cause error) {
	if o.inflight[rec.task.ID] != rec {
		return
	}
	status := types.StatusFailed
	// a task that never started running cannot fail, only be cancelled
	if rec.cancelRequested || rec.task.Status == types.StatusAssigned {
		status = types.StatusCancelled
	}
	rec.agent.ForceRelease()
	o.logger.Warn("agent slot reclaimed from unresponsive handler",
		zap.String("task_id", rec.task.ID),
		zap.String("agent_id", rec.agent.ID()))
	o.finalizeLocked(rec, status, nil, cause)
}

// startGraceWatch arms the grace-period reclaim for a running task: once ctx
// is cancelled, the handler has GracePeriod to return before the agent slot
// is taken back. The returned stop func disarms the watch.
func (o *Orchestrator) startGraceWatch(rec *taskRecord, ctx context.Context) func() {
	if o.cfg.GracePeriod <= 0 {
		return func() {}
	}
	stopped := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(stopped) }) }
	go func() {
		select {
		case <-stopped:
			return
		case <-ctx.Done():
		}
		timer := time.NewTimer(o.cfg.GracePeriod)
		defer timer.Stop()
		select {
		case <-stopped:
			return
		case <-timer.C:
		}
		cause := ctx.Err()
		if errors.Is(cause, context.DeadlineExceeded) {
			cause = types.WrapError(types.ErrTimeout,
				fmt.Sprintf("task exceeded its %s timeout and ignored cancellation", rec.task.Timeout), cause).
				WithTask(rec.task.ID).WithAgent(rec.agent.ID()).WithRetryable(true)
		}
		o.mu.Lock()
		o.forceFinalizeLocked(rec, cause)
		o.mu.Unlock()
	}()
	return stop
}

// watchGrace arms the reclaim watch from outside the run path, for Cancel and
// non-drain Shutdown. Caller holds the mutex.
func (o *Orchestrator) watchGrace(rec *taskRecord) {
	if o.cfg.GracePeriod <= 0 {
		return
	}
	go func() {
		timer := time.NewTimer(o.cfg.GracePeriod)
		defer timer.Stop()
		select {
		case <-rec.done:
			return
		case <-timer.C:
		}
		o.mu.Lock()
		o.forceFinalizeLocked(rec, context.Canceled)
		o.mu.Unlock()
	}()
}

// finalizeLocked moves a task to its terminal status, publishes its one
// terminal event and archives the record. Caller holds the mutex.
func (o *Orchestrator) finalizeLocked(rec *taskRecord, status types.TaskStatus, output any, cause error) {
	if rec.task.Status.Terminal() {
		return
	}
	if err := rec.task.Transition(status); err != nil {
		o.logger.Error("terminal transition refused",
			zap.String("task_id", rec.task.ID),
			zap.Error(err))
		return
	}
	now := o.now()
	rec.task.FinishedAt = now
	delete(o.inflight, rec.task.ID)
	o.metrics.SetInflight(len(o.inflight))

	var duration time.Duration
	if !rec.task.StartedAt.IsZero() {
		duration = now.Sub(rec.task.StartedAt)
	}
	ev := TaskEvent{
		TaskID:    rec.task.ID,
		TaskName:  rec.task.Name,
		Status:    status,
		Output:    output,
		Err:       cause,
		Duration:  duration,
		Timestamp: now,
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	if rec.agent != nil {
		ev.AgentID = rec.agent.ID()
		ev.AgentName = rec.agent.Name()
	}
	rec.event = ev
	close(rec.done)
	rec.cancel()

	o.archiveLocked(rec.task.ID)
	o.bus.Publish(ev)
	o.metrics.ObserveFinish(string(status), duration)

	o.logger.Info("task finished",
		zap.String("task_id", rec.task.ID),
		zap.String("task_name", rec.task.Name),
		zap.String("status", string(status)),
		zap.Duration("duration", duration),
		zap.Error(cause))
	o.triggerDispatch()
}

// archiveLocked keeps the record reachable for Task lookups until the ring
// evicts it. Caller holds the mutex.
func (o *Orchestrator) archiveLocked(taskID string) {
	if o.cfg.ArchiveSize <= 0 {
		delete(o.records, taskID)
		return
	}
	o.archive = append(o.archive, taskID)
	for len(o.archive) > o.cfg.ArchiveSize {
		delete(o.records, o.archive[0])
		o.archive = o.archive[1:]
	}
}

func (o *Orchestrator) updateAgentGauges() {
	if o.metrics == nil {
		return
	}
	for state, n := range o.registry.CountByState() {
		o.metrics.SetAgents(string(state), n)
	}
}
