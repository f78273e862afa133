package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/services"
	"lectern/internal/task"
	"lectern/internal/tracking"
)

// Status reports queue counts plus scheduler liveness for the dashboard.
type Status struct {
	queue.Counts
	Active bool `json:"active"`
}

// Dispatcher schedules queue items, executes them on a worker pool, retries
// failures with a capped counter, and reflects final outcomes into the status
// tracker. When the backing store is unavailable it degrades to synchronous
// direct execution so callers never fail on enqueue.
type Dispatcher struct {
	store    *queue.Store
	registry *task.Registry
	tracker  *tracking.Tracker
	logger   *slog.Logger

	pollInterval time.Duration
	idleInterval time.Duration
	maxRetries   int
	cleanupAge   time.Duration

	pool *ants.Pool
	wake chan struct{}

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inflight sync.WaitGroup
}

// New constructs a dispatcher. The store may be nil, in which case every
// enqueue falls back to direct execution.
func New(cfg *config.Config, store *queue.Store, registry *task.Registry, tracker *tracking.Tracker, logger *slog.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("dispatcher requires an executor registry")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	poolSize := cfg.Queue.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Dispatcher{
		store:        store,
		registry:     registry,
		tracker:      tracker,
		logger:       logger.With(logging.String(logging.FieldComponent, "dispatch")),
		pollInterval: time.Duration(cfg.Queue.PollIntervalSeconds) * time.Second,
		idleInterval: time.Duration(cfg.Queue.IdlePollIntervalSeconds) * time.Second,
		maxRetries:   cfg.Queue.MaxRetries,
		cleanupAge:   time.Duration(cfg.Queue.CleanupAgeHours) * time.Hour,
		pool:         pool,
		wake:         make(chan struct{}, 1),
	}, nil
}

// Start launches the scheduler loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("dispatcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.wg.Add(1)
	go d.run(runCtx)
	return nil
}

// Stop terminates the scheduler loop and waits for in-flight tasks.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
	d.inflight.Wait()
	d.pool.Release()
}

// Active reports whether the scheduler loop is running.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Enqueue appends a queued item for a video task. When the backing store is
// unreachable the task executes synchronously and a synthetic item describing
// the outcome is returned instead of an error.
func (d *Dispatcher) Enqueue(ctx context.Context, videoID string, taskType task.Type, priority int, payload task.Payload) (*queue.Item, error) {
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "dispatch", "enqueue", "video id is required", nil)
	}
	if _, ok := task.ParseType(string(taskType)); !ok {
		return nil, services.Wrap(services.ErrValidation, "dispatch", "enqueue", fmt.Sprintf("unknown task type %q", taskType), nil)
	}

	payloadJSON, err := payload.Encode()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "dispatch", "enqueue", "invalid payload", err)
	}

	if d.store != nil {
		item, err := d.store.Enqueue(ctx, videoID, string(taskType), priority, payloadJSON)
		if err == nil {
			d.signalWake()
			return item, nil
		}
		d.logger.Warn("queue store unavailable, executing task directly",
			logging.String(logging.FieldVideoID, videoID),
			logging.String(logging.FieldTaskType, string(taskType)),
			logging.Error(err),
		)
	}

	return d.executeDirect(ctx, videoID, taskType, priority, payload), nil
}

// RetryFailed resets permanently failed items back to queued and wakes the
// scheduler. Returns the number of items reset.
func (d *Dispatcher) RetryFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, nil
	}
	count, err := d.store.RetryFailed(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		d.signalWake()
	}
	return count, nil
}

// Cleanup deletes completed items older than the configured age.
func (d *Dispatcher) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	if d.store == nil {
		return 0, nil
	}
	if maxAge <= 0 {
		maxAge = d.cleanupAge
	}
	return d.store.Cleanup(ctx, maxAge)
}

// QueueStatus returns aggregate queue counts and scheduler liveness.
func (d *Dispatcher) QueueStatus(ctx context.Context) (Status, error) {
	status := Status{Active: d.Active()}
	if d.store == nil {
		return status, nil
	}
	counts, err := d.store.CountsSummary(ctx)
	if err != nil {
		return status, err
	}
	status.Counts = counts
	return status, nil
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	if d.store == nil {
		<-ctx.Done()
		return
	}

	if count, err := d.store.ResetStuckProcessing(ctx); err == nil && count > 0 {
		d.logger.Info("requeued items stuck in processing", logging.Int64("count", count))
	}

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	interval := d.pollInterval
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		case <-cleanupTicker.C:
			if count, err := d.store.Cleanup(ctx, d.cleanupAge); err == nil && count > 0 {
				d.logger.Info("cleaned up old completed items", logging.Int64("count", count))
			}
			continue
		case <-time.After(interval):
		}

		dispatched := d.drain(ctx)
		if dispatched > 0 {
			interval = d.pollInterval
		} else {
			interval = d.idleInterval
		}
	}
}

// drain claims queued items and hands them to the worker pool until the queue
// is empty. Claiming marks the row processing before submission so execution
// never runs inside the dequeue critical path.
func (d *Dispatcher) drain(ctx context.Context) int {
	dispatched := 0
	for {
		select {
		case <-ctx.Done():
			return dispatched
		default:
		}

		item, err := d.store.NextQueued(ctx)
		if err != nil {
			d.logger.Error("dequeue failed", logging.Error(err))
			return dispatched
		}
		if item == nil {
			return dispatched
		}
		if err := d.store.MarkProcessing(ctx, item.ID); err != nil {
			d.logger.Warn("claim failed", logging.Int64(logging.FieldItemID, item.ID), logging.Error(err))
			continue
		}

		claimed := *item
		d.inflight.Add(1)
		if err := d.pool.Submit(func() {
			defer d.inflight.Done()
			d.execute(ctx, &claimed)
		}); err != nil {
			d.inflight.Done()
			d.logger.Error("worker pool rejected task", logging.Int64(logging.FieldItemID, item.ID), logging.Error(err))
			if requeueErr := d.store.Requeue(ctx, item.ID, item.RetryCount, ""); requeueErr != nil {
				d.logger.Error("requeue after pool rejection failed", logging.Error(requeueErr))
			}
			return dispatched
		}
		dispatched++
	}
}

// execute runs one claimed item and persists its outcome. Transient failures
// under the retry cap return the item to the queue; once the cap is reached
// the item fails permanently and the tracker records the failure.
func (d *Dispatcher) execute(ctx context.Context, item *queue.Item) {
	taskType, ok := task.ParseType(item.TaskType)
	if !ok {
		d.failPermanently(ctx, item, task.Payload{}, fmt.Errorf("unknown task type %q", item.TaskType))
		return
	}

	payload, err := task.DecodePayload(item.PayloadJSON)
	if err != nil {
		d.failPermanently(ctx, item, task.Payload{}, services.Wrap(services.ErrValidation, "dispatch", "decode payload", "", err))
		return
	}

	req := task.Request{VideoID: item.VideoID, Type: taskType, Payload: payload}
	outcome, err := d.runExecutor(ctx, item, req)
	if err == nil {
		if markErr := d.store.MarkCompleted(ctx, item.ID); markErr != nil {
			d.logger.Error("mark completed failed", logging.Int64(logging.FieldItemID, item.ID), logging.Error(markErr))
		}
		d.applySuccess(req, outcome)
		return
	}

	if item.RetryCount < d.maxRetries {
		retryCount := item.RetryCount + 1
		d.logger.Warn("task failed, requeueing",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldTaskType, item.TaskType),
			logging.Int("retry_count", retryCount),
			logging.Error(err),
		)
		if requeueErr := d.store.Requeue(ctx, item.ID, retryCount, err.Error()); requeueErr != nil {
			d.logger.Error("requeue failed", logging.Int64(logging.FieldItemID, item.ID), logging.Error(requeueErr))
		}
		d.signalWake()
		return
	}

	d.failPermanently(ctx, item, payload, err)
}

func (d *Dispatcher) failPermanently(ctx context.Context, item *queue.Item, payload task.Payload, err error) {
	d.logger.Error("task failed permanently",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldVideoID, item.VideoID),
		logging.String(logging.FieldTaskType, item.TaskType),
		logging.Int("retry_count", item.RetryCount),
		logging.Error(err),
	)
	if markErr := d.store.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
		d.logger.Error("mark failed errored", logging.Int64(logging.FieldItemID, item.ID), logging.Error(markErr))
	}
	if taskType, ok := task.ParseType(item.TaskType); ok {
		req := task.Request{VideoID: item.VideoID, Type: taskType, Payload: payload}
		d.applyFailure(req, err)
	}
}

func (d *Dispatcher) runExecutor(ctx context.Context, item *queue.Item, req task.Request) (task.Outcome, error) {
	executor, err := d.registry.Resolve(req.Type)
	if err != nil {
		return task.Outcome{}, services.Wrap(services.ErrConfiguration, "dispatch", "resolve executor", "", err)
	}

	execCtx := services.WithVideoID(ctx, req.VideoID)
	execCtx = services.WithTaskType(execCtx, string(req.Type))
	execCtx = services.WithItemID(execCtx, item.ID)
	execCtx = services.WithRequestID(execCtx, uuid.NewString())

	logger := logging.WithContext(execCtx, d.logger)
	started := time.Now()
	outcome, err := executor.Execute(execCtx, req)
	if err != nil {
		return task.Outcome{}, err
	}
	logger.Info("task executed", logging.Duration("elapsed", time.Since(started)))
	return outcome, nil
}

// executeDirect is the degraded path used when the backing store cannot
// accept the item: the task runs synchronously and the caller receives a
// synthetic item describing the outcome.
func (d *Dispatcher) executeDirect(ctx context.Context, videoID string, taskType task.Type, priority int, payload task.Payload) *queue.Item {
	now := time.Now().UTC()
	item := &queue.Item{
		VideoID:   videoID,
		TaskType:  string(taskType),
		Priority:  priority,
		Status:    queue.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
		StartedAt: &now,
	}

	req := task.Request{VideoID: videoID, Type: taskType, Payload: payload}
	outcome, err := d.runExecutor(ctx, item, req)
	finished := time.Now().UTC()
	item.CompletedAt = &finished
	if err != nil {
		item.Status = queue.StatusFailed
		item.ErrorMessage = err.Error()
		d.applyFailure(req, err)
		return item
	}
	item.Status = queue.StatusCompleted
	d.applySuccess(req, outcome)
	return item
}

// applySuccess reflects a final successful outcome into the status tracker.
func (d *Dispatcher) applySuccess(req task.Request, outcome task.Outcome) {
	if d.tracker == nil {
		return
	}
	switch {
	case req.Type.UpdatesTranscript():
		d.tracker.UpdateTranscriptStatus(req.VideoID, tracking.StatusCompleted, "")
	case req.Type.UpdatesContent():
		meta := &tracking.Metadata{ProviderUsed: outcome.Provider}
		d.tracker.UpdateContentStatus(req.VideoID, req.ContentType(), tracking.StatusCompleted, "", meta)
	}
}

// applyFailure reflects a permanent failure into the status tracker.
func (d *Dispatcher) applyFailure(req task.Request, err error) {
	if d.tracker == nil {
		return
	}
	switch {
	case req.Type.UpdatesTranscript():
		d.tracker.UpdateTranscriptStatus(req.VideoID, tracking.StatusFailed, err.Error())
	case req.Type.UpdatesContent():
		meta := &tracking.Metadata{
			ErrorCode:     services.ErrorCode(err),
			ErrorType:     "task_failure",
			SuggestedFix:  services.SuggestedFix(err),
			FailureReason: err.Error(),
		}
		d.tracker.UpdateContentStatus(req.VideoID, req.ContentType(), tracking.StatusFailed, err.Error(), meta)
	}
}

func (d *Dispatcher) signalWake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}
