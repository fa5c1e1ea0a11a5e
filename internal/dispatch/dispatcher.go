package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/metrics"
	"github.com/Akhil0736/luna-instagram-ai/internal/observability"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// maxActivePerUser caps concurrent executions per user. One execution mirrors
// one human working the account; overlapping executions look like automation.
const maxActivePerUser = 1

// Sleeper pauses for d or until the context ends. Injected in tests so
// humanized gaps and backoff waits can be recorded instead of slept.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dispatcher pushes vetted tasks to the automation backend one user at a
// time, pacing actions like a human and retrying transient backend failures.
type Dispatcher struct {
	cfg      config.DispatchConfig
	backend  automation.Backend
	store    store.Store
	logger   *slog.Logger
	tracer   trace.Tracer
	sleep    Sleeper
	poller   *Poller
	limiters *limiterPool

	mu     sync.Mutex
	active map[string]int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTracer attaches an otel tracer to dispatch runs.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithSleeper replaces the real clock waits.
func WithSleeper(sleep Sleeper) DispatcherOption {
	return func(d *Dispatcher) {
		d.sleep = sleep
	}
}

// WithPoller registers a poller that picks up executions with in-flight
// tasks once Dispatch returns.
func WithPoller(poller *Poller) DispatcherOption {
	return func(d *Dispatcher) {
		d.poller = poller
	}
}

// NewDispatcher creates a Dispatcher over the given backend and store.
func NewDispatcher(cfg config.DispatchConfig, backend automation.Backend, st store.Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		backend:  backend,
		store:    st,
		logger:   slog.Default(),
		sleep:    sleepCtx,
		limiters: newLimiterPool(cfg),
		active:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends the tasks for one execution. Tasks go out sequentially in
// plan order with a humanized gap between actions. A task that exhausts its
// retry budget is recorded failed and dispatch continues with the rest; only
// caller cancellation aborts the run, leaving the persisted records valid
// and resumable.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, executionID string, tasks []plan.Task) (*Status, error) {
	if d.tracer != nil {
		var span trace.Span
		ctx, span = d.tracer.Start(ctx, "dispatch.Dispatch",
			trace.WithAttributes(
				attribute.String("dispatch.execution_id", executionID),
				attribute.Int("dispatch.task_count", len(tasks)),
			))
		defer span.End()
	}
	log := observability.WithTrace(ctx, d.logger)

	if err := d.acquireUser(userID); err != nil {
		return nil, err
	}
	defer d.releaseUser(userID)

	now := time.Now().UTC()
	status := &Status{
		ExecutionID: executionID,
		UserID:      userID,
		Records:     make([]DispatchRecord, len(tasks)),
		StartedAt:   now,
	}
	for i, task := range tasks {
		status.Records[i] = DispatchRecord{
			TaskID:     task.ID,
			Category:   task.Category,
			State:      automation.StateQueued,
			EnqueuedAt: now,
			UpdatedAt:  now,
		}
	}
	d.persist(ctx, status)

	for i, task := range tasks {
		if i > 0 {
			if err := d.sleep(ctx, d.humanDelay(task.Category)); err != nil {
				return status, types.WrapRetryableError(types.DISPATCH_ERROR, "dispatch cancelled", err)
			}
		}
		if err := d.enqueueTask(ctx, userID, task, &status.Records[i], status); err != nil {
			return status, err
		}
	}

	if d.poller != nil && !status.Done() {
		d.poller.Track(executionID)
	}

	log.Info("execution dispatched",
		"execution_id", executionID,
		"user_id", userID,
		"tasks", len(tasks),
		"progress", status.Progress())
	return status, nil
}

// Status returns the persisted records for an execution.
func (d *Dispatcher) Status(ctx context.Context, executionID string) (*Status, error) {
	return loadStatus(ctx, d.store, executionID)
}

// enqueueTask pushes one task through the rate limiter and retry budget,
// persisting the record after every mutation. Backend failures never abort
// the execution; only context cancellation does.
func (d *Dispatcher) enqueueTask(ctx context.Context, userID string, task plan.Task, record *DispatchRecord, status *Status) error {
	backoff := d.cfg.BackoffBase
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	attempts := d.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := d.limiters.get(limiterKey(task.Category)).Wait(ctx); err != nil {
			return types.WrapRetryableError(types.DISPATCH_ERROR, "dispatch cancelled", err)
		}

		record.Attempts = attempt
		handle, err := d.backend.Enqueue(ctx, userID, task)
		if err == nil {
			record.Handle = handle
			record.State = automation.StateInProgress
			record.LastError = ""
			record.UpdatedAt = time.Now().UTC()
			d.persist(ctx, status)
			metrics.TasksDispatched.WithLabelValues(task.Category.String(), "enqueued").Inc()
			d.logger.Debug("task enqueued",
				"task_id", task.ID,
				"category", task.Category,
				"handle", handle,
				"attempt", attempt)
			return nil
		}

		record.LastError = err.Error()
		record.UpdatedAt = time.Now().UTC()
		d.persist(ctx, status)

		if ctx.Err() != nil {
			return types.WrapRetryableError(types.DISPATCH_ERROR, "dispatch cancelled", ctx.Err())
		}
		if !types.IsRetryable(err) || attempt == attempts {
			record.State = automation.StateFailed
			record.UpdatedAt = time.Now().UTC()
			d.persist(ctx, status)
			metrics.TasksDispatched.WithLabelValues(task.Category.String(), "failed").Inc()
			d.logger.Warn("task dispatch failed",
				"task_id", task.ID,
				"category", task.Category,
				"attempts", attempt,
				"error", err)
			return nil
		}

		d.logger.Debug("task enqueue retrying",
			"task_id", task.ID,
			"category", task.Category,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)
		if err := d.sleep(ctx, backoff); err != nil {
			return types.WrapRetryableError(types.DISPATCH_ERROR, "dispatch cancelled", err)
		}
		backoff *= 2
		if d.cfg.BackoffCap > 0 && backoff > d.cfg.BackoffCap {
			backoff = d.cfg.BackoffCap
		}
	}
	return nil
}

// humanDelay draws a randomized gap for the category. Engagement actions use
// tuned ranges; everything else uses the configured bounds.
func (d *Dispatcher) humanDelay(category types.TaskCategory) time.Duration {
	lo, hi := delayRange(category, d.cfg)
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func delayRange(category types.TaskCategory, cfg config.DispatchConfig) (time.Duration, time.Duration) {
	switch category {
	case types.TaskEngagementLike:
		return 2 * time.Second, 5 * time.Second
	case types.TaskEngagementFollow:
		return 3 * time.Second, 7 * time.Second
	case types.TaskEngagementComment:
		return 5 * time.Second, 10 * time.Second
	default:
		return cfg.MinDelay, cfg.MaxDelay
	}
}

// acquireUser enforces the per-user concurrent-execution cap.
func (d *Dispatcher) acquireUser(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active[userID] >= maxActivePerUser {
		return types.NewRetryableError(types.DISPATCH_LIMIT_EXCEEDED,
			fmt.Sprintf("user %s already has an execution in flight", userID))
	}
	d.active[userID]++
	return nil
}

func (d *Dispatcher) releaseUser(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active[userID]--
	if d.active[userID] <= 0 {
		delete(d.active, userID)
	}
}

// persist writes the current status, logging rather than failing the run.
// The store is wrapped in the redis to sqlite failover, so an error here
// means both backends are down.
func (d *Dispatcher) persist(ctx context.Context, status *Status) {
	if err := saveStatus(ctx, d.store, status); err != nil {
		d.logger.Error("dispatch status persist failed",
			"execution_id", status.ExecutionID,
			"error", err)
	}
}
