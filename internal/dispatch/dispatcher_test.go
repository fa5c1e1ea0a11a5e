package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func testDispatchConfig() config.DispatchConfig {
	return config.DispatchConfig{
		MaxAttempts:     3,
		BackoffBase:     500 * time.Millisecond,
		BackoffCap:      30 * time.Second,
		MinDelay:        10 * time.Second,
		MaxDelay:        120 * time.Second,
		LikesPerHour:    60,
		FollowsPerHour:  30,
		CommentsPerHour: 15,
		APIPerMinute:    20,
		PollInterval:    30 * time.Second,
	}
}

func dispatchTask(category types.TaskCategory) plan.Task {
	return plan.Task{ID: types.NewID(), Category: category}
}

// recordingSleeper swallows waits and keeps their durations.
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

// fakeBackend scripts enqueue outcomes per category.
type fakeBackend struct {
	mu        sync.Mutex
	enqueued  []plan.Task
	transient map[types.TaskCategory]int
	permanent map[types.TaskCategory]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		transient: make(map[types.TaskCategory]int),
		permanent: make(map[types.TaskCategory]bool),
	}
}

func (b *fakeBackend) Enqueue(ctx context.Context, userID string, task plan.Task) (automation.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.permanent[task.Category] {
		return "", types.NewError(types.DISPATCH_ERROR, "backend rejected task")
	}
	if b.transient[task.Category] > 0 {
		b.transient[task.Category]--
		return "", types.NewRetryableError(types.AUTOMATION_UNAVAILABLE, "backend busy")
	}
	b.enqueued = append(b.enqueued, task)
	return automation.Handle("h-" + task.ID.String()), nil
}

func (b *fakeBackend) Status(ctx context.Context, handle automation.Handle) (automation.TaskState, error) {
	return automation.StateInProgress, nil
}

func (b *fakeBackend) Health(ctx context.Context) error {
	return nil
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.enqueued)
}

func TestDispatchHappyPath(t *testing.T) {
	backend := automation.NewSimulated()
	sleeper := &recordingSleeper{}
	d := NewDispatcher(testDispatchConfig(), backend, store.NewMemory(), WithSleeper(sleeper.sleep))

	tasks := []plan.Task{
		dispatchTask(types.TaskHashtagResearch),
		dispatchTask(types.TaskEngagementLike),
		dispatchTask(types.TaskEngagementFollow),
	}

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1", tasks)
	require.NoError(t, err)
	require.Len(t, status.Records, 3)

	for i, record := range status.Records {
		assert.Equal(t, tasks[i].ID, record.TaskID)
		assert.Equal(t, tasks[i].Category, record.Category)
		assert.Equal(t, automation.StateInProgress, record.State)
		assert.NotEmpty(t, record.Handle)
		assert.Equal(t, 1, record.Attempts)
	}
	assert.Equal(t, 3, backend.Enqueued())
	assert.Equal(t, 1, backend.EnqueuedByCategory(types.TaskEngagementLike))
	assert.False(t, status.Done())
	assert.InDelta(t, 0.0, status.Progress(), 1e-9)

	// One humanized gap before every action after the first, drawn from the
	// upcoming task's range.
	require.Len(t, sleeper.delays, 2)
	assert.GreaterOrEqual(t, sleeper.delays[0], 2*time.Second)
	assert.Less(t, sleeper.delays[0], 5*time.Second)
	assert.GreaterOrEqual(t, sleeper.delays[1], 3*time.Second)
	assert.Less(t, sleeper.delays[1], 7*time.Second)

	// The persisted view matches what the caller got.
	stored, err := d.Status(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	require.Len(t, stored.Records, 3)
	assert.Equal(t, automation.StateInProgress, stored.Records[2].State)
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	backend := newFakeBackend()
	backend.transient[types.TaskEngagementLike] = 2

	sleeper := &recordingSleeper{}
	d := NewDispatcher(testDispatchConfig(), backend, store.NewMemory(), WithSleeper(sleeper.sleep))

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.NoError(t, err)

	record := status.Records[0]
	assert.Equal(t, automation.StateInProgress, record.State)
	assert.Equal(t, 3, record.Attempts)
	assert.Empty(t, record.LastError)

	// Base backoff, then doubled.
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, sleeper.delays)
}

func TestDispatchBackoffCap(t *testing.T) {
	backend := newFakeBackend()
	backend.transient[types.TaskEngagementLike] = 3

	cfg := testDispatchConfig()
	cfg.MaxAttempts = 4
	cfg.BackoffCap = 800 * time.Millisecond

	sleeper := &recordingSleeper{}
	d := NewDispatcher(cfg, backend, store.NewMemory(), WithSleeper(sleeper.sleep))

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.NoError(t, err)

	assert.Equal(t, automation.StateInProgress, status.Records[0].State)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 800 * time.Millisecond, 800 * time.Millisecond},
		sleeper.delays)
}

func TestDispatchPermanentFailureSkipsRetry(t *testing.T) {
	backend := newFakeBackend()
	backend.permanent[types.TaskEngagementLike] = true

	sleeper := &recordingSleeper{}
	d := NewDispatcher(testDispatchConfig(), backend, store.NewMemory(), WithSleeper(sleeper.sleep))

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1", []plan.Task{
		dispatchTask(types.TaskEngagementLike),
		dispatchTask(types.TaskEngagementFollow),
	})
	require.NoError(t, err)
	require.Len(t, status.Records, 2)

	failed := status.Records[0]
	assert.Equal(t, automation.StateFailed, failed.State)
	assert.Equal(t, 1, failed.Attempts)
	assert.Contains(t, failed.LastError, "rejected")

	// The rest of the execution keeps going.
	assert.Equal(t, automation.StateInProgress, status.Records[1].State)
	assert.Equal(t, 1, backend.count())
	assert.InDelta(t, 0.5, status.Progress(), 1e-9)

	// No backoff wait for a permanent failure, just the humanized gap.
	require.Len(t, sleeper.delays, 1)
	assert.GreaterOrEqual(t, sleeper.delays[0], 3*time.Second)
	assert.Less(t, sleeper.delays[0], 7*time.Second)
}

func TestDispatchRetryBudgetExhausted(t *testing.T) {
	backend := newFakeBackend()
	backend.transient[types.TaskEngagementLike] = 99

	cfg := testDispatchConfig()
	cfg.MaxAttempts = 2

	sleeper := &recordingSleeper{}
	d := NewDispatcher(cfg, backend, store.NewMemory(), WithSleeper(sleeper.sleep))

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.NoError(t, err)

	record := status.Records[0]
	assert.Equal(t, automation.StateFailed, record.State)
	assert.Equal(t, 2, record.Attempts)
	assert.Contains(t, record.LastError, "busy")
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, sleeper.delays)

	// The failure is durable.
	stored, err := d.Status(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, automation.StateFailed, stored.Records[0].State)
	assert.True(t, stored.Done())
}

func TestDispatchRejectsOverlappingExecution(t *testing.T) {
	backend := automation.NewSimulated()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gate := func(ctx context.Context, _ time.Duration) error {
		once.Do(func() { close(started) })
		<-release
		return ctx.Err()
	}
	d := NewDispatcher(testDispatchConfig(), backend, store.NewMemory(), WithSleeper(gate))

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), "user-1", "exec-1", []plan.Task{
			dispatchTask(types.TaskEngagementLike),
			dispatchTask(types.TaskEngagementFollow),
		})
		done <- err
	}()

	<-started
	_, err := d.Dispatch(context.Background(), "user-1", "exec-2",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.Error(t, err)
	assert.Equal(t, types.DISPATCH_LIMIT_EXCEEDED, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))

	// Another user is not blocked by the cap.
	_, err = d.Dispatch(context.Background(), "user-2", "exec-3",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestDispatchCancelledContext(t *testing.T) {
	backend := automation.NewSimulated()
	d := NewDispatcher(testDispatchConfig(), backend, store.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := d.Dispatch(ctx, "user-1", "exec-1",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.Error(t, err)
	assert.Equal(t, types.DISPATCH_ERROR, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))

	// Partial state stays valid: the task never went out.
	require.NotNil(t, status)
	require.Len(t, status.Records, 1)
	assert.Equal(t, automation.StateQueued, status.Records[0].State)
	assert.Zero(t, backend.Enqueued())
}

func TestDispatchZeroTasks(t *testing.T) {
	d := NewDispatcher(testDispatchConfig(), automation.NewSimulated(), store.NewMemory())

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1", nil)
	require.NoError(t, err)
	assert.Empty(t, status.Records)
	assert.True(t, status.Done())
	assert.InDelta(t, 1.0, status.Progress(), 1e-9)
}

func TestStatusUnknownExecution(t *testing.T) {
	d := NewDispatcher(testDispatchConfig(), automation.NewSimulated(), store.NewMemory())

	_, err := d.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, types.KEY_NOT_FOUND, types.CodeOf(err))
}
