package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func TestPollerRefreshesUntilTerminal(t *testing.T) {
	backend := automation.NewSimulated()
	st := store.NewMemory()

	poller, err := NewPoller(backend, st, time.Hour, nil)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	d := NewDispatcher(testDispatchConfig(), backend, st,
		WithSleeper(sleeper.sleep), WithPoller(poller))

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.NoError(t, err)
	assert.False(t, status.Done())
	assert.Equal(t, 1, poller.Tracked())

	// First sweep: the simulated backend reports in_progress, nothing
	// terminal yet.
	poller.Sweep()
	assert.Equal(t, 1, poller.Tracked())

	stored, err := d.Status(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, automation.StateInProgress, stored.Records[0].State)

	// Second sweep: the backend finishes the task and the execution drops
	// out of the sweep set.
	poller.Sweep()
	assert.Zero(t, poller.Tracked())

	stored, err = d.Status(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, automation.StateCompleted, stored.Records[0].State)
	assert.True(t, stored.Done())
	assert.InDelta(t, 1.0, stored.Progress(), 1e-9)
}

func TestPollerMarksBackendFailure(t *testing.T) {
	backend := automation.NewSimulated()
	st := store.NewMemory()

	poller, err := NewPoller(backend, st, time.Hour, nil)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	d := NewDispatcher(testDispatchConfig(), backend, st,
		WithSleeper(sleeper.sleep), WithPoller(poller))

	status, err := d.Dispatch(context.Background(), "user-1", "exec-1",
		[]plan.Task{dispatchTask(types.TaskEngagementLike)})
	require.NoError(t, err)
	backend.FailHandle(status.Records[0].Handle)

	poller.Sweep()
	assert.Zero(t, poller.Tracked())

	stored, err := d.Status(context.Background(), "exec-1")
	require.NoError(t, err)
	record := stored.Records[0]
	assert.Equal(t, automation.StateFailed, record.State)
	assert.Equal(t, "automation backend reported failure", record.LastError)
}

func TestPollerDropsVanishedExecution(t *testing.T) {
	poller, err := NewPoller(automation.NewSimulated(), store.NewMemory(), time.Hour, nil)
	require.NoError(t, err)

	poller.Track("never-persisted")
	poller.Sweep()
	assert.Zero(t, poller.Tracked())
}

func TestPollerIgnoresRecordsWithoutHandles(t *testing.T) {
	backend := automation.NewSimulated()
	st := store.NewMemory()

	poller, err := NewPoller(backend, st, time.Hour, nil)
	require.NoError(t, err)

	// A record that failed at enqueue time has no handle and is already
	// terminal; the sweep must finish the execution without backend calls.
	status := &Status{
		ExecutionID: "exec-1",
		UserID:      "user-1",
		Records: []DispatchRecord{{
			TaskID:   types.NewID(),
			Category: types.TaskEngagementLike,
			State:    automation.StateFailed,
		}},
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, saveStatus(context.Background(), st, status))

	poller.Track("exec-1")
	poller.Sweep()
	assert.Zero(t, poller.Tracked())
	assert.Zero(t, backend.Enqueued())
}

func TestPollerStartStop(t *testing.T) {
	poller, err := NewPoller(automation.NewSimulated(), store.NewMemory(), time.Hour, nil)
	require.NoError(t, err)

	poller.Start()
	poller.Stop()
}
