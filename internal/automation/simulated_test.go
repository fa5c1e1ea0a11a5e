package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func TestSimulatedLifecycle(t *testing.T) {
	backend := NewSimulated()
	ctx := context.Background()

	handle, err := backend.Enqueue(ctx, "user-1", likeTask())
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	assert.Equal(t, 1, backend.Enqueued())

	state, err := backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, state)

	state, err = backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)
	assert.True(t, state.Terminal())

	// Terminal states stay put.
	state, err = backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)
}

func TestSimulatedUnknownHandle(t *testing.T) {
	backend := NewSimulated()

	_, err := backend.Status(context.Background(), "no-such-handle")
	require.Error(t, err)
	assert.Equal(t, types.DISPATCH_ERROR, types.CodeOf(err))
}

func TestSimulatedFailCategory(t *testing.T) {
	backend := NewSimulated()
	ctx := context.Background()

	scripted := types.NewRetryableError(types.AUTOMATION_UNAVAILABLE, "backend offline")
	backend.FailCategory(types.TaskEngagementLike, scripted)

	_, err := backend.Enqueue(ctx, "user-1", likeTask())
	require.Error(t, err)
	assert.Equal(t, types.AUTOMATION_UNAVAILABLE, types.CodeOf(err))

	backend.FailCategory(types.TaskEngagementLike, nil)
	_, err = backend.Enqueue(ctx, "user-1", likeTask())
	require.NoError(t, err)
}

func TestSimulatedFailHandle(t *testing.T) {
	backend := NewSimulated()
	ctx := context.Background()

	handle, err := backend.Enqueue(ctx, "user-1", likeTask())
	require.NoError(t, err)

	backend.FailHandle(handle)

	state, err := backend.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, state)
}

func TestSimulatedRefusesUnroutedCategory(t *testing.T) {
	backend := NewSimulated()

	_, err := backend.Enqueue(context.Background(), "user-1", plan.Task{
		ID:       types.NewID(),
		Category: types.TaskDirectMessage,
	})
	require.Error(t, err)
	assert.Equal(t, types.DISPATCH_ERROR, types.CodeOf(err))
	assert.Zero(t, backend.Enqueued())
}
