// Package automation is the boundary to the Instagram automation backend.
// The dispatcher enqueues vetted tasks through a Backend and polls the
// returned handles until they reach a terminal state. The REST client talks
// to a running backend service; the simulated backend keeps development and
// tests offline.
package automation

import (
	"context"

	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
)

// Handle identifies a task accepted by the automation backend.
type Handle string

// TaskState is the backend-side lifecycle of an enqueued task.
type TaskState string

const (
	StateQueued     TaskState = "queued"
	StateInProgress TaskState = "in_progress"
	StateCompleted  TaskState = "completed"
	StateFailed     TaskState = "failed"
)

// Terminal reports whether the state is final. Non-terminal tasks keep
// getting polled.
func (s TaskState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// String returns the string representation of the TaskState.
func (s TaskState) String() string {
	return string(s)
}

// Backend is the automation service contract. Enqueue never executes
// synchronously: the backend accepts the task and works through it on its
// own schedule, so callers track progress via Status.
type Backend interface {
	// Enqueue submits one task for the given user and returns the handle
	// used to poll its progress.
	Enqueue(ctx context.Context, userID string, task plan.Task) (Handle, error)

	// Status reports the current lifecycle state of an enqueued task.
	Status(ctx context.Context, handle Handle) (TaskState, error)

	// Health probes whether the backend is reachable.
	Health(ctx context.Context) error
}
