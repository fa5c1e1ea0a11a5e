package automation

import (
	"context"
	"fmt"
	"sync"

	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Simulated is an in-memory Backend. Each Status poll advances the task one
// lifecycle step, so callers observe the full queued, in_progress, completed
// progression deterministically and without a live backend.
type Simulated struct {
	mu    sync.Mutex
	tasks map[Handle]*simulatedTask
	fail  map[types.TaskCategory]error
}

type simulatedTask struct {
	category types.TaskCategory
	state    TaskState
}

// NewSimulated creates an empty simulated backend.
func NewSimulated() *Simulated {
	return &Simulated{
		tasks: make(map[Handle]*simulatedTask),
		fail:  make(map[types.TaskCategory]error),
	}
}

// FailCategory makes subsequent Enqueue calls for the category return err.
// A nil err clears the override.
func (s *Simulated) FailCategory(category types.TaskCategory, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, category)
		return
	}
	s.fail[category] = err
}

// FailHandle forces a previously enqueued task into the failed state.
func (s *Simulated) FailHandle(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[handle]; ok {
		task.state = StateFailed
	}
}

// Enqueued reports how many tasks the backend has accepted.
func (s *Simulated) Enqueued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// EnqueuedByCategory reports how many accepted tasks carry the category.
func (s *Simulated) EnqueuedByCategory(category types.TaskCategory) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, task := range s.tasks {
		if task.category == category {
			n++
		}
	}
	return n
}

// Enqueue accepts the task and returns a fresh handle. Categories without an
// automation route are refused exactly as the REST client refuses them.
func (s *Simulated) Enqueue(ctx context.Context, userID string, task plan.Task) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, ok := endpoints[task.Category]; !ok {
		return "", types.NewError(types.DISPATCH_ERROR,
			fmt.Sprintf("no automation endpoint for category %s", task.Category))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.fail[task.Category]; ok {
		return "", err
	}

	handle := Handle(types.NewID().String())
	s.tasks[handle] = &simulatedTask{category: task.Category, state: StateQueued}
	return handle, nil
}

// Status advances the task one step and returns the new state.
func (s *Simulated) Status(ctx context.Context, handle Handle) (TaskState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[handle]
	if !ok {
		return "", types.NewError(types.DISPATCH_ERROR,
			fmt.Sprintf("unknown task handle %s", handle))
	}

	switch task.state {
	case StateQueued:
		task.state = StateInProgress
	case StateInProgress:
		task.state = StateCompleted
	}
	return task.state, nil
}

// Health always succeeds while the context is live.
func (s *Simulated) Health(ctx context.Context) error {
	return ctx.Err()
}
