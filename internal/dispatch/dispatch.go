// Package dispatch hands vetted tasks to the automation backend under rate
// control. One user's tasks go out sequentially with humanized gaps between
// actions, and per-category limiters shared across users keep the whole
// system inside the hourly action budgets. Every record mutation is persisted
// so status queries reflect mid-flight reality, and a background poller
// follows in-flight tasks until the backend reports a terminal state.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// statusTTL bounds how long finished execution records stay queryable.
const statusTTL = 7 * 24 * time.Hour

// DispatchRecord tracks one task through the automation backend. Records are
// created when a task passes the safety filter and mutated only by the
// dispatcher and its poller.
type DispatchRecord struct {
	TaskID     types.ID             `json:"task_id"`
	Category   types.TaskCategory   `json:"category"`
	State      automation.TaskState `json:"state"`
	Attempts   int                  `json:"attempts"`
	LastError  string               `json:"last_error,omitempty"`
	Handle     automation.Handle    `json:"handle,omitempty"`
	EnqueuedAt time.Time            `json:"enqueued_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Status aggregates the dispatch records of one execution.
type Status struct {
	ExecutionID string           `json:"execution_id"`
	UserID      string           `json:"user_id"`
	Records     []DispatchRecord `json:"records"`
	StartedAt   time.Time        `json:"started_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Done reports whether every record has reached a terminal state.
func (s *Status) Done() bool {
	for _, r := range s.Records {
		if !r.State.Terminal() {
			return false
		}
	}
	return true
}

// Progress returns the fraction of records in a terminal state. An execution
// with no records is complete by definition.
func (s *Status) Progress() float64 {
	if len(s.Records) == 0 {
		return 1
	}
	done := 0
	for _, r := range s.Records {
		if r.State.Terminal() {
			done++
		}
	}
	return float64(done) / float64(len(s.Records))
}

// Counts tallies records per state for status rendering.
func (s *Status) Counts() map[automation.TaskState]int {
	counts := make(map[automation.TaskState]int, 4)
	for _, r := range s.Records {
		counts[r.State]++
	}
	return counts
}

// MarshalBinary implements encoding.BinaryMarshaler for store persistence.
func (s *Status) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Status) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

func dispatchKey(executionID string) string {
	return "dispatch:" + executionID
}

// saveStatus persists the execution status under its dispatch key, stamping
// UpdatedAt. Store-level degradation is the failover wrapper's concern.
func saveStatus(ctx context.Context, st store.Store, status *Status) error {
	status.UpdatedAt = time.Now().UTC()
	data, err := status.MarshalBinary()
	if err != nil {
		return types.WrapError(types.STORE_ERROR, "dispatch status encode failed", err)
	}
	if err := st.Set(ctx, dispatchKey(status.ExecutionID), data, statusTTL); err != nil {
		return types.WrapError(types.STORE_ERROR, "dispatch status persist failed", err)
	}
	return nil
}

// loadStatus fetches the execution status for the id.
func loadStatus(ctx context.Context, st store.Store, executionID string) (*Status, error) {
	data, err := st.Get(ctx, dispatchKey(executionID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, types.WrapError(types.KEY_NOT_FOUND,
				fmt.Sprintf("no dispatch status for execution %s", executionID), err)
		}
		return nil, types.WrapError(types.STORE_ERROR, "dispatch status read failed", err)
	}

	var status Status
	if err := status.UnmarshalBinary(data); err != nil {
		return nil, types.WrapError(types.STORE_ERROR, "dispatch status decode failed", err)
	}
	return &status, nil
}
