package session

import (
	"context"
	"testing"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func TestManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemory(), 0)

	s := NewSession("user-1")
	s.Stage = StageStrategizing
	s.Context = types.GoalContext{
		Niche:           "fitness",
		TargetFollowers: 5000,
		TimeframeDays:   60,
		Constraints:     []string{"no comments"},
	}
	s.Research = &research.Result{
		Fingerprint: "fp-1",
		Summary:     "engagement peaks in the evening",
		Confidence:  0.8,
		Degraded:    true,
	}

	if err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != StageStrategizing {
		t.Errorf("stage = %s, want %s", got.Stage, StageStrategizing)
	}
	if got.Context.Niche != "fitness" || got.Context.TargetFollowers != 5000 {
		t.Errorf("context did not survive: %+v", got.Context)
	}
	if got.Research == nil || !got.Research.Degraded {
		t.Errorf("research did not survive: %+v", got.Research)
	}
	if got.Plan != nil || got.Strategy != nil {
		t.Errorf("unset artifacts came back non-nil")
	}
	if got.UpdatedAt.IsZero() {
		t.Errorf("Save did not stamp UpdatedAt")
	}
}

func TestManagerSaveReplacesSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemory(), time.Hour)

	first := NewSession("user-1")
	first.Context.Niche = "travel"
	if err := m.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	// Starting over writes a fresh document under the same key.
	second := NewSession("user-1")
	if err := m.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := m.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Context.Niche != "" {
		t.Errorf("old session leaked through: %+v", got.Context)
	}
	if got.Stage != StageGreeting {
		t.Errorf("stage = %s, want %s", got.Stage, StageGreeting)
	}
}

func TestManagerGetMissing(t *testing.T) {
	m := NewManager(store.NewMemory(), time.Hour)

	_, err := m.Get(context.Background(), "nobody")
	if err == nil {
		t.Fatalf("Get of missing session succeeded")
	}
	if types.CodeOf(err) != types.SESSION_NOT_FOUND {
		t.Fatalf("error code = %s, want %s", types.CodeOf(err), types.SESSION_NOT_FOUND)
	}
}

func TestManagerLock(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemory(), time.Hour)

	unlock, err := m.Lock(ctx, "user-1", time.Minute)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	_, err = m.Lock(ctx, "user-1", time.Minute)
	if err == nil {
		t.Fatalf("second Lock succeeded while held")
	}
	if types.CodeOf(err) != types.SESSION_LOCKED {
		t.Fatalf("error code = %s, want %s", types.CodeOf(err), types.SESSION_LOCKED)
	}
	if !types.IsRetryable(err) {
		t.Fatalf("held lock should be retryable")
	}

	// Another user is unaffected.
	otherUnlock, err := m.Lock(ctx, "user-2", time.Minute)
	if err != nil {
		t.Fatalf("Lock for other user: %v", err)
	}
	if err := otherUnlock(ctx); err != nil {
		t.Fatalf("unlock other user: %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	unlock, err = m.Lock(ctx, "user-1", time.Minute)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	if err := unlock(ctx); err != nil {
		t.Fatalf("final unlock: %v", err)
	}
}
