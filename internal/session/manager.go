package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Manager persists sessions in the shared store. One user owns at most one
// session at a time, keyed by user id, so starting over replaces the old
// document rather than accumulating history.
type Manager struct {
	store store.Store
	ttl   time.Duration
}

// NewManager creates a Manager writing sessions with the given TTL. A zero
// TTL falls back to 24 hours.
func NewManager(st store.Store, sessionTTL time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Manager{store: st, ttl: sessionTTL}
}

func sessionKey(userID string) string {
	return "session:" + userID
}

func lockKey(userID string) string {
	return "lock:session:" + userID
}

// Get loads the session for a user.
func (m *Manager) Get(ctx context.Context, userID string) (*ConversationSession, error) {
	data, err := m.store.Get(ctx, sessionKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, types.WrapError(types.SESSION_NOT_FOUND,
				fmt.Sprintf("no session for user %s", userID), err)
		}
		return nil, types.WrapError(types.STORE_ERROR, "session read failed", err)
	}

	var session ConversationSession
	if err := session.UnmarshalBinary(data); err != nil {
		return nil, types.WrapError(types.STORE_ERROR, "session decode failed", err)
	}
	return &session, nil
}

// Save writes the session back to the store, refreshing its TTL.
func (m *Manager) Save(ctx context.Context, session *ConversationSession) error {
	session.UpdatedAt = time.Now().UTC()

	data, err := session.MarshalBinary()
	if err != nil {
		return types.WrapError(types.STORE_ERROR, "session encode failed", err)
	}
	if err := m.store.Set(ctx, sessionKey(session.UserID), data, m.ttl); err != nil {
		return types.WrapError(types.STORE_ERROR, "session persist failed", err)
	}
	return nil
}

// Lock takes the cross-process advisory lock for a user's session. The
// returned Unlock must be called when the turn finishes; the TTL bounds how
// long a crashed holder can block other processes.
func (m *Manager) Lock(ctx context.Context, userID string, ttl time.Duration) (store.Unlock, error) {
	unlock, err := m.store.AcquireLock(ctx, lockKey(userID), ttl)
	if err != nil {
		if errors.Is(err, store.ErrLockHeld) {
			return nil, types.WrapRetryableError(types.SESSION_LOCKED,
				fmt.Sprintf("session for user %s is locked by another turn", userID), err)
		}
		return nil, types.WrapError(types.STORE_ERROR, "session lock failed", err)
	}
	return unlock, nil
}
