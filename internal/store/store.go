// Package store provides the key-value persistence boundary used for session
// records, research caching, dispatch records, and advisory locks. Exactly one
// backend is selected at startup; the sqlite backend doubles as the local
// file-backed substitute for environments without redis.
package store

import (
	"context"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = types.NewError(types.KEY_NOT_FOUND, "key not found")

// ErrLockHeld is returned by AcquireLock when another holder owns the lock.
var ErrLockHeld = types.NewRetryableError(types.LOCK_NOT_ACQUIRED, "lock already held")

// Unlock releases an advisory lock. Releasing an already-expired lock is a
// no-op, never an error.
type Unlock func(ctx context.Context) error

// Store is the key-value contract every backend implements. Values are opaque
// bytes; TTLs are enforced by the backend. A ttl of zero means no expiry.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key with the given ttl, overwriting any
	// previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// AcquireLock takes the advisory lock named key for at most ttl.
	// It returns ErrLockHeld without blocking when the lock is taken.
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)

	// Close releases backend resources.
	Close() error
}
