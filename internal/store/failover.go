package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Failover wraps a primary store with a local fallback. Operations try the
// primary first; infrastructure failures (anything other than a miss or a
// held lock) route the operation to the fallback and mark the store degraded.
// This trades durability for availability and is logged loudly when it
// happens, never silently.
type Failover struct {
	primary  Store
	fallback Store
	logger   *slog.Logger

	mu       sync.Mutex
	degraded bool
}

// NewFailover creates a failover store. The fallback is typically the
// sqlite file-backed store.
func NewFailover(primary, fallback Store, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Degraded reports whether any operation has been served by the fallback.
func (f *Failover) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

// markDegraded records the first failover transition and logs it.
func (f *Failover) markDegraded(op string, err error) {
	f.mu.Lock()
	first := !f.degraded
	f.degraded = true
	f.mu.Unlock()

	if first {
		f.logger.Error("primary store unavailable, degrading to local fallback",
			"op", op, "error", err)
	} else {
		f.logger.Debug("primary store still unavailable", "op", op, "error", err)
	}
}

// infraFailure reports whether err is an infrastructure failure rather than
// an expected outcome (missing key, held lock).
func infraFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrLockHeld)
}

func (f *Failover) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := f.primary.Get(ctx, key)
	if !infraFailure(err) {
		return val, err
	}
	f.markDegraded("get", err)
	return f.fallback.Get(ctx, key)
}

func (f *Failover) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := f.primary.Set(ctx, key, value, ttl)
	if !infraFailure(err) {
		return err
	}
	f.markDegraded("set", err)
	return f.fallback.Set(ctx, key, value, ttl)
}

func (f *Failover) AcquireLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	unlock, err := f.primary.AcquireLock(ctx, key, ttl)
	if !infraFailure(err) {
		return unlock, err
	}
	f.markDegraded("acquire_lock", err)
	return f.fallback.AcquireLock(ctx, key, ttl)
}

func (f *Failover) Close() error {
	err := f.primary.Close()
	if ferr := f.fallback.Close(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
