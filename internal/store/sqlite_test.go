package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "luna-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "session:user-9", []byte(`{"stage":"planning"}`), time.Hour))

	val, err := s.Get(ctx, "session:user-9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"planning"}`, string(val))

	// Overwrites replace the value in place.
	require.NoError(t, s.Set(ctx, "session:user-9", []byte(`{"stage":"executing"}`), time.Hour))
	val, err = s.Get(ctx, "session:user-9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"executing"}`, string(val))
}

func TestSQLiteStore_Expiry(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "research:fp1", []byte("cached"), time.Second))

	val, err := s.Get(ctx, "research:fp1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), val)

	// Expiry resolution is one second, so step past it.
	time.Sleep(2100 * time.Millisecond)

	_, err = s.Get(ctx, "research:fp1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ZeroTTLNeverExpires(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dispatch:rec1", []byte("completed"), 0))

	val, err := s.Get(ctx, "dispatch:rec1")
	require.NoError(t, err)
	assert.Equal(t, []byte("completed"), val)
}

func TestSQLiteStore_Locks(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	unlock, err := s.AcquireLock(ctx, "lock:session:user-9", time.Minute)
	require.NoError(t, err)

	_, err = s.AcquireLock(ctx, "lock:session:user-9", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, unlock(ctx))

	unlock2, err := s.AcquireLock(ctx, "lock:session:user-9", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestSQLiteStore_ExpiredLockIsAcquirable(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.AcquireLock(ctx, "lock:stale", time.Second)
	require.NoError(t, err)

	time.Sleep(2100 * time.Millisecond)

	unlock, err := s.AcquireLock(ctx, "lock:stale", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
