package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS locks (
	key        TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// SQLiteConfig holds settings for the file-backed store.
type SQLiteConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// DefaultSQLiteConfig returns sensible defaults for the file-backed store.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// sqliteStore implements Store on a local sqlite file. It is the fallback
// persistence path for environments without redis.
type sqliteStore struct {
	conn *sql.DB
	path string
}

// NewSQLite opens the file-backed store at path with default settings.
func NewSQLite(path string) (Store, error) {
	return NewSQLiteWithConfig(DefaultSQLiteConfig(path))
}

// NewSQLiteWithConfig opens the file-backed store with custom configuration.
// WAL mode and a busy timeout keep concurrent session and dispatch writers
// from tripping over each other.
func NewSQLiteWithConfig(cfg SQLiteConfig) (Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.WrapError(types.STORE_ERROR, "failed to create store directory", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.STORE_ERROR, "failed to open sqlite store", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.STORE_ERROR, "failed to ping sqlite store", err)
	}

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, types.WrapError(types.STORE_ERROR, "failed to initialize store schema", err)
	}

	return &sqliteStore{conn: conn, path: cfg.Path}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt int64

	row := s.conn.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, types.WrapRetryableError(types.STORE_ERROR, fmt.Sprintf("sqlite get %q failed", key), err)
	}

	if expiresAt > 0 && expiresAt <= time.Now().Unix() {
		// Expired entries are swept lazily on read.
		_, _ = s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ? AND expires_at = ?`, key, expiresAt)
		return nil, ErrNotFound
	}

	return value, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return types.WrapRetryableError(types.STORE_ERROR, fmt.Sprintf("sqlite set %q failed", key), err)
	}
	return nil
}

func (s *sqliteStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	token := fmt.Sprintf("%d-%d", time.Now().UnixNano(), os.Getpid())
	now := time.Now().Unix()
	expiresAt := time.Now().Add(ttl).Unix()

	// A single upsert takes the lock when it is free or expired; the
	// changes() count tells us whether we won.
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO locks (key, token, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
		 WHERE locks.expires_at <= ?`,
		key, token, expiresAt, now,
	)
	if err != nil {
		return nil, types.WrapRetryableError(types.STORE_ERROR, fmt.Sprintf("sqlite lock %q failed", key), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, types.WrapError(types.STORE_ERROR, "sqlite lock result inspection failed", err)
	}
	if affected == 0 {
		return nil, ErrLockHeld
	}

	unlock := func(ctx context.Context) error {
		_, err := s.conn.ExecContext(ctx, `DELETE FROM locks WHERE key = ? AND token = ?`, key, token)
		if err != nil {
			return types.WrapError(types.STORE_ERROR, fmt.Sprintf("sqlite lock release %q failed", key), err)
		}
		return nil
	}
	return unlock, nil
}

func (s *sqliteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
