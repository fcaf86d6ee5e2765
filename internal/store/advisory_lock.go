package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// AdvisoryLocker serializes work across instances with postgres session
// advisory locks. Each held lock pins one connection of the locker's own
// pool, so lock holders never starve the query pool. Waiting for a
// connection or for the lock itself gives up after the wait timeout.
type AdvisoryLocker struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenAdvisoryLocker opens a dedicated pool of at most maxConns connections.
func OpenAdvisoryLocker(dsn string, maxConns int, timeout time.Duration) (*AdvisoryLocker, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open lock pool: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return NewAdvisoryLocker(db, timeout), nil
}

func NewAdvisoryLocker(db *sql.DB, timeout time.Duration) *AdvisoryLocker {
	return &AdvisoryLocker{db: db, timeout: timeout}
}

func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock %s: no connection: %w", key, err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1))", key); err != nil {
		// the lock may have been granted as the wait was cancelled
		discard(conn)
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return func() { l.unlock(conn, key) }, nil
}

func (l *AdvisoryLocker) unlock(conn *sql.Conn, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
		slog.Error("advisory unlock failed", "action", "advisory_unlock", "key", key, "error", err.Error())
		// a session lock lives as long as its connection
		discard(conn)
		return
	}
	conn.Close()
}

func (l *AdvisoryLocker) Close() error {
	return l.db.Close()
}

// discard closes the underlying connection instead of returning it to the
// pool.
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	conn.Close()
}
