package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// stubConnector hands out connections that accept any Exec and record it.
type stubConnector struct {
	mu    sync.Mutex
	execs []string
}

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) {
	return &stubConn{c: c}, nil
}

func (c *stubConnector) Driver() driver.Driver { return stubDriver{} }

func (c *stubConnector) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execs...)
}

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

type stubConn struct{ c *stubConnector }

func (s *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (s *stubConn) Close() error                        { return nil }
func (s *stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

func (s *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	key := ""
	if len(args) > 0 {
		key, _ = args[0].Value.(string)
	}
	s.c.execs = append(s.c.execs, query+" "+key)
	return driver.RowsAffected(1), nil
}

func newStubLocker(maxConns int, timeout time.Duration) (*AdvisoryLocker, *stubConnector) {
	connector := &stubConnector{}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxConns)
	return NewAdvisoryLocker(db, timeout), connector
}

func TestAdvisoryLocker_LockAndUnlock(t *testing.T) {
	locker, connector := newStubLocker(2, time.Second)
	defer locker.Close()

	unlock, err := locker.Lock(context.Background(), "user:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unlock()

	calls := connector.calls()
	if len(calls) != 2 {
		t.Fatalf("expected lock and unlock, got %v", calls)
	}
	if !strings.Contains(calls[0], "pg_advisory_lock(") || !strings.HasSuffix(calls[0], "user:42") {
		t.Errorf("unexpected lock call %q", calls[0])
	}
	if !strings.Contains(calls[1], "pg_advisory_unlock(") || !strings.HasSuffix(calls[1], "user:42") {
		t.Errorf("unexpected unlock call %q", calls[1])
	}
}

func TestAdvisoryLocker_FullPoolTimesOut(t *testing.T) {
	locker, _ := newStubLocker(1, 50*time.Millisecond)
	defer locker.Close()

	unlock, err := locker.Lock(context.Background(), "report:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := locker.Lock(context.Background(), "user:1")
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("lock acquisition hung on a full pool")
	}

	unlock()
	again, err := locker.Lock(context.Background(), "user:1")
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	again()
}
