package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	key string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

// memDB keeps lock rows in memory and ignores expiry.
type memDB struct {
	mu    sync.Mutex
	locks map[string]string
}

func newMemDB() *memDB { return &memDB{locks: map[string]string{}} }

func (m *memDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, token := args[0].(string), args[1].(string)
	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return pgconn.CommandTag{}, nil
}

func (m *memDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, token := args[0].(string), args[1].(string)
	switch sql {
	case tryAcquireSQL:
		if holder, ok := m.locks[key]; ok && holder != token {
			return row{err: pgx.ErrNoRows}
		}
		m.locks[key] = token
		return row{key: key}
	case renewSQL:
		if m.locks[key] != token {
			return row{err: pgx.ErrNoRows}
		}
		return row{key: key}
	}
	return row{err: errors.New("unexpected query")}
}

func TestWithLease(t *testing.T) {
	db := newMemDB()
	c := New(db, Options{})

	ran := false
	err := c.WithLease(context.Background(), "dataset:demo", func(ctx context.Context) error {
		ran = true
		assert.Len(t, db.locks, 1)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, db.locks)
}

func TestAcquire_Busy(t *testing.T) {
	db := newMemDB()
	c := New(db, Options{})

	lease, err := c.Acquire(context.Background(), "dataset:demo")
	require.NoError(t, err)

	_, err = c.Acquire(context.Background(), "dataset:demo")
	assert.ErrorIs(t, err, ErrBusy)

	_, err = c.Acquire(context.Background(), "dataset:other")
	assert.NoError(t, err)

	require.NoError(t, lease.Release(context.Background()))
	_, err = c.Acquire(context.Background(), "dataset:demo")
	assert.NoError(t, err)
}

func TestAcquire_WaitHonoursContext(t *testing.T) {
	db := newMemDB()
	c := New(db, Options{Wait: true, WaitInterval: 5 * time.Millisecond})

	_, err := c.Acquire(context.Background(), "dataset:demo")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = c.Acquire(ctx, "dataset:demo")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLease_LostOnRenewFailure(t *testing.T) {
	db := newMemDB()
	c := New(db, Options{TTL: 2 * time.Second, RenewEvery: time.Second})
	// RenewEvery is clamped to at least a second; steal the lock before then.
	lease, err := c.Acquire(context.Background(), "dataset:demo")
	require.NoError(t, err)

	db.mu.Lock()
	db.locks["dataset:demo"] = "someone-else"
	db.mu.Unlock()

	select {
	case <-lease.Context.Done():
		assert.ErrorIs(t, context.Cause(lease.Context), ErrLost)
	case <-time.After(3 * time.Second):
		t.Fatal("lease was not cancelled")
	}
}

func TestAcquire_EmptyKey(t *testing.T) {
	_, err := New(newMemDB(), Options{}).Acquire(context.Background(), "")
	assert.Error(t, err)
}
