package database

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	dsn, err := NormalizeDSN("bot:secret@tcp(127.0.0.1:3306)/cabal")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "/cabal")

	_, err = NormalizeDSN("not a dsn")
	assert.Error(t, err)
}

type fakeQueue struct {
	mu       sync.Mutex
	pending  []Action
	executed []int64
	err      error
}

func (q *fakeQueue) GetLatestUnexecutedAction(context.Context) (*Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	if len(q.pending) == 0 {
		return nil, nil
	}
	a := q.pending[len(q.pending)-1]
	return &a, nil
}

func (q *fakeQueue) MarkActionAsExecuted(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.executed = append(q.executed, id)
	for i, a := range q.pending {
		if a.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	return nil
}

func TestWatchActions(t *testing.T) {
	q := &fakeQueue{pending: []Action{{ID: 1, Action: "noop"}, {ID: 2, Action: ActionStop}}}
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		WatchActions(ctx, q, time.Millisecond, nil, func(a Action) {
			mu.Lock()
			got = append(got, a.Action)
			mu.Unlock()
		})
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{ActionStop, "noop"}, got)
	assert.Equal(t, []int64{2, 1}, q.executed)
}

func TestWatchActionsSurvivesErrors(t *testing.T) {
	q := &fakeQueue{err: errors.New("connection refused")}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	WatchActions(ctx, q, time.Millisecond, nil, func(Action) { called = true })
	assert.False(t, called)
}

func TestWatchActionsNonPositiveInterval(t *testing.T) {
	q := &fakeQueue{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NotPanics(t, func() {
		WatchActions(ctx, q, 0, nil, func(Action) {})
	})
}

// TestMySQLRoundTrip работает только с настоящей базой из CABAL_TEST_MYSQL_DSN
func TestMySQLRoundTrip(t *testing.T) {
	dsn := os.Getenv("CABAL_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("CABAL_TEST_MYSQL_DSN не задан")
	}
	ctx := context.Background()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	dm := NewDatabaseManager(db, nil)
	require.NoError(t, dm.EnsureSchema(ctx))

	id := uuid.NewString()
	require.NoError(t, dm.RecordSessionStart(ctx, id, "image_clicker", "Cabal"))
	require.NoError(t, dm.UpdateSessionStatus(ctx, id, "Error(WindowGone)"))

	sessions, err := dm.ListSessions(ctx, 50)
	require.NoError(t, err)
	var found bool
	for _, s := range sessions {
		if s.ID == id {
			found = true
			assert.Equal(t, "Error(WindowGone)", s.Status)
		}
	}
	assert.True(t, found)

	require.NoError(t, dm.AddAction(ctx, id, ActionStop))
	a, err := dm.GetLatestUnexecutedAction(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, ActionStop, a.Action)
	require.NoError(t, dm.MarkActionAsExecuted(ctx, a.ID))
}
