package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(backend Backend, maxAttempts int) *Store {
	return NewStore(backend, testLogger(), Options{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
}

// flakyBackend fails the first conflicts commits with ErrConflict
type flakyBackend struct {
	Backend
	mu        sync.Mutex
	conflicts int
	calls     int
	err       error
}

func (f *flakyBackend) Transact(ctx context.Context, user string, fn TransactFunc) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if call <= f.conflicts {
		if _, err := fn(map[string]int{}); err != nil {
			return err
		}
		return ErrConflict
	}
	return f.Backend.Transact(ctx, user, fn)
}

func TestReportResult(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend(), 0)

	mean, err := store.ReportResult(ctx, "alice", "g1", true, 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, mean)

	mean, err = store.ReportResult(ctx, "alice", "g2", false, 6)
	require.NoError(t, err)
	assert.Equal(t, 3.0, mean)

	t.Run("reporting a game again keeps the latest score", func(t *testing.T) {
		mean, err := store.ReportResult(ctx, "alice", "g2", true, 4)
		require.NoError(t, err)
		assert.Equal(t, 4.5, mean)

		scores, err := store.Scores(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"g1": 6, "g2": 3}, scores)
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name   string
			user   string
			gameID string
			used   int
		}{
			{"no user", "", "g1", 3},
			{"no game", "alice", "", 3},
			{"zero guesses", "alice", "g3", 0},
			{"too many guesses", "alice", "g3", 7},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := store.ReportResult(ctx, tt.user, tt.gameID, true, tt.used)
				assert.ErrorIs(t, err, ErrInvalidInput)
			})
		}
	})
}

func TestTop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend(), 0)

	for _, r := range []struct {
		user string
		used int
	}{
		{"carol", 3}, {"alice", 1}, {"bob", 3}, {"dave", 5},
	} {
		_, err := store.ReportResult(ctx, r.user, "g-"+r.user, true, r.used)
		require.NoError(t, err)
	}

	top, err := store.Top(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{User: "alice", Mean: 6},
		{User: "bob", Mean: 4},
		{User: "carol", Mean: 4},
	}, top)

	all, err := store.Top(ctx, DefaultTopN)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = store.Top(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	empty, err := newTestStore(NewMemoryBackend(), 0).Top(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestReportResultRetriesConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("retries until the commit lands", func(t *testing.T) {
		backend := &flakyBackend{Backend: NewMemoryBackend(), conflicts: 3}
		store := newTestStore(backend, 0)

		mean, err := store.ReportResult(ctx, "alice", "g1", true, 2)
		require.NoError(t, err)
		assert.Equal(t, 5.0, mean)
		assert.Equal(t, 4, backend.calls)
	})

	t.Run("gives up at the attempt cap", func(t *testing.T) {
		backend := &flakyBackend{Backend: NewMemoryBackend(), conflicts: 10}
		store := newTestStore(backend, 3)

		_, err := store.ReportResult(ctx, "alice", "g1", true, 2)
		assert.ErrorIs(t, err, ErrTooManyConflicts)
		assert.Equal(t, 3, backend.calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		boom := errors.New("backend down")
		backend := &flakyBackend{Backend: NewMemoryBackend(), err: boom}
		store := newTestStore(backend, 0)

		_, err := store.ReportResult(ctx, "alice", "g1", true, 2)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("cancellation stops unlimited retries", func(t *testing.T) {
		backend := &flakyBackend{Backend: NewMemoryBackend(), conflicts: 1 << 30}
		store := newTestStore(backend, 0)

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := store.ReportResult(ctx, "alice", "g1", true, 2)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestConcurrentReportsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(NewMemoryBackend(), 0)

	const games = 25
	var wg sync.WaitGroup
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.ReportResult(ctx, "alice", fmt.Sprintf("g%d", i), true, 1+i%6)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	scores, err := store.Scores(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, scores, games)

	total := 0
	for i := 0; i < games; i++ {
		total += 6 - i%6
	}
	top, err := store.Top(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, float64(total)/games, top[0].Mean, 1e-9)
}

func TestMemoryBackendDetectsInterleavedWrite(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	err := backend.Transact(ctx, "alice", func(scores map[string]int) (Write, error) {
		// another writer commits between our read and our commit
		require.NoError(t, backend.Transact(ctx, "alice", func(map[string]int) (Write, error) {
			return Write{GameID: "g1", Score: 6, Mean: 6}, nil
		}))
		return Write{GameID: "g2", Score: 0, Mean: 0}, nil
	})
	assert.ErrorIs(t, err, ErrConflict)

	scores, err := backend.Scores(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"g1": 6}, scores)
}

func TestHub(t *testing.T) {
	store := newTestStore(NewMemoryBackend(), 0)
	updates, unsubscribe := store.Hub().Subscribe()
	assert.Equal(t, 1, store.Hub().Len())

	_, err := store.ReportResult(context.Background(), "alice", "g1", true, 3)
	require.NoError(t, err)

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no notification after report")
	}

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, store.Hub().Len())
}
