package leaderboard

import (
	"context"
	"sync"
)

type memoryEntry struct {
	version int
	scores  map[string]int
	mean    float64
}

// MemoryBackend keeps the leaderboard in process. Each player carries a
// version counter that a commit must still match.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]*memoryEntry),
	}
}

func (m *MemoryBackend) Transact(ctx context.Context, user string, fn TransactFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	var (
		version int
		scores  map[string]int
	)
	if e, ok := m.entries[user]; ok {
		version = e.version
		scores = cloneScores(e.scores)
	} else {
		scores = make(map[string]int)
	}
	m.mu.RUnlock()

	// fn runs unlocked, like the client side of a WATCH
	w, err := fn(scores)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := 0
	e, ok := m.entries[user]
	if ok {
		current = e.version
	}
	if current != version {
		return ErrConflict
	}
	if !ok {
		e = &memoryEntry{scores: make(map[string]int)}
		m.entries[user] = e
	}
	e.scores[w.GameID] = w.Score
	e.mean = w.Mean
	e.version++
	return nil
}

// Scores returns a copy of user's scores
func (m *MemoryBackend) Scores(ctx context.Context, user string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.entries[user]; ok {
		return cloneScores(e.scores), nil
	}
	return map[string]int{}, nil
}

func (m *MemoryBackend) Top(ctx context.Context, n int) ([]Entry, error) {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.entries))
	for user, e := range m.entries {
		entries = append(entries, Entry{User: user, Mean: e.mean})
	}
	m.mu.RUnlock()

	return rank(entries, n), nil
}
