// Package leaderboard keeps each player's per-game scores and ranks players by
// their mean score.
//
// Updates for a single player are serialised optimistically: a Backend hands
// out a snapshot of the player's scores and rejects the commit with
// ErrConflict if the scores changed in the meantime. Store retries conflicts
// with backoff.
package leaderboard

import (
	"context"
	"errors"
	"maps"
	"sort"
)

var ErrConflict = errors.New("leaderboard entry changed concurrently")

// Entry is one ranked player
type Entry struct {
	User string  `json:"username"`
	Mean float64 `json:"mean"`
}

// Write is the result of a TransactFunc: one game score plus the player's new
// mean over all their games.
type Write struct {
	GameID string
	Score  int
	Mean   float64
}

// TransactFunc computes a write from a private copy of a player's scores,
// keyed by game id. It may be called several times and must not have side
// effects.
type TransactFunc func(scores map[string]int) (Write, error)

type Backend interface {
	// Transact commits the write fn derives from user's current scores, storing
	// the game score and the ranking mean atomically. It returns ErrConflict if
	// user's scores changed between the read and the commit.
	Transact(ctx context.Context, user string, fn TransactFunc) error
	Scores(ctx context.Context, user string) (map[string]int, error)
	Top(ctx context.Context, n int) ([]Entry, error)
}

// rank orders entries by mean descending, then username ascending, and keeps
// the first n.
func rank(entries []Entry, n int) []Entry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Mean != entries[j].Mean {
			return entries[i].Mean > entries[j].Mean
		}
		return entries[i].User < entries[j].User
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

func cloneScores(scores map[string]int) map[string]int {
	if scores == nil {
		return make(map[string]int)
	}
	return maps.Clone(scores)
}
