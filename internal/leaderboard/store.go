package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"wordle-go/internal/game/ranking"
)

const DefaultTopN = 10

var (
	ErrInvalidInput       = errors.New("invalid leaderboard input")
	ErrInvariantViolation = errors.New("leaderboard invariant violated")
	ErrTooManyConflicts   = errors.New("leaderboard update kept conflicting")
)

type Options struct {
	// MaxAttempts caps commits per report; zero retries until ctx is done.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Store struct {
	backend Backend
	logger  *slog.Logger
	opts    Options
	hub     *Hub
}

func NewStore(backend Backend, logger *slog.Logger, opts Options) *Store {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 10 * time.Millisecond
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	return &Store{
		backend: backend,
		logger:  logger,
		opts:    opts,
		hub:     NewHub(),
	}
}

// Hub publishes a notification after every committed report
func (s *Store) Hub() *Hub {
	return s.hub
}

// ReportResult records the score of a finished game and returns the player's
// new mean. A game reported twice keeps its latest score.
func (s *Store) ReportResult(ctx context.Context, user, gameID string, isWin bool, guessesUsed int) (float64, error) {
	if user == "" || gameID == "" {
		return 0, fmt.Errorf("%w: user and game id are required", ErrInvalidInput)
	}
	score, err := ranking.Score(isWin, guessesUsed)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	apply := func(scores map[string]int) (Write, error) {
		scores[gameID] = score
		mean, err := ranking.Mean(scores)
		if err != nil {
			return Write{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		return Write{GameID: gameID, Score: score, Mean: mean}, nil
	}

	attempts := 0
	op := func() (float64, error) {
		attempts++
		var mean float64
		err := s.backend.Transact(ctx, user, func(scores map[string]int) (Write, error) {
			w, err := apply(scores)
			mean = w.Mean
			return w, err
		})
		if errors.Is(err, ErrConflict) {
			return 0, err
		}
		if err != nil {
			return 0, backoff.Permanent(err)
		}
		return mean, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialBackoff
	b.MaxInterval = s.opts.MaxBackoff

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn("leaderboard update conflicted, retrying",
				"username", user,
				"game_id", gameID,
				"attempt", attempts,
				"backoff", next,
			)
		}),
	}
	if s.opts.MaxAttempts > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxTries(uint(s.opts.MaxAttempts)))
	}

	mean, err := backoff.Retry(ctx, op, retryOpts...)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, fmt.Errorf("%w: gave up after %d attempts", ErrTooManyConflicts, attempts)
		}
		return 0, err
	}

	s.logger.Info("leaderboard updated", "username", user, "game_id", gameID, "score", score, "mean", mean)
	s.hub.Publish()
	return mean, nil
}

// Top returns the n best players by mean score
func (s *Store) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", ErrInvalidInput)
	}
	entries, err := s.backend.Top(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Scores returns the per-game scores recorded for user
func (s *Store) Scores(ctx context.Context, user string) (map[string]int, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	return s.backend.Scores(ctx, user)
}
