package game

import (
	"context"
	"errors"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrResourceExhausted = errors.New("no unused secret words available")
	ErrSecretTaken       = errors.New("secret word already used by an in-progress game")
	ErrConcurrentGuess   = errors.New("game was modified by a concurrent guess")
)

// Repository defines the persistence operations a game needs. Implementations
// live in internal/storage.
type Repository interface {
	// InsertGame returns ErrSecretTaken when another in-progress game already
	// holds the same secret word.
	InsertGame(ctx context.Context, game *Game) error
	FetchGame(ctx context.Context, id string) (*Game, error)
	// UpdateGame applies only if the stored game is still in progress with
	// expectedRemaining guesses left, and returns ErrConcurrentGuess otherwise.
	UpdateGame(ctx context.Context, id string, expectedRemaining, remaining int, state State) error
	AppendGuess(ctx context.Context, gameID, word string, number int) error
	ListGuesses(ctx context.Context, gameID string) ([]Guess, error)

	CountAnswerWords(ctx context.Context) (int, error)
	IsWordValid(ctx context.Context, word string) (bool, error)
	// PickUnusedSecret returns a random answer word that no in-progress game
	// holds, or ErrResourceExhausted.
	PickUnusedSecret(ctx context.Context) (string, error)

	ListInProgress(ctx context.Context, owner string) ([]InProgressGame, error)
	CountByState(ctx context.Context, owner string) (map[State]int, error)

	// InTx runs fn against a transactional view of the repository, committing
	// if fn returns nil.
	InTx(ctx context.Context, fn func(Repository) error) error
}

// ResultReporter receives the outcome of every game that reaches a terminal
// state.
type ResultReporter interface {
	ReportResult(ctx context.Context, user, gameID string, isWin bool, guessesUsed int) (float64, error)
}
