package game

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertGame(ctx context.Context, game *Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *MockRepository) FetchGame(ctx context.Context, id string) (*Game, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*Game)
	return game, args.Error(1)
}

func (m *MockRepository) UpdateGame(ctx context.Context, id string, expectedRemaining, remaining int, state State) error {
	return m.Called(ctx, id, expectedRemaining, remaining, state).Error(0)
}

func (m *MockRepository) AppendGuess(ctx context.Context, gameID, word string, number int) error {
	return m.Called(ctx, gameID, word, number).Error(0)
}

func (m *MockRepository) ListGuesses(ctx context.Context, gameID string) ([]Guess, error) {
	args := m.Called(ctx, gameID)
	guesses, _ := args.Get(0).([]Guess)
	return guesses, args.Error(1)
}

func (m *MockRepository) CountAnswerWords(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) IsWordValid(ctx context.Context, word string) (bool, error) {
	args := m.Called(ctx, word)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) PickUnusedSecret(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ListInProgress(ctx context.Context, owner string) ([]InProgressGame, error) {
	args := m.Called(ctx, owner)
	games, _ := args.Get(0).([]InProgressGame)
	return games, args.Error(1)
}

func (m *MockRepository) CountByState(ctx context.Context, owner string) (map[State]int, error) {
	args := m.Called(ctx, owner)
	counts, _ := args.Get(0).(map[State]int)
	return counts, args.Error(1)
}

// InTx runs fn directly against the mock
func (m *MockRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

// MockResultReporter is a mock implementation of ResultReporter
type MockResultReporter struct {
	mock.Mock
}

func (m *MockResultReporter) ReportResult(ctx context.Context, user, gameID string, isWin bool, guessesUsed int) (float64, error) {
	args := m.Called(ctx, user, gameID, isWin, guessesUsed)
	return args.Get(0).(float64), args.Error(1)
}
