package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"wordle-go/internal/words"
)

type GameService interface {
	CreateGame(ctx context.Context, owner string) (*Game, error)
	SubmitGuess(ctx context.Context, gameID, owner, word string) (*Summary, error)
	CheckProgress(ctx context.Context, gameID, owner string) (*Summary, error)
	ListInProgress(ctx context.Context, owner string) ([]InProgressGame, error)
	Statistics(ctx context.Context, owner string) (Statistics, error)
}

type gameService struct {
	repo         Repository
	reporter     ResultReporter
	logger       *slog.Logger
	pickAttempts int
}

// NewGameService wires the game lifecycle to its storage. reporter may be nil,
// in which case finished games are not scored.
func NewGameService(repo Repository, reporter ResultReporter, logger *slog.Logger, pickAttempts int) GameService {
	if pickAttempts < 1 {
		pickAttempts = 1
	}
	return &gameService{
		repo:         repo,
		reporter:     reporter,
		logger:       logger,
		pickAttempts: pickAttempts,
	}
}

func (s *gameService) CreateGame(ctx context.Context, owner string) (*Game, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}

	count, err := s.repo.CountAnswerWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count answer words: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: answer word list is empty", ErrResourceExhausted)
	}

	for attempt := 1; attempt <= s.pickAttempts; attempt++ {
		secret, err := s.repo.PickUnusedSecret(ctx)
		if err != nil {
			return nil, err
		}

		game := NewGame(owner, secret)
		err = s.repo.InsertGame(ctx, game)
		if errors.Is(err, ErrSecretTaken) {
			s.logger.Debug("secret word taken concurrently, picking again", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create game: %w", err)
		}

		s.logger.Info("game created", "game_id", game.ID, "username", owner)
		return game, nil
	}

	return nil, fmt.Errorf("%w: gave up after %d attempts", ErrResourceExhausted, s.pickAttempts)
}

func (s *gameService) SubmitGuess(ctx context.Context, gameID, owner, word string) (*Summary, error) {
	word = words.Normalize(word)

	var (
		summary  *Summary
		finished *Game
	)
	err := s.repo.InTx(ctx, func(repo Repository) error {
		game, err := ownedGame(ctx, repo, gameID, owner)
		if err != nil {
			return err
		}

		if game.State.Terminal() {
			summary, err = game.Summarize(nil)
			if err != nil {
				return err
			}
			summary.AlreadyOver = true
			return nil
		}

		if utf8.RuneCountInString(word) != WordLength {
			return ErrInvalidGuessLength
		}
		if word != game.SecretWord {
			ok, err := repo.IsWordValid(ctx, word)
			if err != nil {
				return fmt.Errorf("failed to check word: %w", err)
			}
			if !ok {
				return ErrInvalidGuessWord
			}
		}

		before := game.GuessesRemaining
		if err := game.ApplyGuess(word); err != nil {
			return err
		}
		if err := repo.UpdateGame(ctx, game.ID, before, game.GuessesRemaining, game.State); err != nil {
			return err
		}

		if game.State.Terminal() {
			finished = game
			summary, err = game.Summarize(nil)
			return err
		}

		if err := repo.AppendGuess(ctx, game.ID, word, game.GuessesUsed()); err != nil {
			return fmt.Errorf("failed to record guess: %w", err)
		}
		guesses, err := repo.ListGuesses(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("failed to list guesses: %w", err)
		}
		summary, err = game.Summarize(guesses)
		return err
	})
	if err != nil {
		return nil, err
	}

	if finished != nil {
		s.logger.Info("game finished",
			"game_id", finished.ID,
			"username", finished.Owner,
			"state", finished.State.String(),
			"guesses_used", finished.GuessesUsed(),
		)
		s.report(ctx, finished)
	}
	return summary, nil
}

// report scores a finished game. The game outcome is already committed, so a
// failure here is logged rather than returned.
func (s *gameService) report(ctx context.Context, game *Game) {
	if s.reporter == nil {
		return
	}
	mean, err := s.reporter.ReportResult(ctx, game.Owner, game.ID, game.State == StateWin, game.GuessesUsed())
	if err != nil {
		s.logger.Error("failed to report game result",
			"game_id", game.ID,
			"username", game.Owner,
			"error", err,
		)
		return
	}
	s.logger.Debug("game result reported", "game_id", game.ID, "username", game.Owner, "mean", mean)
}

func (s *gameService) CheckProgress(ctx context.Context, gameID, owner string) (*Summary, error) {
	game, err := ownedGame(ctx, s.repo, gameID, owner)
	if err != nil {
		return nil, err
	}

	var guesses []Guess
	if game.State == StateInProgress {
		guesses, err = s.repo.ListGuesses(ctx, game.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list guesses: %w", err)
		}
	}
	return game.Summarize(guesses)
}

func (s *gameService) ListInProgress(ctx context.Context, owner string) ([]InProgressGame, error) {
	games, err := s.repo.ListInProgress(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	if games == nil {
		games = []InProgressGame{}
	}
	return games, nil
}

func (s *gameService) Statistics(ctx context.Context, owner string) (Statistics, error) {
	counts, err := s.repo.CountByState(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}

	stats := Statistics{}
	for _, state := range []State{StateInProgress, StateWin, StateLoss} {
		stats[state.String()] = counts[state]
	}
	return stats, nil
}

// ownedGame loads a game and hides games belonging to other players behind
// ErrGameNotFound.
func ownedGame(ctx context.Context, repo Repository, gameID, owner string) (*Game, error) {
	game, err := repo.FetchGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Owner != owner {
		return nil, ErrGameNotFound
	}
	return game, nil
}
