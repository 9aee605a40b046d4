package game

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrGameAlreadyOver    = errors.New("game is already over")
	ErrInvalidGuessLength = errors.New("guess must be exactly 5 letters")
	ErrInvalidGuessWord   = errors.New("guess is not a valid word")
	ErrInvariantViolation = errors.New("game invariant violated")
)

// NewGame starts an in-progress game for owner with the given secret word
func NewGame(owner, secret string) *Game {
	return &Game{
		ID:               uuid.New().String(),
		Owner:            owner,
		SecretWord:       secret,
		GuessesRemaining: InitialGuessesRemaining,
		State:            StateInProgress,
	}
}

// GuessesUsed is the number of attempts consumed so far, including the
// implicit one a new game starts with.
func (g *Game) GuessesUsed() int {
	return MaxGuesses - g.GuessesRemaining
}

// ApplyGuess advances the game by one attempt. Dictionary membership is the
// caller's concern; the secret word itself is always an acceptable guess.
//
// Every accepted guess consumes one attempt. A correct guess wins even when it
// uses the last attempt; otherwise the game is lost once none remain.
func (g *Game) ApplyGuess(word string) error {
	if g.State.Terminal() {
		return ErrGameAlreadyOver
	}
	if utf8.RuneCountInString(word) != WordLength {
		return ErrInvalidGuessLength
	}
	if g.GuessesRemaining <= 0 {
		return fmt.Errorf("%w: game %s in progress with %d guesses remaining",
			ErrInvariantViolation, g.ID, g.GuessesRemaining)
	}

	if word == g.SecretWord {
		g.State = StateWin
	}

	g.GuessesRemaining--
	if g.GuessesRemaining == 0 && g.State == StateInProgress {
		g.State = StateLoss
	}
	return nil
}

// Evaluate re-scores stored guesses against the secret word
func (g *Game) Evaluate(guesses []Guess) ([]GuessView, error) {
	views := make([]GuessView, 0, len(guesses))
	for _, guess := range guesses {
		eval, err := Compare(g.SecretWord, guess.Word)
		if err != nil {
			return nil, fmt.Errorf("evaluate guess %d of game %s: %w", guess.Number, g.ID, err)
		}
		views = append(views, GuessView{
			Guess:              guess.Word,
			GuessNumber:        guess.Number,
			CorrectPositions:   eval.Correct,
			IncorrectPositions: eval.Wrong,
		})
	}
	return views, nil
}

// Summarize builds the response for g. Stored guesses are only listed while
// the game is still in progress.
func (g *Game) Summarize(guesses []Guess) (*Summary, error) {
	summary := &Summary{
		GameID:           g.ID,
		NumberOfGuesses:  g.GuessesUsed(),
		GuessesRemaining: g.GuessesRemaining,
		State:            g.State,
	}
	if g.State != StateInProgress {
		return summary, nil
	}

	views, err := g.Evaluate(guesses)
	if err != nil {
		return nil, err
	}
	summary.Guesses = views
	return summary, nil
}
