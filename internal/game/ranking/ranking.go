// Package ranking turns finished games into leaderboard points.
package ranking

import (
	"errors"
	"fmt"
)

const MaxGuesses = 6

var (
	ErrEmptyScores       = errors.New("no scores to average")
	ErrInvalidGuessCount = errors.New("guesses used must be between 1 and 6")
)

// Score awards points for a finished game. A loss is worth nothing; a win is
// worth one point per unused attempt plus one, so a first-guess win scores 6
// and a last-guess win scores 1.
func Score(isWin bool, guessesUsed int) (int, error) {
	if guessesUsed < 1 || guessesUsed > MaxGuesses {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidGuessCount, guessesUsed)
	}

	bonus := 0
	if isWin {
		bonus = 1
	}
	return bonus * ((MaxGuesses - guessesUsed) + bonus), nil
}

// Mean averages a player's per-game scores
func Mean(scores map[string]int) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyScores
	}

	total := 0
	for _, s := range scores {
		total += s
	}
	return float64(total) / float64(len(scores)), nil
}
