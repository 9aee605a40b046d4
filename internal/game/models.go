package game

import (
	"fmt"
)

const (
	WordLength = 5
	MaxGuesses = 6
	// A new game has already "spent" the attempt that the first guess will use.
	InitialGuessesRemaining = MaxGuesses - 1
)

// State represents the lifecycle of a game
type State int

const (
	StateInProgress State = iota
	StateWin
	StateLoss
)

var stateNames = map[State]string{
	StateInProgress: "In Progress",
	StateWin:        "Win",
	StateLoss:       "Loss",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == StateWin || s == StateLoss
}

// MarshalText renders the state as its display name in JSON payloads
func (s State) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("unknown game state %d", int(s))
	}
	return []byte(s.String()), nil
}

// Game is one player's attempt at a secret word
type Game struct {
	ID               string `json:"game_id" db:"game_id"`
	Owner            string `json:"username" db:"username"`
	SecretWord       string `json:"-" db:"secret_word"`
	GuessesRemaining int    `json:"guesses_remaining" db:"guesses_remaining"`
	State            State  `json:"game_state" db:"state"`
}

// Guess is an appended, non-final guess of a game
type Guess struct {
	GameID string `db:"game_id"`
	Number int    `db:"guess_number"`
	Word   string `db:"guess"`
}

// GuessView is a stored guess re-evaluated against the secret word
type GuessView struct {
	Guess              string         `json:"guess"`
	GuessNumber        int            `json:"guess_number"`
	CorrectPositions   map[int]string `json:"correct_positions"`
	IncorrectPositions map[int]string `json:"incorrect_positions"`
}

// Summary is returned by guess submission and progress checks. Guesses is only
// populated while the game is in progress.
type Summary struct {
	GameID           string      `json:"game_id"`
	NumberOfGuesses  int         `json:"number_of_guesses"`
	GuessesRemaining int         `json:"guesses_remaining"`
	State            State       `json:"game_state"`
	Guesses          []GuessView `json:"guesses,omitempty"`

	// AlreadyOver marks a guess submitted to a finished game; the summary is
	// informational and nothing was changed.
	AlreadyOver bool `json:"-"`
}

// InProgressGame is a row of the player's open games listing
type InProgressGame struct {
	GameID           string `json:"game_id" db:"game_id"`
	GuessesRemaining int    `json:"guesses_remaining" db:"guesses_remaining"`
}

// Statistics counts a player's games by state name
type Statistics map[string]int
