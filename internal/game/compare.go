package game

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

// Evaluation classifies the 1-based positions of a guess against a secret word.
// A position in neither map holds a letter that is absent from the secret.
type Evaluation struct {
	Correct map[int]string
	Wrong   map[int]string
}

// Compare scores guess against secret in two passes. Exact matches consume their
// secret letter first; each remaining guess letter then consumes the leftmost
// unconsumed equal secret letter, so repeated letters are never overcounted.
func Compare(secret, guess string) (Evaluation, error) {
	s, g := []rune(secret), []rune(guess)
	if len(s) != len(g) {
		return Evaluation{}, fmt.Errorf("%w: secret has %d letters, guess has %d", ErrInvalidInput, len(s), len(g))
	}

	eval := Evaluation{
		Correct: make(map[int]string),
		Wrong:   make(map[int]string),
	}
	consumed := make([]bool, len(s))
	exact := make([]bool, len(g))

	for i := range g {
		if g[i] == s[i] {
			eval.Correct[i+1] = string(g[i])
			consumed[i] = true
			exact[i] = true
		}
	}

	for i := range g {
		if exact[i] {
			continue
		}
		for j := range s {
			if !consumed[j] && s[j] == g[i] {
				eval.Wrong[i+1] = string(g[i])
				consumed[j] = true
				break
			}
		}
	}

	return eval, nil
}
