package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"wordle-go/internal/game"
	"wordle-go/internal/storage"
)

// GameStore implements game.Repository. Outside a transaction reads go to the
// cluster's replicas; inside InTx everything runs on the transaction.
type GameStore struct {
	cluster *Cluster
	tx      *sqlx.Tx
}

var _ game.Repository = (*GameStore)(nil)

func NewGameStore(cluster *Cluster) *GameStore {
	return &GameStore{cluster: cluster}
}

func (s *GameStore) writer() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.cluster.Primary
}

func (s *GameStore) reader() sqlx.QueryerContext {
	if s.tx != nil {
		return s.tx
	}
	return s.cluster.Reader()
}

func (s *GameStore) rebind(query string) string {
	return s.cluster.Primary.Rebind(query)
}

func (s *GameStore) InTx(ctx context.Context, fn func(game.Repository) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.cluster.Primary.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&GameStore{cluster: s.cluster, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *GameStore) InsertGame(ctx context.Context, g *game.Game) error {
	_, err := s.writer().ExecContext(ctx, s.rebind(`
		INSERT INTO games (game_id, username, secret_word, guesses_remaining, state)
		VALUES (?, ?, ?, ?, ?)
	`), g.ID, g.Owner, g.SecretWord, g.GuessesRemaining, g.State)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return game.ErrSecretTaken
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *GameStore) FetchGame(ctx context.Context, id string) (*game.Game, error) {
	g := &game.Game{}
	err := sqlx.GetContext(ctx, s.reader(), g, s.rebind(`
		SELECT game_id, username, secret_word, guesses_remaining, state
		FROM games WHERE game_id = ?
	`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrGameNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

func (s *GameStore) UpdateGame(ctx context.Context, id string, expectedRemaining, remaining int, state game.State) error {
	res, err := s.writer().ExecContext(ctx, s.rebind(`
		UPDATE games SET guesses_remaining = ?, state = ?
		WHERE game_id = ? AND guesses_remaining = ? AND state = ?
	`), remaining, state, id, expectedRemaining, game.StateInProgress)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if n == 0 {
		return game.ErrConcurrentGuess
	}
	return nil
}

func (s *GameStore) AppendGuess(ctx context.Context, gameID, word string, number int) error {
	_, err := s.writer().ExecContext(ctx, s.rebind(`
		INSERT INTO guesses (game_id, guess_number, guess) VALUES (?, ?, ?)
	`), gameID, number, word)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return game.ErrConcurrentGuess
		}
		return fmt.Errorf("insert guess: %w", err)
	}
	return nil
}

func (s *GameStore) ListGuesses(ctx context.Context, gameID string) ([]game.Guess, error) {
	var guesses []game.Guess
	err := sqlx.SelectContext(ctx, s.reader(), &guesses, s.rebind(`
		SELECT game_id, guess_number, guess FROM guesses
		WHERE game_id = ? ORDER BY guess_number
	`), gameID)
	if err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	return guesses, nil
}

func (s *GameStore) CountAnswerWords(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.reader(), &n, `SELECT COUNT(*) FROM answer_words`); err != nil {
		return 0, fmt.Errorf("count answer words: %w", err)
	}
	return n, nil
}

// IsWordValid accepts both valid guesses and answer words
func (s *GameStore) IsWordValid(ctx context.Context, word string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, s.reader(), &n, s.rebind(`
		SELECT COUNT(*) FROM (
			SELECT word FROM valid_words WHERE word = ?
			UNION ALL
			SELECT word FROM answer_words WHERE word = ?
		) AS matches
	`), word, word)
	if err != nil {
		return false, fmt.Errorf("check word: %w", err)
	}
	return n > 0, nil
}

// PickUnusedSecret reads from the primary so a just-created game is always
// excluded.
func (s *GameStore) PickUnusedSecret(ctx context.Context) (string, error) {
	var word string
	err := sqlx.GetContext(ctx, s.writer(), &word, s.rebind(`
		SELECT a.word FROM answer_words a
		WHERE NOT EXISTS (
			SELECT 1 FROM games g WHERE g.secret_word = a.word AND g.state = ?
		)
		ORDER BY RANDOM()
		LIMIT 1
	`), game.StateInProgress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", game.ErrResourceExhausted
		}
		return "", fmt.Errorf("pick secret: %w", err)
	}
	return word, nil
}

func (s *GameStore) ListInProgress(ctx context.Context, owner string) ([]game.InProgressGame, error) {
	var games []game.InProgressGame
	err := sqlx.SelectContext(ctx, s.reader(), &games, s.rebind(`
		SELECT game_id, guesses_remaining FROM games
		WHERE username = ? AND state = ?
		ORDER BY created_at, game_id
	`), owner, game.StateInProgress)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *GameStore) CountByState(ctx context.Context, owner string) (map[game.State]int, error) {
	var rows []struct {
		State game.State `db:"state"`
		Count int        `db:"n"`
	}
	err := sqlx.SelectContext(ctx, s.reader(), &rows, s.rebind(`
		SELECT state, COUNT(*) AS n FROM games
		WHERE username = ? GROUP BY state
	`), owner)
	if err != nil {
		return nil, fmt.Errorf("count games: %w", err)
	}

	counts := make(map[game.State]int, len(rows))
	for _, r := range rows {
		counts[r.State] = r.Count
	}
	return counts, nil
}

// ImportWords replaces both word lists in one transaction
func ImportWords(ctx context.Context, db *sqlx.DB, answers, valid []string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for table, list := range map[string][]string{"answer_words": answers, "valid_words": valid} {
		// answer_words rows referenced by games are kept
		del := `DELETE FROM ` + table
		if table == "answer_words" {
			del += ` WHERE word NOT IN (SELECT secret_word FROM games)`
		}
		if _, err := tx.ExecContext(ctx, del); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}

		insert := tx.Rebind(`INSERT INTO ` + table + ` (word) VALUES (?) ON CONFLICT (word) DO NOTHING`)
		for _, w := range list {
			if _, err := tx.ExecContext(ctx, insert, w); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
	}
	return tx.Commit()
}
