// internal/history/history.go
//
// Per-game rows in the games table: who played, how it went.
// Rows belong either to a user or to an anonymous cookie id; anonymous rows
// are claimed by the account on signup/login.

package history

import (
	"context"
	"database/sql"
	"time"
)

// DefaultLimit caps Mine when the caller passes <= 0.
const DefaultLimit = 50

// Row is one game of the games table.
type Row struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	Status     string `json:"status"`
	Guesses    int    `json:"guesses"`
	HintsUsed  int    `json:"hintsUsed"`
	Score      int    `json:"score"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Owner identifies who a row belongs to.
type Owner struct {
	UserID string // set for authenticated players
	AnonID string // set otherwise
}

func (o Owner) args() (user, anon any) {
	if o.UserID != "" {
		return o.UserID, nil
	}
	return nil, o.AnonID
}

// Store reads and writes the games table.
type Store struct{ db *sql.DB }

// NewStore wraps db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Start inserts a row for a new game.
func (s *Store) Start(ctx context.Context, id string, o Owner, mode, difficulty string, at time.Time) error {
	user, anon := o.args()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO games (id, user_id, anonymous_id, mode, difficulty, started_at, status)
        VALUES (?, ?, ?, ?, ?, ?, 'playing')`,
		id, user, anon, mode, difficulty, at.UTC().Format(time.RFC3339),
	)
	return err
}

// Progress records the counters of a game still in progress.
func (s *Store) Progress(ctx context.Context, id string, guesses, hintsUsed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET guesses=?, hints_used=? WHERE id=?`, guesses, hintsUsed, id)
	return err
}

// Finish records the outcome of a game.
func (s *Store) Finish(ctx context.Context, id, status string, guesses, hintsUsed, score int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE games SET status=?, guesses=?, hints_used=?, score=?, finished_at=?
         WHERE id=?`,
		status, guesses, hintsUsed, score, at.UTC().Format(time.RFC3339), id,
	)
	return err
}

// Mine lists a user's most recent games.
func (s *Store) Mine(ctx context.Context, userID string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, mode, difficulty, status, guesses, hints_used, score, started_at, COALESCE(finished_at, '')
          FROM games WHERE user_id=?
         ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Mode, &r.Difficulty, &r.Status, &r.Guesses, &r.HintsUsed,
			&r.Score, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnon moves an anonymous player's games to a user account.
func (s *Store) ClaimAnon(ctx context.Context, anonID, userID string) (int64, error) {
	if anonID == "" || userID == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
