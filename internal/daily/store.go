package daily

import (
	"context"
	"database/sql"
	"errors"
)

// DefaultLimit caps leaderboard size when the caller passes <= 0.
const DefaultLimit = 20

// Store reads and writes daily_results.
type Store struct{ db *sql.DB }

// NewStore wraps db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Reserve claims date for the user when a daily game starts. It reports
// false when the user already has a row for that date, finished or not, so
// each player gets one daily game per date.
func (s *Store) Reserve(ctx context.Context, userID, date, word string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO daily_results (user_id, date, word, finished)
        VALUES (?, ?, ?, 0)`,
		userID, date, word,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Release drops an unfinished reservation, for a game that never got
// stored. Finished rows are kept.
func (s *Store) Release(ctx context.Context, userID, date string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM daily_results WHERE user_id=? AND date=? AND finished=0`,
		userID, date,
	)
	return err
}

// Finish records the outcome of a daily game, filling in its reservation.
// A result that is already finished is never replaced.
func (s *Store) Finish(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO daily_results
            (user_id, date, word, finished, completed, score, attempts, elapsed_ms, hints_used)
        VALUES (?, ?, ?, 1, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, date) DO UPDATE SET
            word       = excluded.word,
            finished   = 1,
            completed  = excluded.completed,
            score      = excluded.score,
            attempts   = excluded.attempts,
            elapsed_ms = excluded.elapsed_ms,
            hints_used = excluded.hints_used
        WHERE daily_results.finished = 0`,
		r.UserID, r.Date, r.Word, r.Completed, r.Score, r.Attempts, r.ElapsedMs, r.HintsUsed,
	)
	return err
}

// Get returns the user's row for date; ok is false when there is none.
func (s *Store) Get(ctx context.Context, userID, date string) (r Result, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
        SELECT user_id, date, word, finished, completed, score, attempts, elapsed_ms, hints_used
          FROM daily_results WHERE user_id=? AND date=?`, userID, date,
	).Scan(&r.UserID, &r.Date, &r.Word, &r.Finished, &r.Completed, &r.Score, &r.Attempts, &r.ElapsedMs, &r.HintsUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	return r, true, nil
}

// Leaderboard returns the best completed results of a date: highest score
// first, then fastest, then fewest attempts, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT d.user_id, COALESCE(u.username, ''), d.score, d.attempts, d.elapsed_ms
          FROM daily_results d
          LEFT JOIN users u ON u.id = d.user_id
         WHERE d.date=? AND d.completed=1
         ORDER BY d.score DESC, d.elapsed_ms ASC, d.attempts ASC, d.created_at ASC
         LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Score, &r.Attempts, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
