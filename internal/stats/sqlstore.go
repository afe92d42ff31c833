package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnknownUser is returned when no users row matches the id.
var ErrUnknownUser = errors.New("unknown user")

// SQLStore keeps stats on the users table.
type SQLStore struct{ db *sql.DB }

// NewSQLStore wraps db. The users table must exist (see internal/db).
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// UpdateStats overwrites the stats columns of one user.
func (s *SQLStore) UpdateStats(ctx context.Context, userID string, st Stats) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE users
           SET streak=?, highest_streak=?, total_score=?, games_played=?, wins=?, total_time_ms=?
         WHERE id=?`,
		st.Streak, st.BestStreak, st.TotalScore, st.GamesPlayed, st.Wins, st.TotalTime.Milliseconds(), userID,
	)
	if err != nil {
		return fmt.Errorf("update stats for %s: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update stats for %s: %w", userID, ErrUnknownUser)
	}
	return nil
}

// LoadStats reads the stats columns of one user.
func (s *SQLStore) LoadStats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	var totalMs int64
	err := s.db.QueryRowContext(ctx, `
        SELECT streak, highest_streak, total_score, games_played, wins, total_time_ms
          FROM users WHERE id=?`, userID,
	).Scan(&st.Streak, &st.BestStreak, &st.TotalScore, &st.GamesPlayed, &st.Wins, &totalMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("load stats for %s: %w", userID, ErrUnknownUser)
	}
	if err != nil {
		return Stats{}, fmt.Errorf("load stats for %s: %w", userID, err)
	}
	st.TotalTime = time.Duration(totalMs) * time.Millisecond
	return st, nil
}

// MemoryStore is a map-backed Store for the CLI and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	stats map[string]Stats
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: make(map[string]Stats)}
}

// UpdateStats stores a copy of st.
func (m *MemoryStore) UpdateStats(_ context.Context, userID string, st Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[userID] = st
	return nil
}

// LoadStats returns zero Stats for unknown users.
func (m *MemoryStore) LoadStats(_ context.Context, userID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats[userID], nil
}
