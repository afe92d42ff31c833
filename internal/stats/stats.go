// internal/stats/stats.go
//
// Cross-session statistics for one player.
//
// The Aggregator holds the authoritative numbers in memory. Every finished
// game updates them immediately; the new snapshot is then pushed to a Store
// in the background when the player is authenticated. A failed push is
// reported (logged by default) and never rolls the local numbers back.

package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stats are the accumulated numbers of one player.
type Stats struct {
	Streak      int           `json:"streak"`
	BestStreak  int           `json:"bestStreak"`
	GamesPlayed int           `json:"gamesPlayed"`
	TotalScore  int           `json:"totalScore"`
	TotalTime   time.Duration `json:"totalTime"`
	Wins        int           `json:"wins"`
}

// WinPercentage is wins/games rounded down to a whole percent.
func (s Stats) WinPercentage() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.Wins * 100 / s.GamesPlayed
}

// AverageTime is the mean play time per game.
func (s Stats) AverageTime() time.Duration {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.GamesPlayed)
}

// Apply returns s updated with one finished game.
func (s Stats) Apply(won bool, score int, timeTaken time.Duration) Stats {
	s.GamesPlayed++
	s.TotalScore += score
	s.TotalTime += timeTaken
	if won {
		s.Wins++
		s.Streak++
	} else {
		s.Streak = 0
	}
	if s.Streak > s.BestStreak {
		s.BestStreak = s.Streak
	}
	return s
}

// Store persists snapshots keyed by user id. UpdateStats is an upsert of the
// full set of fields; it never reads before writing.
type Store interface {
	UpdateStats(ctx context.Context, userID string, s Stats) error
	LoadStats(ctx context.Context, userID string) (Stats, error)
}

// Identity tells the aggregator who to persist for.
type Identity interface {
	// UserID returns the current user and whether they are authenticated.
	UserID() (string, bool)
}

// StaticIdentity is a fixed identity. The zero value is anonymous.
type StaticIdentity string

// UserID implements Identity.
func (id StaticIdentity) UserID() (string, bool) { return string(id), id != "" }

// Aggregator accumulates Stats and detaches persistence.
type Aggregator struct {
	mu       sync.Mutex
	stats    Stats
	seq      uint64 // bumped on every Update
	store    Store
	identity Identity
	report   func(error)
	logger   zerolog.Logger
	wg       sync.WaitGroup

	writeMu sync.Mutex
	written uint64 // seq of the last snapshot handed to the store
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithErrorReporter replaces the default logging of persistence failures.
func WithErrorReporter(fn func(error)) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.report = fn
		}
	}
}

// WithLogger sets the logger used by the default error reporter.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithInitial seeds the aggregator, typically with numbers loaded from the
// store.
func WithInitial(s Stats) Option {
	return func(a *Aggregator) { a.stats = s }
}

// NewAggregator creates an aggregator. store and identity may be nil, in which
// case nothing is persisted.
func NewAggregator(store Store, identity Identity, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, identity: identity, logger: log.Logger}
	for _, opt := range opts {
		opt(a)
	}
	if a.report == nil {
		a.report = func(err error) {
			a.logger.Warn().Err(err).Msg("persist stats")
		}
	}
	return a
}

// Stats returns the current numbers.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Update folds one finished game in and returns the new numbers. The store
// write, if any, runs detached; Update does not wait for it.
func (a *Aggregator) Update(won bool, score int, timeTaken time.Duration) Stats {
	a.mu.Lock()
	a.stats = a.stats.Apply(won, score, timeTaken)
	a.seq++
	snap, seq := a.stats, a.seq
	a.mu.Unlock()

	a.persist(snap, seq)
	return snap
}

// Record adapts the aggregator to game.StatsRecorder.
func (a *Aggregator) Record(won bool, score int, elapsed time.Duration) {
	a.Update(won, score, elapsed)
}

// Wait blocks until every detached write has finished.
func (a *Aggregator) Wait() { a.wg.Wait() }

// persist writes snap in the background. Writes are serialized and a snapshot
// older than one already written is dropped, so the store ends up with the
// latest numbers even when updates race.
func (a *Aggregator) persist(snap Stats, seq uint64) {
	if a.store == nil || a.identity == nil {
		return
	}
	userID, ok := a.identity.UserID()
	if !ok {
		a.logger.Debug().Msg("anonymous player, stats kept in memory only")
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.writeMu.Lock()
		defer a.writeMu.Unlock()
		if seq <= a.written {
			return
		}
		if err := a.store.UpdateStats(context.Background(), userID, snap); err != nil {
			a.report(err)
			return
		}
		a.written = seq
	}()
}
