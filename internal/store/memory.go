// internal/store/memory.go
//
// In-memory registry of live game sessions for the HTTP server.
//
// Characteristics:
//   - Entries are keyed by game id; the map is guarded by an RWMutex.
//   - Each entry has its own mutex. game.Session is not safe for concurrent
//     use, so every access to it goes through Update or View.
//   - State is lost when the process restarts; Sweep drops idle entries.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jvanhorsen/Twixie/internal/game"
)

// ErrNotFound is returned for unknown game ids.
var ErrNotFound = errors.New("game not found")

// Game is one live session and who owns it.
type Game struct {
	ID            string
	OwnerID       string // user id, or the anonymous cookie id
	Authenticated bool
	Session       *game.Session

	mu       sync.Mutex
	lastSeen time.Time
}

// Store keeps live games.
type Store interface {
	// Save adds or replaces a game.
	Save(ctx context.Context, g *Game) error

	// Update runs fn with exclusive access to the game.
	Update(ctx context.Context, id string, fn func(g *Game) error) error

	// View runs fn with exclusive access to the game without counting as
	// activity for Sweep.
	View(ctx context.Context, id string, fn func(g *Game) error) error

	// Delete removes a game; unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep removes games untouched since cutoff and returns how many.
	Sweep(cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex
	games map[string]*Game
	now   func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return newMemory(time.Now)
}

func newMemory(now func() time.Time) *memory {
	return &memory{games: make(map[string]*Game), now: now}
}

// Save adds or updates the game in the map.
func (m *memory) Save(ctx context.Context, g *Game) error {
	if g == nil || g.ID == "" {
		return errors.New("game without id")
	}
	g.mu.Lock()
	g.lastSeen = m.now()
	g.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	return nil
}

func (m *memory) lookup(id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g, nil
	}
	return nil, ErrNotFound
}

// Update locks the game and runs fn.
func (m *memory) Update(ctx context.Context, id string, fn func(g *Game) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := m.lookup(id)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSeen = m.now()
	return fn(g)
}

// View locks the game and runs fn.
func (m *memory) View(ctx context.Context, id string, fn func(g *Game) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := m.lookup(id)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g)
}

// Delete removes the game.
func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}

// Sweep drops idle games.
func (m *memory) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, g := range m.games {
		g.mu.Lock()
		idle := g.lastSeen.Before(cutoff)
		g.mu.Unlock()
		if idle {
			delete(m.games, id)
			n++
		}
	}
	return n
}
