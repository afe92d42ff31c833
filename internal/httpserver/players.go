package httpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jvanhorsen/Twixie/internal/stats"
)

// players keeps one stats aggregator per player for the life of the
// process. Authenticated players are seeded from the store on first use
// and persisted through it; guests are tracked in memory only.
type players struct {
	mu     sync.Mutex
	store  stats.Store
	logger zerolog.Logger
	byKey  map[string]*stats.Aggregator
}

func newPlayers(store stats.Store, logger zerolog.Logger) *players {
	return &players{store: store, logger: logger, byKey: make(map[string]*stats.Aggregator)}
}

func playerKey(id string, authenticated bool) string {
	if authenticated {
		return "user:" + id
	}
	return "anon:" + id
}

// get returns the aggregator of a player, creating it on first use.
//
// When the stored numbers of an authenticated player cannot be loaded, get
// returns the error together with an in-memory aggregator that is neither
// persisted nor cached, so the stored stats are never overwritten by a count
// started from zero. The next call tries the load again.
func (p *players) get(ctx context.Context, id string, authenticated bool) (*stats.Aggregator, error) {
	key := playerKey(id, authenticated)
	p.mu.Lock()
	agg, ok := p.byKey[key]
	p.mu.Unlock()
	if ok {
		return agg, nil
	}

	opts := []stats.Option{stats.WithLogger(p.logger)}
	identity := stats.StaticIdentity("")
	if authenticated {
		seed, err := p.store.LoadStats(ctx, id)
		if err != nil {
			return stats.NewAggregator(nil, nil, opts...), fmt.Errorf("seed stats of %s: %w", id, err)
		}
		identity = stats.StaticIdentity(id)
		opts = append(opts, stats.WithInitial(seed))
	}
	agg = stats.NewAggregator(p.store, identity, opts...)

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.byKey[key]; ok {
		return existing, nil
	}
	p.byKey[key] = agg
	return agg, nil
}

// Wait drains pending writes of every aggregator.
func (p *players) Wait() {
	p.mu.Lock()
	all := make([]*stats.Aggregator, 0, len(p.byKey))
	for _, a := range p.byKey {
		all = append(all, a)
	}
	p.mu.Unlock()
	for _, a := range all {
		a.Wait()
	}
}
