package folio

import (
	"context"
	"slices"
	"time"

	"golang.org/x/oauth2"
)

// PortfolioTTL is how long a portfolio is served from the cache.
const PortfolioTTL = time.Minute

// PortfolioCache holds the users' positions, read from the Repository on a
// miss or once the entry is older than the TTL.
//
// Mutations replace the cached positions but keep the entry's timestamp:
// only a read from the Repository restarts the TTL. A read past the TTL
// therefore goes back to the Repository, even right after a mutation whose
// background write may still be pending.
type PortfolioCache struct {
	repo  *Repository
	store Store[[]Position]
	locks keyedMutex
	opts  options
}

// NewPortfolioCache returns a PortfolioCache over repo. A nil store means a new MemoryStore.
func NewPortfolioCache(repo *Repository, store Store[[]Position], opts ...Option) *PortfolioCache {
	if store == nil {
		store = NewMemoryStore[[]Position]()
	}
	return &PortfolioCache{repo: repo, store: store, opts: newOptions(PortfolioTTL, opts)}
}

// Get returns the positions of user.
//
// It never fails: if the Repository cannot be read, an empty portfolio is
// returned and nothing is cached, so the next call tries again.
func (c *PortfolioCache) Get(ctx context.Context, user string, creds *oauth2.Token) []Position {
	unlock := c.locks.Lock(user)
	defer unlock()
	e, err := c.entry(ctx, user, creds)
	if err != nil {
		c.opts.log.Error().Err(err).Str("user", user).Msg("cannot read portfolio")
		return []Position{}
	}
	return slices.Clone(e.Value)
}

// Mutate applies fn to the positions of user and caches the result, without
// resetting the entry's timestamp. Mutations of the same user are serialized.
//
// fn receives a copy of the cached positions that it may modify in place.
// Mutate fails only if the portfolio cannot be read from the Repository.
func (c *PortfolioCache) Mutate(ctx context.Context, user string, creds *oauth2.Token, fn func([]Position) ([]Position, error)) ([]Position, error) {
	unlock := c.locks.Lock(user)
	defer unlock()
	e, err := c.entry(ctx, user, creds)
	if err != nil {
		return nil, err
	}
	next, err := fn(slices.Clone(e.Value))
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, user, Entry[[]Position]{Value: next, Timestamp: e.Timestamp}); err != nil {
		c.opts.log.Warn().Err(err).Str("user", user).Msg("cannot cache portfolio")
	}
	return slices.Clone(next), nil
}

// entry returns the cached entry if fresh, or reads it from the Repository.
// The caller holds the user's lock.
func (c *PortfolioCache) entry(ctx context.Context, user string, creds *oauth2.Token) (Entry[[]Position], error) {
	e, ok, err := c.store.Get(ctx, user)
	if err != nil {
		c.opts.log.Warn().Err(err).Str("user", user).Msg("portfolio cache read failed, treated as a miss")
	}
	if err == nil && ok && e.Fresh(c.opts.now(), c.opts.ttl) {
		return e, nil
	}
	ps, err := c.repo.Load(ctx, creds)
	if err != nil {
		return Entry[[]Position]{}, err
	}
	e = Entry[[]Position]{Value: ps, Timestamp: c.opts.now()}
	if err := c.store.Put(ctx, user, e); err != nil {
		c.opts.log.Warn().Err(err).Str("user", user).Msg("cannot cache portfolio")
	}
	c.opts.log.Debug().Str("user", user).Int("positions", len(ps)).Msg("portfolio read from store")
	return e, nil
}
