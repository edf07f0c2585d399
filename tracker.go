package folio

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrEmptyTicker is returned when adding a position without ticker.
var ErrEmptyTicker = errors.New("empty ticker")

// Assembler values portfolios at market prices.
//
// It has two read paths. RenderFull reads the Repository directly and is
// meant for a page view, that has no state to trust. RenderCached reads the
// PortfolioCache and is meant right after a mutation, that already knows the
// resulting state. Within the cache TTL, RenderCached may show a mutation
// that RenderFull does not show yet because its write is still queued.
type Assembler struct {
	repo       *Repository
	portfolios *PortfolioCache
	quotes     *QuoteCache
	opts       options
}

// NewAssembler returns an Assembler.
func NewAssembler(repo *Repository, portfolios *PortfolioCache, quotes *QuoteCache, opts ...Option) *Assembler {
	return &Assembler{repo: repo, portfolios: portfolios, quotes: quotes, opts: newOptions(0, opts)}
}

// RenderFull reads the portfolio from the Repository, bypassing the cache,
// and values it. A read failure yields an empty valuation.
func (a *Assembler) RenderFull(ctx context.Context, user string, creds *oauth2.Token) Valuation {
	ps, err := a.repo.Load(ctx, creds)
	if err != nil {
		a.opts.log.Error().Err(err).Str("user", user).Msg("cannot read portfolio")
		ps = []Position{}
	}
	return NewValuation(a.quotes.Enrich(ctx, ps))
}

// RenderCached values the portfolio from the PortfolioCache.
func (a *Assembler) RenderCached(ctx context.Context, user string, creds *oauth2.Token) Valuation {
	return NewValuation(a.quotes.Enrich(ctx, a.portfolios.Get(ctx, user, creds)))
}

// Tracker is the portfolio service: it owns the quote and portfolio caches,
// the background write queue and the assembler.
//
// Mutations are applied to the PortfolioCache, then written to the
// Repository in the background. The store may lag behind the cache, and
// after a failed write they stay different until the next successful one.
type Tracker struct {
	Quotes     *QuoteCache
	Portfolios *PortfolioCache
	Writes     *WriteQueue
	Assembler  *Assembler
}

// NewTracker wires a Tracker over a file store and a quote provider.
// Nil stores use in-memory tables. A WithTTL option would apply to both
// caches: build the caches separately to give them different TTLs.
func NewTracker(files FileStore, provider QuoteProvider, quotes Store[Quote], portfolios Store[[]Position], opts ...Option) *Tracker {
	repo := NewRepository(files)
	qc := NewQuoteCache(provider, quotes, opts...)
	pc := NewPortfolioCache(repo, portfolios, opts...)
	return &Tracker{
		Quotes:     qc,
		Portfolios: pc,
		Writes:     NewWriteQueue(repo, opts...),
		Assembler:  NewAssembler(repo, pc, qc, opts...),
	}
}

// View values the portfolio read straight from the Repository.
func (t *Tracker) View(ctx context.Context, user string, creds *oauth2.Token) Valuation {
	return t.Assembler.RenderFull(ctx, user, creds)
}

// Add adds qty shares of ticker, schedules the write, and returns the new
// valuation read from the PortfolioCache.
func (t *Tracker) Add(ctx context.Context, user string, creds *oauth2.Token, ticker string, qty Quantity) (Valuation, error) {
	if NormalizeTicker(ticker) == "" {
		return Valuation{}, ErrEmptyTicker
	}
	if _, err := t.mutate(ctx, user, creds, func(ps []Position) ([]Position, error) {
		return AddPosition(ps, ticker, qty)
	}); err != nil {
		return Valuation{}, err
	}
	return t.Assembler.RenderCached(ctx, user, creds), nil
}

// Edit sets the quantity of ticker and schedules the write.
func (t *Tracker) Edit(ctx context.Context, user string, creds *oauth2.Token, ticker string, qty Quantity) error {
	_, err := t.mutate(ctx, user, creds, func(ps []Position) ([]Position, error) {
		return EditPosition(ps, ticker, qty.String()), nil
	})
	return err
}

// Delete removes ticker and schedules the write.
func (t *Tracker) Delete(ctx context.Context, user string, creds *oauth2.Token, ticker string) error {
	_, err := t.mutate(ctx, user, creds, func(ps []Position) ([]Position, error) {
		return DeletePosition(ps, ticker), nil
	})
	return err
}

// mutate applies fn and enqueues the write while the user's portfolio is
// still locked, so that writes are queued in the order of the mutations.
func (t *Tracker) mutate(ctx context.Context, user string, creds *oauth2.Token, fn func([]Position) ([]Position, error)) ([]Position, error) {
	return t.Portfolios.Mutate(ctx, user, creds, func(ps []Position) ([]Position, error) {
		next, err := fn(ps)
		if err != nil {
			return nil, err
		}
		t.Writes.EnqueueSave(user, next, creds)
		return next, nil
	})
}

// Close drains the write queue, see WriteQueue.Close.
func (t *Tracker) Close(ctx context.Context) error {
	return t.Writes.Close(ctx)
}
