package folio

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// QuoteTTL is how long a quote is served from the cache.
	QuoteTTL = 5 * time.Minute
	// MaxQuoteLookups bounds the concurrent provider lookups of one Enrich call.
	MaxQuoteLookups = 10
)

// ErrUnknownTicker is returned by providers that do not know a ticker.
var ErrUnknownTicker = errors.New("unknown ticker")

// Quote holds the market data of a ticker. Quotes are not user specific.
type Quote struct {
	Ticker string `json:"ticker"`
	// Price is unavailable when the provider failed or did not return one.
	Price Amount `json:"price"`
	// DividendYield is a ratio (0.005 for 0.5%), zero when unknown.
	DividendYield decimal.Decimal `json:"dividend_yield"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// QuoteProvider is an external source of market data.
//
// Lookup may return a partial Quote: an unavailable Price or a zero
// DividendYield are both acceptable answers.
type QuoteProvider interface {
	Lookup(ctx context.Context, ticker string) (Quote, error)
}

// QuoteCache serves quotes from a Store, and looks them up from the
// provider when they are missing or older than the TTL.
//
// A failed lookup is cached as an unavailable quote for the same TTL, so a
// failing provider is not called on every request.
type QuoteCache struct {
	provider QuoteProvider
	store    Store[Quote]
	flight   singleflight.Group
	opts     options
}

// NewQuoteCache returns a QuoteCache over provider. A nil store means a new MemoryStore.
func NewQuoteCache(provider QuoteProvider, store Store[Quote], opts ...Option) *QuoteCache {
	if store == nil {
		store = NewMemoryStore[Quote]()
	}
	o := newOptions(QuoteTTL, opts)
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return &QuoteCache{provider: provider, store: store, opts: o}
}

// GetQuote returns the quote of ticker. It never fails: provider errors are
// logged and turned into an unavailable price.
//
// Concurrent misses on the same ticker share a single provider lookup. The
// lookup outlives the cancellation of ctx, as its result is cached for every
// caller.
func (c *QuoteCache) GetQuote(ctx context.Context, ticker string) Quote {
	ticker = NormalizeTicker(ticker)
	if q, ok := c.cached(ctx, ticker); ok {
		return q
	}
	v, _, _ := c.flight.Do(ticker, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		// a lookup that completed while we were waiting for the flight is good enough.
		if q, ok := c.cached(ctx, ticker); ok {
			return q, nil
		}
		q := c.fetch(ctx, ticker)
		if err := c.store.Put(ctx, ticker, Entry[Quote]{Value: q, Timestamp: q.FetchedAt}); err != nil {
			c.opts.log.Warn().Err(err).Str("ticker", ticker).Msg("cannot cache quote")
		}
		return q, nil
	})
	return v.(Quote)
}

// cached returns the quote from the store if it is still fresh.
func (c *QuoteCache) cached(ctx context.Context, ticker string) (Quote, bool) {
	e, ok, err := c.store.Get(ctx, ticker)
	if err != nil {
		c.opts.log.Warn().Err(err).Str("ticker", ticker).Msg("quote cache read failed, treated as a miss")
		return Quote{}, false
	}
	if !ok || !e.Fresh(c.opts.now(), c.opts.ttl) {
		return Quote{}, false
	}
	return e.Value, true
}

// fetch calls the provider once and normalizes its answer.
func (c *QuoteCache) fetch(ctx context.Context, ticker string) Quote {
	q, err := c.provider.Lookup(ctx, ticker)
	now := c.opts.now()
	if err != nil {
		c.opts.log.Warn().Err(err).Str("ticker", ticker).Msg("quote lookup failed")
		return Quote{Ticker: ticker, FetchedAt: now}
	}
	c.opts.log.Debug().Str("ticker", ticker).Stringer("price", q.Price).Msg("quote fetched")
	return normalizeQuote(q, ticker, now)
}

// normalizeQuote makes the provider's answer consistent: the requested
// ticker, a strictly positive price or none, a non negative yield.
func normalizeQuote(q Quote, ticker string, now time.Time) Quote {
	q.Ticker = ticker
	q.FetchedAt = now
	if m, ok := q.Price.Get(); ok && !m.IsPositive() {
		q.Price = Unavailable()
	}
	if q.DividendYield.IsNegative() {
		q.DividendYield = decimal.Zero
	}
	return q
}

// Enrich attaches a quote to every position.
//
// One lookup is made per distinct ticker, at most MaxQuoteLookups at a
// time, and Enrich returns when all of them completed. The result is in the
// same order as ps. A failing ticker only affects its own positions.
func (c *QuoteCache) Enrich(ctx context.Context, ps []Position) []EnrichedPosition {
	var tickers []string
	seen := make(map[string]bool)
	for _, p := range ps {
		t := NormalizeTicker(p.Ticker)
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}

	quotes := make([]Quote, len(tickers))
	var g errgroup.Group
	g.SetLimit(c.opts.concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			quotes[i] = c.GetQuote(ctx, t)
			return nil
		})
	}
	g.Wait() // GetQuote never fails.

	byTicker := make(map[string]Quote, len(tickers))
	for i, t := range tickers {
		byTicker[t] = quotes[i]
	}
	res := make([]EnrichedPosition, len(ps))
	for i, p := range ps {
		res[i] = NewEnrichedPosition(p, byTicker[NormalizeTicker(p.Ticker)])
	}
	return res
}
