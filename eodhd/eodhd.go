// Package eodhd looks up quotes from the EOD Historical Data API.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL of the EODHD API.
const DefaultBaseURL = "https://eodhd.com"

// Provider is a folio.QuoteProvider backed by EODHD.
//
// Prices come from the real-time endpoint and are never cached here.
// Dividend yields come from the fundamentals, cached on disk for the day.
type Provider struct {
	apiKey   string
	baseURL  string
	exchange string
	currency string
	live     *http.Client
	daily    *http.Client
	log      zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL replaces DefaultBaseURL.
func WithBaseURL(u string) Option { return func(p *Provider) { p.baseURL = strings.TrimSuffix(u, "/") } }

// WithExchange sets the exchange code appended to tickers without one, and
// the currency its prices are quoted in. Defaults are "US" and "USD".
func WithExchange(code, currency string) Option {
	return func(p *Provider) { p.exchange, p.currency = code, currency }
}

// WithCacheDir sets the directory of the daily disk cache. Default is os.TempDir().
func WithCacheDir(dir string) Option {
	return func(p *Provider) { p.daily.Transport.(*diskCache).dir = dir }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) {
		p.log = l
		p.daily.Transport.(*diskCache).log = l
	}
}

// New returns a Provider authenticated by apiKey.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		exchange: "US",
		currency: "USD",
		live:     &http.Client{Timeout: 10 * time.Second},
		daily: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &diskCache{base: http.DefaultTransport, dir: os.TempDir(), now: time.Now, log: zerolog.Nop()},
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// code returns the EODHD symbol of ticker, "AAPL.US" for "AAPL".
func (p *Provider) code(ticker string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + p.exchange
}

// Lookup implements folio.QuoteProvider.
//
// A failure to get the dividend yield is not an error, the yield is just
// left at zero.
func (p *Provider) Lookup(ctx context.Context, ticker string) (folio.Quote, error) {
	code := p.code(ticker)
	q := folio.Quote{Ticker: ticker, Price: folio.Unavailable()}

	price, ok, err := p.price(ctx, code)
	if err != nil {
		return q, err
	}
	if ok {
		q.Price = folio.Available(folio.M(price, p.currency))
	}

	yield, err := p.dividendYield(ctx, code)
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", code).Msg("no dividend yield")
	} else {
		q.DividendYield = yield
	}
	return q, nil
}

// price returns the last price of code, ok is false when EODHD has none.
func (p *Provider) price(ctx context.Context, code string) (decimal.Decimal, bool, error) {
	addr := fmt.Sprintf("%s/api/real-time/%s?api_token=%s&fmt=json", p.baseURL, url.PathEscape(code), url.QueryEscape(p.apiKey))
	var jobj any
	if err := jwget(ctx, p.live, addr, &jobj); err != nil {
		if errors.Is(err, errNotFound) {
			return decimal.Zero, false, fmt.Errorf("%w: %s", folio.ErrUnknownTicker, code)
		}
		return decimal.Zero, false, fmt.Errorf("real-time %s: %w", code, err)
	}
	return number(jobj, "$.close")
}

// dividendYield returns the trailing dividend yield of code, as a ratio.
func (p *Provider) dividendYield(ctx context.Context, code string) (decimal.Decimal, error) {
	addr := fmt.Sprintf("%s/api/fundamentals/%s?api_token=%s&filter=Highlights&fmt=json", p.baseURL, url.PathEscape(code), url.QueryEscape(p.apiKey))
	var jobj any
	if err := jwget(ctx, p.daily, addr, &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("fundamentals %s: %w", code, err)
	}
	yield, _, err := number(jobj, "$.DividendYield")
	return yield, err
}

// number extracts a number at path in jobj. EODHD writes "NA" or null for
// missing values, ok is then false.
func number(jobj any, path string) (val decimal.Decimal, ok bool, err error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath may return a list of 1 answer.
	if jlist, isList := jval.([]any); isList && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), true, nil
	case string:
		if v == "NA" || v == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("invalid number at %q: %q", path, v)
		}
		return d, true, nil
	case nil:
		return decimal.Zero, false, nil
	default:
		return decimal.Zero, false, fmt.Errorf("invalid number at %q: %v", path, jval)
	}
}
