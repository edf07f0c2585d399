// Package yahoo looks up quotes from Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"

	"github.com/etnz/folio"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
)

// Provider is a folio.QuoteProvider backed by Yahoo Finance. It needs no key.
type Provider struct {
	get func(symbol string) (*finance.Equity, error)
}

// New returns a Provider.
func New() *Provider { return &Provider{get: equity.Get} }

// Lookup implements folio.QuoteProvider.
//
// finance-go has no context support: ctx is only checked before the call.
func (p *Provider) Lookup(ctx context.Context, ticker string) (folio.Quote, error) {
	if err := ctx.Err(); err != nil {
		return folio.Quote{}, err
	}
	e, err := p.get(ticker)
	if err != nil {
		return folio.Quote{}, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	if e == nil {
		return folio.Quote{}, fmt.Errorf("%w: %s", folio.ErrUnknownTicker, ticker)
	}

	q := folio.Quote{Ticker: ticker, Price: folio.Unavailable()}
	if e.RegularMarketPrice > 0 {
		q.Price = folio.Available(folio.M(e.RegularMarketPrice, e.CurrencyID))
	}
	q.DividendYield = decimal.NewFromFloat(e.TrailingAnnualDividendYield)
	return q, nil
}
