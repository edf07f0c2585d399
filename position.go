package folio

import (
	"slices"
	"strings"
)

// Position is a line of the user's portfolio: a number of shares of a ticker.
//
// The Quantity is kept as the raw text stored in the portfolio file, it is
// only parsed when a value is computed, so that a malformed quantity never
// prevents the rest of the portfolio from loading.
type Position struct {
	Ticker   string `json:"ticker"`
	Quantity string `json:"quantity"`
}

// NormalizeTicker returns the canonical form of a ticker: trimmed and uppercase.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// index returns the position of ticker in ps, or -1.
func index(ps []Position, ticker string) int {
	ticker = NormalizeTicker(ticker)
	return slices.IndexFunc(ps, func(p Position) bool { return NormalizeTicker(p.Ticker) == ticker })
}

// AddPosition adds qty shares of ticker to the portfolio.
//
// If the ticker is already held, quantities are summed, otherwise a new
// position is appended. It fails if the existing quantity is not a number.
func AddPosition(ps []Position, ticker string, qty Quantity) ([]Position, error) {
	ticker = NormalizeTicker(ticker)
	if i := index(ps, ticker); i >= 0 {
		held, err := ParseQuantity(ps[i].Quantity)
		if err != nil {
			return ps, err
		}
		ps[i].Quantity = held.Add(qty).String()
		return ps, nil
	}
	return append(ps, Position{Ticker: ticker, Quantity: qty.String()}), nil
}

// EditPosition replaces the quantity of ticker. It is a no-op if the ticker is not held.
func EditPosition(ps []Position, ticker string, quantity string) []Position {
	if i := index(ps, ticker); i >= 0 {
		ps[i].Quantity = strings.TrimSpace(quantity)
	}
	return ps
}

// DeletePosition removes ticker from the portfolio.
func DeletePosition(ps []Position, ticker string) []Position {
	ticker = NormalizeTicker(ticker)
	return slices.DeleteFunc(ps, func(p Position) bool { return NormalizeTicker(p.Ticker) == ticker })
}
