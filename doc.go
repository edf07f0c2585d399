// Package folio tracks a personal stock portfolio: a list of positions
// (ticker, quantity) kept as a CSV file in the user's own storage, valued at
// live market prices.
//
// The package is the layer between the user interface and the two external
// services it depends on, the file store and the quote provider:
//   - QuoteCache: quotes per ticker, shared by all users, kept for QuoteTTL.
//     Lookups of a portfolio are fanned out concurrently, one per distinct
//     ticker.
//   - PortfolioCache: positions per user, kept for PortfolioTTL. Mutations
//     do not restart the TTL.
//   - WriteQueue: a single worker that writes portfolios to the store in the
//     background, in order.
//   - Assembler: joins positions and quotes into a Valuation.
//
// Failures of the external services are data, not errors: an unavailable
// price is an unavailable Amount, and a position without a price has no
// value and does not count in the total.
//
// Tracker wires all of them together, and is what the `pft` command and its
// web server use.
package folio
