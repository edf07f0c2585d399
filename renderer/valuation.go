// Package renderer renders valuations as markdown, for the terminal and the web.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/folio"
	md "github.com/nao1215/markdown"
)

// ValuationMarkdown renders the positions of v as a table, followed by the total.
func ValuationMarkdown(v folio.Valuation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	if len(v.Positions) == 0 {
		doc.PlainText("No positions yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Ticker", "Quantity", "Price", "Dividend Yield", "Total Value"},
	}
	for _, p := range v.Positions {
		table.Rows = append(table.Rows, []string{
			p.Ticker,
			p.Quantity,
			p.Quote.Price.String(),
			DividendYield(p.Quote),
			p.TotalValue.String(),
		})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("%s %s", md.Bold("Total:"), v.Total))

	return doc.String()
}

// DividendYield formats the yield of q as a percentage, N/A when the quote
// has no price.
func DividendYield(q folio.Quote) string {
	if !q.Price.IsAvailable() {
		return "N/A"
	}
	return folio.FromRatio(q.DividendYield).String()
}

// QuotesMarkdown renders quotes as a table.
func QuotesMarkdown(qs []folio.Quote) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignLeft},
		Header:    []string{"Ticker", "Price", "Dividend Yield", "Fetched At"},
	}
	for _, q := range qs {
		table.Rows = append(table.Rows, []string{
			q.Ticker,
			q.Price.String(),
			DividendYield(q),
			q.FetchedAt.Format("15:04:05"),
		})
	}
	doc.Table(table)
	return doc.String()
}
