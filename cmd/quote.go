package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// quoteCmd displays quotes without touching the portfolio.
type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "display the quote of tickers" }
func (*quoteCmd) Usage() string {
	return `pft quote <ticker>...

  Looks up the price and dividend yield of each ticker.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one ticker\n")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, localFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ps := make([]folio.Position, f.NArg())
	for i, t := range f.Args() {
		ps[i] = folio.Position{Ticker: t}
	}
	var qs []folio.Quote
	for _, ep := range a.Quotes.Enrich(ctx, ps) {
		qs = append(qs, ep.Quote)
	}
	printMarkdown(renderer.QuotesMarkdown(qs))
	return subcommands.ExitSuccess
}
