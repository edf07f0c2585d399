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

// parsePosition reads the ticker and quantity arguments.
func parsePosition(f *flag.FlagSet) (string, folio.Quantity, error) {
	if f.NArg() != 2 {
		return "", folio.Quantity{}, fmt.Errorf("expected <ticker> <quantity>, got %d arguments", f.NArg())
	}
	qty, err := folio.ParseQuantity(f.Arg(1))
	if err != nil {
		return "", folio.Quantity{}, err
	}
	return f.Arg(0), qty, nil
}

// closeApp drains the writes, and reports lost ones.
func closeApp(a *app) subcommands.ExitStatus {
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: the portfolio file was not updated: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// addCmd adds shares to the portfolio.
type addCmd struct{}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add shares of a ticker to the portfolio" }
func (*addCmd) Usage() string {
	return `pft add <ticker> <quantity>

  Adds quantity shares of ticker. If the ticker is already held, the
  quantities are summed.

Usage Examples:
$ pft add AAPL 5
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ticker, qty, err := parsePosition(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, localFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	v, err := a.Add(ctx, localUser, nil, ticker, qty)
	if err != nil {
		a.Close()
		fmt.Fprintf(os.Stderr, "Error adding %q: %v\n", ticker, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.ValuationMarkdown(v))
	return closeApp(a)
}

// editCmd replaces the quantity of a position.
type editCmd struct{}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "set the quantity of a ticker" }
func (*editCmd) Usage() string {
	return `pft edit <ticker> <quantity>

  Sets the quantity of a held ticker. Nothing changes if the ticker is not held.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ticker, qty, err := parsePosition(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, localFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.Edit(ctx, localUser, nil, ticker, qty); err != nil {
		a.Close()
		fmt.Fprintf(os.Stderr, "Error editing %q: %v\n", ticker, err)
		return subcommands.ExitFailure
	}
	return closeApp(a)
}

// deleteCmd removes a position.
type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove a ticker from the portfolio" }
func (*deleteCmd) Usage() string {
	return `pft delete <ticker>

  Removes ticker from the portfolio.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected <ticker>, got %d arguments\n", f.NArg())
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, localFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.Delete(ctx, localUser, nil, f.Arg(0)); err != nil {
		a.Close()
		fmt.Fprintf(os.Stderr, "Error deleting %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	return closeApp(a)
}
