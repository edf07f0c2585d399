package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// showCmd displays the portfolio.
type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the portfolio with live quotes" }
func (*showCmd) Usage() string {
	return `pft show

  Reads the portfolio file and displays every position with its price,
  dividend yield and value, followed by the total.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, localFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	printMarkdown(renderer.ValuationMarkdown(a.View(ctx, localUser, nil)))
	return subcommands.ExitSuccess
}
