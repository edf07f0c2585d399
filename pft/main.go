// Command pft tracks a stock portfolio, from the terminal or as a web application.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/folio/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	// a .env file is optional.
	godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// exits when called by the shell to complete a command line.
	cmd.Completion(commander, flag.CommandLine).Complete("pft")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
