package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the commands registered in c,
// with the global flags of fs.
func Completion(c *subcommands.Commander, fs *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(fs),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		sub := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(sub)
		root.Sub[cmd.Name()] = &complete.Command{Flags: flagPredictors(sub)}
	})
	return root
}

// flagPredictors predicts the values of the flags of fs.
func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			flags[f.Name] = predict.Set{"eodhd", "yahoo"}
		case "data-dir":
			flags[f.Name] = predict.Dirs("*")
		default:
			if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				flags[f.Name] = predict.Nothing
			} else {
				flags[f.Name] = predict.Something
			}
		}
	})
	return flags
}
