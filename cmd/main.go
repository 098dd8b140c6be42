package cmd

import (
	"flag"

	"github.com/etnz/tradebook/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&topicCmd{}, "")
	c.Register(&initCmd{}, "")

	c.Register(&tradeCmd{}, "trades")
	c.Register(&rmTradeCmd{}, "trades")
	c.Register(&cmpCmd{}, "trades")
	c.Register(&refreshCmd{}, "trades")

	c.Register(&capitalCmd{}, "capital")
	c.Register(&overrideCmd{}, "capital")
	c.Register(&changeCmd{name: "deposit", sign: 1}, "capital")
	c.Register(&changeCmd{name: "withdraw", sign: -1}, "capital")
	c.Register(&rmChangeCmd{}, "capital")

	c.Register(&tradesCmd{}, "reports")
	c.Register(&portfolioCmd{}, "reports")
	c.Register(&heatCmd{}, "reports")

	c.Register(&importCmd{}, "journal")
	c.Register(&exportCmd{}, "journal")
}

// flagValues predicts the values of flags known to take a fixed set.
var flagValues = map[string]complete.Predictor{
	"config":  predict.Or(predict.Files("*.yaml"), predict.Files("*.yml"), predict.Files("*.json")),
	"store":   predict.Files("*"),
	"method":  predict.Set{"cash", "accrual"},
	"side":    predict.Set{"buy", "sell"},
	"backend": predict.Set{"memory", "file", "sqlite", "redis"},
}

// flagPredictors returns the predictors of every flag in fs.
func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagValues[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}

// Completion builds the shell completion of the commander's commands, to be
// run with Complete before parsing the command line.
func Completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(global),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		switch cmd.Name() {
		case "import":
			sub.Args = predict.Files("*.jsonl")
		case "topic":
			topics, _ := docs.All()
			sub.Args = predict.Set(append(topics, docs.Index, "*"))
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}
