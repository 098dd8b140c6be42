package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

type tradesCmd struct {
	evalFlags
	json bool
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "display every trade with its profit, risk and portfolio impact" }
func (*tradesCmd) Usage() string {
	return `tb trades [-d <date>] [-method cash|accrual] [-html|-json]

  Displays every trade of the journal with its derived figures, followed by
  the realized profit and loss per month and per year.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	c.evalFlags.SetFlags(f)
	f.BoolVar(&c.json, "json", false, "Print the report data in JSON")
}

func (c *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	r, err := c.evaluate(ctx, a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating journal: %v\n", err)
		return subcommands.ExitFailure
	}
	view := renderer.NewReport(r)
	if c.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := c.print(renderer.RenderTrades(view)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
