package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

type heatCmd struct {
	evalFlags
}

func (*heatCmd) Name() string     { return "heat" }
func (*heatCmd) Synopsis() string { return "display the risk of the open positions" }
func (*heatCmd) Usage() string {
	return `tb heat [-d <date>] [-method cash|accrual] [-html]

  Displays the open heat of every open position, the share of the portfolio
  lost if its stop was hit, and the total open heat.
`
}

func (c *heatCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if err := c.print(renderer.RenderHeat(renderer.NewReport(r))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
