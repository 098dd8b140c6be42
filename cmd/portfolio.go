package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook/renderer"
	"github.com/google/subcommands"
)

type portfolioCmd struct {
	evalFlags
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display the true portfolio size month by month" }
func (*portfolioCmd) Usage() string {
	return `tb portfolio [-d <date>] [-method cash|accrual] [-html]

  Displays the capital of every month since the first declared capital:
  starting capital or override, deposits and withdrawals, realized profit
  and loss, and the resulting portfolio size.
`
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if err := c.print(renderer.RenderPortfolio(renderer.NewReport(r))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
