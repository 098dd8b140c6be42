package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type capitalCmd struct {
	year   int
	amount string
	rm     bool
}

func (*capitalCmd) Name() string     { return "capital" }
func (*capitalCmd) Synopsis() string { return "set the starting capital of a year" }
func (*capitalCmd) Usage() string {
	return `tb capital -year <year> -amount <amount> | -year <year> -rm

  Sets the capital at the start of January of a year. It replaces the
  capital carried from the previous December.
`
}

func (c *capitalCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", date.Today().Year(), "Year of the capital")
	f.StringVar(&c.amount, "amount", "", "Starting capital")
	f.BoolVar(&c.rm, "rm", false, "Remove the starting capital of the year")
}

func (c *capitalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	j, err := a.journal(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	capital := j.Capital()
	if c.rm {
		if !capital.RemoveYearly(c.year) {
			fmt.Fprintf(os.Stderr, "Error: no starting capital for %d\n", c.year)
			return subcommands.ExitFailure
		}
	} else {
		amount, err := parseMoney(c.amount, j.Currency())
		if err != nil || amount == nil {
			fmt.Fprintf(os.Stderr, "Error: -amount is required: %v\n", err)
			return subcommands.ExitUsageError
		}
		y := tradebook.YearlyCapital{Year: c.year, StartingCapital: *amount, UpdatedAt: date.Today()}
		if err := capital.SetYearly(y); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if err := a.books.Save(ctx, j); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving journal: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Int("year", c.year).Bool("removed", c.rm).Msg("yearly capital saved")
	return subcommands.ExitSuccess
}

type overrideCmd struct {
	month  string
	amount string
	rm     bool
}

func (*overrideCmd) Name() string     { return "override" }
func (*overrideCmd) Synopsis() string { return "override the capital of a month" }
func (*overrideCmd) Usage() string {
	return `tb override -month <yyyy-mm> -amount <amount> | -month <yyyy-mm> -rm

  Replaces the capital carried into a month. Deposits, withdrawals and
  realized profit of the month are still added to it.
`
}

func (c *overrideCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", date.MonthOf(date.Today()).String(), "Month to override, like 2024-06 or \"June 2024\"")
	f.StringVar(&c.amount, "amount", "", "Capital of the month")
	f.BoolVar(&c.rm, "rm", false, "Remove the override of the month")
}

func (c *overrideCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := date.ParseMonth(c.month)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	j, err := a.journal(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	capital := j.Capital()
	if c.rm {
		if !capital.RemoveOverride(m) {
			fmt.Fprintf(os.Stderr, "Error: no override for %s\n", m)
			return subcommands.ExitFailure
		}
	} else {
		amount, err := parseMoney(c.amount, j.Currency())
		if err != nil || amount == nil {
			fmt.Fprintf(os.Stderr, "Error: -amount is required: %v\n", err)
			return subcommands.ExitUsageError
		}
		if err := capital.SetOverride(tradebook.MonthlyOverride{Month: m, Amount: *amount}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if err := a.books.Save(ctx, j); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving journal: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("month", m.String()).Bool("removed", c.rm).Msg("monthly override saved")
	return subcommands.ExitSuccess
}

// changeCmd records deposits, or withdrawals when sign is negative.
type changeCmd struct {
	name        string
	sign        int64
	date        string
	amount      string
	description string
}

func (c *changeCmd) Name() string { return c.name }
func (c *changeCmd) Synopsis() string {
	if c.sign < 0 {
		return "record a withdrawal from the trading capital"
	}
	return "record a deposit to the trading capital"
}
func (c *changeCmd) Usage() string {
	return "tb " + c.name + ` [-d <date>] -amount <amount> [-m <description>]

  Records a capital change effective from its date forward.
`
}

func (c *changeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the change")
	f.StringVar(&c.amount, "amount", "", "Amount, positive")
	f.StringVar(&c.description, "m", "", "Description")
}

func (c *changeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	amount, err := parseMoney(c.amount, "")
	if err != nil || amount == nil || !amount.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: -amount must be a positive amount, got %q\n", c.amount)
		return subcommands.ExitUsageError
	}
	if c.sign < 0 {
		*amount = amount.Neg()
	}

	j, err := a.journal(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ch, err := j.Capital().AddChange(tradebook.CapitalChange{Date: on, Amount: *amount, Description: c.description})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.books.PutChange(ctx, ch); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving capital change: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("id", ch.ID).Str("date", on.String()).Str("amount", ch.Amount.String()).Msg(c.name + " saved")
	fmt.Fprintln(stdout, ch.ID)
	return subcommands.ExitSuccess
}

type rmChangeCmd struct {
	id string
}

func (*rmChangeCmd) Name() string     { return "rm-change" }
func (*rmChangeCmd) Synopsis() string { return "remove a deposit or a withdrawal" }
func (*rmChangeCmd) Usage() string {
	return `tb rm-change -id <id>

  Removes a capital change by ID.
`
}

func (c *rmChangeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "ID of the capital change")
}

func (c *rmChangeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	j, err := a.journal(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if !j.Capital().RemoveChange(c.id) {
		fmt.Fprintf(os.Stderr, "Error: unknown capital change %q\n", c.id)
		return subcommands.ExitFailure
	}
	if err := a.books.Save(ctx, j); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving journal: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("id", c.id).Msg("capital change removed")
	return subcommands.ExitSuccess
}
