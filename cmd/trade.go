package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// lotsFlag collects lots given as "qty@price@date" in a repeated flag.
type lotsFlag []tradebook.Lot

func (l *lotsFlag) String() string {
	var parts []string
	for _, lot := range *l {
		parts = append(parts, fmt.Sprintf("%s@%s@%s", lot.Quantity, lot.Price.Decimal(), lot.Date))
	}
	return strings.Join(parts, ",")
}

func (l *lotsFlag) Set(s string) error {
	lot, err := parseLot(s)
	if err != nil {
		return err
	}
	*l = append(*l, lot)
	return nil
}

// parseLot parses "qty@price@date", the date defaults to today.
func parseLot(s string) (tradebook.Lot, error) {
	parts := strings.Split(s, "@")
	if len(parts) < 2 || len(parts) > 3 {
		return tradebook.Lot{}, fmt.Errorf("invalid lot %q, want qty@price[@date]", s)
	}
	qty, err := decimal.NewFromString(parts[0])
	if err != nil {
		return tradebook.Lot{}, fmt.Errorf("invalid lot quantity %q: %w", parts[0], err)
	}
	price, err := decimal.NewFromString(parts[1])
	if err != nil {
		return tradebook.Lot{}, fmt.Errorf("invalid lot price %q: %w", parts[1], err)
	}
	on := date.Today()
	if len(parts) == 3 {
		if on, err = date.Parse(parts[2]); err != nil {
			return tradebook.Lot{}, err
		}
	}
	return tradebook.Lot{Date: on, Quantity: tradebook.Q(qty), Price: tradebook.M(price, "")}, nil
}

// parseMoney parses an optional amount, "" is nil.
func parseMoney(s, cur string) (*tradebook.Money, error) {
	if s == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	m := tradebook.M(v, cur)
	return &m, nil
}

type tradeCmd struct {
	id      string
	symbol  string
	side    string
	entries lotsFlag
	exits   lotsFlag
	sl      string
	tsl     string
	cmp     string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "record a new trade or update an existing one" }
func (*tradeCmd) Usage() string {
	return `tb trade [-id <id>] -symbol <symbol> [-side buy|sell] -entry qty@price[@date]... [-exit qty@price[@date]...] [-sl <price>] [-tsl <price>] [-cmp <price>]

  Records a trade. With -id, the lots are appended to the existing trade and
  the stops and price given replace the current ones. A stop of 0 removes it.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "ID of the trade to update")
	f.StringVar(&c.symbol, "symbol", "", "Symbol of the traded stock")
	f.StringVar(&c.side, "side", "buy", "Side of the trade: buy (long) or sell (short)")
	f.Var(&c.entries, "entry", "Entry lot qty@price[@date], repeatable")
	f.Var(&c.exits, "exit", "Exit lot qty@price[@date], repeatable")
	f.StringVar(&c.sl, "sl", "", "Stop loss price")
	f.StringVar(&c.tsl, "tsl", "", "Trailing stop price")
	f.StringVar(&c.cmp, "cmp", "", "Current market price")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var t tradebook.Trade
	if c.id != "" {
		var ok bool
		if t, ok = j.Trade(c.id); !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown trade %q\n", c.id)
			return subcommands.ExitUsageError
		}
	} else {
		if t.Direction, err = tradebook.ParseDirection(c.side); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	if c.symbol != "" {
		t.Symbol = c.symbol
	}
	t.Entries = append(t.Entries, c.entries...)
	t.Exits = append(t.Exits, c.exits...)

	cur := j.Currency()
	for _, p := range []struct {
		flag string
		set  func(tradebook.Money)
	}{
		{c.sl, func(m tradebook.Money) { t.StopLoss = m }},
		{c.tsl, func(m tradebook.Money) { t.TrailingStop = m }},
		{c.cmp, func(m tradebook.Money) { t.CMP = tradebook.Price{Value: m, Source: tradebook.Manual} }},
	} {
		m, err := parseMoney(p.flag, cur)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		if m != nil {
			p.set(*m)
		}
	}

	t, err = j.PutTrade(t, a.cfg.Limits())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.books.PutTrade(ctx, t); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving trade: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("id", t.ID).Str("symbol", t.Symbol).Int("entries", len(t.Entries)).Int("exits", len(t.Exits)).Msg("trade saved")
	fmt.Fprintln(stdout, t.ID)
	return subcommands.ExitSuccess
}

type rmTradeCmd struct {
	id string
}

func (*rmTradeCmd) Name() string     { return "rm-trade" }
func (*rmTradeCmd) Synopsis() string { return "remove a trade" }
func (*rmTradeCmd) Usage() string {
	return `tb rm-trade -id <id>

  Removes a trade from the journal.
`
}

func (c *rmTradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "ID of the trade to remove")
}

func (c *rmTradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.books.DeleteTrade(ctx, c.id); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing trade: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("id", c.id).Msg("trade removed")
	return subcommands.ExitSuccess
}

type cmpCmd struct {
	id    string
	price string
}

func (*cmpCmd) Name() string     { return "cmp" }
func (*cmpCmd) Synopsis() string { return "set the current market price of a trade" }
func (*cmpCmd) Usage() string {
	return `tb cmp -id <id> -price <price>

  Sets the current market price of a trade by hand. Use refresh to fetch
  prices from the quote provider.
`
}

func (c *cmpCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "ID of the trade")
	f.StringVar(&c.price, "price", "", "Current market price")
}

func (c *cmpCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	price, err := parseMoney(c.price, j.Currency())
	if err != nil || price == nil || !price.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: -price must be a positive amount, got %q\n", c.price)
		return subcommands.ExitUsageError
	}
	if err := j.SetCMP(c.id, tradebook.Price{Value: *price, Source: tradebook.Manual}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	t, _ := j.Trade(c.id)
	if err := a.books.PutTrade(ctx, t); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving trade: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
