package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/quote"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type refreshCmd struct {
	ids string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "update the current market price of open trades" }
func (*refreshCmd) Usage() string {
	return `tb refresh [-id <id,...>]

  Fetches the last price of every open trade from the configured quote
  provider (http or kite) and stores it as the trade CMP. Trades that
  cannot be priced keep their previous CMP.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ids, "id", "", "Comma separated list of trade IDs to refresh, all open trades by default")
}

// newFeed builds the quote feed described by the configuration.
func newFeed(q config.QuoteConfig, currency string) (quote.Feed, error) {
	var feed quote.Feed
	switch strings.ToLower(q.Provider) {
	case "http":
		feed = &quote.HTTPFeed{
			Client:   quote.DailyClient(q.CacheDir),
			URL:      q.URL,
			Path:     q.Path,
			Currency: currency,
		}
	case "kite":
		if q.APIKey == "" || q.AccessToken == "" {
			return nil, fmt.Errorf("kite provider requires %s and %s", config.EnvKiteAPIKey, config.EnvKiteAccessToken)
		}
		kite := quote.NewKiteFeed(q.APIKey, q.AccessToken)
		if q.Exchange != "" {
			kite.Exchange = q.Exchange
		}
		kite.Currency = currency
		feed = kite
	case "", "none":
		return nil, errors.New("no quote provider configured")
	default:
		return nil, fmt.Errorf("unknown quote provider %q", q.Provider)
	}
	return quote.NewGuard(feed, quote.GuardSettings{
		Name:          q.Provider,
		RatePerSecond: q.RatePerSecond,
		Burst:         q.Burst,
	}), nil
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	feed, err := newFeed(a.cfg.Quote, j.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	trades := j.Trades()
	if c.ids != "" {
		var selected []tradebook.Trade
		for _, id := range strings.Split(c.ids, ",") {
			t, ok := j.Trade(strings.TrimSpace(id))
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: unknown trade %q\n", id)
				return subcommands.ExitFailure
			}
			selected = append(selected, t)
		}
		trades = selected
	}

	refreshed, err := quote.Refresh(ctx, feed, trades)
	if refreshed == nil && err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err != nil {
		log.Warn().Msg(strings.ReplaceAll(err.Error(), "\n", "; "))
	}

	updated := 0
	for i, t := range refreshed {
		old := trades[i].CMP
		if t.CMP.Source == old.Source && t.CMP.Value.Equal(old.Value) {
			continue
		}
		if err := j.SetCMP(t.ID, t.CMP); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		t, _ = j.Trade(t.ID)
		if err := a.books.PutTrade(ctx, t); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving trade %q: %v\n", t.ID, err)
			return subcommands.ExitFailure
		}
		updated++
	}
	log.Info().Int("trades", len(trades)).Int("updated", updated).Msg("refresh done")
	return subcommands.ExitSuccess
}
