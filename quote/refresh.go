package quote

import (
	"context"
	"errors"

	"github.com/etnz/tradebook"
	"github.com/rs/zerolog/log"
)

// Refresh fetches a price for every trade still holding a position and
// returns the trades with their CMP set from the feed. Closed trades are
// returned unchanged.
//
// A symbol the feed cannot price keeps its previous CMP and yields a
// *tradebook.MissingPriceError per trade; these are joined in the returned
// error, together with the trades. A cancelled ctx stops the refresh and
// returns its error with no trades.
func Refresh(ctx context.Context, feed Feed, trades []tradebook.Trade) ([]tradebook.Trade, error) {
	res := make([]tradebook.Trade, len(trades))
	prices := make(map[string]*Quote) // nil for symbols that failed
	var errs []error
	for i, t := range trades {
		res[i] = t.Clone()
		if t.IsClosed() {
			continue
		}
		q, seen := prices[t.Symbol]
		if !seen {
			fetched, err := feed.Quote(ctx, t.Symbol)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err != nil {
				log.Warn().Err(err).Str("symbol", t.Symbol).Msg("no quote")
			} else {
				log.Info().Str("symbol", t.Symbol).Str("price", fetched.Price.String()).Msg("quote")
				q = &fetched
			}
			prices[t.Symbol] = q
		}
		if q == nil {
			errs = append(errs, &tradebook.MissingPriceError{TradeID: t.ID, Symbol: t.Symbol})
			continue
		}
		res[i] = t.WithCMP(q.Price, tradebook.Feed)
	}
	return res, errors.Join(errs...)
}
