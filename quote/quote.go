// Package quote fetches current market prices for open trades.
//
// A Feed returns the latest price of a symbol. Feeds are external
// collaborators: their prices are merged into trades by Refresh, marked as
// coming from a feed, and the engine never calls them.
package quote

import (
	"context"
	"errors"
	"time"

	"github.com/etnz/tradebook"
)

// ErrNoPrice is returned by a feed that answered but had no usable price.
var ErrNoPrice = errors.New("no price available")

// Quote is the latest known price of a symbol.
type Quote struct {
	Symbol string
	Price  tradebook.Money
	Time   time.Time
}

// Feed returns the latest quote of a symbol.
type Feed interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// FeedFunc adapts a function to a Feed.
type FeedFunc func(ctx context.Context, symbol string) (Quote, error)

func (f FeedFunc) Quote(ctx context.Context, symbol string) (Quote, error) { return f(ctx, symbol) }
