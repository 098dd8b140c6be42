package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/tradebook"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// KiteFeed reads last traded prices from Zerodha Kite Connect.
//
// Symbols without an exchange prefix are looked up on Exchange, so "INFY"
// becomes "NSE:INFY".
type KiteFeed struct {
	kc       *kiteconnect.Client
	Exchange string
	Currency string
}

// NewKiteFeed returns a feed authenticated with an API key and access token.
func NewKiteFeed(apiKey, accessToken string) *KiteFeed {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteFeed{kc: kc, Exchange: "NSE", Currency: "INR"}
}

// SetBaseURI points the feed to another Kite endpoint.
func (f *KiteFeed) SetBaseURI(uri string) { f.kc.SetBaseURI(uri) }

func (f *KiteFeed) instrument(symbol string) string {
	if strings.Contains(symbol, ":") {
		return symbol
	}
	return f.Exchange + ":" + symbol
}

// Quote calls the LTP endpoint. The kite client has no context support, so
// ctx is only checked before the call.
func (f *KiteFeed) Quote(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	inst := f.instrument(symbol)
	ltp, err := f.kc.GetLTP(inst)
	if err != nil {
		return Quote{}, fmt.Errorf("kite ltp %q: %w", inst, err)
	}
	q, ok := ltp[inst]
	if !ok || q.LastPrice <= 0 {
		return Quote{}, fmt.Errorf("kite ltp %q: %w", inst, ErrNoPrice)
	}
	return Quote{Symbol: symbol, Price: tradebook.M(q.LastPrice, f.Currency), Time: time.Now()}, nil
}
