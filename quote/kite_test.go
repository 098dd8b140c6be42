package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKiteFeed_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// GetLTP reads /quote in recent client versions, /quote/ltp in older ones.
		if r.URL.Path != "/quote" && r.URL.Path != "/quote/ltp" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("i") {
		case "NSE:INFY":
			w.Write([]byte(`{"status":"success","data":{"NSE:INFY":{"instrument_token":408065,"last_price":1502.3}}}`))
		case "BSE:TCS":
			w.Write([]byte(`{"status":"success","data":{"BSE:TCS":{"instrument_token":2953217,"last_price":3900}}}`))
		default:
			w.Write([]byte(`{"status":"success","data":{}}`))
		}
	}))
	defer srv.Close()

	feed := NewKiteFeed("key", "token")
	feed.SetBaseURI(srv.URL)
	ctx := context.Background()

	q, err := feed.Quote(ctx, "INFY")
	require.NoError(t, err)
	assert.Equal(t, "INFY", q.Symbol)
	assert.InDelta(t, 1502.3, q.Price.AsFloat(), 1e-9)
	assert.Equal(t, "INR", q.Price.Currency())

	q, err = feed.Quote(ctx, "BSE:TCS")
	require.NoError(t, err)
	assert.InDelta(t, 3900.0, q.Price.AsFloat(), 1e-9)

	_, err = feed.Quote(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, ErrNoPrice)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = feed.Quote(cancelled, "INFY")
	assert.ErrorIs(t, err, context.Canceled)
}
