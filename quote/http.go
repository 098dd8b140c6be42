package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tradebook"
)

// HTTPFeed reads prices from a JSON HTTP API.
//
// URL is a template where "{symbol}" is replaced by the escaped symbol, Path
// is the JSONPath of the price in the response, for instance "$.last" or
// "$.chart.result[0].meta.regularMarketPrice".
type HTTPFeed struct {
	Client   *http.Client // http.DefaultClient if nil
	URL      string
	Path     string
	Currency string
}

func (f *HTTPFeed) Quote(ctx context.Context, symbol string) (Quote, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	addr := strings.ReplaceAll(f.URL, "{symbol}", url.PathEscape(symbol))

	var jobj any
	if err := jget(ctx, client, addr, &jobj); err != nil {
		return Quote{}, fmt.Errorf("error retrieving %q: %w", symbol, err)
	}
	jval, err := jsonpath.Get(f.Path, jobj)
	if err != nil {
		return Quote{}, fmt.Errorf("error parsing %q: %q %w", symbol, f.Path, err)
	}
	// jsonpath returns either a single answer or a list of answers: keep the first one.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return Quote{}, fmt.Errorf("%q: %w", symbol, ErrNoPrice)
		}
		jval = jlist[0]
	}
	val, err := parsePrice(jval)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot read price of %q at %q: %w", symbol, f.Path, err)
	}
	return Quote{Symbol: symbol, Price: tradebook.M(val, f.Currency), Time: time.Now()}, nil
}

// parsePrice reads a positive price from a JSON number or a string like "1 234,5".
func parsePrice(jval any) (float64, error) {
	var val float64
	switch v := jval.(type) {
	case float64:
		val = v
	case string:
		s := strings.ReplaceAll(v, " ", "")
		if strings.Contains(s, ",") && !strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
		var err error
		val, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid string %q: %w", v, err)
		}
	case nil:
		return 0, ErrNoPrice
	default:
		return 0, fmt.Errorf("neither a number nor a string: %v", jval)
	}
	if val <= 0 {
		return 0, errors.Join(ErrNoPrice, fmt.Errorf("non positive price %v", val))
	}
	return val, nil
}
