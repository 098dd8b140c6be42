package tradebook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the side of a trade.
type Direction int

const (
	Buy Direction = iota
	// Sell is a short trade, entries sell and exits buy back.
	Sell
)

// Sign returns +1 for Buy and -1 for Sell.
func (d Direction) Sign() int64 {
	if d == Sell {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	if d == Sell {
		return "Sell"
	}
	return "Buy"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long", "":
		return Buy, nil
	case "sell", "short":
		return Sell, nil
	default:
		return Buy, fmt.Errorf("unknown direction %q", s)
	}
}

func (d Direction) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Direction) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	v, err := ParseDirection(str)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// PositionStatus is the lifecycle state of a trade, always derived from its lots.
type PositionStatus int

const (
	Open PositionStatus = iota
	Partial
	Closed
)

func (s PositionStatus) String() string {
	switch s {
	case Open:
		return "Open"
	case Partial:
		return "Partial"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

func (s PositionStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// PriceSource tells where a price value comes from.
type PriceSource int

const (
	// Manual prices are entered by the user.
	Manual PriceSource = iota
	// Feed prices are set by an external quote feed.
	Feed
)

func (s PriceSource) String() string {
	if s == Feed {
		return "feed"
	}
	return "manual"
}
