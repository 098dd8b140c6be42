package tradebook

import (
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/tradebook/date"
)

// Lot is a quantity filled at a price on a date, either an entry or an exit.
type Lot struct {
	Date     date.Date
	Quantity Quantity
	Price    Money
}

// Price is a market price tagged with its provenance.
type Price struct {
	Value  Money
	Source PriceSource
}

// IsSet returns true if the price is usable.
func (p Price) IsSet() bool { return p.Value.IsPositive() }

// Trade is a discretionary equity trade made of entry lots and exit lots.
//
// Entries and Exits are kept in input order: the first entry is the initial
// one, the following ones are pyramid adds. Lots with a zero quantity do not
// exist. Every derived figure (average prices, quantities, status, P/L) is
// computed by the engine and never stored on the trade.
type Trade struct {
	ID           string
	Symbol       string
	Direction    Direction
	Entries      []Lot
	Exits        []Lot
	StopLoss     Money
	TrailingStop Money
	CMP          Price
}

// Limits bounds the number of lots a trade may carry. Zero means unbounded.
type Limits struct {
	MaxEntries int
	MaxExits   int
}

// DefaultLimits are the classic journal limits: an initial entry, two pyramids and three exits.
var DefaultLimits = Limits{MaxEntries: 3, MaxExits: 3}

// EntryDate returns the date of the earliest entry lot.
func (t Trade) EntryDate() date.Date {
	if l := BuildEntryLots(t); len(l) > 0 {
		return l[0].Date
	}
	if len(t.Entries) > 0 {
		return t.Entries[0].Date
	}
	return date.Date{}
}

// EntryPrice returns the price of the initial entry, the first lot with a
// quantity in input order. Zero quantity lots do not exist.
func (t Trade) EntryPrice() Money {
	for _, l := range t.Entries {
		if !l.Quantity.IsZero() {
			return l.Price
		}
	}
	return Money{}
}

// IsClosed returns true if the exits cover every entered quantity.
func (t Trade) IsClosed() bool {
	return StatusOf(totalQuantity(t.Entries), totalQuantity(t.Exits)) == Closed
}

// WithCMP returns a copy of the trade with a new current market price.
func (t Trade) WithCMP(value Money, source PriceSource) Trade {
	t.CMP = Price{Value: value, Source: source}
	return t
}

// Clone returns a deep copy of the trade.
func (t Trade) Clone() Trade {
	t.Entries = slices.Clone(t.Entries)
	t.Exits = slices.Clone(t.Exits)
	return t
}

// Validate checks the structure of a trade: quantities, prices, dates, lot
// limits and that exits never exceed entries.
//
// An excess of exits is reported as an *ExcessExitError that callers can
// detect with errors.As.
func (t Trade) Validate(limits Limits) error {
	var errs []error
	if limits.MaxEntries > 0 && countLots(t.Entries) > limits.MaxEntries {
		errs = append(errs, fmt.Errorf("too many entries: %d, max %d", countLots(t.Entries), limits.MaxEntries))
	}
	if limits.MaxExits > 0 && countLots(t.Exits) > limits.MaxExits {
		errs = append(errs, fmt.Errorf("too many exits: %d, max %d", countLots(t.Exits), limits.MaxExits))
	}
	errs = append(errs, validateLots("entry", t.Entries)...)
	errs = append(errs, validateLots("exit", t.Exits)...)
	if t.StopLoss.IsNegative() || t.TrailingStop.IsNegative() {
		errs = append(errs, errors.New("stop prices cannot be negative"))
	}
	if err := t.checkExits(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid trade %q: %w", t.ID, errors.Join(errs...))
}

func (t Trade) checkExits() error {
	entered, exited := totalQuantity(t.Entries), totalQuantity(t.Exits)
	if exited.GreaterThan(entered) {
		return &ExcessExitError{TradeID: t.ID, Entered: entered, Exited: exited}
	}
	return nil
}

// countLots counts the lots that exist (non zero quantity).
func countLots(lots []Lot) int {
	n := 0
	for _, l := range lots {
		if !l.Quantity.IsZero() {
			n++
		}
	}
	return n
}

func validateLots(kind string, lots []Lot) (errs []error) {
	for i, l := range lots {
		switch {
		case l.Quantity.IsZero():
			continue
		case l.Quantity.IsNegative():
			errs = append(errs, fmt.Errorf("%s #%d: quantity %v cannot be negative", kind, i+1, l.Quantity))
		case !l.Price.IsPositive():
			errs = append(errs, fmt.Errorf("%s #%d: price %v must be positive", kind, i+1, l.Price.Decimal()))
		case l.Date.IsZero():
			errs = append(errs, fmt.Errorf("%s #%d: missing date", kind, i+1))
		}
	}
	return errs
}

func totalQuantity(lots []Lot) Quantity {
	var total Quantity
	for _, l := range lots {
		total = total.Add(l.Quantity)
	}
	return total
}

// ClampExits returns a copy of the trade where the exits that exceed the
// entered quantity are reduced, the latest exits first.
//
// It is the "cap" policy for an *ExcessExitError; the engine itself never clamps.
func ClampExits(t Trade) Trade {
	t = t.Clone()
	excess := totalQuantity(t.Exits).Sub(totalQuantity(t.Entries))
	if !excess.IsPositive() {
		return t
	}
	// indexes of exits from the latest to the earliest, ties reversed from input order.
	order := make([]int, len(t.Exits))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return t.Exits[a].Date.Compare(t.Exits[b].Date) })
	slices.Reverse(order)
	for _, i := range order {
		if !excess.IsPositive() {
			break
		}
		cut := t.Exits[i].Quantity.Min(excess)
		t.Exits[i].Quantity = t.Exits[i].Quantity.Sub(cut)
		excess = excess.Sub(cut)
	}
	return t
}
