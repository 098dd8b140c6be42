package tradebook

import (
	"slices"

	"github.com/etnz/tradebook/date"
)

// lots is an ordered sequence of lots, oldest first.
type lots []Lot

// Fill is a quantity of an exit lot matched against a quantity of an entry lot.
type Fill struct {
	EntryPrice Money
	ExitPrice  Money
	Quantity   Quantity
	EntryDate  date.Date
	ExitDate   date.Date
}

// PL returns the realized P/L of the fill for a direction.
func (f Fill) PL(d Direction) Money {
	return f.ExitPrice.Sub(f.EntryPrice).Mul(f.Quantity).Mul(Q(d.Sign()))
}

// BuildEntryLots returns the entry lots of a trade, without the zero quantity
// ones, sorted by date. Lots on the same date keep their input order.
func BuildEntryLots(t Trade) []Lot { return sortLots(t.Entries) }

// BuildExitLots returns the exit lots of a trade, without the zero quantity
// ones, sorted by date. Lots on the same date keep their input order.
func BuildExitLots(t Trade) []Lot { return sortLots(t.Exits) }

func sortLots(in []Lot) lots {
	out := make(lots, 0, len(in))
	for _, l := range in {
		if l.Quantity.IsZero() {
			continue
		}
		out = append(out, l)
	}
	slices.SortStableFunc(out, func(a, b Lot) int { return a.Date.Compare(b.Date) })
	return out
}

// total returns the sum of the lots quantities.
func (l lots) total() Quantity { return totalQuantity(l) }

// average returns the quantity weighted average price of the lots, zero if empty.
func (l lots) average() Money {
	var amount Money
	var qty Quantity
	for _, x := range l {
		amount = amount.Add(x.Price.Mul(x.Quantity))
		qty = qty.Add(x.Quantity)
	}
	if qty.IsZero() {
		return amount
	}
	return amount.Div(qty)
}

// latest returns the date of the latest lot.
func (l lots) latest() date.Date {
	var d date.Date
	for _, x := range l {
		d = date.Latest(d, x.Date)
	}
	return d
}

// MatchFIFO consumes the exit lots against the entry lots in chronological
// order, splitting each exit across as many entries as needed.
//
// It returns the matched fills and the entry lots, or parts of them, that
// remain open. When the exits exceed the entries it returns an
// *ExcessExitError and no fills.
func MatchFIFO(entries, exits []Lot) ([]Fill, []Lot, error) {
	entered, exited := totalQuantity(entries), totalQuantity(exits)
	if exited.GreaterThan(entered) {
		return nil, nil, &ExcessExitError{Entered: entered, Exited: exited}
	}

	open := slices.Clone(entries)
	var fills []Fill
	for _, exit := range exits {
		remaining := exit.Quantity
		for len(open) > 0 && remaining.IsPositive() {
			head := &open[0]
			qty := head.Quantity.Min(remaining)
			fills = append(fills, Fill{
				EntryPrice: head.Price,
				ExitPrice:  exit.Price,
				Quantity:   qty,
				EntryDate:  head.Date,
				ExitDate:   exit.Date,
			})
			head.Quantity = head.Quantity.Sub(qty)
			remaining = remaining.Sub(qty)
			if head.Quantity.IsZero() {
				open = open[1:]
			}
		}
	}
	return fills, open, nil
}

// matchTrade runs the FIFO matching on a trade's lots, and tags any excess exit with the trade.
func matchTrade(t Trade) ([]Fill, []Lot, error) {
	fills, open, err := MatchFIFO(BuildEntryLots(t), BuildExitLots(t))
	if e, ok := err.(*ExcessExitError); ok {
		e.TradeID = t.ID
	}
	return fills, open, err
}
