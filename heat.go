package tradebook

import (
	"errors"
	"slices"

	"github.com/etnz/tradebook/date"
)

// PortfolioSizer returns the portfolio size of a month, false when unknown.
type PortfolioSizer func(date.Month) (Money, bool)

// portfolioSize resolves the size of a month, falling back when the sizer
// cannot. It returns a *PortfolioResolutionError when neither is positive.
func portfolioSize(m date.Month, fallback Money, sizer PortfolioSizer) (Money, error) {
	if sizer != nil {
		if size, ok := sizer(m); ok && size.IsPositive() {
			return size, nil
		}
	}
	if fallback.IsPositive() {
		return fallback, nil
	}
	return Money{}, &PortfolioResolutionError{Month: m}
}

// EffectiveStop returns the stop that protects a trade: the trailing stop
// when set and tighter than the stop loss, the stop loss otherwise.
func EffectiveStop(d Direction, sl, tsl Money) Money {
	switch {
	case tsl.IsZero():
		return sl
	case sl.IsZero():
		return tsl
	case d == Buy && tsl.GreaterThan(sl), d == Sell && tsl.LessThan(sl):
		return tsl
	default:
		return sl
	}
}

// TradeRisk returns the amount lost if the open quantity of a trade is
// stopped out: |avgEntry - effective stop| × open quantity. It is zero for
// closed trades and trades without stop.
func TradeRisk(t Trade) (Money, error) {
	m, err := Calculate(t, Options{})
	if err != nil {
		return Money{}, err
	}
	return riskOf(t, m), nil
}

func riskOf(t Trade, m Metrics) Money {
	stop := EffectiveStop(t.Direction, t.StopLoss, t.TrailingStop)
	if m.Status == Closed || stop.IsZero() {
		return Money{}
	}
	return m.AvgEntry.Sub(stop).Abs().Mul(m.OpenQty)
}

// TradeOpenHeat returns the risk of a trade as a percentage of the portfolio
// size of the month it was entered, or of fallback when that size is unknown.
//
// A *PortfolioResolutionError means the heat is undefined, not zero.
func TradeOpenHeat(t Trade, fallback Money, sizer PortfolioSizer) (Percent, error) {
	m, err := Calculate(t, Options{})
	if err != nil {
		return 0, err
	}
	return openHeat(t, m, fallback, sizer)
}

func openHeat(t Trade, m Metrics, fallback Money, sizer PortfolioSizer) (Percent, error) {
	risk := riskOf(t, m)
	if risk.IsZero() {
		return 0, nil
	}
	size, err := portfolioSize(date.MonthOf(t.EntryDate()), fallback, sizer)
	if err != nil {
		return 0, err
	}
	return risk.Percent(size), nil
}

// OpenHeat returns the total heat of the trades: the sum of every open or
// partial trade heat, as if all stops were hit at once.
//
// A structurally invalid trade stops the computation. Trades whose heat is
// undefined are left out of the total and reported in the joined soft error.
func OpenHeat(trades []Trade, fallback Money, sizer PortfolioSizer) (Percent, error) {
	var total Percent
	var soft []error
	for _, t := range trades {
		h, err := TradeOpenHeat(t, fallback, sizer)
		switch {
		case err == nil:
			total += h
		case IsSoft(err):
			soft = append(soft, err)
		default:
			return 0, err
		}
	}
	return total, errors.Join(soft...)
}

// PFImpact returns the realized P/L of a trade as a percentage of the
// portfolio size, each attributed amount being divided by the size of the
// month it is attributed to under the accounting method.
func PFImpact(t Trade, method AccountingMethod, fallback Money, sizer PortfolioSizer) (Percent, error) {
	atts, err := Attribute(t, method)
	if err != nil {
		return 0, err
	}
	return pfImpact(atts, fallback, sizer)
}

func pfImpact(atts []Attribution, fallback Money, sizer PortfolioSizer) (Percent, error) {
	var total Percent
	for _, a := range atts {
		size, err := portfolioSize(a.Month, fallback, sizer)
		if err != nil {
			return 0, err
		}
		total += a.Amount.Percent(size)
	}
	return total, nil
}

// Allocation returns the position size of a trade as a percentage of the
// portfolio size of the month it was entered.
func Allocation(t Trade, fallback Money, sizer PortfolioSizer) (Percent, error) {
	m, err := Calculate(t, Options{})
	if err != nil {
		return 0, err
	}
	return allocation(t, m, fallback, sizer)
}

func allocation(t Trade, m Metrics, fallback Money, sizer PortfolioSizer) (Percent, error) {
	if m.PositionSize.IsZero() {
		return 0, nil
	}
	size, err := portfolioSize(date.MonthOf(t.EntryDate()), fallback, sizer)
	if err != nil {
		return 0, err
	}
	return m.PositionSize.Percent(size), nil
}

// ClosureDate returns the date a trade was closed, its latest exit, or the
// zero date while it is still open.
func ClosureDate(t Trade) date.Date {
	m, err := Calculate(t, Options{})
	if err != nil || m.Status != Closed {
		return date.Date{}
	}
	return sortLots(t.Exits).latest()
}

// CummPF returns the running sum of the pf impacts, accumulated in the order
// trades were closed. Trades still open come last, in input order. An
// undefined impact (nil) adds nothing and leaves its own running sum undefined.
func CummPF(trades []Trade, impacts []*Percent) []*Percent {
	order := make([]int, len(trades))
	closed := make([]date.Date, len(trades))
	for i, t := range trades {
		order[i] = i
		closed[i] = ClosureDate(t)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ca, cb := closed[a], closed[b]
		switch {
		case ca.IsZero() && cb.IsZero():
			return 0
		case ca.IsZero():
			return 1
		case cb.IsZero():
			return -1
		default:
			return ca.Compare(cb)
		}
	})

	res := make([]*Percent, len(trades))
	var running Percent
	for _, i := range order {
		if i >= len(impacts) || impacts[i] == nil {
			continue
		}
		running += *impacts[i]
		res[i] = running.Ptr()
	}
	return res
}
