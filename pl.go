package tradebook

import "github.com/etnz/tradebook/date"

// Options are the explicit parameters of every computation. The engine never
// reads an ambient accounting mode. The clock is only read by
// Journal.Evaluate, when Now is zero.
type Options struct {
	Method    AccountingMethod
	Now       date.Date // the day open positions are held until
	Weighting PartialWeighting
}

// Metrics are the figures derived from a single trade.
type Metrics struct {
	Status         PositionStatus
	AvgEntry       Money
	AvgExit        Money // zero without exits
	TotalQty       Quantity
	OpenQty        Quantity
	ExitedQty      Quantity
	PositionSize   Money // AvgEntry × TotalQty, rounded to the currency unit
	RealisedAmount Money // exit proceeds, AvgExit × ExitedQty
	RealizedPL     Money
	UnrealizedPL   Money
	StockMove      Percent
	SLPercent      Percent
	RewardRisk     float64 // 0 when undefined
	HoldingDays    int
	Fills          []Fill
	// PriceMissing is set when the trade holds shares but has no current price.
	PriceMissing bool
}

// StatusOf derives the position status from the entered and exited quantities.
func StatusOf(entered, exited Quantity) PositionStatus {
	switch {
	case !exited.IsPositive():
		return Open
	case exited.LessThan(entered):
		return Partial
	default:
		return Closed
	}
}

// Calculate computes every derived figure of a trade.
//
// It fails only on structural errors (*ExcessExitError). A missing current
// price is not an error: the unrealized P/L is zero and PriceMissing is set.
func Calculate(t Trade, opts Options) (Metrics, error) {
	fills, _, err := matchTrade(t)
	if err != nil {
		return Metrics{}, err
	}
	entries, exits := sortLots(t.Entries), sortLots(t.Exits)

	m := Metrics{
		AvgEntry:  entries.average(),
		AvgExit:   exits.average(),
		TotalQty:  entries.total(),
		ExitedQty: exits.total(),
		Fills:     fills,
	}
	m.OpenQty = m.TotalQty.Sub(m.ExitedQty)
	m.Status = StatusOf(m.TotalQty, m.ExitedQty)
	m.PositionSize = m.AvgEntry.Mul(m.TotalQty).Round(0)
	m.RealisedAmount = m.AvgExit.Mul(m.ExitedQty)
	m.RealizedPL = sumFills(fills, t.Direction)
	m.UnrealizedPL = unrealized(t.Direction, t.CMP, m.AvgEntry, m.OpenQty)
	m.PriceMissing = m.OpenQty.IsPositive() && !t.CMP.IsSet()

	ref, ok := comparisonPrice(m, t.CMP, opts.Weighting)
	if ok {
		m.StockMove = StockMove(t.Direction, m.AvgEntry, ref)
		m.RewardRisk = RewardRisk(t.Direction, t.EntryPrice(), t.StopLoss, ref)
	}
	m.SLPercent = SLPercent(t.EntryPrice(), t.StopLoss)
	m.HoldingDays = HoldingDays(t.EntryDate(), m.Status, exits.latest(), opts.Now)
	return m, nil
}

// RealizedPL returns the realized P/L of a trade: the sum over its FIFO fills
// of the direction signed price difference times the quantity.
func RealizedPL(t Trade) (Money, error) {
	fills, _, err := matchTrade(t)
	if err != nil {
		return Money{}, err
	}
	return sumFills(fills, t.Direction), nil
}

func sumFills(fills []Fill, d Direction) Money {
	var total Money
	for _, f := range fills {
		total = total.Add(f.PL(d))
	}
	return total
}

// UnrealizedPL returns the P/L of the open quantity at the current market
// price. It is zero for a flat trade. When the trade holds shares without a
// price it is zero too and a soft *MissingPriceError is returned.
func UnrealizedPL(t Trade) (Money, error) {
	if err := t.checkExits(); err != nil {
		return Money{}, err
	}
	entries := sortLots(t.Entries)
	open := entries.total().Sub(totalQuantity(t.Exits))
	if open.IsPositive() && !t.CMP.IsSet() {
		return Money{}, &MissingPriceError{TradeID: t.ID, Symbol: t.Symbol}
	}
	return unrealized(t.Direction, t.CMP, entries.average(), open), nil
}

func unrealized(d Direction, cmp Price, avgEntry Money, open Quantity) Money {
	if !open.IsPositive() || !cmp.IsSet() {
		return Money{}
	}
	return cmp.Value.Sub(avgEntry).Mul(open).Mul(Q(d.Sign()))
}

// comparisonPrice returns the price a trade's performance is measured against:
// the current price when open, the average exit when closed, and a blend of
// both legs when partially closed. A partial trade without current price is
// measured on its realized leg only.
func comparisonPrice(m Metrics, cmp Price, w PartialWeighting) (Money, bool) {
	switch m.Status {
	case Open:
		return cmp.Value, cmp.IsSet()
	case Closed:
		return m.AvgExit, m.AvgExit.IsPositive()
	}
	if !cmp.IsSet() {
		return m.AvgExit, true
	}
	realizedW, openW := m.ExitedQty, m.OpenQty
	if w == EqualWeighted {
		realizedW, openW = Q(1), Q(1)
	}
	sum := m.AvgExit.Mul(realizedW).Add(cmp.Value.Mul(openW))
	return sum.Div(realizedW.Add(openW)), true
}

// StockMove returns the direction signed move from avgEntry to price, in percent.
func StockMove(d Direction, avgEntry, price Money) Percent {
	if avgEntry.IsZero() {
		return 0
	}
	return price.Sub(avgEntry).Mul(Q(d.Sign())).Percent(avgEntry)
}

// SLPercent returns the distance between the entry and the stop loss, in
// percent of the entry. It is 0 without entry, and 0 without stop (sl 0 means "no stop").
func SLPercent(entry, sl Money) Percent {
	if entry.IsZero() || sl.IsZero() {
		return 0
	}
	return entry.Sub(sl).Abs().Percent(entry)
}

// RewardRisk returns the reward per share, from entry to price in the trade's
// direction, divided by the risk per share |entry - sl|.
// It is 0 when the risk is zero or undefined (sl 0 means "no stop"), or when
// the reward is not positive.
func RewardRisk(d Direction, entry, sl, price Money) float64 {
	if sl.IsZero() {
		return 0
	}
	risk := entry.Sub(sl).Abs()
	reward := price.Sub(entry).Mul(Q(d.Sign()))
	if risk.IsZero() || !reward.IsPositive() {
		return 0
	}
	return reward.Ratio(risk)
}

// HoldingDays returns the days a trade has been held: until the last exit when
// closed, until now when open, and until the latest of both when partial.
func HoldingDays(entry date.Date, status PositionStatus, lastExit, now date.Date) int {
	if entry.IsZero() {
		return 0
	}
	var end date.Date
	switch status {
	case Closed:
		end = lastExit
	case Open:
		end = now
	default:
		end = date.Latest(lastExit, now)
	}
	if end.IsZero() {
		return 0
	}
	return max(0, end.DaysSince(entry))
}
