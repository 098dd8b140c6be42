package renderer

import (
	"strconv"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/date"
)

// Report is the data rendered by every template.
// Numbers keep their exact types (Money, Quantity, Percent) so that templates
// can use their String and SignedString methods.
type Report struct {
	Date          date.Date
	Currency      string
	Method        string
	Trades        []Trade
	TotalOpenHeat *tradebook.Percent
	LatestSize    tradebook.Money
	LatestMonth   date.Month
	Timeline      []tradebook.MonthState
	Monthly       []Rollup
	Yearly        []Rollup
	Warnings      []string
}

// Trade is a row of the trades and heat tables.
type Trade struct {
	ID           string
	Symbol       string
	Side         string
	Status       string
	EntryDate    date.Date
	AvgEntry     tradebook.Money
	AvgExit      tradebook.Money
	CMP          tradebook.Money
	FeedPrice    bool
	TotalQty     tradebook.Quantity
	OpenQty      tradebook.Quantity
	PositionSize tradebook.Money
	RealizedPL   tradebook.Money
	UnrealizedPL tradebook.Money
	StockMove    tradebook.Percent
	StopLoss     tradebook.Money
	Stop         tradebook.Money // the effective stop
	SLPercent    tradebook.Percent
	RewardRisk   float64
	HoldingDays  int
	Allocation   *tradebook.Percent
	OpenHeat     *tradebook.Percent
	PFImpact     *tradebook.Percent
	CummPF       *tradebook.Percent
	Clamped      bool
}

// IsOpen returns true if the trade still holds a position.
func (t Trade) IsOpen() bool { return t.OpenQty.IsPositive() }

// Rollup is the realized P/L of a month or a year.
type Rollup struct {
	Label      string
	RealizedPL tradebook.Money
}

// NewReport creates the rendering data of an evaluated journal.
func NewReport(r *tradebook.Report) *Report {
	res := &Report{
		Date:          r.Options.Now,
		Currency:      r.Currency,
		Method:        r.Options.Method.String(),
		TotalOpenHeat: r.TotalOpenHeat,
		LatestSize:    r.LatestSize,
		LatestMonth:   r.LatestMonth,
		Timeline:      r.Timeline,
		Warnings:      warnings(r.Warnings),
	}
	for _, t := range r.Trades {
		res.Trades = append(res.Trades, Trade{
			ID:           t.ID,
			Symbol:       t.Symbol,
			Side:         t.Direction.String(),
			Status:       t.Status.String(),
			EntryDate:    t.EntryDate(),
			AvgEntry:     t.AvgEntry,
			AvgExit:      t.AvgExit,
			CMP:          t.CMP.Value,
			FeedPrice:    t.CMP.IsSet() && t.CMP.Source == tradebook.Feed,
			TotalQty:     t.TotalQty,
			OpenQty:      t.OpenQty,
			PositionSize: t.PositionSize,
			RealizedPL:   t.RealizedPL,
			UnrealizedPL: t.UnrealizedPL,
			StockMove:    t.StockMove,
			StopLoss:     t.StopLoss,
			Stop:         tradebook.EffectiveStop(t.Direction, t.StopLoss, t.TrailingStop),
			SLPercent:    t.SLPercent,
			RewardRisk:   t.RewardRisk,
			HoldingDays:  t.HoldingDays,
			Allocation:   t.Allocation,
			OpenHeat:     t.OpenHeat,
			PFImpact:     t.PFImpact,
			CummPF:       t.CummPF,
			Clamped:      t.Clamped,
		})
	}
	for _, m := range r.Monthly {
		res.Monthly = append(res.Monthly, Rollup{Label: date.MonthOf(m.Period.From).String(), RealizedPL: m.RealizedPL})
	}
	for _, y := range r.Yearly {
		res.Yearly = append(res.Yearly, Rollup{Label: strconv.Itoa(y.Period.From.Year()), RealizedPL: y.RealizedPL})
	}
	return res
}

// OpenTrades returns the trades still holding a position.
func (r *Report) OpenTrades() []Trade {
	var res []Trade
	for _, t := range r.Trades {
		if t.IsOpen() {
			res = append(res, t)
		}
	}
	return res
}

// warnings flattens a joined error into its messages.
func warnings(err error) []string {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var res []string
		for _, e := range j.Unwrap() {
			res = append(res, warnings(e)...)
		}
		return res
	}
	return []string{err.Error()}
}
