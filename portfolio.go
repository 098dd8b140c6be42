package tradebook

import (
	"time"

	"github.com/etnz/tradebook/date"
)

// MonthState is the capital of the portfolio over one month.
type MonthState struct {
	Month    date.Month
	Start    Money // capital carried in, or the override amount
	Override bool  // Start comes from a monthly override
	Changes  Money // net deposits and withdrawals of the month
	PL       Money // realized P/L attributed to the month
	End      Money // Start + Changes + PL, the portfolio size of the month
}

// TruePortfolio is the capital of a portfolio month by month.
//
// It is built once from a snapshot of the capital records and of the realized
// P/L per month, as a timeline starting at the earliest anchor (a yearly
// starting capital or a monthly override). Each month starts from:
//
//   - the override amount if the month is overridden,
//   - else the yearly starting capital if it is a January with one,
//   - else the end of the previous month.
//
// Capital changes and realized P/L of the month are then added, so an
// override only replaces the carried baseline. A record in a month can only
// change that month and the following ones.
//
// A TruePortfolio is immutable and safe for concurrent use. Build a new one
// after the records change.
type TruePortfolio struct {
	yearly map[int]YearlyCapital
	anchor date.Month   // first resolvable month, zero if none
	latest date.Month   // most recent month with any data
	states []MonthState // from anchor to the last month with data
}

// NewTruePortfolio builds the capital timeline from capital records and the
// realized P/L per month. Active months are months with trade activity, they
// count as data for Latest.
func NewTruePortfolio(c *Capital, realized map[date.Month]Money, active ...date.Month) *TruePortfolio {
	if c == nil {
		c = new(Capital)
	}
	p := &TruePortfolio{yearly: make(map[int]YearlyCapital)}

	anchor := func(m date.Month) {
		if p.anchor.IsZero() || m.Before(p.anchor) {
			p.anchor = m
		}
	}
	data := func(m date.Month) {
		if p.latest.IsZero() || m.After(p.latest) {
			p.latest = m
		}
	}

	for _, y := range c.Yearly() {
		p.yearly[y.Year] = y
		anchor(date.NewMonth(y.Year, time.January))
		data(date.NewMonth(y.Year, time.January))
	}
	overrides := make(map[date.Month]Money)
	for _, o := range c.Overrides() {
		overrides[o.Month] = o.Amount
		anchor(o.Month)
		data(o.Month)
	}
	changes := make(map[date.Month]Money)
	for _, ch := range c.Changes() {
		m := date.MonthOf(ch.Date)
		changes[m] = changes[m].Add(ch.Amount)
		data(m)
	}
	for m := range realized {
		data(m)
	}
	for _, m := range active {
		if !m.IsZero() {
			data(m)
		}
	}

	if p.anchor.IsZero() {
		return p
	}
	last := p.latest
	if last.Before(p.anchor) {
		last = p.anchor
	}
	var prev MonthState
	for m := p.anchor; !m.After(last); m = m.Next() {
		s := MonthState{Month: m, Changes: changes[m], PL: realized[m]}
		if amount, ok := overrides[m]; ok {
			s.Start, s.Override = amount, true
		} else if y, ok := p.yearly[m.Year]; ok && m.Month == time.January {
			s.Start = y.StartingCapital
		} else {
			s.Start = prev.End
		}
		s.End = s.Start.Add(s.Changes).Add(s.PL)
		p.states = append(p.states, s)
		prev = s
	}
	return p
}

// TruePortfolioOf builds the capital timeline of a set of trades under an
// accounting method. It fails if a trade is structurally invalid.
func TruePortfolioOf(c *Capital, trades []Trade, method AccountingMethod) (*TruePortfolio, error) {
	realized, err := RealizedByMonth(trades, method)
	if err != nil {
		return nil, err
	}
	var active []date.Month
	for _, t := range trades {
		for _, l := range t.Entries {
			if !l.Quantity.IsZero() {
				active = append(active, date.MonthOf(l.Date))
			}
		}
		for _, l := range t.Exits {
			if !l.Quantity.IsZero() {
				active = append(active, date.MonthOf(l.Date))
			}
		}
	}
	return NewTruePortfolio(c, realized, active...), nil
}

// Monthly returns the capital state of a month.
//
// Months after the last recorded data carry the last capital forward. Months
// before any starting capital or override return a *PortfolioResolutionError.
func (p *TruePortfolio) Monthly(m date.Month) (MonthState, error) {
	if p.anchor.IsZero() || m.Before(p.anchor) {
		return MonthState{}, &PortfolioResolutionError{Month: m}
	}
	i := (m.Year-p.anchor.Year)*12 + int(m.Month-p.anchor.Month)
	if i < len(p.states) {
		return p.states[i], nil
	}
	end := p.states[len(p.states)-1].End
	return MonthState{Month: m, Start: end, End: end}, nil
}

// Size returns the portfolio size of a month: its ending capital.
func (p *TruePortfolio) Size(m date.Month) (Money, error) {
	s, err := p.Monthly(m)
	return s.End, err
}

// StartingCapital returns the capital at the start of a year: the yearly
// starting capital if set, else the ending capital of the previous December.
func (p *TruePortfolio) StartingCapital(year int) (Money, error) {
	if y, ok := p.yearly[year]; ok {
		return y.StartingCapital, nil
	}
	s, err := p.Monthly(date.NewMonth(year-1, time.December))
	if err != nil {
		return Money{}, &PortfolioResolutionError{Month: date.NewMonth(year, time.January)}
	}
	return s.End, nil
}

// Latest returns the portfolio size of the most recent month with any data:
// trade activity, capital change, override or yearly starting capital.
func (p *TruePortfolio) Latest() (Money, date.Month, error) {
	if p.latest.IsZero() {
		return Money{}, date.Month{}, &PortfolioResolutionError{}
	}
	size, err := p.Size(p.latest)
	return size, p.latest, err
}

// Timeline returns every resolved month up to the last month with data.
func (p *TruePortfolio) Timeline() []MonthState {
	res := make([]MonthState, len(p.states))
	copy(res, p.states)
	return res
}

// Sizer returns the portfolio size lookup used by percentage metrics.
func (p *TruePortfolio) Sizer() PortfolioSizer {
	return func(m date.Month) (Money, bool) {
		size, err := p.Size(m)
		return size, err == nil && size.IsPositive()
	}
}
