package tradebook

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tradebook/date"
)

// ExcessExitPolicy tells what to do with a trade that exits more than it entered.
type ExcessExitPolicy int

const (
	// Reject fails the computation.
	Reject ExcessExitPolicy = iota
	// Clamp reduces the latest exits until they match the entries.
	Clamp
)

func (p ExcessExitPolicy) String() string {
	if p == Clamp {
		return "clamp"
	}
	return "reject"
}

// ParseExcessExitPolicy parses "reject" or "clamp".
func ParseExcessExitPolicy(s string) (ExcessExitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reject", "":
		return Reject, nil
	case "clamp", "cap":
		return Clamp, nil
	default:
		return Reject, fmt.Errorf("unknown excess exit policy: %q", s)
	}
}

// Journal holds the trades and the capital records of a portfolio.
type Journal struct {
	cur     string  // the reporting currency.
	trades  []Trade // in insertion order
	capital *Capital
}

// NewJournal returns an empty journal, in the default currency if cur is empty.
func NewJournal(cur string) *Journal {
	if cur == "" {
		cur = DefaultCurrency
	}
	return &Journal{cur: cur, capital: new(Capital)}
}

// Currency returns the journal's reporting currency.
func (j *Journal) Currency() string { return j.cur }

// Capital returns the capital records of the journal, for edition.
func (j *Journal) Capital() *Capital { return j.capital }

// Trades returns a copy of the trades in insertion order.
func (j *Journal) Trades() []Trade {
	res := make([]Trade, len(j.trades))
	for i, t := range j.trades {
		res[i] = t.Clone()
	}
	return res
}

// Trade returns a trade by ID.
func (j *Journal) Trade(id string) (Trade, bool) {
	i := slices.IndexFunc(j.trades, func(t Trade) bool { return t.ID == id })
	if i < 0 {
		return Trade{}, false
	}
	return j.trades[i].Clone(), true
}

// PutTrade validates a trade and adds it to the journal, or replaces the
// trade with the same ID. A trade without ID gets a new one.
func (j *Journal) PutTrade(t Trade, limits Limits) (Trade, error) {
	if strings.TrimSpace(t.Symbol) == "" {
		return t, errors.New("trade without symbol")
	}
	if err := t.Validate(limits); err != nil {
		return t, err
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	t = t.Clone()
	if i := slices.IndexFunc(j.trades, func(x Trade) bool { return x.ID == t.ID }); i >= 0 {
		j.trades[i] = t
	} else {
		j.trades = append(j.trades, t)
	}
	return t, nil
}

// RemoveTrade removes a trade by ID, it returns false if there was none.
func (j *Journal) RemoveTrade(id string) bool {
	n := len(j.trades)
	j.trades = slices.DeleteFunc(j.trades, func(t Trade) bool { return t.ID == id })
	return len(j.trades) != n
}

// SetCMP sets the current market price of a trade.
func (j *Journal) SetCMP(id string, p Price) error {
	i := slices.IndexFunc(j.trades, func(t Trade) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("unknown trade %q", id)
	}
	j.trades[i].CMP = p
	return nil
}

// TradeReport is a trade with every figure derived from it.
type TradeReport struct {
	Trade
	Metrics
	Clamped      bool // exits were reduced by the Clamp policy
	Attributions []Attribution
	Allocation   *Percent // nil when the portfolio size is unknown
	OpenHeat     *Percent
	PFImpact     *Percent
	CummPF       *Percent
}

// Report is the evaluation of a journal at a given day.
type Report struct {
	Currency      string
	Options       Options
	Trades        []TradeReport
	TotalOpenHeat *Percent // nil if the heat of an open trade is undefined
	LatestSize    Money
	LatestMonth   date.Month // zero when the portfolio size is unknown
	Timeline      []MonthState
	Monthly       []Rollup
	Yearly        []Rollup
	// Warnings joins the soft errors: missing prices and unresolved portfolio sizes.
	Warnings error
}

// EvalOptions are the options of a journal evaluation.
type EvalOptions struct {
	Options
	Excess ExcessExitPolicy
}

// Evaluate computes every derived figure of the journal.
//
// Structural errors (an excess exit under the Reject policy) fail the whole
// evaluation. Missing prices and unresolved portfolio sizes are degraded: the
// affected figures are zero or nil and the conditions are listed in Warnings.
func (j *Journal) Evaluate(opts EvalOptions) (*Report, error) {
	if opts.Now.IsZero() {
		opts.Now = date.Today()
	}
	trades := j.Trades()
	clamped := make([]bool, len(trades))
	for i, t := range trades {
		err := t.checkExits()
		if err == nil {
			continue
		}
		if opts.Excess != Clamp {
			return nil, err
		}
		trades[i], clamped[i] = ClampExits(t), true
	}

	tp, err := TruePortfolioOf(j.capital, trades, opts.Method)
	if err != nil {
		return nil, err
	}
	r := &Report{Currency: j.cur, Options: opts.Options, Timeline: tp.Timeline()}
	var warnings []error
	warn := func(err error) {
		if err != nil {
			warnings = append(warnings, err)
		}
	}

	latest, month, err := tp.Latest()
	if err == nil {
		r.LatestSize, r.LatestMonth = latest, month
	} else {
		warn(err)
	}
	sizer := tp.Sizer()

	var total Percent
	heatDefined := true
	impacts := make([]*Percent, len(trades))
	for i, t := range trades {
		m, err := Calculate(t, opts.Options)
		if err != nil {
			return nil, err
		}
		tr := TradeReport{Trade: t, Metrics: m, Clamped: clamped[i]}
		if m.PriceMissing {
			warn(&MissingPriceError{TradeID: t.ID, Symbol: t.Symbol})
		}
		if tr.Attributions, err = Attribute(t, opts.Method); err != nil {
			return nil, err
		}

		if a, err := allocation(t, m, r.LatestSize, sizer); err == nil {
			tr.Allocation = a.Ptr()
		} else {
			warn(fmt.Errorf("allocation of %q: %w", t.ID, err))
		}
		if h, err := openHeat(t, m, r.LatestSize, sizer); err == nil {
			tr.OpenHeat = h.Ptr()
			total += h
		} else {
			heatDefined = false
			warn(fmt.Errorf("open heat of %q: %w", t.ID, err))
		}
		if len(tr.Attributions) > 0 {
			if p, err := pfImpact(tr.Attributions, r.LatestSize, sizer); err == nil {
				tr.PFImpact = p.Ptr()
			} else {
				warn(fmt.Errorf("pf impact of %q: %w", t.ID, err))
			}
		}
		impacts[i] = tr.PFImpact
		r.Trades = append(r.Trades, tr)
	}
	if heatDefined {
		r.TotalOpenHeat = total.Ptr()
	}
	for i, c := range CummPF(trades, impacts) {
		r.Trades[i].CummPF = c
	}

	if r.Monthly, err = Rollups(trades, opts.Method, date.Monthly); err != nil {
		return nil, err
	}
	if r.Yearly, err = Rollups(trades, opts.Method, date.Yearly); err != nil {
		return nil, err
	}
	r.Warnings = errors.Join(warnings...)
	return r, nil
}
