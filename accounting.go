package tradebook

import (
	"maps"
	"slices"

	"github.com/etnz/tradebook/date"
)

// Attribution is an amount of realized P/L assigned to a month.
type Attribution struct {
	TradeID string
	Month   date.Month
	Amount  Money
}

// Attribute splits the realized P/L of a trade into the months it belongs to.
//
// Under the cash method every fill is assigned to the month of its exit, a
// partially closed trade may contribute to several months. Under the accrual
// method the whole realized P/L is assigned to the month the trade was
// entered. Amounts of the same month are merged, months are in chronological
// order, and trades without fills have no attribution.
func Attribute(t Trade, method AccountingMethod) ([]Attribution, error) {
	fills, _, err := matchTrade(t)
	if err != nil {
		return nil, err
	}
	if len(fills) == 0 {
		return nil, nil
	}

	byMonth := make(map[date.Month]Money)
	for _, f := range fills {
		m := date.MonthOf(f.ExitDate)
		if method == Accrual {
			m = date.MonthOf(t.EntryDate())
		}
		byMonth[m] = byMonth[m].Add(f.PL(t.Direction))
	}

	months := slices.SortedFunc(maps.Keys(byMonth), date.Month.Compare)
	res := make([]Attribution, 0, len(months))
	for _, m := range months {
		res = append(res, Attribution{TradeID: t.ID, Month: m, Amount: byMonth[m]})
	}
	return res, nil
}

// CalculateTradePL returns the total realized P/L of a trade. The accounting
// method only changes which period the amount belongs to, never the total.
func CalculateTradePL(t Trade, method AccountingMethod) (Money, error) {
	atts, err := Attribute(t, method)
	if err != nil {
		return Money{}, err
	}
	var total Money
	for _, a := range atts {
		total = total.Add(a.Amount)
	}
	return total, nil
}

// RealizedByMonth aggregates the realized P/L of all trades per month under
// an accounting method. It fails on the first structurally invalid trade.
func RealizedByMonth(trades []Trade, method AccountingMethod) (map[date.Month]Money, error) {
	res := make(map[date.Month]Money)
	for _, t := range trades {
		atts, err := Attribute(t, method)
		if err != nil {
			return nil, err
		}
		for _, a := range atts {
			res[a.Month] = res[a.Month].Add(a.Amount)
		}
	}
	return res, nil
}

// RealizedByYear aggregates the realized P/L of all trades per year under an
// accounting method.
func RealizedByYear(trades []Trade, method AccountingMethod) (map[int]Money, error) {
	monthly, err := RealizedByMonth(trades, method)
	if err != nil {
		return nil, err
	}
	res := make(map[int]Money)
	for m, v := range monthly {
		res[m.Year] = res[m.Year].Add(v)
	}
	return res, nil
}

// Rollup is the realized P/L of a period.
type Rollup struct {
	Period     date.Range
	RealizedPL Money
}

// Rollups returns the realized P/L per month, or per year, in chronological
// order, for the periods that have any.
func Rollups(trades []Trade, method AccountingMethod, period date.Period) ([]Rollup, error) {
	monthly, err := RealizedByMonth(trades, method)
	if err != nil {
		return nil, err
	}
	byStart := make(map[date.Date]Money)
	for m, v := range monthly {
		start := m.First().StartOf(period)
		byStart[start] = byStart[start].Add(v)
	}
	starts := slices.SortedFunc(maps.Keys(byStart), date.Date.Compare)
	res := make([]Rollup, 0, len(starts))
	for _, s := range starts {
		res = append(res, Rollup{Period: date.NewRange(s, period), RealizedPL: byStart[s]})
	}
	return res, nil
}
