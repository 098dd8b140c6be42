package tradebook

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/etnz/tradebook/date"
)

// YearlyCapital is the capital known at the start of January of a year.
type YearlyCapital struct {
	Year            int
	StartingCapital Money
	UpdatedAt       date.Date
}

// MonthlyOverride replaces the capital carried from the previous month.
type MonthlyOverride struct {
	Month  date.Month
	Amount Money
}

// CapitalChange is a deposit (positive) or a withdrawal (negative) effective
// from its date forward.
type CapitalChange struct {
	ID          string
	Date        date.Date
	Amount      Money
	Description string
}

// Capital holds the capital records of a portfolio.
//
// Its zero value is an empty set ready to use. Capital is not safe for
// concurrent mutation, a TruePortfolio reads a copy of it.
type Capital struct {
	yearly    map[int]YearlyCapital
	overrides map[date.Month]MonthlyOverride
	changes   []CapitalChange // in insertion order
}

// SetYearly sets the starting capital of a year, replacing any previous one.
func (c *Capital) SetYearly(y YearlyCapital) error {
	if !y.StartingCapital.IsPositive() {
		return &InvalidCapitalAmountError{Kind: "yearly capital", Period: strconv.Itoa(y.Year), Amount: y.StartingCapital}
	}
	if c.yearly == nil {
		c.yearly = make(map[int]YearlyCapital)
	}
	c.yearly[y.Year] = y
	return nil
}

// RemoveYearly removes the starting capital of a year, it returns false if there was none.
func (c *Capital) RemoveYearly(year int) bool {
	_, ok := c.yearly[year]
	delete(c.yearly, year)
	return ok
}

// SetOverride sets the capital of a month, replacing any previous override.
func (c *Capital) SetOverride(o MonthlyOverride) error {
	if o.Month.IsZero() {
		return errors.New("monthly override without month")
	}
	if !o.Amount.IsPositive() {
		return &InvalidCapitalAmountError{Kind: "monthly override", Period: o.Month.String(), Amount: o.Amount}
	}
	if c.overrides == nil {
		c.overrides = make(map[date.Month]MonthlyOverride)
	}
	c.overrides[o.Month] = o
	return nil
}

// RemoveOverride removes the override of a month, it returns false if there was none.
func (c *Capital) RemoveOverride(m date.Month) bool {
	_, ok := c.overrides[m]
	delete(c.overrides, m)
	return ok
}

// AddChange records a capital change. A change without ID gets a new one.
func (c *Capital) AddChange(ch CapitalChange) (CapitalChange, error) {
	if ch.Date.IsZero() {
		return ch, errors.New("capital change without date")
	}
	if ch.Amount.IsZero() {
		return ch, fmt.Errorf("capital change on %v: amount cannot be zero", ch.Date)
	}
	if ch.ID == "" {
		ch.ID = NewID()
	}
	if slices.ContainsFunc(c.changes, func(x CapitalChange) bool { return x.ID == ch.ID }) {
		return ch, fmt.Errorf("capital change %q already exists", ch.ID)
	}
	c.changes = append(c.changes, ch)
	return ch, nil
}

// RemoveChange removes a capital change by ID, it returns false if there was none.
func (c *Capital) RemoveChange(id string) bool {
	n := len(c.changes)
	c.changes = slices.DeleteFunc(c.changes, func(x CapitalChange) bool { return x.ID == id })
	return len(c.changes) != n
}

// Yearly returns the yearly capitals sorted by year.
func (c *Capital) Yearly() []YearlyCapital {
	years := slices.Sorted(maps.Keys(c.yearly))
	res := make([]YearlyCapital, 0, len(years))
	for _, y := range years {
		res = append(res, c.yearly[y])
	}
	return res
}

// Overrides returns the monthly overrides sorted by month.
func (c *Capital) Overrides() []MonthlyOverride {
	months := slices.SortedFunc(maps.Keys(c.overrides), date.Month.Compare)
	res := make([]MonthlyOverride, 0, len(months))
	for _, m := range months {
		res = append(res, c.overrides[m])
	}
	return res
}

// Changes returns the capital changes sorted by date, changes on the same day
// keep their insertion order.
func (c *Capital) Changes() []CapitalChange {
	res := slices.Clone(c.changes)
	slices.SortStableFunc(res, func(a, b CapitalChange) int { return a.Date.Compare(b.Date) })
	return res
}

// IsEmpty returns true if there is no capital record at all.
func (c *Capital) IsEmpty() bool {
	return len(c.yearly) == 0 && len(c.overrides) == 0 && len(c.changes) == 0
}

// Clone returns an independent copy of the records.
func (c *Capital) Clone() *Capital {
	return &Capital{
		yearly:    maps.Clone(c.yearly),
		overrides: maps.Clone(c.overrides),
		changes:   slices.Clone(c.changes),
	}
}
