package date

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month identifies a calendar month of a given year.
//
// Month is comparable and can be used as a map key.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth returns a normalized Month, so that NewMonth(2024, 13) is January 2025.
func NewMonth(year int, month time.Month) Month {
	d := New(year, month, 1)
	return Month{Year: d.Year(), Month: d.Month()}
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month { return Month{Year: d.Year(), Month: d.Month()} }

// IsZero returns true for the zero Month.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Next returns the following month.
func (m Month) Next() Month { return NewMonth(m.Year, m.Month+1) }

// Prev returns the previous month.
func (m Month) Prev() Month { return NewMonth(m.Year, m.Month-1) }

// Before reports whether m is before x.
func (m Month) Before(x Month) bool {
	return m.Year < x.Year || (m.Year == x.Year && m.Month < x.Month)
}

// After reports whether m is after x.
func (m Month) After(x Month) bool { return x.Before(m) }

// Compare returns -1, 0 or +1, suitable for slices.SortFunc.
func (m Month) Compare(x Month) int {
	switch {
	case m.Before(x):
		return -1
	case x.Before(m):
		return 1
	default:
		return 0
	}
}

// First returns the first day of the month.
func (m Month) First() Date { return New(m.Year, m.Month, 1) }

// Last returns the last day of the month.
func (m Month) Last() Date { return New(m.Year, m.Month+1, 0) }

// String formats the month as "2006-01".
func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// ParseMonth parses "2024-03", "2024-3", or a month name followed by a year ("March 2024", "mar 2024").
func ParseMonth(str string) (Month, error) {
	str = strings.TrimSpace(str)
	if y, mm, ok := strings.Cut(str, "-"); ok {
		year, err1 := strconv.Atoi(y)
		month, err2 := strconv.Atoi(mm)
		if err1 == nil && err2 == nil && month >= 1 && month <= 12 {
			return Month{Year: year, Month: time.Month(month)}, nil
		}
		return Month{}, fmt.Errorf("invalid month %q want format \"2006-01\"", str)
	}
	fields := strings.Fields(str)
	if len(fields) != 2 {
		return Month{}, fmt.Errorf("invalid month %q want format \"2006-01\" or \"January 2006\"", str)
	}
	month, err := ParseMonthName(fields[0])
	if err != nil {
		return Month{}, err
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return Month{}, fmt.Errorf("invalid year in %q: %w", str, err)
	}
	return Month{Year: year, Month: month}, nil
}

// ParseMonthName parses an english month name, full ("March") or abbreviated ("Mar").
func ParseMonthName(name string) (time.Month, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if name == full || (len(name) >= 3 && strings.HasPrefix(full, name)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month name %q", name)
}

func (m *Month) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	v, err := ParseMonth(str)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
