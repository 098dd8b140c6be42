package tradebook

import (
	"time"

	"github.com/etnz/tradebook/date"
)

// INR is a helper for test to create rupees from const
func INR(v float64) Money { return M(v, "INR") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// day is a helper for test to create a date in 2024.
func day(month time.Month, d int) date.Date { return date.New(2024, month, d) }

// lot is a helper for test to create a lot.
func lot(qty float64, price float64, on date.Date) Lot {
	return Lot{Date: on, Quantity: Q(qty), Price: NO(price)}
}

// scenarioTrade is the reference partial trade: 100@100 and 50@110 in January, 80 sold @120 in February.
func scenarioTrade() Trade {
	return Trade{
		ID:        "T1",
		Symbol:    "INFY",
		Direction: Buy,
		Entries: []Lot{
			lot(100, 100, day(time.January, 1)),
			lot(50, 110, day(time.January, 10)),
		},
		Exits: []Lot{
			lot(80, 120, day(time.February, 1)),
		},
	}
}
