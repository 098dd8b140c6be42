package tradebook

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/tradebook/date"
)

// fixedSize is a sizer that always resolves to the same size.
func fixedSize(v float64) PortfolioSizer {
	return func(date.Month) (Money, bool) { return NO(v), true }
}

func noSize(date.Month) (Money, bool) { return Money{}, false }

func TestTradeOpenHeat_ShortScenario(t *testing.T) {
	tr := Trade{
		Direction: Sell,
		Entries:   []Lot{lot(200, 50, day(time.January, 1))},
		StopLoss:  NO(55),
	}
	got, err := TradeOpenHeat(tr, Money{}, fixedSize(1000000))
	if err != nil {
		t.Fatalf("TradeOpenHeat() error = %v", err)
	}
	if want := Percent(0.1); !got.Equal(want) {
		t.Errorf("TradeOpenHeat() = %v, want %v", got, want)
	}
}

func TestTradeOpenHeat(t *testing.T) {
	base := Trade{
		Direction: Buy,
		Entries:   []Lot{lot(100, 100, day(time.January, 1))},
		StopLoss:  NO(90),
	}
	testCases := []struct {
		name   string
		change func(*Trade)
		sizer  PortfolioSizer
		want   Percent
	}{
		{name: "stop loss", change: func(*Trade) {}, want: 0.1},
		{name: "tighter trailing stop", change: func(t *Trade) { t.TrailingStop = NO(95) }, want: 0.05},
		{name: "looser trailing stop ignored", change: func(t *Trade) { t.TrailingStop = NO(80) }, want: 0.1},
		{name: "trailing stop alone", change: func(t *Trade) { t.StopLoss, t.TrailingStop = Money{}, NO(98) }, want: 0.02},
		{name: "no stop", change: func(t *Trade) { t.StopLoss = Money{} }, want: 0},
		{name: "partial uses open quantity", change: func(t *Trade) { t.Exits = []Lot{lot(60, 120, day(time.February, 1))} }, want: 0.04},
		{name: "closed", change: func(t *Trade) { t.Exits = []Lot{lot(100, 120, day(time.February, 1))} }, want: 0},
		{name: "fallback size", change: func(*Trade) {}, sizer: noSize, want: 0.2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := base.Clone()
			tc.change(&tr)
			sizer := tc.sizer
			if sizer == nil {
				sizer = fixedSize(1000000)
			}
			got, err := TradeOpenHeat(tr, NO(500000), sizer)
			if err != nil {
				t.Fatalf("TradeOpenHeat() error = %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("TradeOpenHeat() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTradeOpenHeat_Unresolved(t *testing.T) {
	tr := Trade{Entries: []Lot{lot(100, 100, day(time.January, 1))}, StopLoss: NO(90)}
	_, err := TradeOpenHeat(tr, Money{}, noSize)
	if !errors.Is(err, ErrPortfolioUnresolved) {
		t.Errorf("TradeOpenHeat() error = %v, want ErrPortfolioUnresolved", err)
	}
}

// TestTradeOpenHeat_Monotonic checks that more open shares at the same risk
// per share is more heat.
func TestTradeOpenHeat_Monotonic(t *testing.T) {
	var last Percent
	for _, qty := range []float64{1, 10, 11, 100, 1000} {
		tr := Trade{Entries: []Lot{lot(qty, 100, day(time.January, 1))}, StopLoss: NO(97)}
		got, err := TradeOpenHeat(tr, Money{}, fixedSize(100000))
		if err != nil {
			t.Fatalf("TradeOpenHeat() error = %v", err)
		}
		if got <= last {
			t.Errorf("TradeOpenHeat(qty=%v) = %v, want more than %v", qty, got, last)
		}
		last = got
	}
}

func TestOpenHeat(t *testing.T) {
	trades := []Trade{
		{ID: "a", Entries: []Lot{lot(100, 100, day(time.January, 1))}, StopLoss: NO(90)},
		{ID: "b", Direction: Sell, Entries: []Lot{lot(200, 50, day(time.January, 1))}, StopLoss: NO(55)},
		{ID: "c", Entries: []Lot{lot(100, 100, day(time.January, 1))}, Exits: []Lot{lot(100, 90, day(time.January, 5))}, StopLoss: NO(90)},
	}
	got, err := OpenHeat(trades, Money{}, fixedSize(1000000))
	if err != nil {
		t.Fatalf("OpenHeat() error = %v", err)
	}
	if want := Percent(0.2); !got.Equal(want) {
		t.Errorf("OpenHeat() = %v, want %v", got, want)
	}

	t.Run("hard error stops", func(t *testing.T) {
		bad := append(trades, Trade{ID: "d", Entries: []Lot{lot(1, 1, day(time.January, 1))}, Exits: []Lot{lot(2, 1, day(time.January, 2))}})
		_, err := OpenHeat(bad, Money{}, fixedSize(1000000))
		var excess *ExcessExitError
		if !errors.As(err, &excess) {
			t.Errorf("OpenHeat() error = %v, want *ExcessExitError", err)
		}
	})

	t.Run("soft error degrades", func(t *testing.T) {
		sizer := func(m date.Month) (Money, bool) {
			if m == month(time.January) {
				return NO(1000000), true
			}
			return Money{}, false
		}
		more := append(trades, Trade{ID: "e", Entries: []Lot{lot(100, 100, day(time.March, 1))}, StopLoss: NO(90)})
		got, err := OpenHeat(more, Money{}, sizer)
		if !IsSoft(err) || err == nil {
			t.Errorf("OpenHeat() error = %v, want a soft error", err)
		}
		if want := Percent(0.2); !got.Equal(want) {
			t.Errorf("OpenHeat() = %v, want %v", got, want)
		}
	})
}

func TestPFImpact(t *testing.T) {
	sizes := map[date.Month]float64{
		month(time.January):  100000,
		month(time.February): 200000,
		month(time.March):    300000,
	}
	sizer := func(m date.Month) (Money, bool) {
		v, ok := sizes[m]
		return NO(v), ok
	}
	// 400 in February and -300 in March, entered in January.
	tr := twoExitTrade()

	cash, err := PFImpact(tr, Cash, Money{}, sizer)
	if err != nil {
		t.Fatalf("PFImpact(cash) error = %v", err)
	}
	if want := Percent(0.1); !cash.Equal(want) {
		t.Errorf("PFImpact(cash) = %v, want %v", cash, want)
	}
	accrual, err := PFImpact(tr, Accrual, Money{}, sizer)
	if err != nil {
		t.Fatalf("PFImpact(accrual) error = %v", err)
	}
	if want := Percent(0.1); !accrual.Equal(want) {
		t.Errorf("PFImpact(accrual) = %v, want %v", accrual, want)
	}
}

func TestCummPF(t *testing.T) {
	trades := []Trade{
		{ID: "open", Entries: []Lot{lot(10, 100, day(time.January, 1))}},
		{ID: "late", Entries: []Lot{lot(10, 100, day(time.January, 1))}, Exits: []Lot{lot(10, 110, day(time.March, 1))}},
		{ID: "early", Entries: []Lot{lot(10, 100, day(time.January, 1))}, Exits: []Lot{lot(10, 90, day(time.February, 1))}},
		{ID: "undefined", Entries: []Lot{lot(10, 100, day(time.January, 1))}, Exits: []Lot{lot(10, 90, day(time.February, 2))}},
	}
	impacts := []*Percent{Percent(0.5).Ptr(), Percent(1).Ptr(), Percent(-0.25).Ptr(), nil}
	got := CummPF(trades, impacts)

	want := []*Percent{Percent(1.25).Ptr(), Percent(0.75).Ptr(), Percent(-0.25).Ptr(), nil}
	for i := range want {
		switch {
		case want[i] == nil && got[i] != nil:
			t.Errorf("CummPF()[%s] = %v, want nil", trades[i].ID, *got[i])
		case want[i] != nil && got[i] == nil:
			t.Errorf("CummPF()[%s] = nil, want %v", trades[i].ID, *want[i])
		case want[i] != nil && !got[i].Equal(*want[i]):
			t.Errorf("CummPF()[%s] = %v, want %v", trades[i].ID, *got[i], *want[i])
		}
	}
}

func TestEffectiveStop(t *testing.T) {
	testCases := []struct {
		dir     Direction
		sl, tsl float64
		want    float64
	}{
		{Buy, 90, 0, 90},
		{Buy, 90, 95, 95},
		{Buy, 90, 85, 90},
		{Sell, 55, 52, 52},
		{Sell, 55, 58, 55},
		{Sell, 0, 58, 58},
	}
	for _, tc := range testCases {
		if got := EffectiveStop(tc.dir, NO(tc.sl), NO(tc.tsl)); !got.Equal(NO(tc.want)) {
			t.Errorf("EffectiveStop(%v, %v, %v) = %v, want %v", tc.dir, tc.sl, tc.tsl, got.Decimal(), tc.want)
		}
	}
}

// Heat is measured from the stops, a missing current price does not zero it.
func TestTradeOpenHeat_WithoutPrice(t *testing.T) {
	tr := Trade{
		ID:        "T1",
		Direction: Buy,
		Entries:   []Lot{lot(100, 100, day(time.January, 1))},
		StopLoss:  NO(90),
	}
	if _, err := UnrealizedPL(tr); !IsSoft(err) {
		t.Errorf("UnrealizedPL() error = %v, want a soft *MissingPriceError", err)
	}
	got, err := TradeOpenHeat(tr, Money{}, fixedSize(100000))
	if err != nil {
		t.Fatalf("TradeOpenHeat() error = %v", err)
	}
	if want := Percent(1); !got.Equal(want) {
		t.Errorf("TradeOpenHeat() = %v, want %v", got, want)
	}
}
