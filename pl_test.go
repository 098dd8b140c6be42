package tradebook

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/etnz/tradebook/date"
)

func TestCalculate_Scenario(t *testing.T) {
	tr := scenarioTrade()
	tr.CMP = Price{Value: NO(130), Source: Feed}
	tr.StopLoss = NO(95)

	m, err := Calculate(tr, Options{Now: day(time.March, 1)})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if got, want := m.AvgEntry.Round(2), NO(103.33); !got.Equal(want) {
		t.Errorf("AvgEntry = %v, want %v", got.Decimal(), want.Decimal())
	}
	if got, want := m.RealizedPL, NO(1600); !got.Equal(want) {
		t.Errorf("RealizedPL = %v, want %v", got.Decimal(), want.Decimal())
	}
	if got, want := m.OpenQty, Q(70); !got.Equal(want) {
		t.Errorf("OpenQty = %v, want %v", got, want)
	}
	if got, want := m.ExitedQty, Q(80); !got.Equal(want) {
		t.Errorf("ExitedQty = %v, want %v", got, want)
	}
	if m.Status != Partial {
		t.Errorf("Status = %v, want %v", m.Status, Partial)
	}
	if got, want := m.PositionSize, NO(15500); !got.Equal(want) {
		t.Errorf("PositionSize = %v, want %v", got.Decimal(), want.Decimal())
	}
	if got, want := m.AvgExit, NO(120); !got.Equal(want) {
		t.Errorf("AvgExit = %v, want %v", got.Decimal(), want.Decimal())
	}
	if got, want := m.RealisedAmount, NO(9600); !got.Equal(want) {
		t.Errorf("RealisedAmount = %v, want %v", got.Decimal(), want.Decimal())
	}
	// (130 - 103.333) × 70
	if got, want := m.UnrealizedPL.Round(2), NO(1866.67); !got.Equal(want) {
		t.Errorf("UnrealizedPL = %v, want %v", got.Decimal(), want.Decimal())
	}
	if got, want := m.SLPercent, Percent(5); !got.Equal(want) {
		t.Errorf("SLPercent = %v, want %v", got, want)
	}
	if got, want := m.HoldingDays, 60; got != want {
		t.Errorf("HoldingDays = %v, want %v", got, want)
	}
	if m.PriceMissing {
		t.Errorf("PriceMissing = true, want false")
	}
}

func TestCalculate_Status(t *testing.T) {
	testCases := []struct {
		name  string
		exits []Lot
		want  PositionStatus
	}{
		{name: "no exits", want: Open},
		{name: "zero quantity exit", exits: []Lot{lot(0, 120, day(time.February, 1))}, want: Open},
		{name: "partial", exits: []Lot{lot(149, 120, day(time.February, 1))}, want: Partial},
		{name: "closed", exits: []Lot{lot(100, 120, day(time.February, 1)), lot(50, 121, day(time.March, 1))}, want: Closed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := scenarioTrade()
			tr.Exits = tc.exits
			m, err := Calculate(tr, Options{})
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if m.Status != tc.want {
				t.Errorf("Status = %v, want %v", m.Status, tc.want)
			}
		})
	}
}

func TestCalculate_ExcessExit(t *testing.T) {
	tr := scenarioTrade()
	tr.Exits = append(tr.Exits, lot(71, 125, day(time.March, 1)))
	_, err := Calculate(tr, Options{})
	var excess *ExcessExitError
	if !errors.As(err, &excess) {
		t.Fatalf("Calculate() error = %v, want *ExcessExitError", err)
	}
	if excess.TradeID != "T1" {
		t.Errorf("ExcessExitError.TradeID = %q, want %q", excess.TradeID, "T1")
	}
}

func TestCalculate_MissingPrice(t *testing.T) {
	tr := scenarioTrade() // partial, no cmp
	m, err := Calculate(tr, Options{})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if !m.PriceMissing {
		t.Errorf("PriceMissing = false, want true")
	}
	if !m.UnrealizedPL.IsZero() {
		t.Errorf("UnrealizedPL = %v, want 0", m.UnrealizedPL.Decimal())
	}
	// realized leg only: (120 - 103.333)/103.333
	if got, want := m.StockMove, Percent(16.129); !got.Equal(want) && math.Abs(float64(got-want)) > 0.001 {
		t.Errorf("StockMove = %v, want %v", got, want)
	}

	_, err = UnrealizedPL(tr)
	var missing *MissingPriceError
	if !errors.As(err, &missing) {
		t.Errorf("UnrealizedPL() error = %v, want *MissingPriceError", err)
	}
	if !IsSoft(err) {
		t.Errorf("IsSoft(%v) = false, want true", err)
	}
}

func TestRealizedPL_DirectionSymmetry(t *testing.T) {
	long := Trade{
		Direction: Buy,
		Entries:   []Lot{lot(100, 100, day(time.January, 1))},
		Exits:     []Lot{lot(60, 120, day(time.February, 1)), lot(40, 90, day(time.March, 1))},
	}
	// same magnitudes, inverted price movement.
	short := Trade{
		Direction: Sell,
		Entries:   []Lot{lot(100, 100, day(time.January, 1))},
		Exits:     []Lot{lot(60, 80, day(time.February, 1)), lot(40, 110, day(time.March, 1))},
	}
	lpl, err := RealizedPL(long)
	if err != nil {
		t.Fatalf("RealizedPL(long) error = %v", err)
	}
	spl, err := RealizedPL(short)
	if err != nil {
		t.Fatalf("RealizedPL(short) error = %v", err)
	}
	if !lpl.Equal(NO(800)) {
		t.Errorf("RealizedPL(long) = %v, want 800", lpl.Decimal())
	}
	if !spl.Equal(NO(800)) {
		t.Errorf("RealizedPL(short) = %v, want 800", spl.Decimal())
	}

	// same magnitudes, same price movement: opposite sign.
	short.Exits = long.Exits
	spl, err = RealizedPL(short)
	if err != nil {
		t.Fatalf("RealizedPL(short) error = %v", err)
	}
	if !spl.Equal(lpl.Neg()) {
		t.Errorf("RealizedPL(short) = %v, want %v", spl.Decimal(), lpl.Neg().Decimal())
	}
}

func TestUnrealizedPL(t *testing.T) {
	testCases := []struct {
		name string
		dir  Direction
		cmp  float64
		want float64
	}{
		{name: "long gain", dir: Buy, cmp: 110, want: 1000},
		{name: "long loss", dir: Buy, cmp: 95, want: -500},
		{name: "short gain", dir: Sell, cmp: 95, want: 500},
		{name: "short loss", dir: Sell, cmp: 110, want: -1000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := Trade{
				Direction: tc.dir,
				Entries:   []Lot{lot(100, 100, day(time.January, 1))},
				CMP:       Price{Value: NO(tc.cmp)},
			}
			got, err := UnrealizedPL(tr)
			if err != nil {
				t.Fatalf("UnrealizedPL() error = %v", err)
			}
			if !got.Equal(NO(tc.want)) {
				t.Errorf("UnrealizedPL() = %v, want %v", got.Decimal(), tc.want)
			}
		})
	}

	closed := Trade{
		Entries: []Lot{lot(100, 100, day(time.January, 1))},
		Exits:   []Lot{lot(100, 100, day(time.January, 2))},
	}
	if got, err := UnrealizedPL(closed); err != nil || !got.IsZero() {
		t.Errorf("UnrealizedPL(closed) = %v, %v, want 0, nil", got.Decimal(), err)
	}
}

func TestStockMove(t *testing.T) {
	testCases := []struct {
		name      string
		trade     Trade
		weighting PartialWeighting
		want      Percent
	}{
		{
			name: "open uses cmp",
			trade: Trade{
				Entries: []Lot{lot(100, 100, day(time.January, 1))},
				CMP:     Price{Value: NO(110)},
			},
			want: 10,
		},
		{
			name: "open short uses cmp",
			trade: Trade{
				Direction: Sell,
				Entries:   []Lot{lot(100, 100, day(time.January, 1))},
				CMP:       Price{Value: NO(110)},
			},
			want: -10,
		},
		{
			name: "closed uses average exit",
			trade: Trade{
				Entries: []Lot{lot(100, 100, day(time.January, 1))},
				Exits:   []Lot{lot(50, 120, day(time.February, 1)), lot(50, 100, day(time.March, 1))},
				CMP:     Price{Value: NO(200)},
			},
			want: 10,
		},
		{
			name: "partial quantity weighted",
			trade: Trade{
				Entries: []Lot{lot(100, 100, day(time.January, 1))},
				Exits:   []Lot{lot(75, 120, day(time.February, 1))},
				CMP:     Price{Value: NO(80)},
			},
			// (120×75 + 80×25)/100 = 110
			want: 10,
		},
		{
			name: "partial equal weighted",
			trade: Trade{
				Entries: []Lot{lot(100, 100, day(time.January, 1))},
				Exits:   []Lot{lot(75, 120, day(time.February, 1))},
				CMP:     Price{Value: NO(80)},
			},
			weighting: EqualWeighted,
			want:      0,
		},
		{
			name: "open without cmp",
			trade: Trade{
				Entries: []Lot{lot(100, 100, day(time.January, 1))},
			},
			want: 0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Calculate(tc.trade, Options{Weighting: tc.weighting})
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if !m.StockMove.Equal(tc.want) {
				t.Errorf("StockMove = %v, want %v", m.StockMove, tc.want)
			}
		})
	}
}

func TestSLPercent(t *testing.T) {
	testCases := []struct {
		entry, sl float64
		want      Percent
	}{
		{entry: 100, sl: 95, want: 5},
		{entry: 50, sl: 55, want: 10},
		{entry: 0, sl: 55, want: 0},
		{entry: 100, sl: 0, want: 0},
	}
	for _, tc := range testCases {
		if got := SLPercent(NO(tc.entry), NO(tc.sl)); !got.Equal(tc.want) {
			t.Errorf("SLPercent(%v, %v) = %v, want %v", tc.entry, tc.sl, got, tc.want)
		}
	}
}

func TestRewardRisk(t *testing.T) {
	testCases := []struct {
		name             string
		dir              Direction
		entry, sl, price float64
		want             float64
	}{
		{name: "long 2R", dir: Buy, entry: 100, sl: 95, price: 110, want: 2},
		{name: "short 3R", dir: Sell, entry: 50, sl: 55, price: 35, want: 3},
		{name: "losing trade", dir: Buy, entry: 100, sl: 95, price: 98, want: 0},
		{name: "no risk", dir: Buy, entry: 100, sl: 100, price: 110, want: 0},
		{name: "no stop", dir: Buy, entry: 100, sl: 0, price: 110, want: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RewardRisk(tc.dir, NO(tc.entry), NO(tc.sl), NO(tc.price))
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("RewardRisk() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHoldingDays(t *testing.T) {
	entry := day(time.January, 1)
	testCases := []struct {
		name     string
		status   PositionStatus
		lastExit date.Date
		now      date.Date
		want     int
	}{
		{name: "open until now", status: Open, now: day(time.January, 31), want: 30},
		{name: "closed until last exit", status: Closed, lastExit: day(time.January, 11), now: day(time.December, 1), want: 10},
		{name: "partial until now", status: Partial, lastExit: day(time.January, 11), now: day(time.January, 21), want: 20},
		{name: "partial with exit after now", status: Partial, lastExit: day(time.February, 1), now: day(time.January, 21), want: 31},
		{name: "open without clock", status: Open, want: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HoldingDays(entry, tc.status, tc.lastExit, tc.now); got != tc.want {
				t.Errorf("HoldingDays() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCalculate_ZeroInitialEntry(t *testing.T) {
	// an absent initial lot followed by a pyramid: the pyramid is the entry.
	tr := Trade{
		Direction: Buy,
		Entries:   []Lot{{}, lot(100, 100, day(time.January, 10))},
		StopLoss:  NO(90),
		CMP:       Price{Value: NO(120), Source: Manual},
	}
	if got := tr.EntryPrice(); !got.Equal(NO(100)) {
		t.Errorf("EntryPrice() = %v, want 100", got.Decimal())
	}
	m, err := Calculate(tr, Options{Now: day(time.February, 1)})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if want := Percent(10); !m.SLPercent.Equal(want) {
		t.Errorf("SLPercent = %v, want %v", m.SLPercent, want)
	}
	if m.RewardRisk != 2 {
		t.Errorf("RewardRisk = %v, want 2", m.RewardRisk)
	}
	if got := (Trade{Entries: []Lot{{}}}).EntryPrice(); !got.IsZero() {
		t.Errorf("EntryPrice() without lots = %v, want 0", got.Decimal())
	}
}
