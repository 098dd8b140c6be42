package tradebook

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/tradebook/date"
	"github.com/google/go-cmp/cmp"
)

// cmpMoney compares Money, Quantity and dates by value.
var cmpMoney = cmp.Options{
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmp.Comparer(func(a, b date.Month) bool { return a == b }),
}

func TestBuildEntryLots(t *testing.T) {
	testCases := []struct {
		name    string
		entries []Lot
		want    []Lot
	}{
		{
			name:    "no entries",
			entries: nil,
			want:    []Lot{},
		},
		{
			name: "zero quantity lots do not exist",
			entries: []Lot{
				lot(100, 100, day(time.January, 1)),
				lot(0, 110, day(time.January, 5)),
				lot(20, 105, day(time.January, 10)),
			},
			want: []Lot{
				lot(100, 100, day(time.January, 1)),
				lot(20, 105, day(time.January, 10)),
			},
		},
		{
			name: "sorted by date",
			entries: []Lot{
				lot(100, 100, day(time.March, 1)),
				lot(50, 110, day(time.January, 10)),
			},
			want: []Lot{
				lot(50, 110, day(time.January, 10)),
				lot(100, 100, day(time.March, 1)),
			},
		},
		{
			name: "ties keep input order",
			entries: []Lot{
				lot(10, 100, day(time.January, 1)),
				lot(20, 101, day(time.January, 1)),
				lot(30, 102, day(time.January, 1)),
			},
			want: []Lot{
				lot(10, 100, day(time.January, 1)),
				lot(20, 101, day(time.January, 1)),
				lot(30, 102, day(time.January, 1)),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildEntryLots(Trade{Entries: tc.entries})
			if diff := cmp.Diff(tc.want, got, cmpMoney); diff != "" {
				t.Errorf("BuildEntryLots() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildExitLots(t *testing.T) {
	tr := Trade{Exits: []Lot{
		lot(30, 130, day(time.April, 1)),
		lot(0, 0, day(time.January, 1)),
		lot(20, 120, day(time.February, 1)),
	}}
	want := []Lot{
		lot(20, 120, day(time.February, 1)),
		lot(30, 130, day(time.April, 1)),
	}
	if diff := cmp.Diff(want, BuildExitLots(tr), cmpMoney); diff != "" {
		t.Errorf("BuildExitLots() mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchFIFO(t *testing.T) {
	jan1, jan10 := day(time.January, 1), day(time.January, 10)
	feb1, mar1 := day(time.February, 1), day(time.March, 1)

	testCases := []struct {
		name      string
		entries   []Lot
		exits     []Lot
		wantFills []Fill
		wantOpen  []Lot
	}{
		{
			name:     "no exits",
			entries:  []Lot{lot(100, 100, jan1)},
			wantOpen: []Lot{lot(100, 100, jan1)},
		},
		{
			name:    "exit consumes the first lot only",
			entries: []Lot{lot(100, 100, jan1), lot(50, 110, jan10)},
			exits:   []Lot{lot(80, 120, feb1)},
			wantFills: []Fill{
				{EntryPrice: NO(100), ExitPrice: NO(120), Quantity: Q(80), EntryDate: jan1, ExitDate: feb1},
			},
			wantOpen: []Lot{lot(20, 100, jan1), lot(50, 110, jan10)},
		},
		{
			name:    "exit split across two entries",
			entries: []Lot{lot(100, 100, jan1), lot(50, 110, jan10)},
			exits:   []Lot{lot(120, 120, feb1)},
			wantFills: []Fill{
				{EntryPrice: NO(100), ExitPrice: NO(120), Quantity: Q(100), EntryDate: jan1, ExitDate: feb1},
				{EntryPrice: NO(110), ExitPrice: NO(120), Quantity: Q(20), EntryDate: jan10, ExitDate: feb1},
			},
			wantOpen: []Lot{lot(30, 110, jan10)},
		},
		{
			name:    "fully closed by two exits",
			entries: []Lot{lot(100, 100, jan1), lot(50, 110, jan10)},
			exits:   []Lot{lot(80, 120, feb1), lot(70, 90, mar1)},
			wantFills: []Fill{
				{EntryPrice: NO(100), ExitPrice: NO(120), Quantity: Q(80), EntryDate: jan1, ExitDate: feb1},
				{EntryPrice: NO(100), ExitPrice: NO(90), Quantity: Q(20), EntryDate: jan1, ExitDate: mar1},
				{EntryPrice: NO(110), ExitPrice: NO(90), Quantity: Q(50), EntryDate: jan10, ExitDate: mar1},
			},
			wantOpen: []Lot{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fills, open, err := MatchFIFO(tc.entries, tc.exits)
			if err != nil {
				t.Fatalf("MatchFIFO() error = %v", err)
			}
			if diff := cmp.Diff(tc.wantFills, fills, cmpMoney); diff != "" {
				t.Errorf("MatchFIFO() fills mismatch (-want +got):\n%s", diff)
			}
			if len(open) == 0 && len(tc.wantOpen) == 0 {
				return
			}
			if diff := cmp.Diff(tc.wantOpen, open, cmpMoney); diff != "" {
				t.Errorf("MatchFIFO() open mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchFIFO_DoesNotMutateInput(t *testing.T) {
	entries := []Lot{lot(100, 100, day(time.January, 1))}
	if _, _, err := MatchFIFO(entries, []Lot{lot(60, 120, day(time.February, 1))}); err != nil {
		t.Fatalf("MatchFIFO() error = %v", err)
	}
	if !entries[0].Quantity.Equal(Q(100)) {
		t.Errorf("MatchFIFO() mutated entries: quantity = %v, want 100", entries[0].Quantity)
	}
}

func TestMatchFIFO_ExcessExit(t *testing.T) {
	_, _, err := MatchFIFO(
		[]Lot{lot(100, 100, day(time.January, 1))},
		[]Lot{lot(80, 120, day(time.February, 1)), lot(30, 125, day(time.March, 1))},
	)
	var excess *ExcessExitError
	if !errors.As(err, &excess) {
		t.Fatalf("MatchFIFO() error = %v, want *ExcessExitError", err)
	}
	if !excess.Exited.Equal(Q(110)) || !excess.Entered.Equal(Q(100)) {
		t.Errorf("ExcessExitError = %+v, want exited 110 entered 100", excess)
	}
}

// TestFIFOConservation checks that matched quantities plus the open quantity
// always equal the entered quantity.
func TestFIFOConservation(t *testing.T) {
	entries := []Lot{
		lot(100, 100, day(time.January, 1)),
		lot(50, 110, day(time.January, 10)),
		lot(25, 95, day(time.February, 3)),
	}
	exitSets := [][]Lot{
		nil,
		{lot(10, 101, day(time.January, 2))},
		{lot(100, 101, day(time.January, 2)), lot(50, 90, day(time.March, 2))},
		{lot(175, 120, day(time.April, 1))},
		{lot(33, 120, day(time.April, 1)), lot(33, 121, day(time.April, 2)), lot(33, 122, day(time.April, 3))},
	}
	for i, exits := range exitSets {
		tr := Trade{Entries: entries, Exits: exits}
		m, err := Calculate(tr, Options{})
		if err != nil {
			t.Fatalf("#%d Calculate() error = %v", i, err)
		}
		var matched Quantity
		for _, f := range m.Fills {
			matched = matched.Add(f.Quantity)
		}
		if got := matched.Add(m.OpenQty); !got.Equal(Q(175)) {
			t.Errorf("#%d matched + open = %v, want 175", i, got)
		}
		if got := m.OpenQty.Add(m.ExitedQty); !got.Equal(m.TotalQty) {
			t.Errorf("#%d open + exited = %v, want %v", i, got, m.TotalQty)
		}
	}
}
