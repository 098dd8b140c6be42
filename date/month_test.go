package date

import (
	"slices"
	"testing"
	"time"
)

func TestMonthNavigation(t *testing.T) {
	dec := Month{Year: 2023, Month: time.December}
	jan := Month{Year: 2024, Month: time.January}

	if got := dec.Next(); got != jan {
		t.Errorf("%v.Next() = %v, want %v", dec, got, jan)
	}
	if got := jan.Prev(); got != dec {
		t.Errorf("%v.Prev() = %v, want %v", jan, got, dec)
	}
	if !dec.Before(jan) || jan.Before(dec) || !jan.After(dec) {
		t.Errorf("ordering of %v and %v is wrong", dec, jan)
	}
	if got, want := NewMonth(2024, 13), (Month{Year: 2025, Month: time.January}); got != want {
		t.Errorf("NewMonth(2024, 13) = %v, want %v", got, want)
	}
	if got, want := (Month{Year: 2024, Month: time.February}).Last(), New(2024, time.February, 29); got != want {
		t.Errorf("Last() = %v, want %v", got, want)
	}
}

func TestMonthSort(t *testing.T) {
	months := []Month{{2024, time.March}, {2023, time.December}, {2024, time.January}}
	slices.SortFunc(months, Month.Compare)
	want := []Month{{2023, time.December}, {2024, time.January}, {2024, time.March}}
	if !slices.Equal(months, want) {
		t.Errorf("SortFunc(Compare) = %v, want %v", months, want)
	}
}

func TestParseMonth(t *testing.T) {
	testCases := []struct {
		input   string
		want    Month
		wantErr bool
	}{
		{input: "2024-03", want: Month{2024, time.March}},
		{input: "2024-3", want: Month{2024, time.March}},
		{input: "March 2024", want: Month{2024, time.March}},
		{input: "feb 2024", want: Month{2024, time.February}},
		{input: "2024-13", wantErr: true},
		{input: "Mars 2024", wantErr: true},
		{input: "March", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseMonth(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseMonth(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
