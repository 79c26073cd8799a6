package date

import (
	"slices"
	"testing"
	"time"
)

func TestNewRange(t *testing.T) {
	testCases := []struct {
		name   string
		in     Date
		period Period
		want   Range
	}{
		{"day", New(2025, time.September, 8), Daily, Range{From: New(2025, time.September, 8), To: New(2025, time.September, 8)}},
		{"wednesday", New(2025, time.September, 10), Weekly, Range{From: New(2025, time.September, 8), To: New(2025, time.September, 14)}},
		{"sunday", New(2025, time.September, 14), Weekly, Range{From: New(2025, time.September, 8), To: New(2025, time.September, 14)}},
		{"leap february", New(2024, time.February, 15), Monthly, Range{From: New(2024, time.February, 1), To: New(2024, time.February, 29)}},
		{"second quarter", New(2025, time.May, 20), Quarterly, Range{From: New(2025, time.April, 1), To: New(2025, time.June, 30)}},
		{"fourth quarter", New(2025, time.November, 2), Quarterly, Range{From: New(2025, time.October, 1), To: New(2025, time.December, 31)}},
		{"year", New(2025, time.September, 8), Yearly, Range{From: New(2025, time.January, 1), To: New(2025, time.December, 31)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewRange(tc.in, tc.period)
			if got != tc.want {
				t.Errorf("NewRange(%v, %v) = %v, want %v", tc.in, tc.period, got, tc.want)
			}
		})
	}
}

func TestRangeIdentifier(t *testing.T) {
	testCases := []struct {
		in   Range
		want string
	}{
		{NewRange(New(2025, time.September, 8), Daily), "2025-09-08"},
		{NewRange(New(2025, time.January, 6), Weekly), "2025-W02"},
		{NewRange(New(2025, time.December, 31), Weekly), "2026-W01"},
		{NewRange(New(2027, time.January, 1), Weekly), "2026-W53"},
		{NewRange(New(2024, time.February, 1), Monthly), "2024-02"},
		{NewRange(New(2025, time.July, 1), Quarterly), "2025-Q3"},
		{NewRange(New(2025, time.January, 1), Yearly), "2025"},
		{Range{From: New(2025, time.September, 2), To: New(2025, time.September, 10)}, "2025-09-02_2025-09-10"},
		{Range{From: New(2025, time.January, 1), To: New(2026, time.December, 31)}, "2025-01-01_2026-12-31"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.in.Identifier(); got != tc.want {
				t.Errorf("Identifier() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	testCases := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{"Week", Weekly, false},
		{"month", Monthly, false},
		{"QUARTERLY", Quarterly, false},
		{"year", Yearly, false},
		{"fortnight", Daily, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePeriod(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParsePeriod(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	d := func(m time.Month, day int) Date { return New(2024, m, day) }
	testCases := []struct {
		name     string
		from, to Date
		period   Period
		want     []Range
	}{
		{"single day", d(1, 15), d(1, 15), Monthly, []Range{{d(1, 15), d(1, 15)}}},
		{"inside a month", d(1, 15), d(1, 20), Monthly, []Range{{d(1, 15), d(1, 20)}}},
		{"across months", d(1, 15), d(3, 10), Monthly, []Range{{d(1, 15), d(1, 31)}, {d(1, 31), d(2, 29)}, {d(2, 29), d(3, 10)}}},
		{"starting on a boundary", d(1, 31), d(2, 29), Monthly, []Range{{d(1, 31), d(2, 29)}}},
		{"days", d(1, 1), d(1, 3), Daily, []Range{{d(1, 1), d(1, 2)}, {d(1, 2), d(1, 3)}}},
		{"quarters", d(2, 1), d(7, 1), Quarterly, []Range{{d(2, 1), d(3, 31)}, {d(3, 31), d(6, 30)}, {d(6, 30), d(7, 1)}}},
		{"reversed", d(2, 1), d(1, 1), Monthly, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.from, tc.to, tc.period)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Split(%v, %v, %v) = %v, want %v", tc.from, tc.to, tc.period, got, tc.want)
			}
		})
	}
}
