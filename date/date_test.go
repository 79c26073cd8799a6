package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// time.Time carries a location pointer, the canonical form must not.
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestNewNormalizes(t *testing.T) {
	if got, want := New(2024, time.February, 30), New(2024, time.March, 1); got != want {
		t.Errorf("New(2024, 2, 30) = %v want %v", got, want)
	}
	if got, want := New(2025, time.January, 0), New(2024, time.December, 31); got != want {
		t.Errorf("New(2025, 1, 0) = %v want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2024-01-02", want: New(2024, time.January, 2)},
		{in: "2025-7-1", want: New(2025, time.July, 1)},
		{in: " 2024-12-31 ", want: New(2024, time.December, 31)},
		{in: "2025-02-30", wantErr: true},
		{in: "2025/01/01", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %v want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseRelative(t *testing.T) {
	today := Today()
	testCases := []struct {
		in   string
		want Date
	}{
		{in: "0d", want: today},
		{in: "-1d", want: today.Add(-1)},
		{in: "+2w", want: today.Add(14)},
		{in: "-3m", want: today.AddMonth(-3)},
		{in: "-1q", want: today.AddMonth(-3)},
		{in: "-1y", want: New(today.Year()-1, today.Month(), today.Day())},
		{in: "2024-01-02", want: New(2024, time.January, 2)},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRelative(tc.in)
			if err != nil {
				t.Fatalf("ParseRelative(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseRelative(%q) = %v want %v", tc.in, got, tc.want)
			}
		})
	}

	if _, err := ParseRelative("-1x"); err == nil {
		t.Errorf("ParseRelative(-1x) want error")
	}
}

func TestIsZero(t *testing.T) {
	if !(Date{}).IsZero() {
		t.Errorf("Date{}.IsZero() = false want true")
	}
	if New(2024, 1, 1).IsZero() {
		t.Errorf("New(2024,1,1).IsZero() = true want false")
	}
}

func TestJSON(t *testing.T) {
	d := New(2024, time.March, 5)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("json.Marshal() unexpected error: %v", err)
	}
	if string(data) != `"2024-03-05"` {
		t.Errorf("json.Marshal() = %s want %q", data, `"2024-03-05"`)
	}

	var got Date
	if err := json.Unmarshal([]byte(`"2024-02-31"`), &got); err == nil {
		t.Errorf("json.Unmarshal(2024-02-31) want error")
	}
}
