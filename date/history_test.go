package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Appending two values in reverse order must keep the history sorted.

	h.Append(d1, v1).Append(d2, v2)

	if h.days[0] != d2 || h.days[1] != d1 {
		t.Errorf("history days = %v want [%v %v]", h.days, d2, d1)
	}
	if h.values[0] != v2 || h.values[1] != v1 {
		t.Errorf("history values = %v want [%v %v]", h.values, v2, v1)
	}

	h.Append(d1, "overwritten")
	if got, _ := h.Get(d1); len(h.days) != 2 || got != "overwritten" {
		t.Errorf("Append(d1, overwritten) len=%d Get()=%q want 2 overwritten", len(h.days), got)
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2024, 1, 2), 100)
	h.Append(New(2024, 1, 5), 110)

	testCases := []struct {
		name   string
		on     Date
		want   float64
		wantOK bool
	}{
		{name: "before first", on: New(2024, 1, 1), wantOK: false},
		{name: "exact first", on: New(2024, 1, 2), want: 100, wantOK: true},
		{name: "gap", on: New(2024, 1, 4), want: 100, wantOK: true},
		{name: "exact last", on: New(2024, 1, 5), want: 110, wantOK: true},
		{name: "after last", on: New(2024, 2, 1), want: 110, wantOK: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := h.ValueAsOf(tc.on)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ValueAsOf(%v) = %v, %v want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
