package models

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		clock   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"09:15", 555, false},
		{"23:45", 1425, false},
		{"24:00", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.clock)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.clock)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.clock, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.clock, got, tt.want)
		}
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, minutes := range []int{0, 540, 555, 1425} {
		parsed, err := ParseClock(FormatClock(minutes))
		if err != nil {
			t.Fatalf("round trip of %d: %v", minutes, err)
		}
		if parsed != minutes {
			t.Fatalf("round trip of %d gave %d", minutes, parsed)
		}
	}
}

func TestAbsoluteMinutesSpansDays(t *testing.T) {
	eveningBefore, err := AbsoluteMinutes("2026-06-01", 21*60)
	if err != nil {
		t.Fatal(err)
	}
	morningAfter, err := AbsoluteMinutes("2026-06-02", 9*60)
	if err != nil {
		t.Fatal(err)
	}

	// 21:00 to 09:00 the next day is 12 hours.
	if gap := morningAfter - eveningBefore; gap != 12*60 {
		t.Fatalf("cross-day gap = %d minutes, want %d", gap, 12*60)
	}
}
