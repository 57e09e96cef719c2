package memory

import (
	"testing"
	"time"
)

func TestSameCalendarDayAtLocalMidnight(t *testing.T) {
	zone := time.FixedZone("AEST", 10*60*60)

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same local day",
			a:    time.Date(2026, time.August, 27, 9, 0, 0, 0, zone),
			b:    time.Date(2026, time.August, 27, 23, 59, 0, 0, zone),
			want: true,
		},
		{
			// Both instants land on the same UTC-epoch day, so a
			// Truncate(24h) comparison would miss the rollover.
			name: "local midnight crossed",
			a:    time.Date(2026, time.August, 27, 23, 30, 0, 0, zone),
			b:    time.Date(2026, time.August, 28, 0, 10, 0, 0, zone),
			want: false,
		},
		{
			name: "different days",
			a:    time.Date(2026, time.August, 26, 12, 0, 0, 0, zone),
			b:    time.Date(2026, time.August, 28, 12, 0, 0, 0, zone),
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sameCalendarDay(tc.a, tc.b); got != tc.want {
				t.Fatalf("sameCalendarDay(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
