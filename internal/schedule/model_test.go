package schedule

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.May, 5, hour, minute, 0, 0, time.UTC)
}

func TestDue(t *testing.T) {
	entry := Entry{Task: TaskDailyReminder, Hour: 20, Minute: 0, Enabled: true}

	tests := []struct {
		name string
		e    Entry
		now  time.Time
		want bool
	}{
		{"before trigger", entry, at(19, 59), false},
		{"exactly at trigger", entry, at(20, 0), true},
		{"later same day (catch-up)", entry, at(23, 41), true},
		{"disabled", Entry{Task: "X", Hour: 20, Minute: 0, Enabled: false}, at(20, 0), false},
		{
			"already served today",
			Entry{Task: "X", Hour: 20, Minute: 0, Enabled: true, LastFiredOn: "2025-05-05"},
			at(20, 0),
			false,
		},
		{
			"served yesterday fires again",
			Entry{Task: "X", Hour: 20, Minute: 0, Enabled: true, LastFiredOn: "2025-05-04"},
			at(20, 0),
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Due(tc.e, tc.now); got != tc.want {
				t.Fatalf("Due(%+v, %v) = %v, want %v", tc.e, tc.now, got, tc.want)
			}
		})
	}
}

func TestDayKey(t *testing.T) {
	if got := DayKey(at(20, 0)); got != "2025-05-05" {
		t.Fatalf("want 2025-05-05, got %s", got)
	}
}
