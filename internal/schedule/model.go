package schedule

import "time"

// TaskDailyReminder is the entry bound to the daily diary reminder cycle.
const TaskDailyReminder = "DAILY_REMINDER"

// Entry is a persisted "run task T at HH:MM daily" record. At most one entry
// exists per task; it survives restarts and is editable at runtime.
type Entry struct {
	ID      uint64 `gorm:"primaryKey"`
	Task    string `gorm:"uniqueIndex;not null"`
	Hour    int    `gorm:"not null"`
	Minute  int    `gorm:"not null"`
	Enabled bool   `gorm:"not null;default:true"`

	// LastFiredOn is the local calendar day (YYYY-MM-DD) the entry was last
	// served. The firing guard compares against it, so one day gets one fire.
	LastFiredOn string `gorm:"not null;default:''"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// DayKey formats the local date used for the once-per-day firing guard.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Due reports whether an evaluation at local time now should fire the entry.
// Any tick at or after the trigger time on a not-yet-served day is due, so a
// process restarted across the trigger time fires on its next evaluation
// instead of silently skipping the day.
func Due(e Entry, now time.Time) bool {
	if !e.Enabled {
		return false
	}
	if e.LastFiredOn == DayKey(now) {
		return false
	}
	nowM := now.Hour()*60 + now.Minute()
	return nowM >= e.Hour*60+e.Minute
}
