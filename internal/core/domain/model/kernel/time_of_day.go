package kernel

import (
	"fmt"
	"time"

	"labtrack/internal/pkg/errs"
)

// TimeOfDay is a wall-clock time with minute precision, e.g. the auto-cancel cutoff.
type TimeOfDay struct {
	hour   int
	minute int
}

// ParseTimeOfDay accepts "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, errs.NewValueIsInvalidErrorWithCause("time of day", err)
	}
	return TimeOfDay{hour: t.Hour(), minute: t.Minute()}, nil
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int {
	return t.hour
}

func (t TimeOfDay) Minute() int {
	return t.minute
}

// On returns the instant at this time of day on the calendar day of ts, in ts's location.
func (t TimeOfDay) On(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, t.hour, t.minute, 0, 0, ts.Location())
}

// Reached reports whether ts is at or past this time of day on its own calendar day.
func (t TimeOfDay) Reached(ts time.Time) bool {
	return !ts.Before(t.On(ts))
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// DayWindow returns [00:00, next 00:00) of ts's calendar day in ts's location.
func DayWindow(ts time.Time) (time.Time, time.Time) {
	y, m, d := ts.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
	return start, start.AddDate(0, 0, 1)
}
