package models

import "time"

// DateLayout is the wire format for calendar dates at the repository boundary.
const DateLayout = "2006-01-02"

// Slot is a half-open interval [Start, End) at which a service instance
// could start. Duration and buffers are minutes.
type Slot struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Date         string    `json:"date"`
	ServiceID    string    `json:"service_id"`
	SpecialistID string    `json:"specialist_id,omitempty"`
	Duration     int       `json:"duration"`
	BufferBefore int       `json:"buffer_before"`
	BufferAfter  int       `json:"buffer_after"`
}

// ParseDate parses a "2006-01-02" date in the given location, midnight-anchored.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, loc)
}

// WeekdayOf returns the platform weekday (0=Sunday ... 6=Saturday) for a
// date. Go's time.Weekday already numbers Sunday as 0, so this is the single
// conversion point between time.Time and the stored weekday rows.
func WeekdayOf(t time.Time) int {
	return int(t.Weekday())
}

// MinuteOfDay returns whole minutes elapsed since the day's midnight.
// Seconds are discarded; the core never relies on sub-minute precision.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// AtMinute anchors a minutes-from-midnight offset onto a date.
func AtMinute(day time.Time, minute int) time.Time {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(minute) * time.Minute)
}
