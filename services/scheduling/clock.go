package scheduling

import "time"

// Clock abstracts the current instant so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock. Instants are truncated to the minute;
// the core never relies on sub-minute precision.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().Truncate(time.Minute)
}
