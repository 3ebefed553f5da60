package application

import "time"

// Clock supplies the current time. Injecting it keeps past-date validation
// and calendar-month aggregation deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
