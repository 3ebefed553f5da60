package booking

import (
	"fmt"
	"time"

	"github.com/drivio/service-rental/internal/domain"
)

// DateRange is an inclusive pickup/return calendar-date pair. Both endpoints
// are billable days; the car is out the whole return day. Dates are
// normalized to UTC midnight on construction.
type DateRange struct {
	pickup time.Time
	ret    time.Time
}

// NewDateRange creates a DateRange from pickup and return dates. The return
// date must not precede the pickup date; equal dates are a valid single-day
// rental.
func NewDateRange(pickup, ret time.Time) (DateRange, error) {
	p := truncateToDate(pickup)
	r := truncateToDate(ret)
	if r.Before(p) {
		return DateRange{}, domain.NewValidationError("invalid range")
	}
	return DateRange{pickup: p, ret: r}, nil
}

func truncateToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Pickup returns the pickup date.
func (d DateRange) Pickup() time.Time { return d.pickup }

// Return returns the return date.
func (d DateRange) Return() time.Time { return d.ret }

// Days returns the number of billable days, counting both endpoints.
func (d DateRange) Days() int {
	return int(d.ret.Sub(d.pickup)/(24*time.Hour)) + 1
}

// Overlaps reports whether the two inclusive ranges share at least one day.
func (d DateRange) Overlaps(other DateRange) bool {
	return !d.pickup.After(other.ret) && !other.pickup.After(d.ret)
}

// Contains reports whether the given date falls within the range.
func (d DateRange) Contains(t time.Time) bool {
	day := truncateToDate(t)
	return !day.Before(d.pickup) && !day.After(d.ret)
}

// StartsBefore reports whether the pickup date is strictly earlier than the
// calendar date of t. A pickup on t's own date is not in the past.
func (d DateRange) StartsBefore(t time.Time) bool {
	return d.pickup.Before(truncateToDate(t))
}

func (d DateRange) String() string {
	return fmt.Sprintf("%s..%s", d.pickup.Format("2006-01-02"), d.ret.Format("2006-01-02"))
}
