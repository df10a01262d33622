package domain

import (
	"time"

	"github.com/go-faster/errors"
)

// DateLayout is the ISO calendar date accepted by day-scoped operations.
const DateLayout = "2006-01-02"

// TimeRange is a closed interval [Start, End] with Start strictly before End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange validates start < end.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps uses inclusive boundaries, so ranges that only touch overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// DayBounds returns the first and last instant of the UTC calendar day containing date.
func DayBounds(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// ParseDate parses an ISO date (YYYY-MM-DD) as a UTC day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrap(NewValidationError("date", "must be YYYY-MM-DD"), s)
	}
	return d, nil
}
