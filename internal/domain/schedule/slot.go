package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidSlot  = errors.New("slot start must be before slot end")
	ErrInvalidRange = errors.New("range end precedes range start")
)

// TimeSlot is a half-open interval [start, end).
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !start.Before(end) {
		return TimeSlot{}, ErrInvalidSlot
	}
	return TimeSlot{start: start, end: end}, nil
}

func MustTimeSlot(start, end time.Time) TimeSlot {
	ts, err := NewTimeSlot(start, end)
	if err != nil {
		panic(err)
	}
	return ts
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

func (ts TimeSlot) IsZero() bool {
	return ts.start.IsZero() && ts.end.IsZero()
}

// Overlaps reports whether the two half-open intervals share at least one
// time unit. Touching endpoints do not overlap.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && other.start.Before(ts.end)
}

func (ts TimeSlot) Contains(other TimeSlot) bool {
	return !other.start.Before(ts.start) && !other.end.After(ts.end)
}

// Extend widens the slot by the given buffers on each side.
func (ts TimeSlot) Extend(before, after time.Duration) TimeSlot {
	return TimeSlot{start: ts.start.Add(-before), end: ts.end.Add(after)}
}

// ToTstzrange renders the slot as a PostgreSQL half-open tstzrange literal.
func (ts TimeSlot) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}
