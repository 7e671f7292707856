package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidClockTime = errors.New("invalid clock time")
	ErrInvalidDayHours  = errors.New("open time must be before close time")
	ErrInvalidBreak     = errors.New("break must fall within open hours")
)

// ClockTime is a wall-clock time of day expressed as minutes from midnight.
type ClockTime int

func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrInvalidClockTime
	}
	return ClockTime(hour*60 + minute), nil
}

func MustClockTime(hour, minute int) ClockTime {
	ct, err := NewClockTime(hour, minute)
	if err != nil {
		panic(err)
	}
	return ct
}

func (ct ClockTime) Hour() int   { return int(ct) / 60 }
func (ct ClockTime) Minute() int { return int(ct) % 60 }

func (ct ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", ct.Hour(), ct.Minute())
}

// At anchors the clock time to a calendar day in the given location.
func (ct ClockTime) At(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, ct.Hour(), ct.Minute(), 0, 0, loc)
}

// DayHours is one weekday's operating window with an optional break.
// Hours never cross midnight.
type DayHours struct {
	Open       bool       `json:"open"`
	OpensAt    ClockTime  `json:"opens_at"`
	ClosesAt   ClockTime  `json:"closes_at"`
	BreakStart *ClockTime `json:"break_start,omitempty"`
	BreakEnd   *ClockTime `json:"break_end,omitempty"`
}

func (d DayHours) Validate() error {
	if !d.Open {
		return nil
	}
	if d.OpensAt >= d.ClosesAt {
		return ErrInvalidDayHours
	}
	if (d.BreakStart == nil) != (d.BreakEnd == nil) {
		return ErrInvalidBreak
	}
	if d.BreakStart != nil {
		if *d.BreakStart >= *d.BreakEnd || *d.BreakStart < d.OpensAt || *d.BreakEnd > d.ClosesAt {
			return ErrInvalidBreak
		}
	}
	return nil
}

// spans returns the open windows of the day as [start, end) clock pairs,
// split around the break when one is configured.
func (d DayHours) spans() [][2]ClockTime {
	if !d.Open {
		return nil
	}
	if d.BreakStart == nil || d.BreakEnd == nil {
		return [][2]ClockTime{{d.OpensAt, d.ClosesAt}}
	}
	return [][2]ClockTime{
		{d.OpensAt, *d.BreakStart},
		{*d.BreakEnd, d.ClosesAt},
	}
}

// WeekSchedule maps weekdays to operating hours. A missing weekday is closed.
type WeekSchedule map[time.Weekday]DayHours

func (ws WeekSchedule) Validate() error {
	for day, hours := range ws {
		if err := hours.Validate(); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	return nil
}

// SpansOn resolves the schedule to absolute open intervals for one calendar
// day in the given location.
func (ws WeekSchedule) SpansOn(year int, month time.Month, day int, loc *time.Location) []TimeSlot {
	date := time.Date(year, month, day, 0, 0, 0, 0, loc)
	hours, ok := ws[date.Weekday()]
	if !ok {
		return nil
	}

	var out []TimeSlot
	for _, span := range hours.spans() {
		start := span[0].At(year, month, day, loc)
		end := span[1].At(year, month, day, loc)
		if start.Before(end) {
			out = append(out, TimeSlot{start: start, end: end})
		}
	}
	return out
}

// Covers reports whether the slot falls entirely inside one open span of
// the schedule, interpreted in the given location.
func (ws WeekSchedule) Covers(slot TimeSlot, loc *time.Location) bool {
	y, m, d := slot.Start().In(loc).Date()
	for _, span := range ws.SpansOn(y, m, d, loc) {
		if span.Contains(slot) {
			return true
		}
	}
	return false
}

// FullWeek is a convenience constructor for uniform weekday hours,
// Monday through whichever weekdays are passed.
func FullWeek(opens, closes ClockTime, days ...time.Weekday) WeekSchedule {
	if len(days) == 0 {
		days = []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday, time.Sunday,
		}
	}
	ws := make(WeekSchedule, len(days))
	for _, day := range days {
		ws[day] = DayHours{Open: true, OpensAt: opens, ClosesAt: closes}
	}
	return ws
}
