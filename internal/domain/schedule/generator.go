package schedule

import (
	"time"
)

const DefaultGranularity = 15 * time.Minute

// GenerateParams describes one slot-generation pass. Candidate starts are a
// pure function of these inputs; rerunning with the same inputs yields the
// same sequence.
type GenerateParams struct {
	TenantHours   WeekSchedule
	ResourceHours WeekSchedule
	Busy          *IntervalSet
	Location      *time.Location
	// Duration is the full claimed interval, buffers included.
	Duration time.Duration
	// Lead is the claim's head start before the advertised instant (the
	// prep buffer): each start claims [start-Lead, start-Lead+Duration).
	Lead        time.Duration
	Granularity time.Duration
	From        time.Time
	To          time.Time
}

// CandidateStarts produces every grid-aligned start time in [From, To)
// whose claimed interval fits within both tenant and resource hours and
// does not overlap a committed block. The grid is walked over the starts
// themselves, never over the claim boundaries, so every produced start
// passes the same alignment check booking creation applies.
func CandidateStarts(p GenerateParams) ([]time.Time, error) {
	if p.To.Before(p.From) {
		return nil, ErrInvalidRange
	}
	if p.Duration <= 0 || p.Lead < 0 || p.Lead > p.Duration {
		return nil, ErrInvalidSlot
	}
	if p.Granularity <= 0 {
		p.Granularity = DefaultGranularity
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	var out []time.Time
	from := p.From.In(loc)
	to := p.To.In(loc)

	for day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc); day.Before(to); day = day.AddDate(0, 0, 1) {
		y, m, d := day.Date()
		for _, span := range p.TenantHours.SpansOn(y, m, d, loc) {
			starts := candidatesInSpan(span, p, from, to, loc)
			out = append(out, starts...)
		}
	}
	return out, nil
}

func candidatesInSpan(span TimeSlot, p GenerateParams, from, to time.Time, loc *time.Location) []time.Time {
	earliest := span.Start()
	if earliest.Before(from) {
		earliest = from
	}
	start := alignUp(earliest.Add(p.Lead), p.Granularity, loc)

	var out []time.Time
	for ; ; start = start.Add(p.Granularity) {
		claim := TimeSlot{start: start.Add(-p.Lead), end: start.Add(p.Duration - p.Lead)}
		if claim.End().After(span.End()) || claim.End().After(to) {
			break
		}
		if p.ResourceHours != nil && !p.ResourceHours.Covers(claim, loc) {
			continue
		}
		if p.Busy != nil && p.Busy.Overlaps(claim) {
			continue
		}
		out = append(out, start)
	}
	return out
}

// alignUp rounds the instant up to the next wall-clock granularity boundary
// (counted from midnight) in the given location.
func alignUp(t time.Time, granularity time.Duration, loc *time.Location) time.Time {
	t = t.In(loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	offset := t.Sub(midnight)
	aligned := offset / granularity * granularity
	if aligned < offset {
		aligned += granularity
	}
	return midnight.Add(aligned)
}
