//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lagosLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)
	return loc
}

func mondayParams(t *testing.T, loc *time.Location) schedule.GenerateParams {
	t.Helper()
	return schedule.GenerateParams{
		TenantHours: schedule.FullWeek(schedule.MustClockTime(8, 0), schedule.MustClockTime(18, 0), time.Monday),
		Location:    loc,
		Duration:    45 * time.Minute,
		Granularity: 15 * time.Minute,
		From:        time.Date(2026, 3, 2, 0, 0, 0, 0, loc),
		To:          time.Date(2026, 3, 3, 0, 0, 0, 0, loc),
	}
}

func TestCandidateStarts(t *testing.T) {
	loc := lagosLoc(t)

	t.Run("full open day", func(t *testing.T) {
		starts, err := schedule.CandidateStarts(mondayParams(t, loc))
		require.NoError(t, err)

		// 08:00 through 17:15 every 15 minutes.
		require.Len(t, starts, 38)
		assert.True(t, starts[0].Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, loc)))
		assert.True(t, starts[len(starts)-1].Equal(time.Date(2026, 3, 2, 17, 15, 0, 0, loc)))
	})

	t.Run("duration equal to granularity packs the day", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.Duration = 15 * time.Minute
		starts, err := schedule.CandidateStarts(p)
		require.NoError(t, err)
		assert.Len(t, starts, 40)
	})

	t.Run("from inside the day aligns up", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.From = time.Date(2026, 3, 2, 9, 7, 0, 0, loc)
		starts, err := schedule.CandidateStarts(p)
		require.NoError(t, err)
		require.NotEmpty(t, starts)
		assert.True(t, starts[0].Equal(time.Date(2026, 3, 2, 9, 15, 0, 0, loc)))
	})

	t.Run("lead keeps starts on the grid", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.Lead = 10 * time.Minute
		starts, err := schedule.CandidateStarts(p)
		require.NoError(t, err)

		// The claim opens 10 minutes before each start, so the first start
		// that fits is 08:15 (claim 08:05) and the last 17:15 (claim ends
		// 17:50). Every start stays on the 15-minute grid regardless of
		// the lead.
		require.Len(t, starts, 37)
		assert.True(t, starts[0].Equal(time.Date(2026, 3, 2, 8, 15, 0, 0, loc)))
		assert.True(t, starts[len(starts)-1].Equal(time.Date(2026, 3, 2, 17, 15, 0, 0, loc)))

		midnight := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
		for _, s := range starts {
			assert.Zero(t, s.Sub(midnight)%p.Granularity, "start %s is off the grid", s)
		}
	})

	t.Run("busy blocks carve out candidates", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.Busy = schedule.NewIntervalSet(schedule.MustTimeSlot(
			time.Date(2026, 3, 2, 10, 0, 0, 0, loc),
			time.Date(2026, 3, 2, 11, 0, 0, 0, loc),
		))
		starts, err := schedule.CandidateStarts(p)
		require.NoError(t, err)

		for _, s := range starts {
			candidate := schedule.MustTimeSlot(s, s.Add(p.Duration))
			assert.False(t, p.Busy.Overlaps(candidate), "candidate %s overlaps busy block", s)
		}
		// 09:15..10:45 are all excluded: each would overlap [10:00, 11:00).
		assert.True(t, containsStart(starts, time.Date(2026, 3, 2, 9, 0, 0, 0, loc)))
		assert.False(t, containsStart(starts, time.Date(2026, 3, 2, 9, 30, 0, 0, loc)))
		assert.False(t, containsStart(starts, time.Date(2026, 3, 2, 10, 45, 0, 0, loc)))
		assert.True(t, containsStart(starts, time.Date(2026, 3, 2, 11, 0, 0, 0, loc)))
	})

	t.Run("resource hours intersect tenant hours", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.ResourceHours = schedule.FullWeek(schedule.MustClockTime(10, 0), schedule.MustClockTime(14, 0), time.Monday)
		starts, err := schedule.CandidateStarts(p)
		require.NoError(t, err)
		require.NotEmpty(t, starts)
		assert.True(t, starts[0].Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, loc)))
		assert.True(t, starts[len(starts)-1].Equal(time.Date(2026, 3, 2, 13, 15, 0, 0, loc)))
	})

	t.Run("closed day yields nothing", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.From = time.Date(2026, 3, 3, 0, 0, 0, 0, loc) // Tuesday
		p.To = time.Date(2026, 3, 4, 0, 0, 0, 0, loc)
		starts, err := schedule.CandidateStarts(p)
		require.NoError(t, err)
		assert.Empty(t, starts)
	})

	t.Run("deterministic", func(t *testing.T) {
		p := mondayParams(t, loc)
		a, err := schedule.CandidateStarts(p)
		require.NoError(t, err)
		b, err := schedule.CandidateStarts(p)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		p := mondayParams(t, loc)
		p.To = p.From.Add(-time.Hour)
		_, err := schedule.CandidateStarts(p)
		assert.ErrorIs(t, err, schedule.ErrInvalidRange)

		p = mondayParams(t, loc)
		p.Duration = 0
		_, err = schedule.CandidateStarts(p)
		assert.ErrorIs(t, err, schedule.ErrInvalidSlot)

		p = mondayParams(t, loc)
		p.Lead = -time.Minute
		_, err = schedule.CandidateStarts(p)
		assert.ErrorIs(t, err, schedule.ErrInvalidSlot)

		p = mondayParams(t, loc)
		p.Lead = p.Duration + time.Minute
		_, err = schedule.CandidateStarts(p)
		assert.ErrorIs(t, err, schedule.ErrInvalidSlot)
	})
}

func containsStart(starts []time.Time, want time.Time) bool {
	for _, s := range starts {
		if s.Equal(want) {
			return true
		}
	}
	return false
}
