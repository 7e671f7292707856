//go:build unit

package schedule_test

import (
	"sync"
	"testing"
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSet(t *testing.T) {
	slot := func(h1, h2 int) schedule.TimeSlot {
		return schedule.MustTimeSlot(at(t, h1, 0), at(t, h2, 0))
	}

	set := schedule.NewIntervalSet(slot(14, 15), slot(10, 11))

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Overlaps(schedule.MustTimeSlot(at(t, 10, 30), at(t, 11, 30))))
	assert.False(t, set.Overlaps(slot(11, 12)))
	assert.False(t, set.Overlaps(slot(12, 14)))

	set.Add(slot(12, 13))
	assert.True(t, set.Overlaps(schedule.MustTimeSlot(at(t, 12, 30), at(t, 12, 45))))

	set.Remove(slot(12, 13))
	assert.False(t, set.Overlaps(schedule.MustTimeSlot(at(t, 12, 30), at(t, 12, 45))))
	assert.Equal(t, 2, set.Len())
}

func TestCalendarTryClaim(t *testing.T) {
	cal := schedule.NewCalendar()
	chair := uuid.New()
	other := uuid.New()
	slot := schedule.MustTimeSlot(at(t, 10, 0), at(t, 11, 0))

	require.True(t, cal.TryClaim(chair, slot))
	assert.False(t, cal.TryClaim(chair, slot), "second identical claim loses")
	assert.False(t, cal.TryClaim(chair, schedule.MustTimeSlot(at(t, 10, 30), at(t, 11, 30))))
	assert.True(t, cal.TryClaim(chair, schedule.MustTimeSlot(at(t, 11, 0), at(t, 12, 0))), "adjacent claims do not collide")
	assert.True(t, cal.TryClaim(other, slot), "resources are independent")

	cal.Release(chair, slot)
	assert.True(t, cal.TryClaim(chair, slot), "released intervals can be reclaimed")
}

func TestCalendarConcurrentClaims(t *testing.T) {
	cal := schedule.NewCalendar()
	chair := uuid.New()
	slot := schedule.MustTimeSlot(at(t, 10, 0), at(t, 11, 0))

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, claimers)

	for range claimers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- cal.TryClaim(chair, slot)
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent claimant wins")
	require.Len(t, cal.Committed(chair), 1)
}

func TestCalendarConcurrentDistinctSlots(t *testing.T) {
	cal := schedule.NewCalendar()
	chair := uuid.New()

	const slots = 16
	var wg sync.WaitGroup
	for i := range slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := at(t, 8, 0).Add(time.Duration(i) * time.Hour / 2)
			assert.True(t, cal.TryClaim(chair, schedule.MustTimeSlot(start, start.Add(30*time.Minute))))
		}()
	}
	wg.Wait()

	assert.Len(t, cal.Committed(chair), slots)
}
