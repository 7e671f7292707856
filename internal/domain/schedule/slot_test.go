//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestTimeSlot(t *testing.T) {
	t.Run("start must precede end", func(t *testing.T) {
		_, err := schedule.NewTimeSlot(at(t, 10, 0), at(t, 10, 0))
		assert.ErrorIs(t, err, schedule.ErrInvalidSlot)

		_, err = schedule.NewTimeSlot(at(t, 11, 0), at(t, 10, 0))
		assert.ErrorIs(t, err, schedule.ErrInvalidSlot)

		slot, err := schedule.NewTimeSlot(at(t, 10, 0), at(t, 10, 45))
		require.NoError(t, err)
		assert.Equal(t, 45*time.Minute, slot.Duration())
	})

	t.Run("half-open overlap", func(t *testing.T) {
		base := schedule.MustTimeSlot(at(t, 10, 0), at(t, 11, 0))

		assert.True(t, base.Overlaps(schedule.MustTimeSlot(at(t, 10, 30), at(t, 11, 30))))
		assert.True(t, base.Overlaps(schedule.MustTimeSlot(at(t, 9, 0), at(t, 10, 1))))
		assert.True(t, base.Overlaps(schedule.MustTimeSlot(at(t, 10, 15), at(t, 10, 45))))

		// Touching endpoints do not overlap.
		assert.False(t, base.Overlaps(schedule.MustTimeSlot(at(t, 11, 0), at(t, 12, 0))))
		assert.False(t, base.Overlaps(schedule.MustTimeSlot(at(t, 9, 0), at(t, 10, 0))))
	})

	t.Run("contains", func(t *testing.T) {
		span := schedule.MustTimeSlot(at(t, 8, 0), at(t, 18, 0))
		assert.True(t, span.Contains(schedule.MustTimeSlot(at(t, 8, 0), at(t, 9, 0))))
		assert.True(t, span.Contains(schedule.MustTimeSlot(at(t, 17, 0), at(t, 18, 0))))
		assert.False(t, span.Contains(schedule.MustTimeSlot(at(t, 17, 30), at(t, 18, 30))))
	})

	t.Run("extend widens both sides", func(t *testing.T) {
		slot := schedule.MustTimeSlot(at(t, 10, 0), at(t, 10, 45))
		claim := slot.Extend(10*time.Minute, 15*time.Minute)

		assert.True(t, claim.Start().Equal(at(t, 9, 50)))
		assert.True(t, claim.End().Equal(at(t, 11, 0)))
		assert.True(t, claim.Contains(slot))
	})

	t.Run("tstzrange literal", func(t *testing.T) {
		slot := schedule.MustTimeSlot(at(t, 10, 0), at(t, 11, 0))
		assert.Equal(t, "[2026-03-02T10:00:00Z,2026-03-02T11:00:00Z)", slot.ToTstzrange())
	})
}
