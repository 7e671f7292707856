//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/pkg/clock"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/tests/common/builder"
	"bookingbot-engine/tests/common/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepFixture struct {
	world *fake.World
	clk   *clock.MockClock
	cmds  commands.SweepCommands
}

func newSweepFixture(now time.Time) *sweepFixture {
	w := fake.NewWorld()
	clk := clock.NewMockClock(now)
	cfg := config.NewTestConfig()
	return &sweepFixture{
		world: w,
		clk:   clk,
		cmds:  commands.NewSweepCommands(w, w, clk, cfg.Booking),
	}
}

// seedPendingHold installs the builder's catalog rows plus a booking holding
// its slot pending payment with one initiated attempt.
func (f *sweepFixture) seedPendingHold(t *testing.T, bldr *builder.BookingBuilder) (*booking.Booking, *payment.Record) {
	t.Helper()
	f.world.AddTenant(bldr.BuildTenantSnapshot())
	f.world.AddService(bldr.BuildServiceSnapshot())
	f.world.AddResource(bldr.BuildResourceSnapshot())

	b, err := bldr.BuildDomain()
	require.NoError(t, err)
	require.NoError(t, b.RequirePayment(bldr.Now))
	f.world.AddBooking(b)

	amount, err := payment.NewMoney(bldr.PriceKobo)
	require.NoError(t, err)
	rec, err := payment.NewRecord(b.ID(), amount, "paystack", 1, bldr.Now)
	require.NoError(t, err)
	f.world.AddPayment(rec)
	return b, rec
}

func TestExpirePendingPayments(t *testing.T) {
	ctx := context.Background()

	t.Run("hold past the tenant timeout is cancelled", func(t *testing.T) {
		bldr := builder.NewBookingBuilder() // 30m payment timeout
		f := newSweepFixture(bldr.Now.Add(31 * time.Minute))
		b, rec := f.seedPendingHold(t, bldr)

		n, err := f.cmds.ExpirePendingPayments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		stored := f.world.BookingStore[b.ID()]
		assert.Equal(t, booking.StatusCancelled, stored.Status())
		assert.Equal(t, booking.CancelPaymentTimeout, stored.CancelReason())
		assert.Equal(t, payment.StatusSuperseded, f.world.PaymentStore[rec.ID()].Status())
		assert.Equal(t, []string{"booking.cancelled"}, f.world.Topics())
	})

	t.Run("hold still inside the timeout is untouched", func(t *testing.T) {
		bldr := builder.NewBookingBuilder()
		f := newSweepFixture(bldr.Now.Add(10 * time.Minute))
		b, _ := f.seedPendingHold(t, bldr)

		n, err := f.cmds.ExpirePendingPayments(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, booking.StatusPendingPayment, f.world.BookingStore[b.ID()].Status())
	})

	t.Run("tenant timeout overrides the platform default", func(t *testing.T) {
		bldr := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
			b.PaymentTimeoutMin = 60
		})
		f := newSweepFixture(bldr.Now.Add(45 * time.Minute))
		b, _ := f.seedPendingHold(t, bldr)

		n, err := f.cmds.ExpirePendingPayments(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "45m is inside the tenant's 60m window")

		f.clk.Set(bldr.Now.Add(61 * time.Minute))
		n, err = f.cmds.ExpirePendingPayments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, booking.StatusCancelled, f.world.BookingStore[b.ID()].Status())
	})

	t.Run("flagged holds are left for manual review", func(t *testing.T) {
		bldr := builder.NewBookingBuilder()
		f := newSweepFixture(bldr.Now.Add(31 * time.Minute))
		b, _ := f.seedPendingHold(t, bldr)
		f.world.BookingStore[b.ID()].Flag("amount mismatch under review", bldr.Now)
		f.world.BookingStore[b.ID()].PullEvents()

		n, err := f.cmds.ExpirePendingPayments(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, booking.StatusPendingPayment, f.world.BookingStore[b.ID()].Status())
	})

	t.Run("each tenant expires on its own clock", func(t *testing.T) {
		fast := builder.NewBookingBuilder()
		slow := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
			b.PaymentTimeoutMin = 120
		})
		f := newSweepFixture(fast.Now.Add(40 * time.Minute))
		fastBooking, _ := f.seedPendingHold(t, fast)
		slowBooking, _ := f.seedPendingHold(t, slow)

		n, err := f.cmds.ExpirePendingPayments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, booking.StatusCancelled, f.world.BookingStore[fastBooking.ID()].Status())
		assert.Equal(t, booking.StatusPendingPayment, f.world.BookingStore[slowBooking.ID()].Status())
	})
}

func TestCompleteElapsed(t *testing.T) {
	ctx := context.Background()

	seedConfirmed := func(t *testing.T, f *sweepFixture, bldr *builder.BookingBuilder) *booking.Booking {
		t.Helper()
		f.world.AddTenant(bldr.BuildTenantSnapshot())
		f.world.AddService(bldr.BuildServiceSnapshot())
		f.world.AddResource(bldr.BuildResourceSnapshot())
		b, err := bldr.BuildDomain()
		require.NoError(t, err)
		require.NoError(t, b.Confirm(bldr.Now))
		f.world.AddBooking(b)
		return b
	}

	t.Run("confirmed booking past its end time completes", func(t *testing.T) {
		bldr := builder.NewBookingBuilder()
		f := newSweepFixture(bldr.Slot().End().Add(time.Minute))
		b := seedConfirmed(t, f, bldr)

		n, err := f.cmds.CompleteElapsed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, booking.StatusCompleted, f.world.BookingStore[b.ID()].Status())
		assert.Equal(t, []string{"booking.completed"}, f.world.Topics())
	})

	t.Run("upcoming confirmed booking is untouched", func(t *testing.T) {
		bldr := builder.NewBookingBuilder()
		f := newSweepFixture(bldr.Start.Add(-time.Hour))
		b := seedConfirmed(t, f, bldr)

		n, err := f.cmds.CompleteElapsed(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, booking.StatusConfirmed, f.world.BookingStore[b.ID()].Status())
	})

	t.Run("running both sweeps twice is idempotent", func(t *testing.T) {
		bldr := builder.NewBookingBuilder()
		f := newSweepFixture(bldr.Slot().End().Add(time.Minute))
		seedConfirmed(t, f, bldr)

		n, err := f.cmds.CompleteElapsed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = f.cmds.CompleteElapsed(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
