package commands

import (
	"context"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/pkg/clock"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

const sweepBatchSize = 100

// SweepCommands reconciles bookings the happy path left behind. Both sweeps
// are safe to run from multiple workers: candidates are re-checked under a
// row lock, and a booking another worker already moved is a no-op.
type SweepCommands interface {
	// ExpirePendingPayments cancels payment holds whose tenant timeout has
	// elapsed without a success callback. Returns the number cancelled.
	ExpirePendingPayments(ctx context.Context) (int, error)
	// CompleteElapsed closes confirmed bookings whose end time has passed.
	// Returns the number completed.
	CompleteElapsed(ctx context.Context) (int, error)
}

type sweepCommandsImpl struct {
	uow   shared.UnitOfWork
	sweep shared.SweepReads
	clk   clock.Clock
	cfg   config.BookingConfig
}

func NewSweepCommands(uow shared.UnitOfWork, sweep shared.SweepReads, clk clock.Clock, cfg config.BookingConfig) SweepCommands {
	return &sweepCommandsImpl{uow: uow, sweep: sweep, clk: clk, cfg: cfg}
}

func (c *sweepCommandsImpl) ExpirePendingPayments(ctx context.Context) (int, error) {
	now := c.clk.Now()

	// The listing is deliberately loose: every open payment hold is a
	// candidate. The decisive timeout check runs per booking inside the
	// transaction, against the tenant's own setting.
	ids, err := c.sweep.PendingPaymentOlderThan(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		ok, err := c.expireOne(ctx, id, now)
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (c *sweepCommandsImpl) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	expired := false
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		if b.Status() != booking.StatusPendingPayment || b.IsFlagged() {
			return nil
		}

		timeout, err := c.tenantTimeout(ctx, b.TenantID())
		if err != nil {
			return err
		}
		if now.Before(b.CreatedAt().Add(timeout)) {
			return nil
		}

		payRec, err := tx.Payments().FindCurrentByBooking(ctx, b.ID())
		if err != nil && !infra.IsKind(err, infra.KindNotFound) {
			return err
		}
		if payRec != nil && payRec.Status() == payment.StatusInitiated {
			if err := payRec.Supersede(now); err != nil {
				return err
			}
			if err := tx.Payments().Save(ctx, payRec); err != nil {
				return err
			}
		}

		if err := b.Cancel(booking.CancelPaymentTimeout, now); err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := enqueueEvents(ctx, tx, b, now); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

func (c *sweepCommandsImpl) tenantTimeout(ctx context.Context, tenantID uuid.UUID) (time.Duration, error) {
	tenantSnap, err := c.uow.Reads().TenantByID(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if timeout := tenantSnap.PaymentTimeout(); timeout > 0 {
		return timeout, nil
	}
	return c.cfg.PaymentTimeout, nil
}

func (c *sweepCommandsImpl) CompleteElapsed(ctx context.Context) (int, error) {
	now := c.clk.Now()

	ids, err := c.sweep.ConfirmedEndedBefore(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, id := range ids {
		ok, err := c.completeOne(ctx, id, now)
		if err != nil {
			return completed, err
		}
		if ok {
			completed++
		}
	}
	return completed, nil
}

func (c *sweepCommandsImpl) completeOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	completed := false
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		if b.Status() != booking.StatusConfirmed || now.Before(b.Slot().End()) {
			return nil
		}
		if err := b.Complete(now); err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := enqueueEvents(ctx, tx, b, now); err != nil {
			return err
		}
		completed = true
		return nil
	})
	return completed, err
}
