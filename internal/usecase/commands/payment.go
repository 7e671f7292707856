package commands

import (
	"context"
	"fmt"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/pkg/clock"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/shared"
)

type PaymentCommands interface {
	// HandleProviderCallback applies a provider's payment notification.
	// Deliveries are at-least-once; duplicates replay the original outcome.
	HandleProviderCallback(ctx context.Context, in ProviderCallbackInput) (*ProviderCallbackResult, error)
}

type paymentCommandsImpl struct {
	uow shared.UnitOfWork
	clk clock.Clock
	cfg config.BookingConfig
}

func NewPaymentCommands(uow shared.UnitOfWork, clk clock.Clock, cfg config.BookingConfig) PaymentCommands {
	return &paymentCommandsImpl{uow: uow, clk: clk, cfg: cfg}
}

func (c *paymentCommandsImpl) HandleProviderCallback(ctx context.Context, in ProviderCallbackInput) (*ProviderCallbackResult, error) {
	cbStatus := payment.CallbackStatus(in.Status)
	if !cbStatus.IsValid() {
		return nil, ErrInvalidCallbackStatus
	}
	now := c.clk.Now()

	var (
		result    *ProviderCallbackResult
		gateError error
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		rec, err := tx.Payments().FindByReference(ctx, in.Reference)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		b, err := tx.Bookings().FindByID(ctx, rec.BookingID())
		if err != nil {
			return err
		}

		switch cbStatus {
		case payment.CallbackSucceeded:
			result, gateError, err = c.applySucceeded(ctx, tx, rec, b, in, now)
		case payment.CallbackFailed:
			result, err = c.applyFailed(ctx, tx, rec, b, now)
		case payment.CallbackRefunded:
			result, gateError, err = c.applyRefunded(ctx, tx, rec, b, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	// The gate commits the flag before rejecting so manual review survives
	// the rejected delivery.
	if gateError != nil {
		return nil, gateError
	}
	return result, nil
}

func (c *paymentCommandsImpl) applySucceeded(
	ctx context.Context,
	tx shared.Tx,
	rec *payment.Record,
	b *booking.Booking,
	in ProviderCallbackInput,
	now time.Time,
) (*ProviderCallbackResult, error, error) {
	if rec.Status() == payment.StatusSucceeded {
		return replayResult(rec, b), nil, nil
	}
	if rec.Status() != payment.StatusInitiated {
		b.Flag(fmt.Sprintf("success callback on %s payment %s", rec.Status(), rec.Reference()), now)
		if err := flushFlag(ctx, tx, b, now); err != nil {
			return nil, nil, err
		}
		return nil, ErrCallbackOutOfOrder, nil
	}

	if in.AmountKobo != rec.Amount().Kobo() {
		b.Flag(fmt.Sprintf(
			"amount mismatch on payment %s: expected %d kobo, provider reported %d kobo",
			rec.Reference(), rec.Amount().Kobo(), in.AmountKobo,
		), now)
		if err := flushFlag(ctx, tx, b, now); err != nil {
			return nil, nil, err
		}
		return nil, ErrAmountMismatch, nil
	}

	if err := rec.MarkSucceeded(now); err != nil {
		return nil, nil, err
	}
	if b.Status() == booking.StatusPendingPayment {
		if err := b.Confirm(now); err != nil {
			return nil, nil, err
		}
	} else {
		// Money was captured for a booking the sweep or customer already
		// cancelled; hold it for a manual refund decision.
		b.Flag(fmt.Sprintf("payment %s succeeded on %s booking", rec.Reference(), b.Status()), now)
	}
	if err := tx.Payments().Save(ctx, rec); err != nil {
		return nil, nil, err
	}
	if err := tx.Bookings().Save(ctx, b); err != nil {
		return nil, nil, err
	}
	if err := enqueueEvents(ctx, tx, b, now); err != nil {
		return nil, nil, err
	}
	return &ProviderCallbackResult{
		BookingID:     b.ID(),
		BookingStatus: b.Status(),
		PaymentStatus: rec.Status().String(),
	}, nil, nil
}

func (c *paymentCommandsImpl) applyFailed(
	ctx context.Context,
	tx shared.Tx,
	rec *payment.Record,
	b *booking.Booking,
	now time.Time,
) (*ProviderCallbackResult, error) {
	if rec.Status() == payment.StatusFailed {
		return replayResult(rec, b), nil
	}
	if rec.Status() != payment.StatusInitiated {
		return replayResult(rec, b), nil
	}

	if err := rec.MarkFailed(now); err != nil {
		return nil, err
	}
	if err := tx.Payments().Save(ctx, rec); err != nil {
		return nil, err
	}

	if rec.Attempt() < c.cfg.PaymentRetryBudget {
		retry, err := payment.NewRecord(b.ID(), rec.Amount(), rec.Provider(), rec.Attempt()+1, now)
		if err != nil {
			return nil, err
		}
		if err := tx.Payments().Create(ctx, retry); err != nil {
			return nil, err
		}
		return &ProviderCallbackResult{
			BookingID:     b.ID(),
			BookingStatus: b.Status(),
			PaymentStatus: rec.Status().String(),
		}, nil
	}

	// Retry budget exhausted: release the hold.
	if b.Status() == booking.StatusPendingPayment {
		if err := b.Cancel(booking.CancelPaymentFailed, now); err != nil {
			return nil, err
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := enqueueEvents(ctx, tx, b, now); err != nil {
			return nil, err
		}
	}
	return &ProviderCallbackResult{
		BookingID:     b.ID(),
		BookingStatus: b.Status(),
		PaymentStatus: rec.Status().String(),
	}, nil
}

func (c *paymentCommandsImpl) applyRefunded(
	ctx context.Context,
	tx shared.Tx,
	rec *payment.Record,
	b *booking.Booking,
	now time.Time,
) (*ProviderCallbackResult, error, error) {
	if rec.Status() == payment.StatusRefunded {
		return replayResult(rec, b), nil, nil
	}
	if rec.Status() != payment.StatusSucceeded {
		return nil, ErrCallbackOutOfOrder, nil
	}
	if err := rec.MarkRefunded(now); err != nil {
		return nil, nil, err
	}
	if err := tx.Payments().Save(ctx, rec); err != nil {
		return nil, nil, err
	}
	return &ProviderCallbackResult{
		BookingID:     b.ID(),
		BookingStatus: b.Status(),
		PaymentStatus: rec.Status().String(),
	}, nil, nil
}

func replayResult(rec *payment.Record, b *booking.Booking) *ProviderCallbackResult {
	return &ProviderCallbackResult{
		BookingID:     b.ID(),
		BookingStatus: b.Status(),
		PaymentStatus: rec.Status().String(),
		Replayed:      true,
	}
}

func flushFlag(ctx context.Context, tx shared.Tx, b *booking.Booking, now time.Time) error {
	if err := tx.Bookings().Save(ctx, b); err != nil {
		return err
	}
	return enqueueEvents(ctx, tx, b, now)
}
