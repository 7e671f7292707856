package commands

import (
	"context"
	"errors"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/catalog"
	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/domain/tenant"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/pkg/clock"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/pkg/errs"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingCommands interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error)
	Reschedule(ctx context.Context, in RescheduleBookingInput) (*RescheduleBookingResult, error)
	CancelBooking(ctx context.Context, in CancelBookingInput) (*CancelBookingResult, error)
	CheckIn(ctx context.Context, tenantID, bookingID uuid.UUID) error
	Complete(ctx context.Context, tenantID, bookingID uuid.UUID) error
	MarkNoShow(ctx context.Context, tenantID, bookingID uuid.UUID) error
}

// errIdempotencyKeyTaken aborts the insert transaction on a duplicate key.
// The failed INSERT has already poisoned the transaction, so the replay
// must run against a fresh one; committing the current one would fail.
var errIdempotencyKeyTaken = errs.New("idempotency key already taken")

type bookingCommandsImpl struct {
	uow      shared.UnitOfWork
	clk      clock.Clock
	cfg      config.BookingConfig
	provider string
}

func NewBookingCommands(uow shared.UnitOfWork, clk clock.Clock, cfg config.BookingConfig, payCfg config.PaymentConfig) BookingCommands {
	return &bookingCommandsImpl{uow: uow, clk: clk, cfg: cfg, provider: payCfg.Provider}
}

// CreateBooking validates the request against catalog and schedule rules,
// then commits the claim optimistically: the database exclusion constraint
// is the authority on overlap, and a conflict there surfaces as ErrSlotBusy.
func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	now := c.clk.Now()
	reads := c.uow.Reads()

	tenantSnap, serviceSnap, err := c.loadCatalog(ctx, reads, in.TenantID, in.ServiceID)
	if err != nil {
		return nil, err
	}
	loc, err := tenantSnap.Location()
	if err != nil {
		return nil, errs.Wrap(err, "tenant timezone")
	}

	customer, err := booking.NewCustomer(in.Customer.Name, in.Customer.Phone, in.Customer.Email)
	if err != nil {
		return nil, err
	}
	if err := catalog.ValidateFieldValues(serviceSnap.CustomFields, in.FieldValues); err != nil {
		return nil, err
	}

	slot, claim, err := c.buildSlots(in.StartTime, serviceSnap, tenantSnap, loc, now)
	if err != nil {
		return nil, err
	}

	resourceID, err := c.pickResource(ctx, reads, serviceSnap, in.ResourceID, claim, loc)
	if err != nil {
		return nil, err
	}

	var result *CreateBookingResult
	requestHash := in.Hash()
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		insertErr := tx.Idempotency().TryInsert(
			ctx, in.IdempotencyKey, in.TenantID, "bookings.create", requestHash, now.Add(c.cfg.IdempotencyTTL),
		)
		if insertErr != nil {
			if infra.IsKind(insertErr, infra.KindDuplicateKey) {
				return errIdempotencyKeyTaken
			}
			return insertErr
		}

		b := booking.New(
			in.TenantID, in.ServiceID, resourceID,
			slot, claim, customer, in.FieldValues, now,
		)

		var payRec *payment.Record
		needsPayment := serviceSnap.PaymentPolicy == catalog.PaymentRequired ||
			(serviceSnap.PaymentPolicy == catalog.PaymentOptional && in.PayNow)
		if needsPayment {
			if err := b.RequirePayment(now); err != nil {
				return err
			}
			amount, err := payment.NewMoney(serviceSnap.PriceKobo)
			if err != nil {
				return err
			}
			payRec, err = payment.NewRecord(b.ID(), amount, c.provider, 1, now)
			if err != nil {
				return err
			}
		} else if err := b.Confirm(now); err != nil {
			return err
		}

		if _, err := tx.Bookings().Create(ctx, b); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSlotBusy
			}
			return err
		}
		if payRec != nil {
			if err := tx.Payments().Create(ctx, payRec); err != nil {
				return err
			}
		}
		if err := enqueueEvents(ctx, tx, b, now); err != nil {
			return err
		}
		if err := tx.Idempotency().MarkCompleted(ctx, in.IdempotencyKey, in.TenantID, requestHash, b.ID()); err != nil {
			return err
		}

		result = &CreateBookingResult{
			BookingID: b.ID(),
			Reference: b.Reference(),
			Status:    b.Status(),
		}
		if payRec != nil {
			ref := payRec.Reference()
			kobo := payRec.Amount().Kobo()
			result.PaymentReference = &ref
			result.AmountKobo = &kobo
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errIdempotencyKeyTaken) {
			return c.replay(ctx, in, requestHash)
		}
		return nil, err
	}
	return result, nil
}

func (c *bookingCommandsImpl) loadCatalog(
	ctx context.Context,
	reads shared.CommandReads,
	tenantID, serviceID uuid.UUID,
) (*shared.TenantSnapshot, *shared.ServiceSnapshot, error) {
	tenantSnap, err := reads.TenantByID(ctx, tenantID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil, ErrTenantNotFound
		}
		return nil, nil, err
	}
	serviceSnap, err := reads.ServiceByID(ctx, tenantID, serviceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil, ErrServiceNotFound
		}
		return nil, nil, err
	}
	if !serviceSnap.IsActive {
		return nil, nil, ErrServiceInactive
	}
	return tenantSnap, serviceSnap, nil
}

// buildSlots derives the appointment slot and the widened claim slot, and
// checks alignment, horizon and operating hours.
func (c *bookingCommandsImpl) buildSlots(
	start time.Time,
	serviceSnap *shared.ServiceSnapshot,
	tenantSnap *shared.TenantSnapshot,
	loc *time.Location,
	now time.Time,
) (schedule.TimeSlot, schedule.TimeSlot, error) {
	var zero schedule.TimeSlot
	if !start.After(now) {
		return zero, zero, ErrStartInPast
	}

	granularity := tenantSnap.SlotGranularity()
	if granularity <= 0 {
		granularity = c.cfg.SlotGranularity
	}
	local := start.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Sub(midnight)%granularity != 0 {
		return zero, zero, ErrMisalignedStart
	}

	slot, err := schedule.NewTimeSlot(start, start.Add(serviceSnap.Duration()))
	if err != nil {
		return zero, zero, err
	}
	claim := slot.Extend(serviceSnap.BufferBefore(), serviceSnap.BufferAfter())

	if !tenantSnap.Hours.Covers(claim, loc) {
		return zero, zero, ErrOutsideHours
	}
	return slot, claim, nil
}

// pickResource resolves the explicit resource or walks the eligible list in
// order, skipping resources whose schedule or committed claims exclude the
// requested interval. The pre-check is advisory; the exclusion constraint
// decides under contention.
func (c *bookingCommandsImpl) pickResource(
	ctx context.Context,
	reads shared.CommandReads,
	serviceSnap *shared.ServiceSnapshot,
	explicit *uuid.UUID,
	claim schedule.TimeSlot,
	loc *time.Location,
) (uuid.UUID, error) {
	candidates, err := reads.ResourcesForService(ctx, serviceSnap.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if explicit != nil {
		for _, res := range candidates {
			if res.ID != *explicit {
				continue
			}
			if !res.IsActive {
				return uuid.Nil, ErrResourceNotFound
			}
			if !res.Hours.Covers(claim, loc) {
				return uuid.Nil, ErrOutsideHours
			}
			if free, err := c.isFree(ctx, reads, res.ID, claim); err != nil {
				return uuid.Nil, err
			} else if !free {
				return uuid.Nil, ErrSlotBusy
			}
			return res.ID, nil
		}
		return uuid.Nil, ErrResourceIneligible
	}

	sawEligible := false
	for _, res := range candidates {
		if !res.IsActive || !res.Hours.Covers(claim, loc) {
			continue
		}
		sawEligible = true
		free, err := c.isFree(ctx, reads, res.ID, claim)
		if err != nil {
			return uuid.Nil, err
		}
		if free {
			return res.ID, nil
		}
	}
	if sawEligible {
		return uuid.Nil, ErrSlotBusy
	}
	return uuid.Nil, ErrResourceIneligible
}

func (c *bookingCommandsImpl) isFree(
	ctx context.Context,
	reads shared.CommandReads,
	resourceID uuid.UUID,
	claim schedule.TimeSlot,
) (bool, error) {
	busy, err := reads.BusySlots(ctx, resourceID, claim.Start(), claim.End())
	if err != nil {
		return false, err
	}
	for _, b := range busy {
		if b.Overlaps(claim) {
			return false, nil
		}
	}
	return true, nil
}

// replay resolves a duplicate idempotency key: the same request body gets
// the original result back, a different body is rejected, and a key whose
// first attempt is still running reports in-flight.
func (c *bookingCommandsImpl) replay(
	ctx context.Context,
	in CreateBookingInput,
	requestHash string,
) (*CreateBookingResult, error) {
	rec, err := c.uow.Reads().IdempotencyByKey(ctx, in.IdempotencyKey, in.TenantID)
	if err != nil {
		return nil, err
	}
	if rec.RequestHash != requestHash {
		return nil, ErrIdempotencyReplayMismatch
	}
	if rec.Status != idempotencyStatusCompleted || rec.ResultBookingID == nil {
		return nil, ErrRequestInFlight
	}

	var result *CreateBookingResult
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, *rec.ResultBookingID)
		if err != nil {
			return err
		}
		result = &CreateBookingResult{
			BookingID: b.ID(),
			Reference: b.Reference(),
			Status:    b.Status(),
			Replayed:  true,
		}
		if b.Status() == booking.StatusPendingPayment {
			payRec, err := tx.Payments().FindCurrentByBooking(ctx, b.ID())
			if err != nil && !infra.IsKind(err, infra.KindNotFound) {
				return err
			}
			if payRec != nil && payRec.IsActive() {
				ref := payRec.Reference()
				kobo := payRec.Amount().Kobo()
				result.PaymentReference = &ref
				result.AmountKobo = &kobo
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reschedule moves a live booking to a new start on the same resource. The
// new slot passes the same validation as creation, and the moved claim goes
// back through the conflict resolver: the row update re-checks the exclusion
// constraint, and losing that race surfaces as ErrSlotBusy with the booking
// untouched.
func (c *bookingCommandsImpl) Reschedule(ctx context.Context, in RescheduleBookingInput) (*RescheduleBookingResult, error) {
	now := c.clk.Now()
	reads := c.uow.Reads()

	var result *RescheduleBookingResult
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := findTenantBooking(ctx, tx, in.TenantID, in.BookingID)
		if err != nil {
			return err
		}

		tenantSnap, serviceSnap, err := c.loadCatalog(ctx, reads, in.TenantID, b.ServiceID())
		if err != nil {
			return err
		}
		loc, err := tenantSnap.Location()
		if err != nil {
			return errs.Wrap(err, "tenant timezone")
		}

		slot, claim, err := c.buildSlots(in.StartTime, serviceSnap, tenantSnap, loc, now)
		if err != nil {
			return err
		}
		resSnap, err := reads.ResourceByID(ctx, in.TenantID, b.ResourceID())
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrResourceNotFound
			}
			return err
		}
		if !resSnap.Hours.Covers(claim, loc) {
			return ErrOutsideHours
		}

		if err := b.Reschedule(slot, claim, now); err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSlotBusy
			}
			return err
		}
		if err := enqueueEvents(ctx, tx, b, now); err != nil {
			return err
		}
		result = &RescheduleBookingResult{
			Status:    b.Status(),
			StartTime: b.Slot().Start(),
			EndTime:   b.Slot().End(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelBooking releases the claim and reports refund eligibility per the
// tenant's cutoff. Refund eligibility is advisory output; the actual refund
// is settled when the provider's refund callback arrives.
func (c *bookingCommandsImpl) CancelBooking(ctx context.Context, in CancelBookingInput) (*CancelBookingResult, error) {
	now := c.clk.Now()

	tenantSnap, err := c.uow.Reads().TenantByID(ctx, in.TenantID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	cutoff := tenantSnap.CancelCutoff()
	if cutoff <= 0 {
		cutoff = c.cfg.CancelCutoff
	}
	policy := tenant.CancellationPolicy{Cutoff: cutoff}

	var result *CancelBookingResult
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := findTenantBooking(ctx, tx, in.TenantID, in.BookingID)
		if err != nil {
			return err
		}

		paymentSucceeded := false
		payRec, err := tx.Payments().FindCurrentByBooking(ctx, b.ID())
		if err != nil && !infra.IsKind(err, infra.KindNotFound) {
			return err
		}
		if payRec != nil && payRec.Status() == payment.StatusSucceeded {
			paymentSucceeded = true
		}
		refundEligible := policy.RefundEligible(now, b.Slot().Start(), paymentSucceeded)

		if err := b.Cancel(in.Reason, now); err != nil {
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
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := enqueueEvents(ctx, tx, b, now); err != nil {
			return err
		}
		result = &CancelBookingResult{Status: b.Status(), RefundEligible: refundEligible}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *bookingCommandsImpl) CheckIn(ctx context.Context, tenantID, bookingID uuid.UUID) error {
	now := c.clk.Now()
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := findTenantBooking(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if err := b.CheckIn(now); err != nil {
			return err
		}
		return tx.Bookings().Save(ctx, b)
	})
}

func (c *bookingCommandsImpl) Complete(ctx context.Context, tenantID, bookingID uuid.UUID) error {
	now := c.clk.Now()
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := findTenantBooking(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if err := b.Complete(now); err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return enqueueEvents(ctx, tx, b, now)
	})
}

// MarkNoShow cancels a confirmed booking whose start time passed without
// the customer arriving, freeing the claim for walk-ins.
func (c *bookingCommandsImpl) MarkNoShow(ctx context.Context, tenantID, bookingID uuid.UUID) error {
	now := c.clk.Now()
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := findTenantBooking(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if err := b.MarkNoShow(now); err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return enqueueEvents(ctx, tx, b, now)
	})
}

// findTenantBooking loads and locks the booking, hiding other tenants'
// bookings behind not-found.
func findTenantBooking(ctx context.Context, tx shared.Tx, tenantID, bookingID uuid.UUID) (*booking.Booking, error) {
	b, err := tx.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.TenantID() != tenantID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// enqueueEvents drains the aggregate's pending events into the outbox so
// they commit atomically with the state change.
func enqueueEvents(ctx context.Context, tx shared.Tx, b *booking.Booking, now time.Time) error {
	for _, ev := range b.PullEvents() {
		payload, err := marshalEvent(ev)
		if err != nil {
			return errs.Wrap(err, "marshal booking event")
		}
		if err := tx.Outbox().Enqueue(ctx, "booking_event", string(ev.Kind), payload, now); err != nil {
			return err
		}
	}
	return nil
}
