package booking

import (
	"errors"
	"fmt"
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	// ErrIllegalTransition is an internal-consistency fault: the caller
	// attempted a transition the state machine forbids. It is never the
	// result of ordinary contention.
	ErrIllegalTransition = errors.New("illegal booking state transition")
	ErrAlreadyTerminal   = errors.New("booking is in a terminal state")
	ErrNotCheckedIn      = errors.New("booking has not started yet")
	ErrAlreadyCheckedIn  = errors.New("customer has already checked in")
	ErrNoShowTooEarly    = errors.New("booking has not reached its start time")
)

// Booking references its tenant, service and resource by identifier so that
// later catalog changes do not silently invalidate history. Mutation happens
// only through the transition methods below; each successful transition
// records a domain event.
type Booking struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	serviceID   uuid.UUID
	resourceID  uuid.UUID
	reference   string
	slot        schedule.TimeSlot
	claimSlot   schedule.TimeSlot
	customer    Customer
	fieldValues map[string]any
	status      Status

	cancelledAt  *time.Time
	cancelReason CancelReason
	checkedInAt  *time.Time
	flagged      bool
	flagReason   string

	createdAt time.Time
	updatedAt time.Time

	events []Event
}

// New creates a booking in the requested state. The claim slot is the
// appointment slot widened by the service buffers; it is what the conflict
// resolver serializes on.
func New(
	tenantID, serviceID, resourceID uuid.UUID,
	slot, claimSlot schedule.TimeSlot,
	customer Customer,
	fieldValues map[string]any,
	now time.Time,
) *Booking {
	b := &Booking{
		id:          uuid.New(),
		tenantID:    tenantID,
		serviceID:   serviceID,
		resourceID:  resourceID,
		reference:   NewReference(),
		slot:        slot,
		claimSlot:   claimSlot,
		customer:    customer,
		fieldValues: fieldValues,
		status:      StatusRequested,
		createdAt:   now,
		updatedAt:   now,
	}
	b.record(EventRequested, "", now)
	return b
}

func Reconstruct(
	id, tenantID, serviceID, resourceID uuid.UUID,
	reference string,
	slot, claimSlot schedule.TimeSlot,
	customer Customer,
	fieldValues map[string]any,
	status Status,
	cancelledAt *time.Time,
	cancelReason CancelReason,
	checkedInAt *time.Time,
	flagged bool,
	flagReason string,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		tenantID:     tenantID,
		serviceID:    serviceID,
		resourceID:   resourceID,
		reference:    reference,
		slot:         slot,
		claimSlot:    claimSlot,
		customer:     customer,
		fieldValues:  fieldValues,
		status:       status,
		cancelledAt:  cancelledAt,
		cancelReason: cancelReason,
		checkedInAt:  checkedInAt,
		flagged:      flagged,
		flagReason:   flagReason,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// RequirePayment moves a fresh booking into the payment hold. The caller
// checks the service payment policy; this guard only protects the machine.
func (b *Booking) RequirePayment(now time.Time) error {
	if err := b.transition(StatusPendingPayment, now); err != nil {
		return err
	}
	return nil
}

// Confirm is valid from requested (payment policy none) and from
// pending_payment (payment succeeded).
func (b *Booking) Confirm(now time.Time) error {
	if err := b.transition(StatusConfirmed, now); err != nil {
		return err
	}
	b.record(EventConfirmed, "", now)
	return nil
}

// Cancel is valid from any non-terminal state. Cancelled bookings are
// soft-terminal: retained for audit and refund history, never deleted.
func (b *Booking) Cancel(reason CancelReason, now time.Time) error {
	if b.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if err := b.transition(StatusCancelled, now); err != nil {
		return err
	}
	b.cancelledAt = &now
	b.cancelReason = reason
	b.record(EventCancelled, string(reason), now)
	return nil
}

// Reschedule moves a live booking to a new slot. The caller re-validates
// the slot against catalog and schedule rules and persists through the same
// conflict resolver as creation; any earlier check-in no longer applies.
func (b *Booking) Reschedule(slot, claimSlot schedule.TimeSlot, now time.Time) error {
	if b.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	b.slot = slot
	b.claimSlot = claimSlot
	b.checkedInAt = nil
	b.updatedAt = now
	b.record(EventRescheduled, "", now)
	return nil
}

// MarkNoShow cancels a confirmed booking whose start time has passed
// without the customer arriving.
func (b *Booking) MarkNoShow(now time.Time) error {
	if b.status != StatusConfirmed {
		return b.illegal(StatusCancelled)
	}
	if b.checkedInAt != nil {
		return ErrAlreadyCheckedIn
	}
	if now.Before(b.slot.Start()) {
		return ErrNoShowTooEarly
	}
	if err := b.transition(StatusCancelled, now); err != nil {
		return err
	}
	b.cancelledAt = &now
	b.cancelReason = CancelNoShow
	b.record(EventNoShow, string(CancelNoShow), now)
	return nil
}

// CheckIn marks customer arrival on a confirmed booking.
func (b *Booking) CheckIn(now time.Time) error {
	if b.status != StatusConfirmed {
		return b.illegal(StatusConfirmed)
	}
	b.checkedInAt = &now
	b.updatedAt = now
	return nil
}

// Complete closes a confirmed booking, either automatically once the end
// timestamp has passed or explicitly after staff check-in.
func (b *Booking) Complete(now time.Time) error {
	if b.status == StatusConfirmed && b.checkedInAt == nil && now.Before(b.slot.End()) {
		return ErrNotCheckedIn
	}
	if err := b.transition(StatusCompleted, now); err != nil {
		return err
	}
	b.record(EventCompleted, "", now)
	return nil
}

// Flag freezes the booking for manual inspection without changing its
// lifecycle state, e.g. on a payment amount mismatch.
func (b *Booking) Flag(reason string, now time.Time) {
	b.flagged = true
	b.flagReason = reason
	b.updatedAt = now
	b.record(EventPaymentFlagged, reason, now)
}

func (b *Booking) transition(next Status, now time.Time) error {
	if !b.status.CanTransition(next) {
		return b.illegal(next)
	}
	b.status = next
	b.updatedAt = now
	return nil
}

func (b *Booking) illegal(next Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.status, next)
}

func (b *Booking) record(kind EventKind, reason string, now time.Time) {
	b.events = append(b.events, Event{
		Kind:       kind,
		BookingID:  b.id,
		TenantID:   b.tenantID,
		ResourceID: b.resourceID,
		Slot:       b.slot,
		Reason:     reason,
		OccurredAt: now,
	})
}

// PullEvents drains the recorded transition events. The usecase layer
// persists them to the outbox in the same transaction as the state change.
func (b *Booking) PullEvents() []Event {
	out := b.events
	b.events = nil
	return out
}

func (b *Booking) IsActive() bool {
	return !b.status.IsTerminal()
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) TenantID() uuid.UUID          { return b.tenantID }
func (b *Booking) ServiceID() uuid.UUID         { return b.serviceID }
func (b *Booking) ResourceID() uuid.UUID        { return b.resourceID }
func (b *Booking) Reference() string            { return b.reference }
func (b *Booking) Slot() schedule.TimeSlot      { return b.slot }
func (b *Booking) ClaimSlot() schedule.TimeSlot { return b.claimSlot }
func (b *Booking) Customer() Customer           { return b.customer }
func (b *Booking) FieldValues() map[string]any  { return b.fieldValues }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) CancelReason() CancelReason   { return b.cancelReason }
func (b *Booking) CheckedInAt() *time.Time      { return b.checkedInAt }
func (b *Booking) IsFlagged() bool              { return b.flagged }
func (b *Booking) FlagReason() string           { return b.flagReason }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
