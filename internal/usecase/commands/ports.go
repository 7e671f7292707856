package commands

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrTenantNotFound     = errs.New("tenant not found")
	ErrServiceNotFound    = errs.New("service not found")
	ErrServiceInactive    = errs.New("service is inactive")
	ErrResourceNotFound   = errs.New("resource not found")
	ErrResourceIneligible = errs.New("resource cannot provide this service")
	ErrBookingNotFound    = errs.New("booking not found")
	ErrPaymentNotFound    = errs.New("payment record not found")

	// ErrSlotBusy is the ordinary contention outcome: another booking holds
	// an overlapping claim on the resource. Clients retry with a new slot.
	ErrSlotBusy = errs.New("slot is no longer available")

	ErrOutsideHours    = errs.New("slot falls outside operating hours")
	ErrMisalignedStart = errs.New("start time is not aligned to the slot granularity")
	ErrStartInPast     = errs.New("start time is in the past")

	ErrRequestInFlight           = errs.New("request with this idempotency key is still processing")
	ErrIdempotencyReplayMismatch = errs.New("idempotency key reused with a different request body")

	ErrAmountMismatch        = errs.New("callback amount does not match the expected charge")
	ErrInvalidCallbackStatus = errs.New("unrecognized callback status")
	ErrCallbackOutOfOrder    = errs.New("callback does not apply to the payment record's current state")
)

const (
	idempotencyStatusProcessing = "processing"
	idempotencyStatusCompleted  = "completed"
)

type CustomerInput struct {
	Name  string
	Phone string
	Email string
}

type CreateBookingInput struct {
	TenantID  uuid.UUID
	ServiceID uuid.UUID
	// ResourceID nil means any eligible resource.
	ResourceID *uuid.UUID
	StartTime  time.Time
	// PayNow opts an optional-payment service into the payment gate.
	// Services with a required policy ignore it.
	PayNow         bool
	Customer       CustomerInput
	FieldValues    map[string]any
	IdempotencyKey uuid.UUID
}

// Hash fingerprints the request body so idempotency replays can reject a
// reused key carrying different parameters.
func (in CreateBookingInput) Hash() string {
	payload, _ := json.Marshal(struct {
		TenantID    uuid.UUID      `json:"tenant_id"`
		ServiceID   uuid.UUID      `json:"service_id"`
		ResourceID  *uuid.UUID     `json:"resource_id"`
		StartTime   int64          `json:"start_time"`
		PayNow      bool           `json:"pay_now"`
		Name        string         `json:"name"`
		Phone       string         `json:"phone"`
		Email       string         `json:"email"`
		FieldValues map[string]any `json:"field_values"`
	}{in.TenantID, in.ServiceID, in.ResourceID, in.StartTime.Unix(), in.PayNow,
		in.Customer.Name, in.Customer.Phone, in.Customer.Email, in.FieldValues})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type CreateBookingResult struct {
	BookingID uuid.UUID
	Reference string
	Status    booking.Status
	// PaymentReference and AmountKobo are set when the service requires
	// payment and the booking is holding a slot pending it.
	PaymentReference *string
	AmountKobo       *int64
	// Replayed marks an idempotent replay of an earlier request.
	Replayed bool
}

type RescheduleBookingInput struct {
	TenantID  uuid.UUID
	BookingID uuid.UUID
	StartTime time.Time
}

type RescheduleBookingResult struct {
	Status    booking.Status
	StartTime time.Time
	EndTime   time.Time
}

type CancelBookingInput struct {
	TenantID  uuid.UUID
	BookingID uuid.UUID
	Reason    booking.CancelReason
}

type CancelBookingResult struct {
	Status booking.Status
	// RefundEligible is true when a succeeded payment existed and the
	// cancellation landed before the tenant's cutoff.
	RefundEligible bool
}

type ProviderCallbackInput struct {
	Provider   string
	Reference  string
	Status     string
	AmountKobo int64
}

type ProviderCallbackResult struct {
	BookingID     uuid.UUID
	BookingStatus booking.Status
	PaymentStatus string
	// Replayed marks a duplicate delivery of an already-processed callback.
	Replayed bool
}

type eventPayload struct {
	Kind       string    `json:"kind"`
	BookingID  uuid.UUID `json:"booking_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func marshalEvent(ev booking.Event) ([]byte, error) {
	return json.Marshal(eventPayload{
		Kind:       string(ev.Kind),
		BookingID:  ev.BookingID,
		TenantID:   ev.TenantID,
		ResourceID: ev.ResourceID,
		StartTime:  ev.Slot.Start(),
		EndTime:    ev.Slot.End(),
		Reason:     ev.Reason,
		OccurredAt: ev.OccurredAt,
	})
}
