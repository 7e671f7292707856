package payment

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRecordFinalized = errors.New("payment record already finalized")
	ErrNotRefundable   = errors.New("only succeeded payments can be refunded")
	ErrInvalidStatus   = errors.New("invalid payment status")
	ErrInvalidAttempt  = errors.New("attempt must be positive")
)

// Status of one payment attempt. A booking has at most one active record;
// retried attempts supersede earlier ones.
type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
	StatusSuperseded Status = "superseded"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusInitiated, StatusSucceeded, StatusFailed, StatusRefunded, StatusSuperseded:
		return true
	default:
		return false
	}
}

// CallbackStatus is the status enum a provider callback may carry.
type CallbackStatus string

const (
	CallbackSucceeded CallbackStatus = "succeeded"
	CallbackFailed    CallbackStatus = "failed"
	CallbackRefunded  CallbackStatus = "refunded"
)

func (s CallbackStatus) IsValid() bool {
	switch s {
	case CallbackSucceeded, CallbackFailed, CallbackRefunded:
		return true
	default:
		return false
	}
}

// Record is one payment attempt for a booking. The reference is handed to
// the provider and comes back on callbacks as the external reference.
type Record struct {
	id        uuid.UUID
	bookingID uuid.UUID
	amount    Money
	provider  string
	reference string
	status    Status
	attempt   int
	createdAt time.Time
	updatedAt time.Time
}

func NewRecord(bookingID uuid.UUID, amount Money, provider string, attempt int, now time.Time) (*Record, error) {
	if attempt <= 0 {
		return nil, ErrInvalidAttempt
	}
	return &Record{
		id:        uuid.New(),
		bookingID: bookingID,
		amount:    amount,
		provider:  provider,
		reference: newPaymentReference(),
		status:    StatusInitiated,
		attempt:   attempt,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func Reconstruct(
	id, bookingID uuid.UUID,
	amount Money,
	provider, reference string,
	status Status,
	attempt int,
	createdAt, updatedAt time.Time,
) *Record {
	return &Record{
		id:        id,
		bookingID: bookingID,
		amount:    amount,
		provider:  provider,
		reference: reference,
		status:    status,
		attempt:   attempt,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// MarkSucceeded finalizes the record. Only an initiated record can succeed.
func (r *Record) MarkSucceeded(now time.Time) error {
	if r.status != StatusInitiated {
		return ErrRecordFinalized
	}
	r.status = StatusSucceeded
	r.updatedAt = now
	return nil
}

func (r *Record) MarkFailed(now time.Time) error {
	if r.status != StatusInitiated {
		return ErrRecordFinalized
	}
	r.status = StatusFailed
	r.updatedAt = now
	return nil
}

// MarkRefunded is only reachable from succeeded; refund execution is the
// provider collaborator's responsibility.
func (r *Record) MarkRefunded(now time.Time) error {
	if r.status != StatusSucceeded {
		return ErrNotRefundable
	}
	r.status = StatusRefunded
	r.updatedAt = now
	return nil
}

// Supersede retires a record that will be replaced by a retry attempt.
func (r *Record) Supersede(now time.Time) error {
	if r.status == StatusSucceeded || r.status == StatusRefunded {
		return ErrRecordFinalized
	}
	r.status = StatusSuperseded
	r.updatedAt = now
	return nil
}

func (r *Record) IsActive() bool {
	return r.status == StatusInitiated
}

func (r *Record) ID() uuid.UUID        { return r.id }
func (r *Record) BookingID() uuid.UUID { return r.bookingID }
func (r *Record) Amount() Money        { return r.amount }
func (r *Record) Provider() string     { return r.provider }
func (r *Record) Reference() string    { return r.reference }
func (r *Record) Status() Status       { return r.status }
func (r *Record) Attempt() int         { return r.attempt }
func (r *Record) CreatedAt() time.Time { return r.createdAt }
func (r *Record) UpdatedAt() time.Time { return r.updatedAt }

func newPaymentReference() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "PAY-" + hex.EncodeToString(buf)
}
