package shared

import (
	"context"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry on
	// serialization failures and deadlocks
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: command-side reads outside a transaction
	Reads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Payments() PaymentRepository
	Outbox() OutboxRepository
	Idempotency() IdempotencyRepository
	DB() db.DBTX
}

// CommandReads supplies write-side validation data without depending on
// the read-model query types.
type CommandReads interface {
	TenantByID(ctx context.Context, id uuid.UUID) (*TenantSnapshot, error)
	ServiceByID(ctx context.Context, tenantID, id uuid.UUID) (*ServiceSnapshot, error)
	ResourceByID(ctx context.Context, tenantID, id uuid.UUID) (*ResourceSnapshot, error)
	ResourcesForService(ctx context.Context, serviceID uuid.UUID) ([]ResourceSnapshot, error)
	// BusySlots returns claim intervals of non-terminal bookings for the
	// resource overlapping [from, to).
	BusySlots(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]schedule.TimeSlot, error)
	IdempotencyByKey(ctx context.Context, key, tenantID uuid.UUID) (*IdempotencyRecord, error)
}

type BookingRepository interface {
	// Create persists a new booking. Overlap with another non-terminal
	// booking on the same resource surfaces as KindConflict.
	Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error)
	// FindByID loads the aggregate, locking the row for the rest of the
	// transaction so transitions serialize.
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// Save writes back status, slot and transition metadata. A claim move
	// that overlaps another active booking surfaces as KindConflict.
	Save(ctx context.Context, b *booking.Booking) error
}

type PaymentRepository interface {
	Create(ctx context.Context, rec *payment.Record) error
	// FindByReference locks the row; callback processing serializes per
	// payment record.
	FindByReference(ctx context.Context, reference string) (*payment.Record, error)
	// FindCurrentByBooking returns the booking's latest payment attempt,
	// whatever its status, locking the row.
	FindCurrentByBooking(ctx context.Context, bookingID uuid.UUID) (*payment.Record, error)
	Save(ctx context.Context, rec *payment.Record) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
	// ClaimDue atomically moves due queued jobs to publishing so multiple
	// relay workers never double-publish.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]OutboxJob, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, key, tenantID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) error
	MarkCompleted(ctx context.Context, key, tenantID uuid.UUID, responseHash string, bookingID uuid.UUID) error
}

// SweepReads feeds the background sweeps. Candidate listing happens outside
// the per-booking transactions, so a candidate may already have moved on by
// the time it is locked; the sweep treats that as a no-op.
type SweepReads interface {
	PendingPaymentOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	ConfirmedEndedBefore(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}
