package booking

import (
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/google/uuid"
)

// EventKind doubles as the routing key for the outbox relay.
type EventKind string

const (
	EventRequested      EventKind = "booking.requested"
	EventConfirmed      EventKind = "booking.confirmed"
	EventRescheduled    EventKind = "booking.rescheduled"
	EventCancelled      EventKind = "booking.cancelled"
	EventNoShow         EventKind = "booking.no_show"
	EventCompleted      EventKind = "booking.completed"
	EventPaymentFlagged EventKind = "payment.flagged"
)

// Event is emitted on every transition for the notification and
// calendar-sync collaborators. The state machine performs no I/O itself;
// the usecase layer drains events into the outbox within the same
// transaction as the state change.
type Event struct {
	Kind       EventKind
	BookingID  uuid.UUID
	TenantID   uuid.UUID
	ResourceID uuid.UUID
	Slot       schedule.TimeSlot
	Reason     string
	OccurredAt time.Time
}
