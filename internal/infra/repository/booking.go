package repository

import (
	"context"
	"encoding/json"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

const insertBookingSQL = `
INSERT INTO bookings (
    id, tenant_id, service_id, resource_id, reference,
    start_time, end_time, claim_start, claim_end,
    customer_name, customer_phone, customer_email, field_values,
    status, flagged, flag_reason, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9,
    $10, $11, $12, $13,
    $14, $15, $16, $17, $18
)`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error) {
	fieldValues, err := json.Marshal(b.FieldValues())
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("marshal field values", err)
	}

	_, err = r.db.Exec(ctx, insertBookingSQL,
		pgconv.UUIDToPgtype(b.ID()),
		pgconv.UUIDToPgtype(b.TenantID()),
		pgconv.UUIDToPgtype(b.ServiceID()),
		pgconv.UUIDToPgtype(b.ResourceID()),
		b.Reference(),
		pgconv.TimeToPgtype(b.Slot().Start()),
		pgconv.TimeToPgtype(b.Slot().End()),
		pgconv.TimeToPgtype(b.ClaimSlot().Start()),
		pgconv.TimeToPgtype(b.ClaimSlot().End()),
		b.Customer().Name(),
		b.Customer().Phone(),
		b.Customer().Email(),
		fieldValues,
		b.Status().String(),
		b.IsFlagged(),
		b.FlagReason(),
		pgconv.TimeToPgtype(b.CreatedAt()),
		pgconv.TimeToPgtype(b.UpdatedAt()),
	)
	if err != nil {
		return uuid.Nil, wrapPg("insert booking", err)
	}
	return b.ID(), nil
}

const selectBookingForUpdateSQL = `
SELECT id, tenant_id, service_id, resource_id, reference,
       start_time, end_time, claim_start, claim_end,
       customer_name, customer_phone, customer_email, field_values,
       status, cancelled_at, cancel_reason, checked_in_at,
       flagged, flag_reason, created_at, updated_at
FROM bookings
WHERE id = $1
FOR UPDATE`

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.db.QueryRow(ctx, selectBookingForUpdateSQL, pgconv.UUIDToPgtype(id))
	return scanBooking(row)
}

const updateBookingSQL = `
UPDATE bookings
SET status        = $2,
    start_time    = $3,
    end_time      = $4,
    claim_start   = $5,
    claim_end     = $6,
    cancelled_at  = $7,
    cancel_reason = $8,
    checked_in_at = $9,
    flagged       = $10,
    flag_reason   = $11,
    updated_at    = $12
WHERE id = $1`

// Save writes back status, slot and transition metadata. Moving the claim
// re-checks the exclusion constraint, so a reschedule that lands on another
// active booking comes back as KindConflict.
func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	var cancelReason *string
	if b.CancelReason() != "" {
		reason := string(b.CancelReason())
		cancelReason = &reason
	}

	tag, err := r.db.Exec(ctx, updateBookingSQL,
		pgconv.UUIDToPgtype(b.ID()),
		b.Status().String(),
		pgconv.TimeToPgtype(b.Slot().Start()),
		pgconv.TimeToPgtype(b.Slot().End()),
		pgconv.TimeToPgtype(b.ClaimSlot().Start()),
		pgconv.TimeToPgtype(b.ClaimSlot().End()),
		pgconv.TimePtrToPgtype(b.CancelledAt()),
		pgconv.StringPtrToPgtype(cancelReason),
		pgconv.TimePtrToPgtype(b.CheckedInAt()),
		b.IsFlagged(),
		b.FlagReason(),
		pgconv.TimeToPgtype(b.UpdatedAt()),
	)
	if err != nil {
		return wrapPg("update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("update booking", nil, infra.KindNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		id, tenantID, serviceID, resourceID pgtype.UUID
		reference                           string
		startTime, endTime                  pgtype.Timestamptz
		claimStart, claimEnd                pgtype.Timestamptz
		name, phone, email                  string
		fieldValuesRaw                      []byte
		status                              string
		cancelledAt                         pgtype.Timestamptz
		cancelReason                        pgtype.Text
		checkedInAt                         pgtype.Timestamptz
		flagged                             bool
		flagReason                          string
		createdAt, updatedAt                pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &tenantID, &serviceID, &resourceID, &reference,
		&startTime, &endTime, &claimStart, &claimEnd,
		&name, &phone, &email, &fieldValuesRaw,
		&status, &cancelledAt, &cancelReason, &checkedInAt,
		&flagged, &flagReason, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, wrapPg("select booking", err)
	}

	var fieldValues map[string]any
	if len(fieldValuesRaw) > 0 {
		if err := json.Unmarshal(fieldValuesRaw, &fieldValues); err != nil {
			return nil, infra.WrapRepoErr("unmarshal field values", err)
		}
	}

	slot, err := schedule.NewTimeSlot(pgconv.TimeFromPgtype(startTime), pgconv.TimeFromPgtype(endTime))
	if err != nil {
		return nil, infra.WrapRepoErr("booking slot", err)
	}
	claim, err := schedule.NewTimeSlot(pgconv.TimeFromPgtype(claimStart), pgconv.TimeFromPgtype(claimEnd))
	if err != nil {
		return nil, infra.WrapRepoErr("booking claim slot", err)
	}

	var reason booking.CancelReason
	if cancelReason.Valid {
		reason = booking.CancelReason(cancelReason.String)
	}

	return booking.Reconstruct(
		pgconv.UUIDFromPgtype(id),
		pgconv.UUIDFromPgtype(tenantID),
		pgconv.UUIDFromPgtype(serviceID),
		pgconv.UUIDFromPgtype(resourceID),
		reference,
		slot, claim,
		booking.ReconstructCustomer(name, phone, email),
		fieldValues,
		booking.Status(status),
		pgconv.TimePtrFromPgtype(cancelledAt),
		reason,
		pgconv.TimePtrFromPgtype(checkedInAt),
		flagged,
		flagReason,
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}
