package readstore

import (
	"context"
	"encoding/json"

	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"
	"bookingbot-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingViewStore struct {
	db db.DBTX
}

func NewBookingViewStore(dbtx db.DBTX) *BookingViewStore {
	return &BookingViewStore{db: dbtx}
}

// The latest payment attempt wins the joined payment columns; superseded
// and earlier failed attempts stay out of the view.
const selectBookingViewSQL = `
SELECT b.id, b.tenant_id, b.service_id, s.name, b.resource_id, r.name,
       b.reference, b.start_time, b.end_time,
       b.customer_name, b.customer_phone, b.customer_email, b.field_values,
       b.status, b.cancel_reason, b.flagged,
       p.status, p.amount_kobo,
       b.created_at, b.updated_at
FROM bookings b
JOIN services s ON s.id = b.service_id
JOIN resources r ON r.id = b.resource_id
LEFT JOIN LATERAL (
    SELECT status, amount_kobo
    FROM payment_records
    WHERE booking_id = b.id
    ORDER BY attempt DESC
    LIMIT 1
) p ON true
WHERE b.tenant_id = $1 AND b.id = $2`

func (s *BookingViewStore) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*queries.BookingView, error) {
	var (
		bid, tid, sid, rid   pgtype.UUID
		view                 queries.BookingView
		fieldValuesRaw       []byte
		cancelReason         pgtype.Text
		payStatus            pgtype.Text
		amountKobo           pgtype.Int8
		startTime, endTime   pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, selectBookingViewSQL,
		pgconv.UUIDToPgtype(tenantID), pgconv.UUIDToPgtype(id)).Scan(
		&bid, &tid, &sid, &view.ServiceName, &rid, &view.ResourceName,
		&view.Reference, &startTime, &endTime,
		&view.CustomerName, &view.CustomerPhone, &view.CustomerEmail, &fieldValuesRaw,
		&view.Status, &cancelReason, &view.Flagged,
		&payStatus, &amountKobo,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, wrapRead("select booking view", err)
	}

	view.ID = pgconv.UUIDFromPgtype(bid)
	view.TenantID = pgconv.UUIDFromPgtype(tid)
	view.ServiceID = pgconv.UUIDFromPgtype(sid)
	view.ResourceID = pgconv.UUIDFromPgtype(rid)
	view.StartTime = pgconv.TimeFromPgtype(startTime)
	view.EndTime = pgconv.TimeFromPgtype(endTime)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	view.CancelReason = pgconv.StringPtrFromPgtype(cancelReason)
	view.PaymentStatus = pgconv.StringPtrFromPgtype(payStatus)
	if amountKobo.Valid {
		view.AmountKobo = &amountKobo.Int64
	}
	if len(fieldValuesRaw) > 0 {
		if err := json.Unmarshal(fieldValuesRaw, &view.FieldValues); err != nil {
			return nil, infra.WrapRepoErr("unmarshal field values", err)
		}
	}
	return &view, nil
}

const listBookingsSQL = `
SELECT b.id, s.name, r.name, b.reference, b.start_time, b.end_time, b.status, b.created_at
FROM bookings b
JOIN services s ON s.id = b.service_id
JOIN resources r ON r.id = b.resource_id
WHERE b.tenant_id = $1
ORDER BY b.created_at DESC
LIMIT $2 OFFSET $3`

func (s *BookingViewStore) FindByTenantPaginated(
	ctx context.Context,
	tenantID uuid.UUID,
	limit, offset int32,
) ([]*queries.BookingListItem, error) {
	rows, err := s.db.Query(ctx, listBookingsSQL, pgconv.UUIDToPgtype(tenantID), limit, offset)
	if err != nil {
		return nil, wrapRead("list bookings", err)
	}
	defer rows.Close()

	var out []*queries.BookingListItem
	for rows.Next() {
		var (
			id                 pgtype.UUID
			item               queries.BookingListItem
			startTime, endTime pgtype.Timestamptz
			createdAt          pgtype.Timestamptz
		)
		err := rows.Scan(&id, &item.ServiceName, &item.ResourceName, &item.Reference,
			&startTime, &endTime, &item.Status, &createdAt)
		if err != nil {
			return nil, wrapRead("scan booking row", err)
		}
		item.ID = pgconv.UUIDFromPgtype(id)
		item.StartTime = pgconv.TimeFromPgtype(startTime)
		item.EndTime = pgconv.TimeFromPgtype(endTime)
		item.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRead("list bookings", err)
	}
	return out, nil
}
