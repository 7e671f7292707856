package repository

import (
	"context"

	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type PaymentRepository struct {
	db db.DBTX
}

func NewPaymentRepository(dbtx db.DBTX) *PaymentRepository {
	return &PaymentRepository{db: dbtx}
}

const insertPaymentSQL = `
INSERT INTO payment_records (
    id, booking_id, amount_kobo, provider, reference,
    status, attempt, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *PaymentRepository) Create(ctx context.Context, rec *payment.Record) error {
	_, err := r.db.Exec(ctx, insertPaymentSQL,
		pgconv.UUIDToPgtype(rec.ID()),
		pgconv.UUIDToPgtype(rec.BookingID()),
		rec.Amount().Kobo(),
		rec.Provider(),
		rec.Reference(),
		rec.Status().String(),
		rec.Attempt(),
		pgconv.TimeToPgtype(rec.CreatedAt()),
		pgconv.TimeToPgtype(rec.UpdatedAt()),
	)
	if err != nil {
		return wrapPg("insert payment record", err)
	}
	return nil
}

const selectPaymentSQL = `
SELECT id, booking_id, amount_kobo, provider, reference,
       status, attempt, created_at, updated_at
FROM payment_records`

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*payment.Record, error) {
	row := r.db.QueryRow(ctx, selectPaymentSQL+` WHERE reference = $1 FOR UPDATE`, reference)
	return scanPayment(row)
}

func (r *PaymentRepository) FindCurrentByBooking(ctx context.Context, bookingID uuid.UUID) (*payment.Record, error) {
	row := r.db.QueryRow(ctx,
		selectPaymentSQL+` WHERE booking_id = $1 ORDER BY attempt DESC LIMIT 1 FOR UPDATE`,
		pgconv.UUIDToPgtype(bookingID),
	)
	return scanPayment(row)
}

const updatePaymentSQL = `
UPDATE payment_records
SET status = $2, updated_at = $3
WHERE id = $1`

func (r *PaymentRepository) Save(ctx context.Context, rec *payment.Record) error {
	tag, err := r.db.Exec(ctx, updatePaymentSQL,
		pgconv.UUIDToPgtype(rec.ID()),
		rec.Status().String(),
		pgconv.TimeToPgtype(rec.UpdatedAt()),
	)
	if err != nil {
		return wrapPg("update payment record", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("update payment record", nil, infra.KindNotFound)
	}
	return nil
}

func scanPayment(row rowScanner) (*payment.Record, error) {
	var (
		id, bookingID        pgtype.UUID
		amountKobo           int64
		provider, reference  string
		status               string
		attempt              int
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &bookingID, &amountKobo, &provider, &reference,
		&status, &attempt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, wrapPg("select payment record", err)
	}

	amount, err := payment.NewMoney(amountKobo)
	if err != nil {
		return nil, infra.WrapRepoErr("payment amount", err)
	}
	return payment.Reconstruct(
		pgconv.UUIDFromPgtype(id),
		pgconv.UUIDFromPgtype(bookingID),
		amount,
		provider,
		reference,
		payment.Status(status),
		attempt,
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}
