package repository

import (
	"context"
	"time"

	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

const insertIdempotencySQL = `
INSERT INTO idempotency_keys (key, tenant_id, endpoint, request_hash, status, expires_at)
VALUES ($1, $2, $3, $4, 'processing', $5)`

// TryInsert claims the key. A duplicate-key error means the key was used
// before; the caller decides between replay and rejection.
func (r *IdempotencyRepository) TryInsert(
	ctx context.Context,
	key, tenantID uuid.UUID,
	endpoint, requestHash string,
	expiresAt time.Time,
) error {
	_, err := r.db.Exec(ctx, insertIdempotencySQL,
		pgconv.UUIDToPgtype(key),
		pgconv.UUIDToPgtype(tenantID),
		endpoint,
		requestHash,
		pgconv.TimeToPgtype(expiresAt),
	)
	if err != nil {
		return wrapPg("insert idempotency key", err)
	}
	return nil
}

const completeIdempotencySQL = `
UPDATE idempotency_keys
SET status = 'completed', response_hash = $3, result_booking_id = $4, updated_at = now()
WHERE key = $1 AND tenant_id = $2`

func (r *IdempotencyRepository) MarkCompleted(
	ctx context.Context,
	key, tenantID uuid.UUID,
	responseHash string,
	bookingID uuid.UUID,
) error {
	tag, err := r.db.Exec(ctx, completeIdempotencySQL,
		pgconv.UUIDToPgtype(key),
		pgconv.UUIDToPgtype(tenantID),
		responseHash,
		pgconv.UUIDToPgtype(bookingID),
	)
	if err != nil {
		return wrapPg("complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("complete idempotency key", nil, infra.KindNotFound)
	}
	return nil
}
