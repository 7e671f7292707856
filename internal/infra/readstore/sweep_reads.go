package readstore

import (
	"context"
	"time"

	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// SweepReadStore lists sweep candidates. Listings run without locks; the
// sweep re-validates each booking under a row lock before acting.
type SweepReadStore struct {
	db db.DBTX
}

func NewSweepReadStore(dbtx db.DBTX) *SweepReadStore {
	return &SweepReadStore{db: dbtx}
}

const pendingPaymentSQL = `
SELECT id FROM bookings
WHERE status = 'pending_payment' AND created_at <= $1
ORDER BY created_at
LIMIT $2`

func (s *SweepReadStore) PendingPaymentOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	return s.listIDs(ctx, pendingPaymentSQL, pgconv.TimeToPgtype(cutoff), limit)
}

const confirmedEndedSQL = `
SELECT id FROM bookings
WHERE status = 'confirmed' AND end_time < $1
ORDER BY end_time
LIMIT $2`

func (s *SweepReadStore) ConfirmedEndedBefore(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return s.listIDs(ctx, confirmedEndedSQL, pgconv.TimeToPgtype(now), limit)
}

func (s *SweepReadStore) listIDs(ctx context.Context, sql string, arg any, limit int) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, sql, arg, limit)
	if err != nil {
		return nil, wrapRead("list sweep candidates", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapRead("scan sweep candidate", err)
		}
		out = append(out, pgconv.UUIDFromPgtype(id))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRead("list sweep candidates", err)
	}
	return out, nil
}
