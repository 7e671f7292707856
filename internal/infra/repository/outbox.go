package repository

import (
	"context"
	"time"

	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// maxOutboxAttempts bounds republish retries before a job is parked as
// failed for manual intervention.
const maxOutboxAttempts = 10

type OutboxRepository struct {
	db db.DBTX
}

func NewOutboxRepository(dbtx db.DBTX) *OutboxRepository {
	return &OutboxRepository{db: dbtx}
}

const enqueueOutboxSQL = `
INSERT INTO outbox_jobs (kind, topic, payload, run_at)
VALUES ($1, $2, $3, $4)`

func (r *OutboxRepository) Enqueue(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx, enqueueOutboxSQL, kind, topic, payload, pgconv.TimeToPgtype(runAt))
	if err != nil {
		return wrapPg("enqueue outbox job", err)
	}
	return nil
}

// SKIP LOCKED lets concurrent relay workers claim disjoint batches.
const claimOutboxSQL = `
UPDATE outbox_jobs
SET status = 'publishing', attempts = attempts + 1, updated_at = now()
WHERE id IN (
    SELECT id FROM outbox_jobs
    WHERE status = 'queued' AND run_at <= $1
    ORDER BY run_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
RETURNING id, kind, topic, payload, run_at, attempts`

func (r *OutboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]shared.OutboxJob, error) {
	rows, err := r.db.Query(ctx, claimOutboxSQL, pgconv.TimeToPgtype(now), limit)
	if err != nil {
		return nil, wrapPg("claim outbox jobs", err)
	}
	defer rows.Close()

	var jobs []shared.OutboxJob
	for rows.Next() {
		var (
			id    pgtype.UUID
			job   shared.OutboxJob
			runAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &job.Kind, &job.Topic, &job.Payload, &runAt, &job.Attempts); err != nil {
			return nil, wrapPg("scan outbox job", err)
		}
		job.ID = pgconv.UUIDFromPgtype(id)
		job.RunAt = pgconv.TimeFromPgtype(runAt)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPg("claim outbox jobs", err)
	}
	return jobs, nil
}

const publishedOutboxSQL = `
UPDATE outbox_jobs
SET status = 'published', updated_at = now()
WHERE id = $1`

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, publishedOutboxSQL, pgconv.UUIDToPgtype(id))
	if err != nil {
		return wrapPg("mark outbox job published", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("mark outbox job published", nil, infra.KindNotFound)
	}
	return nil
}

// MarkFailed requeues with linear backoff until the attempt cap, then parks
// the job as failed.
const failedOutboxSQL = `
UPDATE outbox_jobs
SET status     = CASE WHEN attempts >= $2 THEN 'failed' ELSE 'queued' END,
    run_at     = now() + make_interval(secs => least(attempts * 30, 600)),
    last_error = $3,
    updated_at = now()
WHERE id = $1`

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	tag, err := r.db.Exec(ctx, failedOutboxSQL, pgconv.UUIDToPgtype(id), maxOutboxAttempts, lastError)
	if err != nil {
		return wrapPg("mark outbox job failed", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("mark outbox job failed", nil, infra.KindNotFound)
	}
	return nil
}
