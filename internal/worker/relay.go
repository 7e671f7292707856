package worker

import (
	"context"
	"log/slog"
	"time"

	"bookingbot-engine/internal/infra/mq"
	"bookingbot-engine/internal/pkg/clock"
	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/shared"
)

// Relay drains the outbox to the message broker. Claiming uses SKIP LOCKED,
// so running several relays concurrently splits the batch rather than
// double-publishing; delivery remains at-least-once because a crash between
// publish and MarkPublished requeues the job.
type Relay struct {
	outbox shared.OutboxRepository
	pub    mq.EventPublisher
	clk    clock.Clock
	cfg    config.BookingConfig
}

func NewRelay(outbox shared.OutboxRepository, pub mq.EventPublisher, clk clock.Clock, cfg config.BookingConfig) *Relay {
	return &Relay{outbox: outbox, pub: pub, clk: clk, cfg: cfg}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RelayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce claims and publishes one batch. Exposed so tests and shutdown
// hooks can flush without the ticker.
func (r *Relay) DrainOnce(ctx context.Context) {
	jobs, err := r.outbox.ClaimDue(ctx, r.clk.Now(), r.cfg.RelayBatchSize)
	if err != nil {
		slog.Error("outbox claim failed", "error", err.Error())
		return
	}

	for _, job := range jobs {
		if err := r.pub.Publish(ctx, job.Topic, job.Payload); err != nil {
			slog.Warn("outbox publish failed",
				"job_id", job.ID, "topic", job.Topic, "attempts", job.Attempts, "error", err.Error())
			if markErr := r.outbox.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
				slog.Error("outbox mark failed errored", "job_id", job.ID, "error", markErr.Error())
			}
			continue
		}
		if err := r.outbox.MarkPublished(ctx, job.ID); err != nil {
			slog.Error("outbox mark published errored", "job_id", job.ID, "error", err.Error())
		}
	}
}
