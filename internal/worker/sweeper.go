package worker

import (
	"context"
	"log/slog"
	"time"

	"bookingbot-engine/internal/pkg/config"
	"bookingbot-engine/internal/usecase/commands"
)

// Sweeper periodically reconciles bookings: expired payment holds are
// cancelled and elapsed confirmed bookings are completed.
type Sweeper struct {
	sweeps commands.SweepCommands
	cfg    config.BookingConfig
}

func NewSweeper(sweeps commands.SweepCommands, cfg config.BookingConfig) *Sweeper {
	return &Sweeper{sweeps: sweeps, cfg: cfg}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	expired, err := s.sweeps.ExpirePendingPayments(ctx)
	if err != nil {
		slog.Error("payment hold sweep failed", "error", err.Error())
	} else if expired > 0 {
		slog.Info("expired payment holds", "count", expired)
	}

	completed, err := s.sweeps.CompleteElapsed(ctx)
	if err != nil {
		slog.Error("completion sweep failed", "error", err.Error())
	} else if completed > 0 {
		slog.Info("completed elapsed bookings", "count", completed)
	}
}
