package bootstrap

import (
	"context"

	"bookingbot-engine/internal/worker"

	"go.uber.org/fx"
)

var WorkersModule = fx.Module("workers",
	fx.Provide(
		worker.NewSweeper,
		worker.NewRelay,
	),
	fx.Invoke(
		startWorkers,
	),
)

func startWorkers(lc fx.Lifecycle, sweeper *worker.Sweeper, relay *worker.Relay) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go sweeper.Run(ctx)
			go relay.Run(ctx)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			// Flush anything the transactions just committed.
			relay.DrainOnce(stopCtx)
			return nil
		},
	})
}
