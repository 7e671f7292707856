package components

import (
	"bookingbot-engine/internal/pkg/clock"
	"bookingbot-engine/internal/usecase"
	"bookingbot-engine/internal/usecase/commands"
	"bookingbot-engine/internal/usecase/queries"

	"go.uber.org/fx"
)

var UsecaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		commands.NewBookingCommands,
		commands.NewPaymentCommands,
		commands.NewSweepCommands,
		queries.NewBookingQueries,
		queries.NewAvailabilityQueries,
		usecase.NewTokenValidator,
	),
)
