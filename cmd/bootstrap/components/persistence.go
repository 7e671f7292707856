package components

import (
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/infra/readstore"
	"bookingbot-engine/internal/infra/repository"
	"bookingbot-engine/internal/infra/uow"
	"bookingbot-engine/internal/usecase/queries"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewCommandReadStore,
			fx.As(new(shared.CommandReads)),
		),
		fx.Annotate(
			readstore.NewSweepReadStore,
			fx.As(new(shared.SweepReads)),
		),
		fx.Annotate(
			readstore.NewBookingViewStore,
			fx.As(new(queries.BookingViewRepo)),
		),
		// Outbox over the pool for the relay worker; in-transaction access
		// goes through the unit of work.
		fx.Annotate(
			repository.NewOutboxRepository,
			fx.As(new(shared.OutboxRepository)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
