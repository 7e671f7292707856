package bootstrap

import (
	"bookingbot-engine/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	MQModule,
	JWTModule,
	components.PersistenceModule,
	components.UsecaseModule,
	components.HandlerModule,
	WorkersModule,
)
