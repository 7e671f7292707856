package bootstrap

import (
	"context"

	"bookingbot-engine/internal/infra/mq"
	"bookingbot-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var MQModule = fx.Module("mq",
	fx.Provide(
		fx.Annotate(
			NewMQPublisher,
			fx.As(new(mq.EventPublisher)),
		),
	),
)

func NewMQPublisher(lc fx.Lifecycle, cfg config.Config) (*mq.Publisher, error) {
	pub, err := mq.NewPublisher(cfg.MQ)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})

	return pub, nil
}
