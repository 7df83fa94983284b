package bootstrap

import (
	"go.uber.org/fx"

	binance "turtle_bot/internal/modules/binance_client/service"
	bootstrap "turtle_bot/internal/modules/bootstrap/service"
	"turtle_bot/internal/modules/config"
	"turtle_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(cfg *config.Config, client *binance.Client, n notify.Notifier) *bootstrap.Seeder {
				return bootstrap.NewSeeder(cfg, client, client, n)
			},
		),
	)
}
