package binance_websocket

import (
	"context"

	"go.uber.org/fx"

	"turtle_bot/internal/models"
	"turtle_bot/internal/modules/binance_websocket/service"
	health "turtle_bot/internal/modules/health/service"
)

// Module поднимает kline-стрим binance.
func Module() fx.Option {
	return fx.Module("binance_websocket",
		fx.Provide(
			func(st *health.State) service.Status { return st },
			service.NewClient,
			func() chan models.Candle {
				// буфер между ws и стратегией
				return make(chan models.Candle, 256)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, s *service.Client, out chan models.Candle) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go s.Start(ctx, out)
					return nil
				},
			})
		}),
	)
}
