package strategy

import (
	"context"

	"go.uber.org/fx"

	"turtle_bot/internal/models"
	bootstrap "turtle_bot/internal/modules/bootstrap/service"
	health "turtle_bot/internal/modules/health/service"
	"turtle_bot/internal/modules/strategy/service"
)

// Module: на старте собираем движок из seed и запускаем hub loop.
// Ошибка seed роняет старт приложения.
func Module() fx.Option {
	return fx.Module("strategy",
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			seeder *bootstrap.Seeder,
			st *health.State,
			candles chan models.Candle, // от WS-модуля
			balances chan models.Balances, // от executor
			out chan models.OrderIntent, // в executor
		) {
			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					engine, err := seeder.Seed(startCtx)
					if err != nil {
						return err
					}
					hub := service.NewHub(engine, out, st)
					go hub.Run(ctx, candles, balances)
					st.SetReady(true)
					return nil
				},
				OnStop: func(context.Context) error {
					st.SetReady(false)
					return nil
				},
			})
		}),
	)
}
