package executor

import (
	"context"

	"go.uber.org/fx"

	"turtle_bot/internal/models"
	binance "turtle_bot/internal/modules/binance_client/service"
	"turtle_bot/internal/modules/config"
	"turtle_bot/internal/modules/executor/service"
	health "turtle_bot/internal/modules/health/service"
	journal "turtle_bot/internal/modules/journal/service"
	"turtle_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			// интенты от стратегии
			func(cfg *config.Config) chan models.OrderIntent {
				return make(chan models.OrderIntent, cfg.Executor.Queue)
			},
			// балансы обратно в стратегию
			func() chan models.Balances {
				return make(chan models.Balances, 4)
			},
			func(
				cfg *config.Config,
				client *binance.Client,
				j journal.Journal,
				n notify.Notifier,
				st *health.State,
				balances chan models.Balances,
			) *service.Executor {
				return service.New(service.Params{
					Mode:           cfg.Executor.Mode,
					Symbol:         cfg.Symbol,
					SyncBalances:   cfg.Balances.Source == "account",
					Exchange:       client,
					Journal:        j,
					Notifier:       n,
					Counters:       st,
					BalanceUpdates: balances,
				})
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, e *service.Executor, in chan models.OrderIntent) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go e.Run(ctx, in)
					return nil
				},
			})
		}),
	)
}
