package journal

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"turtle_bot/internal/modules/config"
	"turtle_bot/internal/modules/journal/service"
	"turtle_bot/pkg/db"
	"turtle_bot/pkg/logger"
)

// New выбирает журнал по journal.driver.
func New(ctx context.Context, cfg *config.Config) (service.Journal, error) {
	switch cfg.Journal.Driver {
	case "postgres":
		pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.Journal.DSN})
		if err != nil {
			return nil, fmt.Errorf("journal postgres: %w", err)
		}
		return service.NewPostgres(ctx, db.NewPgTxManager(pool))
	case "sqlite":
		return service.NewSQLite(cfg.Journal.DSN)
	default:
		return service.Nop{}, nil
	}
}

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(New),
		fx.Invoke(func(lc fx.Lifecycle, j service.Journal, cfg *config.Config) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					logger.Info("[JOURNAL] driver=%s", cfg.Journal.Driver)
					return nil
				},
				OnStop: func(context.Context) error {
					return j.Close()
				},
			})
		}),
	)
}
