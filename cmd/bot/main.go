package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.uber.org/fx"

	"turtle_bot/internal/modules/binance_client"
	"turtle_bot/internal/modules/binance_websocket"
	"turtle_bot/internal/modules/bootstrap"
	"turtle_bot/internal/modules/config"
	"turtle_bot/internal/modules/executor"
	executor_service "turtle_bot/internal/modules/executor/service"
	"turtle_bot/internal/modules/health"
	health_service "turtle_bot/internal/modules/health/service"
	"turtle_bot/internal/modules/journal"
	"turtle_bot/internal/modules/strategy"
	"turtle_bot/internal/notify"
	turtle "turtle_bot/internal/strategy"
	"turtle_bot/pkg/logger"
	"turtle_bot/pkg/tracing"
)

const serviceName = "turtle_bot"

func main() {
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			// общий контекст приложения, отменяется на OnStop
			func(lc fx.Lifecycle) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{OnStop: func(context.Context) error {
					cancel()
					return nil
				}})
				return ctx
			},
			// Notifier: без telegram пишем в лог
			func(cfg *config.Config, st *health_service.State) notify.Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					status := func() string {
						if s, ok := st.Snapshot().(turtle.Snapshot); ok {
							return s.Text()
						}
						return "⏳ Стратегия ещё не готова"
					}
					tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, status)
					if err == nil {
						return tg
					}
					logger.Error("[TG] init: %v, fallback to stdout", err)
				}
				return notify.NewStdout()
			},
		),
		config.Module(),
		// логгер и трейсер раньше всех остальных модулей
		fx.Module("observability", fx.Invoke(initObservability)),
		health.Module(),
		journal.Module(),
		binance_client.Module(),
		binance_websocket.Module(),
		bootstrap.Module(),
		executor.Module(),
		strategy.Module(),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, n notify.Notifier, cfg *config.Config, exec *executor_service.Executor) {
			if tg, ok := n.(*notify.Telegram); ok {
				tg.Handle("orders", func() string { return exec.Report(ctx, 10) })
			}
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					if tg, ok := n.(*notify.Telegram); ok {
						if err := tg.Start(ctx); err != nil {
							return err
						}
					}
					logger.Info("bot started: %s %s mode=%s", cfg.Symbol, cfg.Interval, cfg.Executor.Mode)
					return nil
				},
				OnStop: func(context.Context) error {
					if tg, ok := n.(*notify.Telegram); ok {
						tg.Stop()
					}
					logger.Info("stopping...")
					logger.Sync()
					return nil
				},
			})
		}),
	)
	app.Run()
}

func initObservability(lc fx.Lifecycle, cfg *config.Config) error {
	if err := logger.Init(logger.Config{Level: strings.ToLower(cfg.Log.Level), File: cfg.Log.File}); err != nil {
		log.Printf("logger init: %v", err)
		return err
	}
	logger.SetServiceName(serviceName)
	tracing.SetServiceName(serviceName)

	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		closer()
		return nil
	}})
	return nil
}
