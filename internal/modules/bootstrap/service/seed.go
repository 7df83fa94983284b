package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"turtle_bot/internal/models"
	binance "turtle_bot/internal/modules/binance_client/service"
	"turtle_bot/internal/modules/config"
	"turtle_bot/internal/notify"
	"turtle_bot/internal/strategy"
	"turtle_bot/pkg/logger"
)

// запас сверх window+1: последняя строка klines обычно ещё не закрыта
const seedExtra = 5

type KlineSource interface {
	GetKlines(ctx context.Context, q binance.KlineQuery) ([]models.Candle, error)
}

type BalanceSource interface {
	Balances(ctx context.Context, symbol string) (models.Balances, error)
}

// Seeder собирает движок: история через REST, балансы из аккаунта или конфига.
type Seeder struct {
	cfg      *config.Config
	klines   KlineSource
	balances BalanceSource
	n        notify.Notifier
}

func NewSeeder(cfg *config.Config, klines KlineSource, balances BalanceSource, n notify.Notifier) *Seeder {
	return &Seeder{cfg: cfg, klines: klines, balances: balances, n: n}
}

func (s *Seeder) Seed(ctx context.Context) (*strategy.Turtle, error) {
	sc := s.cfg.StrategyConfig()
	window := sc.Window
	if window <= 0 {
		window = strategy.DefaultWindow
	}

	raw, err := s.klines.GetKlines(ctx, binance.KlineQuery{
		Symbol:   s.cfg.Symbol,
		Interval: s.cfg.Interval,
		Limit:    window + 1 + seedExtra,
	})
	if err != nil {
		return nil, errors.Wrap(err, "seed klines")
	}
	candles := ClosedOnly(raw)

	bal, err := s.initialBalances(ctx)
	if err != nil {
		return nil, err
	}

	t, err := strategy.NewTurtle(sc, candles, bal.Quote, bal.Base)
	if err != nil {
		return nil, err
	}

	logger.Info("[BOOT] seeded %s from %d candles: %s", s.cfg.Symbol, len(candles), t.Dump())
	if s.n != nil {
		s.n.Send(fmt.Sprintf("🔥 Стратегия запущена: %s %s\n%s",
			s.cfg.Symbol, s.cfg.Interval, t.Snapshot().Text()))
	}
	return t, nil
}

func (s *Seeder) initialBalances(ctx context.Context) (models.Balances, error) {
	if s.cfg.Balances.Source != "account" {
		return models.Balances{Quote: s.cfg.Balances.USDT, Base: s.cfg.Balances.BTC}, nil
	}
	if s.balances == nil {
		return models.Balances{}, errors.New("balances.source=account but no account client")
	}
	b, err := s.balances.Balances(ctx, s.cfg.Symbol)
	if err != nil {
		return models.Balances{}, errors.Wrap(err, "seed balances")
	}
	return b, nil
}

// ClosedOnly отбрасывает незакрытые свечи.
func ClosedOnly(in []models.Candle) []models.Candle {
	out := make([]models.Candle, 0, len(in))
	for _, c := range in {
		if c.Closed {
			out = append(out, c)
		}
	}
	return out
}
