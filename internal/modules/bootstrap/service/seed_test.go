package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtle_bot/internal/models"
	binance "turtle_bot/internal/modules/binance_client/service"
	"turtle_bot/internal/modules/config"
	"turtle_bot/internal/strategy"
	"turtle_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.Config{Level: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const dayMs = int64(24 * time.Hour / time.Millisecond)

type fakeKlines struct {
	candles []models.Candle
	got     binance.KlineQuery
}

func (f *fakeKlines) GetKlines(_ context.Context, q binance.KlineQuery) ([]models.Candle, error) {
	f.got = q
	return f.candles, nil
}

type fakeBalances struct{ b models.Balances }

func (f fakeBalances) Balances(context.Context, string) (models.Balances, error) { return f.b, nil }

func history(n int, lastOpen bool) []models.Candle {
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		h := 100 + float64(i)
		out = append(out, models.Candle{
			Symbol: "BTCUSDT", OpenTime: int64(i) * dayMs, CloseTime: int64(i+1)*dayMs - 1,
			High: h, Low: h - 5, Close: h - 1, Closed: true,
		})
	}
	if lastOpen {
		out[n-1].Closed = false
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Symbol:   "BTCUSDT",
		Interval: "1d",
		Window:   20,
		Balances: config.Balances{Source: "config", USDT: 10000},
	}
}

func TestSeedDropsOpenCandle(t *testing.T) {
	kl := &fakeKlines{candles: history(22, true)}
	s := NewSeeder(testConfig(), kl, nil, nil)

	eng, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26, kl.got.Limit)
	assert.Equal(t, "1d", kl.got.Interval)

	snap := eng.Snapshot()
	// последняя закрытая - индекс 20
	assert.Equal(t, int64(21)*dayMs-1, snap.Anchor)
	assert.Equal(t, 120.0, snap.High)
	assert.Equal(t, 10000.0, snap.USDT)
}

func TestSeedNotEnoughClosed(t *testing.T) {
	s := NewSeeder(testConfig(), &fakeKlines{candles: history(21, true)}, nil, nil)
	_, err := s.Seed(context.Background())
	require.ErrorIs(t, err, strategy.ErrInsufficientSeedData)
}

func TestSeedAccountBalances(t *testing.T) {
	cfg := testConfig()
	cfg.Balances.Source = "account"
	s := NewSeeder(cfg, &fakeKlines{candles: history(21, false)}, fakeBalances{models.Balances{Quote: 700, Base: 2}}, nil)

	eng, err := s.Seed(context.Background())
	require.NoError(t, err)
	snap := eng.Snapshot()
	assert.Equal(t, 700.0, snap.USDT)
	assert.Equal(t, 2.0, snap.BTC)
	assert.Equal(t, 119.0*2+700, snap.InitialAsset)
}
