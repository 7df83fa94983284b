package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtle_bot/internal/models"
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

func seed() []models.Candle {
	out := make([]models.Candle, 0, 21)
	for i := 0; i < 21; i++ {
		h := 100 + float64(i)
		out = append(out, models.Candle{
			Symbol: "BTCUSDT", OpenTime: int64(i) * dayMs, CloseTime: int64(i+1)*dayMs - 1,
			Open: h - 2, High: h, Low: h - 5, Close: h - 1, Closed: true,
		})
	}
	return out
}

func tick(idx int, high, low, close float64) models.Candle {
	return models.Candle{
		Symbol: "BTCUSDT", OpenTime: int64(idx) * dayMs, CloseTime: int64(idx+1)*dayMs - 1,
		Open: close, High: high, Low: low, Close: close, Closed: true,
	}
}

type snapStore struct {
	mu   sync.Mutex
	last any
	n    int
}

func (s *snapStore) SetSnapshot(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = v
	s.n++
}

func (s *snapStore) get() (strategy.Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _ := s.last.(strategy.Snapshot)
	return snap, s.n
}

func newHub(t *testing.T, out chan models.OrderIntent, pub Publisher) *Hub {
	t.Helper()
	eng, err := strategy.NewTurtle(strategy.DefaultConfig(), seed(), 10000, 0)
	require.NoError(t, err)
	return NewHub(eng, out, pub)
}

func TestHubOnCandleEmitsIntent(t *testing.T) {
	out := make(chan models.OrderIntent, 4)
	pub := &snapStore{}
	h := newHub(t, out, pub)

	require.NoError(t, h.OnCandle(context.Background(), tick(21, 126, 121, 125)))
	require.Len(t, out, 1)
	in := <-out
	assert.Equal(t, models.SideBuy, in.Side)
	assert.InDelta(t, 2000.0, in.QuoteQty, 1e-9)

	snap, n := pub.get()
	assert.Equal(t, 2, n)
	require.Len(t, snap.Long, 1)
}

func TestHubSkipsSeedOverlap(t *testing.T) {
	out := make(chan models.OrderIntent, 4)
	h := newHub(t, out, nil)

	// последняя свеча seed с ценой выше канала - но она уже учтена
	require.NoError(t, h.OnCandle(context.Background(), tick(20, 200, 195, 200)))
	assert.Empty(t, out)
}

func TestHubRunContinuesAfterEngineError(t *testing.T) {
	flat := make([]models.Candle, 0, 21)
	for i := 0; i < 21; i++ {
		flat = append(flat, models.Candle{Symbol: "BTCUSDT", CloseTime: int64(i+1)*dayMs - 1,
			Open: 100, High: 100, Low: 100, Close: 100})
	}
	eng, err := strategy.NewTurtle(strategy.DefaultConfig(), flat, 10000, 0)
	require.NoError(t, err)

	out := make(chan models.OrderIntent, 4)
	pub := &snapStore{}
	h := NewHub(eng, out, pub)

	candles := make(chan models.Candle, 3)
	balances := make(chan models.Balances, 1)
	// n=0 пока не закоммитится свеча с ненулевым TR
	candles <- tick(21, 101, 99, 100)
	candles <- tick(22, 101, 99, 100)
	close(candles)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Run(ctx, candles, balances)

	snap, _ := pub.get()
	assert.Equal(t, int64(22)*dayMs-1, snap.Anchor)
	assert.InDelta(t, 0.1, snap.N, 1e-12)
}

func TestHubRunAppliesBalances(t *testing.T) {
	out := make(chan models.OrderIntent, 4)
	pub := &snapStore{}
	h := newHub(t, out, pub)

	candles := make(chan models.Candle)
	balances := make(chan models.Balances, 1)
	balances <- models.Balances{Quote: 500, Base: 1}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, candles, balances)
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap, _ := pub.get()
		return snap.USDT == 500 && snap.BTC == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	snap, _ := pub.get()
	assert.Equal(t, 10000.0, snap.InitialAsset)
}
