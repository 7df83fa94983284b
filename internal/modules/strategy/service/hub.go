package service

import (
	"context"

	"github.com/pkg/errors"

	"turtle_bot/internal/models"
	"turtle_bot/internal/strategy"
	"turtle_bot/pkg/logger"
	"turtle_bot/pkg/tracing"
)

// Publisher - куда отдаём снимок состояния после каждого тика (health).
type Publisher interface {
	SetSnapshot(v any)
}

// Hub - единственный владелец движка. Все вызовы движка идут из Run.
type Hub struct {
	engine strategy.Engine
	out    chan<- models.OrderIntent
	pub    Publisher

	// всё, что закрылось не позже этого момента, уже учтено в seed
	seedAnchor int64
}

func NewHub(engine strategy.Engine, out chan<- models.OrderIntent, pub Publisher) *Hub {
	h := &Hub{
		engine:     engine,
		out:        out,
		pub:        pub,
		seedAnchor: engine.Snapshot().Anchor,
	}
	h.publish()
	return h
}

// Run - hub loop: свечи из ws, балансы из executor.
func (h *Hub) Run(ctx context.Context, candles <-chan models.Candle, balances <-chan models.Balances) {
	logger.Info("[STRAT] hub loop started: %s", h.engine.Dump())
	defer logger.Info("[STRAT] hub loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case b := <-balances:
			h.engine.SetBalances(b.Quote, b.Base)
			h.publish()
		case c, ok := <-candles:
			if !ok {
				return
			}
			if err := h.OnCandle(ctx, c); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Error("[STRAT] %s close=%.4f: %v", c.Symbol, c.Close, err)
			}
		}
	}
}

// OnCandle прогоняет тик через движок и отправляет интенты дальше.
// Свечи из перекрытия с seed пропускаются.
func (h *Hub) OnCandle(ctx context.Context, c models.Candle) (err error) {
	if c.CloseTime <= h.seedAnchor {
		return nil
	}

	span, ctx := tracing.StartSpan(ctx, "strategy.on_candle", map[string]any{
		"symbol":     c.Symbol,
		"close_time": c.CloseTime,
	})
	defer func() {
		tracing.Fail(span, err)
		span.Finish()
	}()

	intents, err := h.engine.OnCandle(c)
	if err != nil {
		return err
	}
	h.publish()

	for _, in := range intents {
		logger.Info("[STRAT] intent %s", in)
		select {
		case h.out <- in:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h *Hub) publish() {
	if h.pub != nil {
		h.pub.SetSnapshot(h.engine.Snapshot())
	}
}
