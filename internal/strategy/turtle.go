package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"turtle_bot/internal/models"
)

// Turtle - пробой канала с сайзингом по N и выходами по цели/стопу.
// Внутри нет блокировок: движок живёт в одной горутине-потребителе.
type Turtle struct {
	cfg      Config
	symbol   string
	periodMs int64

	high *ExtremumTracker
	low  *ExtremumTracker
	vol  *Volatility
	pos  *Positions

	usdtBalance  float64
	btcBalance   float64
	initialAsset float64

	// anchor - CloseTime последнего периода, уже вошедшего в окно
	anchor  int64
	pending *models.Candle

	newID func() string
}

func NewTurtle(cfg Config, seed []models.Candle, usdtBalance, btcBalance float64) (*Turtle, error) {
	cfg = cfg.withDefaults()
	if len(seed) < cfg.Window+1 {
		return nil, errors.Wrapf(ErrInsufficientSeedData, "got %d candles, need %d", len(seed), cfg.Window+1)
	}

	last := seed[len(seed)-1]
	periodMs := cfg.Period.Milliseconds()
	if periodMs <= 0 {
		periodMs = last.CloseTime - seed[len(seed)-2].CloseTime
	}
	if periodMs <= 0 {
		return nil, errors.Errorf("can't derive candle period from seed (close times %d, %d)",
			seed[len(seed)-2].CloseTime, last.CloseTime)
	}

	t := &Turtle{
		cfg:          cfg,
		symbol:       last.Symbol,
		periodMs:     periodMs,
		high:         NewMaxTracker(),
		low:          NewMinTracker(),
		vol:          NewVolatility(cfg.Window),
		pos:          NewPositions(cfg.MaxUnits),
		usdtBalance:  usdtBalance,
		btcBalance:   btcBalance,
		initialAsset: last.Close*btcBalance + usdtBalance,
		anchor:       last.CloseTime,
		newID:        uuid.NewString,
	}

	window := seed[len(seed)-cfg.Window:]
	highs := make([]ExtremumPoint, 0, len(window))
	lows := make([]ExtremumPoint, 0, len(window))
	for _, c := range window {
		highs = append(highs, ExtremumPoint{Value: c.High, Timestamp: c.CloseTime})
		lows = append(lows, ExtremumPoint{Value: c.Low, Timestamp: c.CloseTime})
	}
	if err := t.high.Initialize(highs); err != nil {
		return nil, err
	}
	if err := t.low.Initialize(lows); err != nil {
		return nil, err
	}
	if err := t.vol.Initialize(seed); err != nil {
		return nil, err
	}
	return t, nil
}

// OnCandle - один тик. Возвращает 0..2 ордера.
func (t *Turtle) OnCandle(c models.Candle) ([]models.OrderIntent, error) {
	// до roll: иначе мусор уйдёт в окно и N навсегда
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(ErrInvalidCandle, "close_time=%d o=%v h=%v l=%v c=%v",
				c.CloseTime, c.Open, c.High, c.Low, c.Close)
		}
	}
	t.roll(c)

	total := t.pos.MarkToMarket(c.Close, t.usdtBalance, t.btcBalance)

	n := t.vol.N()
	if !(n > minVolatility) || math.IsInf(n, 0) {
		return nil, errors.Wrapf(ErrDegenerateVolatility, "n=%v", n)
	}
	unit := t.cfg.RiskFraction * total / n
	if math.IsNaN(unit) || math.IsInf(unit, 0) {
		return nil, errors.Wrapf(ErrDegenerateVolatility, "unit=%v total=%v n=%v", unit, total, n)
	}

	// (a) пробой вверх
	if hi, ok := t.high.Current(); ok && unit > 0 && c.Close > hi && t.pos.CanAdd(Long) {
		if err := t.pos.Add(Long, unit, c.Close); err != nil {
			return nil, err
		}
		reason := fmt.Sprintf("breakout up: close=%.4f > high%d=%.4f n=%.4f", c.Close, t.cfg.Window, hi, n)
		return []models.OrderIntent{t.intent(c, models.SideBuy, unit, reason)}, nil
	}

	// (b) пробой вниз
	if lo, ok := t.low.Current(); ok && unit > 0 && c.Close < lo && t.pos.CanAdd(Short) {
		if err := t.pos.Add(Short, unit, c.Close); err != nil {
			return nil, err
		}
		reason := fmt.Sprintf("breakout down: close=%.4f < low%d=%.4f n=%.4f", c.Close, t.cfg.Window, lo, n)
		return []models.OrderIntent{t.intent(c, models.SideSell, unit, reason)}, nil
	}

	// (c) фиксируем прибыль по обеим сторонам
	if t.initialAsset > 0 && total/t.initialAsset > t.cfg.ProfitTarget {
		reason := fmt.Sprintf("take profit: equity=%.4f initial=%.4f", total, t.initialAsset)
		out := make([]models.OrderIntent, 0, 2)
		if t.pos.Len(Long) > 0 {
			out = append(out, t.intent(c, models.SideSell, t.pos.Exit(Long, c.Close), reason))
		}
		if t.pos.Len(Short) > 0 {
			out = append(out, t.intent(c, models.SideBuy, t.pos.Exit(Short, c.Close), reason))
		}
		return out, nil
	}

	stop := t.cfg.StopMultiple * n

	// (d) стоп по лонгу
	if last, ok := t.pos.Last(Long); ok && last.Price-c.Close > stop {
		reason := fmt.Sprintf("long stop: last entry=%.4f close=%.4f > %.4f", last.Price, c.Close, stop)
		return []models.OrderIntent{t.intent(c, models.SideSell, t.pos.Exit(Long, c.Close), reason)}, nil
	}

	// (e) стоп по шорту
	if last, ok := t.pos.Last(Short); ok && c.Close-last.Price > stop {
		reason := fmt.Sprintf("short stop: last entry=%.4f close=%.4f > %.4f", last.Price, c.Close, stop)
		return []models.OrderIntent{t.intent(c, models.SideBuy, t.pos.Exit(Short, c.Close), reason)}, nil
	}

	return nil, nil
}

// roll двигает окно. Когда приходит свеча следующего периода, отложенная
// (уже закрытая) свеча попадает в трекеры и в N, сама новая становится
// отложенной. Пробой поэтому сравнивается с предыдущими Window периодами.
func (t *Turtle) roll(c models.Candle) {
	if p := t.pending; p != nil && c.CloseTime > p.CloseTime {
		threshold := p.CloseTime - int64(t.cfg.Window-1)*t.periodMs
		t.high.Evict(threshold)
		t.low.Evict(threshold)
		t.high.Update(p.High, p.CloseTime)
		t.low.Update(p.Low, p.CloseTime)
		t.vol.Update(p.High, p.Low, p.Close)
		t.anchor = p.CloseTime
		t.pending = nil
	}
	if c.CloseTime > t.anchor {
		cp := c
		t.pending = &cp
	}
}

func (t *Turtle) intent(c models.Candle, side models.Side, quote float64, reason string) models.OrderIntent {
	symbol := c.Symbol
	if symbol == "" {
		symbol = t.symbol
	}
	return models.OrderIntent{
		ClientOrderID: t.newID(),
		Symbol:        symbol,
		Side:          side,
		Type:          models.OrderTypeMarket,
		QuoteQty:      quote,
		Reason:        reason,
		Timestamp:     c.CloseTime,
	}
}

// SetBalances обновляет балансы из аккаунта. initialAsset не трогаем.
func (t *Turtle) SetBalances(usdt, btc float64) {
	t.usdtBalance = usdt
	t.btcBalance = btc
}

func (t *Turtle) Period() time.Duration { return time.Duration(t.periodMs) * time.Millisecond }

func (t *Turtle) Snapshot() Snapshot {
	hi, _ := t.high.Current()
	lo, _ := t.low.Current()
	return Snapshot{
		Symbol:       t.symbol,
		High:         hi,
		Low:          lo,
		N:            t.vol.N(),
		Anchor:       t.anchor,
		Long:         t.pos.Entries(Long),
		Short:        t.pos.Entries(Short),
		USDT:         t.usdtBalance,
		BTC:          t.btcBalance,
		InitialAsset: t.initialAsset,
	}
}

func (t *Turtle) Dump() string {
	s := t.Snapshot()
	return fmt.Sprintf("Turtle[%s window=%d] H=%.4f L=%.4f N=%.4f long=%d short=%d anchor=%s",
		s.Symbol, t.cfg.Window, s.High, s.Low, s.N, len(s.Long), len(s.Short),
		time.UnixMilli(s.Anchor).UTC().Format(time.RFC3339))
}
