package strategy

import (
	"fmt"
	"strings"
	"time"

	"turtle_bot/internal/models"
)

const (
	DefaultWindow       = 20
	DefaultMaxUnits     = 4
	DefaultRiskFraction = 1.0
	DefaultProfitTarget = 1.5
	DefaultStopMultiple = 2.0

	// ниже этого N считаем вырожденным
	minVolatility = 1e-12
)

// Config - параметры черепах.
type Config struct {
	Window       int           // окно канала и ATR, обычно 20
	Period       time.Duration // длина свечи; 0 - вывести из seed
	MaxUnits     int           // максимум входов на сторону
	RiskFraction float64       // unit = RiskFraction * equity / N
	ProfitTarget float64       // выход из всего при equity/initial > ProfitTarget
	StopMultiple float64       // стоп через StopMultiple * N от последнего входа
}

func DefaultConfig() Config {
	return Config{
		Window:       DefaultWindow,
		Period:       24 * time.Hour,
		MaxUnits:     DefaultMaxUnits,
		RiskFraction: DefaultRiskFraction,
		ProfitTarget: DefaultProfitTarget,
		StopMultiple: DefaultStopMultiple,
	}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxUnits <= 0 {
		c.MaxUnits = DefaultMaxUnits
	}
	if c.RiskFraction <= 0 {
		c.RiskFraction = DefaultRiskFraction
	}
	if c.ProfitTarget <= 0 {
		c.ProfitTarget = DefaultProfitTarget
	}
	if c.StopMultiple <= 0 {
		c.StopMultiple = DefaultStopMultiple
	}
	return c
}

// Snapshot - состояние движка для логов и /status.
type Snapshot struct {
	Symbol       string          `json:"symbol"`
	High         float64         `json:"high"`
	Low          float64         `json:"low"`
	N            float64         `json:"n"`
	Anchor       int64           `json:"anchor"`
	Long         []PositionEntry `json:"long"`
	Short        []PositionEntry `json:"short"`
	USDT         float64         `json:"usdt"`
	BTC          float64         `json:"btc"`
	InitialAsset float64         `json:"initial_asset"`
}

// Engine - то, что дергает hub. Вызывать строго из одной горутины.
type Engine interface {
	OnCandle(c models.Candle) ([]models.OrderIntent, error)
	SetBalances(usdt, btc float64)
	Snapshot() Snapshot
	Dump() string
}

// Text - человекочитаемый вид для телеграма.
func (s Snapshot) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🐢 %s\n", s.Symbol)
	fmt.Fprintf(&b, "• Канал: %.4f / %.4f, N=%.4f\n", s.High, s.Low, s.N)
	fmt.Fprintf(&b, "• Лонг: %d вход(ов), шорт: %d\n", len(s.Long), len(s.Short))
	for _, e := range s.Long {
		fmt.Fprintf(&b, "  L %.4f @ %.4f\n", e.Size, e.Price)
	}
	for _, e := range s.Short {
		fmt.Fprintf(&b, "  S %.4f @ %.4f\n", e.Size, e.Price)
	}
	fmt.Fprintf(&b, "• Баланс: %.2f USDT, %.6f BTC (старт %.2f)\n", s.USDT, s.BTC, s.InitialAsset)
	if s.Anchor > 0 {
		fmt.Fprintf(&b, "• Последний период: %s", time.UnixMilli(s.Anchor).UTC().Format("2006-01-02 15:04"))
	}
	return b.String()
}
