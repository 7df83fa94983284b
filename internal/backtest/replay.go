// Package backtest прогоняет файл свечей через тот же движок, что и бот.
package backtest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"turtle_bot/internal/models"
	binance "turtle_bot/internal/modules/binance_client/service"
	"turtle_bot/internal/strategy"
)

type FixtureCandle struct {
	OpenTime  int64   `yaml:"open_time"`
	CloseTime int64   `yaml:"close_time"`
	Open      float64 `yaml:"open"`
	High      float64 `yaml:"high"`
	Low       float64 `yaml:"low"`
	Close     float64 `yaml:"close"`
	Volume    float64 `yaml:"volume"`
}

// Fixture - свечи плюс стартовые балансы.
type Fixture struct {
	Symbol  string          `yaml:"symbol"`
	USDT    float64         `yaml:"usdt"`
	BTC     float64         `yaml:"btc"`
	Candles []FixtureCandle `yaml:"candles"`
}

func (f *Fixture) Models() []models.Candle {
	out := make([]models.Candle, 0, len(f.Candles))
	for _, c := range f.Candles {
		out = append(out, models.Candle{
			Symbol:    f.Symbol,
			OpenTime:  c.OpenTime,
			CloseTime: c.CloseTime,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
			Closed:    true,
		})
	}
	return out
}

// LoadFixture читает yaml-фикстуру. Для .json ждём сырой ответ /api/v3/klines,
// символ и балансы тогда берутся из base.
func LoadFixture(path string, base Fixture) (*Fixture, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixture")
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		candles, err := binance.ParseKlines(base.Symbol, body)
		if err != nil {
			return nil, err
		}
		f := base
		f.Candles = make([]FixtureCandle, 0, len(candles))
		for _, c := range candles {
			f.Candles = append(f.Candles, FixtureCandle{
				OpenTime: c.OpenTime, CloseTime: c.CloseTime,
				Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume,
			})
		}
		return &f, nil
	}

	f := base
	if err := yaml.Unmarshal(body, &f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	f.Symbol = strings.ToUpper(f.Symbol)
	return &f, nil
}

// Report - итог прогона.
type Report struct {
	Ticks      int
	Skipped    int // вырожденная волатильность или битая свеча
	Intents    []models.OrderIntent
	Final      strategy.Snapshot
	Equity     float64
	StartAsset float64
}

func (r Report) Return() float64 {
	if r.StartAsset == 0 {
		return 0
	}
	return r.Equity/r.StartAsset - 1
}

// Replay: первые Window+1 свечей идут в seed, остальные - тиками.
// При fill интенты исполняются по close той же свечи и балансы
// возвращаются в движок, как это делает executor в режиме account.
func Replay(cfg strategy.Config, f *Fixture, fill bool) (Report, error) {
	if cfg.Window <= 0 {
		cfg.Window = strategy.DefaultWindow
	}
	candles := f.Models()
	seedLen := cfg.Window + 1
	if len(candles) < seedLen {
		return Report{}, errors.Wrapf(strategy.ErrInsufficientSeedData, "fixture has %d candles", len(candles))
	}

	engine, err := strategy.NewTurtle(cfg, candles[:seedLen], f.USDT, f.BTC)
	if err != nil {
		return Report{}, err
	}

	rep := Report{StartAsset: engine.Snapshot().InitialAsset}
	usdt, btc := f.USDT, f.BTC
	last := candles[seedLen-1].Close

	for _, c := range candles[seedLen:] {
		rep.Ticks++
		last = c.Close

		intents, err := engine.OnCandle(c)
		if errors.Is(err, strategy.ErrDegenerateVolatility) || errors.Is(err, strategy.ErrInvalidCandle) {
			rep.Skipped++
			continue
		}
		if err != nil {
			return rep, errors.Wrapf(err, "tick %d", c.CloseTime)
		}
		rep.Intents = append(rep.Intents, intents...)

		if !fill || len(intents) == 0 || c.Close <= 0 {
			continue
		}
		for _, in := range intents {
			switch in.Side {
			case models.SideBuy:
				usdt -= in.QuoteQty
				btc += in.QuoteQty / c.Close
			case models.SideSell:
				usdt += in.QuoteQty
				btc -= in.QuoteQty / c.Close
			}
		}
		engine.SetBalances(usdt, btc)
	}

	rep.Final = engine.Snapshot()
	rep.Equity = usdt + btc*last
	return rep, nil
}
