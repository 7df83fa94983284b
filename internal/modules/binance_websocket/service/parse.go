package service

import (
	"math"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"turtle_bot/internal/models"
)

var ErrMalformedCandle = errors.New("malformed candle")

// поля kline-стрима. Все ключи перечислены: json матчит регистр нестрого,
// и без "V"/"Q"/"L" они бы перетёрли "v"/"q"/"l".
type streamKline struct {
	StartTime   int64  `json:"t"`
	CloseTime   int64  `json:"T"`
	Symbol      string `json:"s"`
	Interval    string `json:"i"`
	FirstTrade  int64  `json:"f"`
	LastTrade   int64  `json:"L"`
	Open        string `json:"o"`
	Close       string `json:"c"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"`
	Trades      int64  `json:"n"`
	Closed      bool   `json:"x"`
	QuoteVolume string `json:"q"`
	TakerBase   string `json:"V"`
	TakerQuote  string `json:"Q"`
	Ignore      string `json:"B"`
}

type klineEvent struct {
	EventType string      `json:"e"`
	EventTime int64       `json:"E"`
	Symbol    string      `json:"s"`
	Kline     streamKline `json:"k"`
}

// ParseKline разбирает кадр <symbol>@kline_<interval>. Числа у binance
// приходят строками.
func ParseKline(msg []byte) (models.Candle, error) {
	var ev klineEvent
	if err := sonic.Unmarshal(msg, &ev); err != nil {
		return models.Candle{}, errors.Wrap(ErrMalformedCandle, err.Error())
	}
	if ev.EventType != "kline" {
		return models.Candle{}, errors.Wrapf(ErrMalformedCandle, "unexpected event %q", ev.EventType)
	}

	k := ev.Kline
	vals := make([]float64, 5)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, errors.Wrapf(ErrMalformedCandle, "field %d: %v", i, err)
		}
		// ParseFloat пропускает "NaN" и "Inf"
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return models.Candle{}, errors.Wrapf(ErrMalformedCandle, "field %d: not finite %q", i, s)
		}
		vals[i] = f
	}
	if k.CloseTime <= 0 || k.CloseTime < k.StartTime {
		return models.Candle{}, errors.Wrapf(ErrMalformedCandle, "bad times t=%d T=%d", k.StartTime, k.CloseTime)
	}

	symbol := k.Symbol
	if symbol == "" {
		symbol = ev.Symbol
	}
	return models.Candle{
		Symbol:    symbol,
		OpenTime:  k.StartTime,
		CloseTime: k.CloseTime,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		Closed:    k.Closed,
	}, nil
}
