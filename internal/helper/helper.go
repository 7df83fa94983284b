package helper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NormInterval приводит таймфрейм к виду binance: "1H" -> "1h", "60m" -> "1h".
func NormInterval(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "1M" {
		return s
	}
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "kline_")
	switch s {
	case "60m":
		return "1h"
	case "1440m", "24h":
		return "1d"
	case "7d":
		return "1w"
	default:
		return s
	}
}

// интервалы binance; 1M не поддерживаем, у месяца нет фиксированной длины
var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

func IntervalDuration(interval string) (time.Duration, bool) {
	d, ok := intervals[NormInterval(interval)]
	return d, ok
}

// RoundDownToStep режет количество под stepSize биржи.
func RoundDownToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	d := decimal.NewFromFloat(v)
	s := decimal.NewFromFloat(step)
	return d.Div(s).Floor().Mul(s).InexactFloat64()
}

// FormatAmount - строка без экспоненты для query binance.
func FormatAmount(v float64, places int32) string {
	return decimal.NewFromFloat(v).Truncate(places).String()
}

var quoteAssets = []string{"FDUSD", "USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "BNB"}

// SplitSymbol: "BTCUSDT" -> "BTC", "USDT".
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	s := strings.ToUpper(symbol)
	for _, q := range quoteAssets {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return s[:len(s)-len(q)], q, true
		}
	}
	return "", "", false
}
