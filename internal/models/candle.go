package models

import "time"

// Candle - свеча, уже приведённая к float64. CloseTime главная граница периода.
type Candle struct {
	Symbol    string
	OpenTime  int64 // ms
	CloseTime int64 // ms
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Closed    bool
}

func (c Candle) Start() time.Time { return time.UnixMilli(c.OpenTime) }
func (c Candle) End() time.Time   { return time.UnixMilli(c.CloseTime) }

// Balances - свободные остатки base/quote, для стратегии это btc/usdt.
type Balances struct {
	Quote float64
	Base  float64
}
