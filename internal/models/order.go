package models

import (
	"fmt"
	"time"
)

// Side как в Binance: "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderIntent - то, что стратегия хочет сделать. Подпись, отправка и ретраи
// живут в executor.
type OrderIntent struct {
	ClientOrderID string
	Symbol        string
	Side          Side
	Type          OrderType
	QuoteQty      float64 // в USDT
	Reason        string
	Timestamp     int64 // CloseTime свечи, ms
}

func (o OrderIntent) Time() time.Time { return time.UnixMilli(o.Timestamp) }

func (o OrderIntent) String() string {
	return fmt.Sprintf("%s %s %s quote=%.4f id=%s (%s)",
		o.Symbol, o.Side, o.Type, o.QuoteQty, o.ClientOrderID, o.Reason)
}
