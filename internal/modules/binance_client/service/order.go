package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"turtle_bot/internal/helper"
	"turtle_bot/internal/models"
)

const (
	TypeStopLoss        = "STOP_LOSS"
	TypeStopLossLimit   = "STOP_LOSS_LIMIT"
	TypeTakeProfit      = "TAKE_PROFIT"
	TypeTakeProfitLimit = "TAKE_PROFIT_LIMIT"
	TypeLimitMaker      = "LIMIT_MAKER"

	TimeInForceGTC = "GTC"

	RespTypeResult = "RESULT"

	amountPlaces = 8
	// шаг quoteOrderQty для USDT-пар
	quoteStep = 0.01
)

// OrderRequest - POST /api/v3/order. Нулевые числовые поля не отправляются.
type OrderRequest struct {
	Symbol           string
	Side             models.Side
	Type             string // MARKET, LIMIT, STOP_LOSS, ...
	TimeInForce      string
	Quantity         float64
	QuoteOrderQty    float64
	Price            float64
	StopPrice        float64
	IcebergQty       float64
	NewClientOrderID string
	RespType         string
}

// FromIntent - market-ордер на сумму в quote.
func FromIntent(in models.OrderIntent) OrderRequest {
	return OrderRequest{
		Symbol:           in.Symbol,
		Side:             in.Side,
		Type:             string(in.Type),
		QuoteOrderQty:    helper.RoundDownToStep(in.QuoteQty, quoteStep),
		NewClientOrderID: in.ClientOrderID,
		RespType:         RespTypeResult,
	}
}

// Validate - обязательные поля по типу ордера, как их требует binance.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return errors.Wrap(ErrInvalidRequest, "order: symbol is required")
	}
	if r.Side != models.SideBuy && r.Side != models.SideSell {
		return errors.Wrapf(ErrInvalidRequest, "order: bad side %q", r.Side)
	}

	need := func(ok bool, what string) error {
		if !ok {
			return errors.Wrapf(ErrInvalidRequest, "order %s: missing %s", r.Type, what)
		}
		return nil
	}
	var checks []error
	switch r.Type {
	case string(models.OrderTypeMarket):
		checks = append(checks, need(r.Quantity > 0 || r.QuoteOrderQty > 0, "quantity or quoteOrderQty"))
	case string(models.OrderTypeLimit):
		checks = append(checks,
			need(r.TimeInForce != "", "timeInForce"),
			need(r.Quantity > 0, "quantity"),
			need(r.Price > 0, "price"))
	case TypeStopLoss, TypeTakeProfit:
		checks = append(checks,
			need(r.Quantity > 0, "quantity"),
			need(r.StopPrice > 0, "stopPrice"))
	case TypeStopLossLimit, TypeTakeProfitLimit:
		checks = append(checks,
			need(r.TimeInForce != "", "timeInForce"),
			need(r.Quantity > 0, "quantity"),
			need(r.Price > 0, "price"),
			need(r.StopPrice > 0, "stopPrice"))
	case TypeLimitMaker:
		checks = append(checks,
			need(r.Quantity > 0, "quantity"),
			need(r.Price > 0, "price"))
	default:
		return errors.Wrapf(ErrInvalidRequest, "order: unknown type %q", r.Type)
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r OrderRequest) values() url.Values {
	v := url.Values{}
	v.Set("symbol", strings.ToUpper(r.Symbol))
	v.Set("side", string(r.Side))
	v.Set("type", r.Type)
	if r.NewClientOrderID != "" {
		v.Set("newClientOrderId", r.NewClientOrderID)
	}
	if r.TimeInForce != "" {
		v.Set("timeInForce", r.TimeInForce)
	}
	setAmount := func(key string, val float64) {
		if val > 0 {
			v.Set(key, helper.FormatAmount(val, amountPlaces))
		}
	}
	setAmount("quantity", r.Quantity)
	setAmount("quoteOrderQty", r.QuoteOrderQty)
	setAmount("price", r.Price)
	setAmount("stopPrice", r.StopPrice)
	setAmount("icebergQty", r.IcebergQty)
	if r.RespType != "" {
		v.Set("newOrderRespType", r.RespType)
	}
	return v
}

type Fill struct {
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
}

type OrderResponse struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	ClientOrderID       string `json:"clientOrderId"`
	TransactTime        int64  `json:"transactTime"`
	Price               string `json:"price"`
	OrigQty             string `json:"origQty"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status              string `json:"status"`
	TimeInForce         string `json:"timeInForce"`
	Type                string `json:"type"`
	Side                string `json:"side"`
	Fills               []Fill `json:"fills,omitempty"`
}

// NewOrder отправляет ордер. test=true идёт в /api/v3/order/test: binance
// проверяет подпись и параметры, но ордер не ставит и отвечает {}.
func (c *Client) NewOrder(ctx context.Context, req OrderRequest, test bool) (*OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	qs, err := c.signedQuery(req.values())
	if err != nil {
		return nil, err
	}

	path := pathOrder
	if test {
		path = pathTestOrder
	}
	var out OrderResponse
	if err := c.do(ctx, http.MethodPost, path, qs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type OpenOrder struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Price         string `json:"price"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	Side          string `json:"side"`
	Time          int64  `json:"time"`
}

func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", strings.ToUpper(symbol))
	}
	qs, err := c.signedQuery(params)
	if err != nil {
		return nil, err
	}
	var out []OpenOrder
	if err := c.do(ctx, http.MethodGet, pathOpenOrders, qs, &out); err != nil {
		return nil, err
	}
	return out, nil
}
