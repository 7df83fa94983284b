package service

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"turtle_bot/internal/models"
)

const maxKlineLimit = 1000

// KlineQuery - параметры GET /api/v3/klines. Нулевые поля не отправляются.
type KlineQuery struct {
	Symbol    string
	Interval  string
	StartTime int64 // мс
	EndTime   int64 // мс, обязателен вместе со StartTime
	Limit     int   // по умолчанию у binance 500, максимум 1000
}

func (q KlineQuery) Validate() error {
	if q.Symbol == "" || q.Interval == "" {
		return errors.Wrap(ErrInvalidRequest, "kline: symbol and interval are required")
	}
	if q.StartTime > 0 && q.EndTime <= 0 {
		return errors.Wrap(ErrInvalidRequest, "kline: endTime is required when startTime is set")
	}
	if q.Limit < 0 || q.Limit > maxKlineLimit {
		return errors.Wrapf(ErrInvalidRequest, "kline: limit %d exceeds %d", q.Limit, maxKlineLimit)
	}
	return nil
}

func (q KlineQuery) values() url.Values {
	v := url.Values{}
	v.Set("symbol", strings.ToUpper(q.Symbol))
	v.Set("interval", q.Interval)
	if q.StartTime > 0 {
		v.Set("startTime", strconv.FormatInt(q.StartTime, 10))
		v.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// GetKlines отдаёт свечи oldest-first. Closed выставляется по CloseTime
// относительно текущего времени: последняя строка binance обычно ещё идёт.
func (c *Client) GetKlines(ctx context.Context, q KlineQuery) ([]models.Candle, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var rows [][]any
	if err := c.do(ctx, http.MethodGet, pathKlines, q.values().Encode(), &rows); err != nil {
		return nil, err
	}

	nowMs := c.now().UnixMilli()
	symbol := strings.ToUpper(q.Symbol)
	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		cd, err := parseKlineRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		cd.Symbol = symbol
		cd.Closed = cd.CloseTime < nowMs
		out = append(out, cd)
	}
	return out, nil
}

// строка: [openTime, "o", "h", "l", "c", "v", closeTime, "q", trades, "V", "Q", "B"]
func parseKlineRow(row []any) (models.Candle, error) {
	if len(row) < 7 {
		return models.Candle{}, errors.Wrapf(ErrMalformedKline, "got %d fields", len(row))
	}

	openTime, err1 := toInt64(row[0])
	closeTime, err2 := toInt64(row[6])
	open, err3 := toFloat(row[1])
	high, err4 := toFloat(row[2])
	low, err5 := toFloat(row[3])
	closep, err6 := toFloat(row[4])
	vol, err7 := toFloat(row[5])
	for _, err := range []error{err1, err2, err3, err4, err5, err6, err7} {
		if err != nil {
			return models.Candle{}, errors.Wrap(ErrMalformedKline, err.Error())
		}
	}

	return models.Candle{
		OpenTime:  openTime,
		CloseTime: closeTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closep,
		Volume:    vol,
	}, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		n, ok := v.(interface{ Int64() (int64, error) })
		if ok {
			return n.Int64()
		}
		return 0, errors.Errorf("unexpected %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, err
		}
		return finite(f)
	case float64:
		return finite(t)
	default:
		return 0, errors.Errorf("unexpected %T", v)
	}
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("not finite: %v", f)
	}
	return f, nil
}

// для бэктеста: raw-ответ klines из файла
func ParseKlines(symbol string, body []byte) ([]models.Candle, error) {
	var rows [][]any
	if err := sonic.Unmarshal(body, &rows); err != nil {
		return nil, errors.Wrap(err, "decode klines")
	}
	out := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		cd, err := parseKlineRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		cd.Symbol = strings.ToUpper(symbol)
		cd.Closed = true
		out = append(out, cd)
	}
	return out, nil
}
