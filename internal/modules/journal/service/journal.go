package service

import (
	"context"
	"time"

	"turtle_bot/internal/models"
)

const (
	StatusDry    = "dry"    // только лог
	StatusTested = "tested" // прошёл /order/test
	StatusSent   = "sent"   // принят биржей
	StatusFailed = "failed"
)

// Entry - одна запись журнала ордеров.
type Entry struct {
	ClientOrderID   string
	Symbol          string
	Side            models.Side
	Type            models.OrderType
	QuoteQty        float64
	Reason          string
	CandleTime      int64 // CloseTime свечи, мс
	Mode            string
	Status          string
	ExchangeOrderID int64
	Error           string
	CreatedAt       time.Time
}

func EntryFromIntent(in models.OrderIntent, mode string) Entry {
	return Entry{
		ClientOrderID: in.ClientOrderID,
		Symbol:        in.Symbol,
		Side:          in.Side,
		Type:          in.Type,
		QuoteQty:      in.QuoteQty,
		Reason:        in.Reason,
		CandleTime:    in.Timestamp,
		Mode:          mode,
		CreatedAt:     time.Now().UTC(),
	}
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	// Recent - последние записи, новые первыми.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Nop - журнал выключен.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                                 { return nil }
