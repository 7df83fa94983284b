package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"turtle_bot/internal/models"
	binance "turtle_bot/internal/modules/binance_client/service"
	journal "turtle_bot/internal/modules/journal/service"
	"turtle_bot/internal/notify"
	"turtle_bot/pkg/logger"
	"turtle_bot/pkg/tracing"
)

const (
	ModeDry  = "dry"
	ModeTest = "test"
	ModeLive = "live"

	submitTimeout = 15 * time.Second
)

// Exchange - то, что нужно от REST-клиента.
type Exchange interface {
	NewOrder(ctx context.Context, req binance.OrderRequest, test bool) (*binance.OrderResponse, error)
	Balances(ctx context.Context, symbol string) (models.Balances, error)
	OpenOrders(ctx context.Context, symbol string) ([]binance.OpenOrder, error)
}

// Counters - счётчики для health.
type Counters interface {
	IncIntents()
	IncFailures()
}

type Executor struct {
	mode     string
	symbol   string
	syncBal  bool
	exchange Exchange
	journal  journal.Journal
	notifier notify.Notifier
	counters Counters

	// сюда уходят свежие балансы после live-ордера, читает hub
	balances chan<- models.Balances
}

type Params struct {
	Mode           string
	Symbol         string
	SyncBalances   bool
	Exchange       Exchange
	Journal        journal.Journal
	Notifier       notify.Notifier
	Counters       Counters
	BalanceUpdates chan<- models.Balances
}

func New(p Params) *Executor {
	if p.Journal == nil {
		p.Journal = journal.Nop{}
	}
	if p.Notifier == nil {
		p.Notifier = notify.NewStdout()
	}
	return &Executor{
		mode:     p.Mode,
		symbol:   p.Symbol,
		syncBal:  p.SyncBalances,
		exchange: p.Exchange,
		journal:  p.Journal,
		notifier: p.Notifier,
		counters: p.Counters,
		balances: p.BalanceUpdates,
	}
}

// Run читает интенты до закрытия канала или отмены ctx. Ошибка по одному
// ордеру не останавливает цикл.
func (e *Executor) Run(ctx context.Context, in <-chan models.OrderIntent) {
	logger.Info("[EXEC] started mode=%s", e.mode)
	for {
		select {
		case <-ctx.Done():
			return
		case intent, ok := <-in:
			if !ok {
				return
			}
			if err := e.Execute(ctx, intent); err != nil {
				logger.Error("[EXEC] %s: %v", intent.ClientOrderID, err)
			}
		}
	}
}

func (e *Executor) Execute(ctx context.Context, in models.OrderIntent) (err error) {
	span, ctx := tracing.StartSpan(ctx, "executor.execute", map[string]any{
		"symbol": in.Symbol,
		"side":   string(in.Side),
		"mode":   e.mode,
	})
	defer func() {
		tracing.Fail(span, err)
		span.Finish()
	}()

	if e.counters != nil {
		e.counters.IncIntents()
	}
	entry := journal.EntryFromIntent(in, e.mode)

	switch e.mode {
	case ModeDry:
		entry.Status = journal.StatusDry
		logger.Info("[EXEC] dry: %s", in)
	case ModeTest, ModeLive:
		entry, err = e.submit(ctx, in, entry)
	default:
		err = errors.Errorf("unknown executor mode %q", e.mode)
		entry.Status = journal.StatusFailed
		entry.Error = err.Error()
	}

	if jerr := e.journal.Record(ctx, entry); jerr != nil {
		logger.Error("[EXEC] journal: %v", jerr)
	}

	if err != nil {
		if e.counters != nil {
			e.counters.IncFailures()
		}
		e.notifier.Sendf("❌ Ордер не прошёл: %s\n%v", in, err)
		return err
	}
	e.notifier.Send(notify.FormatIntent(in, e.mode))

	if e.mode == ModeLive && e.syncBal {
		e.refreshBalances(ctx, in.Symbol)
	}
	return nil
}

func (e *Executor) submit(ctx context.Context, in models.OrderIntent, entry journal.Entry) (journal.Entry, error) {
	if e.exchange == nil {
		entry.Status = journal.StatusFailed
		entry.Error = "exchange client is not configured"
		return entry, errors.New(entry.Error)
	}

	cctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	resp, err := e.exchange.NewOrder(cctx, binance.FromIntent(in), e.mode == ModeTest)
	if err != nil {
		entry.Status = journal.StatusFailed
		entry.Error = err.Error()
		return entry, errors.Wrap(err, "submit order")
	}

	entry.Status = journal.StatusSent
	if e.mode == ModeTest {
		entry.Status = journal.StatusTested
	}
	if resp != nil {
		entry.ExchangeOrderID = resp.OrderID
	}
	logger.Info("[EXEC] %s: %s order=%d", e.mode, in, entry.ExchangeOrderID)
	return entry, nil
}

func (e *Executor) refreshBalances(ctx context.Context, symbol string) {
	if e.balances == nil {
		return
	}
	b, err := e.exchange.Balances(ctx, symbol)
	if err != nil {
		logger.Error("[EXEC] refresh balances: %v", err)
		return
	}
	select {
	case e.balances <- b:
	default:
		logger.Warn("[EXEC] balance update dropped, hub is busy")
	}
}

// Report - текст для /orders: последние записи журнала и, вне dry,
// открытые ордера на бирже.
func (e *Executor) Report(ctx context.Context, limit int) string {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	var b strings.Builder
	entries, err := e.journal.Recent(ctx, limit)
	switch {
	case err != nil:
		fmt.Fprintf(&b, "❗️ Журнал: %v\n", err)
	case len(entries) == 0:
		b.WriteString("📒 Журнал пуст\n")
	default:
		b.WriteString("📒 Последние ордера:\n")
		for _, en := range entries {
			fmt.Fprintf(&b, "• %s %s %.2f USDT [%s/%s]\n",
				time.UnixMilli(en.CandleTime).UTC().Format("2006-01-02 15:04"),
				en.Side, en.QuoteQty, en.Mode, en.Status)
		}
	}

	if e.mode == ModeDry || e.exchange == nil {
		return strings.TrimRight(b.String(), "\n")
	}

	orders, err := e.exchange.OpenOrders(ctx, e.symbol)
	switch {
	case err != nil:
		logger.Error("[EXEC] open orders: %v", err)
		fmt.Fprintf(&b, "❗️ Открытые ордера: %v", err)
	case len(orders) == 0:
		b.WriteString("📂 Открытых ордеров нет")
	default:
		fmt.Fprintf(&b, "📂 Открытые ордера (%d):", len(orders))
		for _, o := range orders {
			fmt.Fprintf(&b, "\n• #%d %s %s qty=%s price=%s %s", o.OrderID, o.Side, o.Type, o.OrigQty, o.Price, o.Status)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
