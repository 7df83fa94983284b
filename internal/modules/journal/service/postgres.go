package service

import (
	"context"

	"github.com/pkg/errors"

	"turtle_bot/internal/models"
	"turtle_bot/pkg/db"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS order_journal (
	client_order_id   TEXT PRIMARY KEY,
	symbol            TEXT NOT NULL,
	side              TEXT NOT NULL,
	order_type        TEXT NOT NULL,
	quote_qty         DOUBLE PRECISION NOT NULL,
	reason            TEXT NOT NULL,
	candle_time       BIGINT NOT NULL,
	mode              TEXT NOT NULL,
	status            TEXT NOT NULL,
	exchange_order_id BIGINT NOT NULL DEFAULT 0,
	error             TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Postgres struct {
	tx *db.PgTxManager
}

func NewPostgres(ctx context.Context, tx *db.PgTxManager) (*Postgres, error) {
	if _, err := tx.Conn().Exec(ctx, pgSchema); err != nil {
		return nil, errors.Wrap(err, "journal: create schema")
	}
	return &Postgres{tx: tx}, nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	return p.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, `
INSERT INTO order_journal (client_order_id, symbol, side, order_type, quote_qty, reason,
	candle_time, mode, status, exchange_order_id, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (client_order_id) DO UPDATE SET
	status = EXCLUDED.status,
	exchange_order_id = EXCLUDED.exchange_order_id,
	error = EXCLUDED.error`,
			e.ClientOrderID, e.Symbol, string(e.Side), string(e.Type), e.QuoteQty, e.Reason,
			e.CandleTime, e.Mode, e.Status, e.ExchangeOrderID, e.Error, e.CreatedAt)
		return errors.Wrap(err, "journal: insert")
	})
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.tx.Conn().Query(ctx, `
SELECT client_order_id, symbol, side, order_type, quote_qty, reason,
	candle_time, mode, status, exchange_order_id, error, created_at
FROM order_journal ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "journal: select")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			side, typ string
		)
		if err := rows.Scan(&e.ClientOrderID, &e.Symbol, &side, &typ, &e.QuoteQty, &e.Reason,
			&e.CandleTime, &e.Mode, &e.Status, &e.ExchangeOrderID, &e.Error, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "journal: scan")
		}
		e.Side = models.Side(side)
		e.Type = models.OrderType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.tx.Close()
	return nil
}
