package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"turtle_bot/internal/models"
	"turtle_bot/pkg/db"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS order_journal (
	client_order_id   TEXT PRIMARY KEY,
	symbol            TEXT NOT NULL,
	side              TEXT NOT NULL,
	order_type        TEXT NOT NULL,
	quote_qty         REAL NOT NULL,
	reason            TEXT NOT NULL,
	candle_time       INTEGER NOT NULL,
	mode              TEXT NOT NULL,
	status            TEXT NOT NULL,
	exchange_order_id INTEGER NOT NULL DEFAULT 0,
	error             TEXT NOT NULL DEFAULT '',
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_journal_created ON order_journal(created_at);`

type SQLite struct {
	db *sql.DB
}

func NewSQLite(dsn string) (*SQLite, error) {
	conn, err := db.OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "journal: create schema")
	}
	return &SQLite{db: conn}, nil
}

// Record - upsert по client_order_id: повторная запись обновляет статус.
func (s *SQLite) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO order_journal (client_order_id, symbol, side, order_type, quote_qty, reason,
	candle_time, mode, status, exchange_order_id, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(client_order_id) DO UPDATE SET
	status = excluded.status,
	exchange_order_id = excluded.exchange_order_id,
	error = excluded.error`,
		e.ClientOrderID, e.Symbol, string(e.Side), string(e.Type), e.QuoteQty, e.Reason,
		e.CandleTime, e.Mode, e.Status, e.ExchangeOrderID, e.Error, e.CreatedAt.UnixMilli())
	return errors.Wrap(err, "journal: insert")
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT client_order_id, symbol, side, order_type, quote_qty, reason,
	candle_time, mode, status, exchange_order_id, error, created_at
FROM order_journal ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "journal: select")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			side, typ string
			created   int64
		)
		if err := rows.Scan(&e.ClientOrderID, &e.Symbol, &side, &typ, &e.QuoteQty, &e.Reason,
			&e.CandleTime, &e.Mode, &e.Status, &e.ExchangeOrderID, &e.Error, &created); err != nil {
			return nil, errors.Wrap(err, "journal: scan")
		}
		e.Side = models.Side(side)
		e.Type = models.OrderType(typ)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
