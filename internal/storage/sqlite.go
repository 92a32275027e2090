package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"breakout_bot/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite открывает (и создаёт) базу по пути path, каталог создаётся при необходимости.
func NewSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite3 не любит конкурентных писателей
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) AppendTradeRecord(ctx context.Context, rec models.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, ts, symbol, side, qty, entry, sl, exit_px, status, pnl, simulated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TradeID, rec.Time.UnixMilli(), rec.Symbol, string(rec.Side), rec.Qty,
		rec.Entry, rec.SL, rec.Exit, string(rec.Status), rec.PnL, rec.Simulated,
	)
	if err != nil {
		return fmt.Errorf("sqlite.AppendTradeRecord: %w", err)
	}
	return nil
}

func (s *SQLite) AppendEquitySnapshot(ctx context.Context, snap models.EquitySnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO equity (ts, equity) VALUES (?, ?)`,
		snap.Time.UnixMilli(), snap.Equity,
	)
	if err != nil {
		return fmt.Errorf("sqlite.AppendEquitySnapshot: %w", err)
	}
	return nil
}

func (s *SQLite) LatestEquity(ctx context.Context, def float64) (float64, error) {
	var eq float64
	err := s.db.QueryRowContext(ctx,
		`SELECT equity FROM equity ORDER BY id DESC LIMIT 1`,
	).Scan(&eq)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("sqlite.LatestEquity: %w", err)
	}
	return eq, nil
}

func (s *SQLite) Trades(ctx context.Context, f models.TradeFilter) (_ []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.Trades: %w", err)
		}
	}()

	var (
		where []string
		args  []any
	)
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	q := `SELECT id, trade_id, ts, symbol, side, qty, entry, sl, exit_px, status, pnl, simulated FROM trades`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.TradeRecord, 0)
	for rows.Next() {
		var (
			rec          models.TradeRecord
			ts           int64
			side, status string
		)
		if err := rows.Scan(&rec.ID, &rec.TradeID, &ts, &rec.Symbol, &side, &rec.Qty,
			&rec.Entry, &rec.SL, &rec.Exit, &status, &rec.PnL, &rec.Simulated); err != nil {
			return nil, err
		}
		rec.Time = time.UnixMilli(ts).UTC()
		rec.Side = models.Side(side)
		rec.Status = models.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) EquityHistory(ctx context.Context, limit int) (_ []models.EquitySnapshot, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sqlite.EquityHistory: %w", err)
		}
	}()

	q := `SELECT ts, equity FROM equity ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.EquitySnapshot, 0)
	for rows.Next() {
		var (
			ts   int64
			snap models.EquitySnapshot
		)
		if err := rows.Scan(&ts, &snap.Equity); err != nil {
			return nil, err
		}
		snap.Time = time.UnixMilli(ts).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// старые первыми
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
