package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"breakout_bot/internal/models"
	"breakout_bot/pkg/db"

	"github.com/jackc/pgx/v5"
)

type Postgres struct {
	tx     db.TxManager
	closer func()
}

var _ Store = (*Postgres)(nil)

// NewPostgres поднимает пул по DSN и накатывает схему.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn, MaxConns: 4})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}
	m := db.NewPgTxManager(pool)

	p, err := NewPostgresWithManager(ctx, m)
	if err != nil {
		m.Close()
		return nil, err
	}
	p.closer = m.Close
	return p, nil
}

// NewPostgresWithManager: поверх готового менеджера транзакций.
func NewPostgresWithManager(ctx context.Context, tx db.TxManager) (*Postgres, error) {
	if _, err := tx.Conn().Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("pg: schema: %w", err)
	}
	return &Postgres{tx: tx}, nil
}

func (p *Postgres) AppendTradeRecord(ctx context.Context, rec models.TradeRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.AppendTradeRecord: %w", err)
		}
	}()
	return p.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO trades
			(trade_id, ts, symbol, side, qty, entry, sl, exit_px, status, pnl, simulated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.TradeID, rec.Time.UTC(), rec.Symbol, string(rec.Side), rec.Qty,
			rec.Entry, rec.SL, rec.Exit, string(rec.Status), rec.PnL, rec.Simulated,
		)
		return err
	})
}

func (p *Postgres) AppendEquitySnapshot(ctx context.Context, snap models.EquitySnapshot) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.AppendEquitySnapshot: %w", err)
		}
	}()
	return p.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO equity (ts, equity) VALUES ($1, $2)`,
			snap.Time.UTC(), snap.Equity,
		)
		return err
	})
}

func (p *Postgres) LatestEquity(ctx context.Context, def float64) (float64, error) {
	var eq float64
	err := p.tx.Conn().QueryRow(ctx,
		`SELECT equity FROM equity ORDER BY id DESC LIMIT 1`,
	).Scan(&eq)
	if errors.Is(err, pgx.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("pg.LatestEquity: %w", err)
	}
	return eq, nil
}

func (p *Postgres) Trades(ctx context.Context, f models.TradeFilter) (_ []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Trades: %w", err)
		}
	}()

	var (
		where []string
		args  []any
	)
	if f.Symbol != "" {
		args = append(args, f.Symbol)
		where = append(where, fmt.Sprintf("symbol = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT id, trade_id, ts, symbol, side, qty, entry, sl, exit_px, status, pnl, simulated FROM trades`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.tx.Conn().Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.TradeRecord, 0)
	for rows.Next() {
		var (
			rec          models.TradeRecord
			ts           time.Time
			side, status string
		)
		if err := rows.Scan(&rec.ID, &rec.TradeID, &ts, &rec.Symbol, &side, &rec.Qty,
			&rec.Entry, &rec.SL, &rec.Exit, &status, &rec.PnL, &rec.Simulated); err != nil {
			return nil, err
		}
		rec.Time = ts.UTC()
		rec.Side = models.Side(side)
		rec.Status = models.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) EquityHistory(ctx context.Context, limit int) (_ []models.EquitySnapshot, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.EquityHistory: %w", err)
		}
	}()

	q := `SELECT ts, equity FROM (SELECT id, ts, equity FROM equity ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}
	q += `) t ORDER BY id ASC`

	rows, err := p.tx.Conn().Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.EquitySnapshot, 0)
	for rows.Next() {
		var snap models.EquitySnapshot
		if err := rows.Scan(&snap.Time, &snap.Equity); err != nil {
			return nil, err
		}
		snap.Time = snap.Time.UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}
