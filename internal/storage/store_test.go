package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"breakout_bot/internal/config"
	"breakout_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func stores(t *testing.T) map[string]Store {
	out := map[string]Store{
		"memory": NewMemory(),
		"sqlite": newTestSQLite(t),
	}
	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		pg, err := NewPostgres(context.Background(), dsn)
		require.NoError(t, err)
		_, err = pg.tx.Conn().Exec(context.Background(), `TRUNCATE trades, equity`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func trade(tradeID, symbol string, status models.Status, pnl float64, ts time.Time) models.TradeRecord {
	return models.TradeRecord{
		TradeID:   tradeID,
		Time:      ts,
		Symbol:    symbol,
		Side:      models.SideLong,
		Qty:       0.02,
		Entry:     100,
		SL:        96.4,
		Status:    status,
		PnL:       pnl,
		Simulated: true,
	}
}

func TestLatestEquityDefault(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			eq, err := st.LatestEquity(context.Background(), 1000)
			require.NoError(t, err)
			assert.Equal(t, 1000.0, eq)
		})
	}
}

func TestEquitySnapshots(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i, eq := range []float64{1000, 1003.5, 998.25, 1010} {
				require.NoError(t, st.AppendEquitySnapshot(ctx, models.EquitySnapshot{
					Time:   t0.Add(time.Duration(i) * time.Minute),
					Equity: eq,
				}))
			}

			eq, err := st.LatestEquity(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 1010.0, eq)

			hist, err := st.EquityHistory(ctx, 2)
			require.NoError(t, err)
			require.Len(t, hist, 2)
			assert.Equal(t, 998.25, hist[0].Equity)
			assert.Equal(t, 1010.0, hist[1].Equity)
			assert.True(t, hist[1].Time.Equal(t0.Add(3*time.Minute)))

			all, err := st.EquityHistory(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	}
}

func TestTradeRecordsAreAnEventLog(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.AppendTradeRecord(ctx, trade("A", "BTC/USDT", models.StatusOpen, 0, t0)))
			require.NoError(t, st.AppendTradeRecord(ctx, trade("B", "ETH/USDT", models.StatusOpen, 0, t0.Add(time.Second))))
			closed := trade("A", "BTC/USDT", models.StatusClosed, 0.012, t0.Add(time.Minute))
			closed.Exit = 100.6
			require.NoError(t, st.AppendTradeRecord(ctx, closed))

			all, err := st.Trades(ctx, models.TradeFilter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, models.StatusClosed, all[0].Status, "newest first")
			assert.Equal(t, 100.6, all[0].Exit)
			assert.InDelta(t, 0.012, all[0].PnL, 1e-12)
			assert.True(t, all[0].Time.Equal(t0.Add(time.Minute)))
			assert.True(t, all[0].Simulated)

			btc, err := st.Trades(ctx, models.TradeFilter{Symbol: "BTC/USDT"})
			require.NoError(t, err)
			require.Len(t, btc, 2)
			assert.Equal(t, btc[0].TradeID, btc[1].TradeID)

			opens, err := st.Trades(ctx, models.TradeFilter{Status: models.StatusOpen, Limit: 1})
			require.NoError(t, err)
			require.Len(t, opens, 1)
			assert.Equal(t, "ETH/USDT", opens[0].Symbol)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")

	st, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.AppendEquitySnapshot(ctx, models.EquitySnapshot{Time: time.Now(), Equity: 1234.5}))
	require.NoError(t, st.Close())

	st, err = NewSQLite(path)
	require.NoError(t, err)
	defer st.Close()

	eq, err := st.LatestEquity(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, eq)
}

func TestOpenMemory(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = config.StoreMemory

	st, err := Open(context.Background(), &cfg)
	require.NoError(t, err)
	_, ok := st.(*Memory)
	assert.True(t, ok)
}

func TestOpenSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "data", "bot.db")

	st, err := Open(context.Background(), &cfg)
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*SQLite)
	assert.True(t, ok)
	assert.FileExists(t, cfg.DBPath)
}
