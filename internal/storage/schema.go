package storage

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  trade_id  TEXT    NOT NULL,
  ts        INTEGER NOT NULL,
  symbol    TEXT    NOT NULL,
  side      TEXT    NOT NULL,
  qty       REAL    NOT NULL,
  entry     REAL    NOT NULL,
  sl        REAL    NOT NULL,
  exit_px   REAL    NOT NULL DEFAULT 0,
  status    TEXT    NOT NULL,
  pnl       REAL    NOT NULL DEFAULT 0,
  simulated INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_trade_id ON trades(trade_id);

CREATE TABLE IF NOT EXISTS equity (
  id     INTEGER PRIMARY KEY AUTOINCREMENT,
  ts     INTEGER NOT NULL,
  equity REAL    NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trades (
  id        BIGSERIAL PRIMARY KEY,
  trade_id  TEXT             NOT NULL,
  ts        TIMESTAMPTZ      NOT NULL,
  symbol    TEXT             NOT NULL,
  side      TEXT             NOT NULL,
  qty       DOUBLE PRECISION NOT NULL,
  entry     DOUBLE PRECISION NOT NULL,
  sl        DOUBLE PRECISION NOT NULL,
  exit_px   DOUBLE PRECISION NOT NULL DEFAULT 0,
  status    TEXT             NOT NULL,
  pnl       DOUBLE PRECISION NOT NULL DEFAULT 0,
  simulated BOOLEAN          NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_trade_id ON trades(trade_id);

CREATE TABLE IF NOT EXISTS equity (
  id     BIGSERIAL PRIMARY KEY,
  ts     TIMESTAMPTZ      NOT NULL,
  equity DOUBLE PRECISION NOT NULL
);
`
