package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breakout_equity",
			Help: "Current account equity (paper or live).",
		},
	)

	DailyDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breakout_daily_drawdown_ratio",
			Help: "Drawdown from the daily starting equity, as a fraction.",
		},
	)

	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breakout_positions_open",
			Help: "Number of currently open positions.",
		},
	)

	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breakout_cycles_total",
			Help: "Worker cycles by symbol and result (ok, transient, unexpected, panic, skipped).",
		},
		[]string{"symbol", "result"},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breakout_trades_total",
			Help: "Trade events by symbol and status (OPEN, CLOSED).",
		},
		[]string{"symbol", "status"},
	)

	NotificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breakout_notifications_dropped_total",
			Help: "Notifications dropped because the queue was full.",
		},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breakout_store_errors_total",
			Help: "Persistence failures by operation.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(Equity, DailyDrawdown, OpenPositions, Cycles, Trades, NotificationsDropped, StoreErrors)
}
