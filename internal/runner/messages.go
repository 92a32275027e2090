package runner

import (
	"fmt"
	"strings"

	"breakout_bot/internal/models"
	"breakout_bot/internal/notify"
)

func modeTag(simulated bool) string {
	if simulated {
		return " (DRY_RUN)"
	}
	return ""
}

func msgOpened(rec models.TradeRecord) string {
	return fmt.Sprintf("🟢 <b>LONG %s</b> qty=%.4f @ %.2f SL=%.2f%s",
		notify.Escape(rec.Symbol), rec.Qty, rec.Entry, rec.SL, modeTag(rec.Simulated))
}

func msgClosed(rec models.TradeRecord, equity float64) string {
	return fmt.Sprintf("🔴 <b>EXIT %s</b> @ %.2f PnL=%.2f Eq=%.2f%s",
		notify.Escape(rec.Symbol), rec.Exit, rec.PnL, equity, modeTag(rec.Simulated))
}

func msgBreach(symbol string, dd float64) string {
	return fmt.Sprintf("🛑 Daily DD exceeded (%.2f%%). Pausing entries for %s.", dd*100, notify.Escape(symbol))
}

func msgError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ Error for %s: %s", notify.Escape(symbol), notify.Escape(err.Error()))
}

func msgKill(dropped []models.Position) string {
	if len(dropped) == 0 {
		return "🧯 Kill switch: no open positions"
	}
	syms := make([]string, 0, len(dropped))
	for _, p := range dropped {
		syms = append(syms, notify.Escape(p.Symbol))
	}
	return fmt.Sprintf("🧯 Kill switch: dropped %d position(s): %s. Venue positions are NOT closed.",
		len(dropped), strings.Join(syms, ", "))
}
