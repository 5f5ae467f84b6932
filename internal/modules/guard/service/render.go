package service

import (
	"fmt"
	"strings"
	"time"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"
)

// Render собирает консольный отчёт цикла: сводка по счёту, таблица
// позиций и хвост журнала.
func Render(snap *models.Snapshot, recent []string, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== futures guard · %s ===\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "wallet %.2f | available %.2f | unrealized %+.2f\n\n",
		snap.WalletBalance, snap.AvailableBalance, snap.TotalUnrealized)

	if len(snap.Positions) == 0 {
		b.WriteString("no open positions\n")
	} else {
		fmt.Fprintf(&b, "%-12s %-6s %12s %12s %12s %10s %8s %12s %5s\n",
			"SYMBOL", "SIDE", "QTY", "ENTRY", "MARK", "PNL", "PNL%", "STOP", "SL#")
		for _, p := range snap.Positions {
			stop := "-"
			if p.SLPrice > 0 {
				stop = helper.FormatFloat(p.SLPrice)
			}
			fmt.Fprintf(&b, "%-12s %-6s %12.6g %12.6g %12.6g %10.2f %7.2f%% %12s %5d\n",
				p.Symbol, p.PositionSide, p.Qty, p.Entry, p.Mark,
				p.UnrealizedPnl, p.PnlPct, stop, p.SLCount)
		}
	}

	if len(recent) > 0 {
		b.WriteString("\n--- recent actions ---\n")
		for _, line := range recent {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}
