package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/spatialarb/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const defaultTop = 20

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	top   int
}

// NewConsole crea un notificador que escribe a stdout.
// top limita las filas de la tabla (<= 0 usa 20).
func NewConsole(table bool, top int) *Console {
	return NewConsoleWriter(os.Stdout, table, top)
}

// NewConsoleWriter crea un notificador sobre cualquier writer (tests).
func NewConsoleWriter(w io.Writer, table bool, top int) *Console {
	if top <= 0 {
		top = defaultTop
	}
	return &Console{out: w, table: table, top: top}
}

// Notify imprime el run en el modo configurado.
func (c *Console) Notify(_ context.Context, run domain.Run) error {
	if c.table {
		c.printFull(run)
	} else {
		c.printCompact(run)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(run domain.Run) {
	now := time.Now().Format("15:04:05")
	s := run.Summary

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] th=%s A:%d B:%d → %d opps (buyA:%d buyB:%d)",
		now, pctLabel(run.Threshold), run.RowsA, run.RowsB, s.Total, s.BuyA, s.BuyB)

	if s.Total == 0 {
		sb.WriteString(" | no opportunities found")
	} else if s.Best != nil {
		fmt.Fprintf(&sb, " | best %s @ %s %s | avg %s",
			pctLabel(s.BestPct),
			s.Best.Timestamp.Format(time.RFC3339),
			s.Best.Type,
			pctLabel(s.AvgPct))
	}
	if s.Invalid > 0 {
		fmt.Fprintf(&sb, " | invalid:%d", s.Invalid)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla con las mejores oportunidades y el resumen.
func (c *Console) printFull(run domain.Run) {
	s := run.Summary
	fmt.Fprintf(c.out, "\n=== RUN %s | threshold %s | %d/%d rows (A/B), index %s ===\n",
		shortID(run.ID), pctLabel(run.Threshold), run.RowsA, run.RowsB, run.Index)

	if s.Total == 0 {
		fmt.Fprintf(c.out, "  no opportunities found\n\n")
		return
	}

	top := topByPercentage(run.Opportunities, c.top)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Signal", "Buy", "Sell", "Profit", "Profit %", "Vol A", "Vol B")
	for i, o := range top {
		table.Append(
			fmt.Sprintf("%d", i+1),
			o.Timestamp.Format("2006-01-02 15:04:05"),
			o.Type.String(),
			fmt.Sprintf("%.4f", o.BuyPrice()),
			fmt.Sprintf("%.4f", o.SellPrice()),
			fmt.Sprintf("%.4f", o.ProfitUnitary),
			pctLabel(o.ProfitPercentage),
			fmt.Sprintf("%.4f", o.VolumeA),
			fmt.Sprintf("%.4f", o.VolumeB),
		)
	}
	table.Render()

	if len(top) < s.Total {
		fmt.Fprintf(c.out, "  (top %d of %d by profit %%)\n", len(top), s.Total)
	}
	fmt.Fprintln(c.out, "  BUY_A_SELL_B = buy at feed A low, sell at feed B price")
	fmt.Fprintln(c.out, "  BUY_B_SELL_A = buy at feed B price, sell at feed A high")

	fmt.Fprintf(c.out, "\n  Opportunities: %d (%.2f%% of feed B rows)\n", s.Total, ratio(s.Total, run.RowsB)*100)
	fmt.Fprintf(c.out, "  Buy A / Buy B: %d / %d\n", s.BuyA, s.BuyB)
	fmt.Fprintf(c.out, "  Total profit:  %.4f per unit\n", s.TotalUnitary)
	fmt.Fprintf(c.out, "  Avg profit:    %s\n", pctLabel(s.AvgPct))
	fmt.Fprintf(c.out, "  Best profit:   %s\n", pctLabel(s.BestPct))
	if s.Invalid > 0 {
		fmt.Fprintf(c.out, "  WARNING: %d rows with non-finite profit (zero price in a feed)\n", s.Invalid)
	}
	fmt.Fprintln(c.out)
}

// PrintHistory imprime los runs persistidos.
func (c *Console) PrintHistory(runs []domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "no runs stored in range")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Started", "Threshold", "Rows A", "Rows B", "Opps", "Buy A", "Buy B", "Avg %", "Best %")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			pctLabel(r.Threshold),
			fmt.Sprintf("%d", r.RowsA),
			fmt.Sprintf("%d", r.RowsB),
			fmt.Sprintf("%d", r.Summary.Total),
			fmt.Sprintf("%d", r.Summary.BuyA),
			fmt.Sprintf("%d", r.Summary.BuyB),
			pctLabel(r.Summary.AvgPct),
			pctLabel(r.Summary.BestPct),
		)
	}
	table.Render()
}

// --- helpers ---

// topByPercentage devuelve las n mejores por ProfitPercentage sin modificar el
// slice de entrada. Los valores no finitos van al final.
func topByPercentage(opps []domain.Opportunity, n int) []domain.Opportunity {
	sorted := make([]domain.Opportunity, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].ProfitPercentage, sorted[j].ProfitPercentage
		fi, fj := isFinite(pi), isFinite(pj)
		if fi != fj {
			return fi
		}
		return pi > pj
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func pctLabel(v float64) string {
	if !isFinite(v) {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%.4f%%", v*100)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
