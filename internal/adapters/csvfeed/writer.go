package csvfeed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

// Header es el orden de columnas del archivo de resultados.
var Header = []string{
	"timestamp", "type", "profit_unitary", "profit_percentage",
	"price_a_high", "price_a_low", "price_b", "volume_a", "volume_b", "threshold",
}

const defaultPrecision = 8

// WriterConfig controla el formato del export.
type WriterConfig struct {
	Path       string    // "-" escribe a Stdout
	Precision  int32     // decimales de los números finitos (0 = 8)
	TimeLayout string    // "" = RFC3339Nano
	Stdout     io.Writer // destino de Path "-" (nil = os.Stdout)
}

// Writer implementa ports.Exporter escribiendo un CSV con todas las
// oportunidades de todos los runs, en orden de run y de feed B.
type Writer struct {
	cfg WriterConfig
}

func NewWriter(cfg WriterConfig) *Writer {
	if cfg.Precision <= 0 {
		cfg.Precision = defaultPrecision
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = time.RFC3339Nano
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	return &Writer{cfg: cfg}
}

// Export escribe el archivo en cfg.Path, reemplazándolo si existe.
func (w *Writer) Export(ctx context.Context, runs []domain.Run) error {
	if w.cfg.Path == "-" {
		return w.Write(ctx, w.cfg.Stdout, runs)
	}

	f, err := os.Create(w.cfg.Path)
	if err != nil {
		return fmt.Errorf("csvfeed.Export: create %q: %w", w.cfg.Path, err)
	}
	if err := w.Write(ctx, f, runs); err != nil {
		f.Close()
		return fmt.Errorf("csvfeed.Export: %s: %w", w.cfg.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csvfeed.Export: close %q: %w", w.cfg.Path, err)
	}
	return nil
}

// Write vuelca los runs a out.
func (w *Writer) Write(ctx context.Context, out io.Writer, runs []domain.Run) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(Header))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, o := range run.Opportunities {
			record[0] = o.Timestamp.Format(w.cfg.TimeLayout)
			record[1] = strconv.Itoa(int(o.Type))
			record[2] = w.number(o.ProfitUnitary)
			record[3] = w.number(o.ProfitPercentage)
			record[4] = w.number(o.PriceAHigh)
			record[5] = w.number(o.PriceALow)
			record[6] = w.number(o.PriceB)
			record[7] = w.number(o.VolumeA)
			record[8] = w.number(o.VolumeB)
			record[9] = w.number(o.Threshold)
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// number redondea con decimal para evitar artefactos binarios (0.05 en vez de
// 0.05000000000000000277). decimal no representa NaN ni Inf: esos van como texto.
func (w *Writer) number(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).Round(w.cfg.Precision).String()
}
