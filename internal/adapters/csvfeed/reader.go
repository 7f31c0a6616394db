package csvfeed

// reader.go: carga de feeds desde CSV.
//
// Las columnas se buscan por nombre en la cabecera (el orden no importa y las
// columnas extra se ignoran). Una columna requerida ausente o una celda que no
// parsea es un error de ingesta: el scanner solo ve filas tipadas y completas.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

// ErrMissingColumn se devuelve si la cabecera no tiene una columna requerida.
var ErrMissingColumn = errors.New("missing column")

// CandleColumns son los nombres de columna del feed A.
type CandleColumns struct {
	Timestamp string
	Low       string
	High      string
	Volume    string
}

// TickColumns son los nombres de columna del feed B.
type TickColumns struct {
	Timestamp string
	Price     string
	Volume    string
}

// DefaultCandleColumns coincide con los dumps OHLCV habituales (volumen en BTC).
func DefaultCandleColumns() CandleColumns {
	return CandleColumns{Timestamp: "timestamp", Low: "low", High: "high", Volume: "Volume BTC"}
}

func DefaultTickColumns() TickColumns {
	return TickColumns{Timestamp: "timestamp", Price: "price", Volume: "volume"}
}

// Config indica dónde están los feeds y cómo leerlos.
type Config struct {
	PathA      string
	PathB      string
	ColumnsA   CandleColumns
	ColumnsB   TickColumns
	TimeLayout string // "" = auto: unix s, unix ms, RFC3339 o "2006-01-02 15:04:05"
	Comma      rune   // 0 = ','
}

// Reader implementa ports.FeedSource sobre dos archivos CSV.
type Reader struct {
	cfg Config
}

// NewReader crea un Reader. Las columnas vacías toman el nombre por defecto.
func NewReader(cfg Config) *Reader {
	defA, defB := DefaultCandleColumns(), DefaultTickColumns()
	cfg.ColumnsA.Timestamp = orDefault(cfg.ColumnsA.Timestamp, defA.Timestamp)
	cfg.ColumnsA.Low = orDefault(cfg.ColumnsA.Low, defA.Low)
	cfg.ColumnsA.High = orDefault(cfg.ColumnsA.High, defA.High)
	cfg.ColumnsA.Volume = orDefault(cfg.ColumnsA.Volume, defA.Volume)
	cfg.ColumnsB.Timestamp = orDefault(cfg.ColumnsB.Timestamp, defB.Timestamp)
	cfg.ColumnsB.Price = orDefault(cfg.ColumnsB.Price, defB.Price)
	cfg.ColumnsB.Volume = orDefault(cfg.ColumnsB.Volume, defB.Volume)
	if cfg.Comma == 0 {
		cfg.Comma = ','
	}
	return &Reader{cfg: cfg}
}

// LoadCandles lee el feed A desde cfg.PathA.
func (r *Reader) LoadCandles(ctx context.Context) (domain.CandleFeed, error) {
	f, err := os.Open(r.cfg.PathA)
	if err != nil {
		return nil, fmt.Errorf("csvfeed.LoadCandles: open %q: %w", r.cfg.PathA, err)
	}
	defer f.Close()

	feed, err := r.ReadCandles(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("csvfeed.LoadCandles: %s: %w", r.cfg.PathA, err)
	}
	return feed, nil
}

// LoadTicks lee el feed B desde cfg.PathB.
func (r *Reader) LoadTicks(ctx context.Context) (domain.TickFeed, error) {
	f, err := os.Open(r.cfg.PathB)
	if err != nil {
		return nil, fmt.Errorf("csvfeed.LoadTicks: open %q: %w", r.cfg.PathB, err)
	}
	defer f.Close()

	feed, err := r.ReadTicks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("csvfeed.LoadTicks: %s: %w", r.cfg.PathB, err)
	}
	return feed, nil
}

// ReadCandles parsea un feed A desde cualquier io.Reader.
func (r *Reader) ReadCandles(ctx context.Context, in io.Reader) (domain.CandleFeed, error) {
	cols := r.cfg.ColumnsA
	var feed domain.CandleFeed
	err := r.scan(ctx, in, []string{cols.Timestamp, cols.Low, cols.High, cols.Volume},
		func(row rowReader) error {
			var c domain.Candle
			var err error
			if c.Timestamp, err = row.timestamp(cols.Timestamp); err != nil {
				return err
			}
			if c.Low, err = row.number(cols.Low); err != nil {
				return err
			}
			if c.High, err = row.number(cols.High); err != nil {
				return err
			}
			if c.Volume, err = row.number(cols.Volume); err != nil {
				return err
			}
			feed = append(feed, c)
			return nil
		})
	return feed, err
}

// ReadTicks parsea un feed B desde cualquier io.Reader.
func (r *Reader) ReadTicks(ctx context.Context, in io.Reader) (domain.TickFeed, error) {
	cols := r.cfg.ColumnsB
	var feed domain.TickFeed
	err := r.scan(ctx, in, []string{cols.Timestamp, cols.Price, cols.Volume},
		func(row rowReader) error {
			var t domain.Tick
			var err error
			if t.Timestamp, err = row.timestamp(cols.Timestamp); err != nil {
				return err
			}
			if t.Price, err = row.number(cols.Price); err != nil {
				return err
			}
			if t.Volume, err = row.number(cols.Volume); err != nil {
				return err
			}
			feed = append(feed, t)
			return nil
		})
	return feed, err
}

// scan lee la cabecera, valida las columnas requeridas y llama a fn por fila.
func (r *Reader) scan(ctx context.Context, in io.Reader, required []string, fn func(rowReader) error) error {
	cr := csv.NewReader(in)
	cr.Comma = r.cfg.Comma
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return fmt.Errorf("empty file: %w", ErrMissingColumn)
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	for _, name := range required {
		if _, ok := pos[name]; !ok {
			return fmt.Errorf("%w %q (header: %v)", ErrMissingColumn, name, header)
		}
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row := rowReader{record: record, pos: pos, line: line, layout: r.cfg.TimeLayout}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// rowReader da acceso tipado a una fila por nombre de columna.
type rowReader struct {
	record []string
	pos    map[string]int
	line   int
	layout string
}

func (r rowReader) cell(col string) string {
	return strings.TrimSpace(r.record[r.pos[col]])
}

func (r rowReader) number(col string) (float64, error) {
	raw := r.cell(col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d column %q: parse number %q: %w", r.line, col, raw, err)
	}
	return v, nil
}

func (r rowReader) timestamp(col string) (time.Time, error) {
	raw := r.cell(col)
	t, err := ParseTimestamp(raw, r.layout)
	if err != nil {
		return time.Time{}, fmt.Errorf("line %d column %q: %w", r.line, col, err)
	}
	return t, nil
}

// unixMillisCutoff separa segundos de milisegundos: 1e12 s es el año 33658,
// 1e12 ms es septiembre de 2001.
const unixMillisCutoff = 1e12

var autoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp interpreta raw con layout, o en modo auto si layout es "".
// Los timestamps sin zona se interpretan en UTC.
func ParseTimestamp(raw, layout string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if layout != "" {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
		}
		return t.UTC(), nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n >= unixMillisCutoff || n <= -unixMillisCutoff {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		return fromUnixDecimal(raw, d)
	}
	for _, l := range autoLayouts {
		if t, err := time.ParseInLocation(l, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// fromUnixDecimal convierte un unix con decimales o exponente ("1704067200.5",
// "1.7040672e12"). El resultado es exacto al nanosegundo.
func fromUnixDecimal(raw string, d decimal.Decimal) (time.Time, error) {
	unit := decimal.NewFromInt(int64(time.Second))
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(unixMillisCutoff)) {
		unit = decimal.NewFromInt(int64(time.Millisecond))
	}
	ns := d.Mul(unit).Round(0)
	if ns.GreaterThan(maxUnixNanos) || ns.LessThan(maxUnixNanos.Neg()) {
		return time.Time{}, fmt.Errorf("timestamp %q out of range", raw)
	}
	return time.Unix(0, ns.IntPart()).UTC(), nil
}

var maxUnixNanos = decimal.NewFromInt(math.MaxInt64)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
