package storage

// sqlite.go: histórico de runs.
//
// Estrategia:
//   - `runs`: una fila por threshold escaneado, con el resumen ya agregado.
//   - `opportunities`: todas las filas del run, clave (run_id, seq) donde seq es
//     la posición en el resultado (mantiene el orden del feed B).
//   - Timestamps como INTEGER en nanosegundos UTC: sin ambigüedad de formato.
//   - Los REAL son nullables: SQLite guarda NaN como NULL y al leer se restaura NaN.
//   - Prune automático al arrancar: runs > 90d y sus oportunidades.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/spatialarb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    started_at    INTEGER NOT NULL,
    duration_ns   INTEGER NOT NULL DEFAULT 0,
    threshold     REAL,
    idx           TEXT    NOT NULL,
    rows_a        INTEGER NOT NULL DEFAULT 0,
    rows_b        INTEGER NOT NULL DEFAULT 0,
    found         INTEGER NOT NULL DEFAULT 0,
    buy_a         INTEGER NOT NULL DEFAULT 0,
    buy_b         INTEGER NOT NULL DEFAULT 0,
    invalid       INTEGER NOT NULL DEFAULT 0,
    total_unitary REAL,
    avg_pct       REAL,
    best_pct      REAL
);

CREATE TABLE IF NOT EXISTS opportunities (
    run_id         TEXT    NOT NULL,
    seq            INTEGER NOT NULL,
    ts             INTEGER NOT NULL,
    type           INTEGER NOT NULL,
    profit_unitary REAL,
    profit_pct     REAL,
    price_a_high   REAL,
    price_a_low    REAL,
    price_b        REAL,
    volume_a       REAL,
    volume_b       REAL,
    threshold      REAL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_ts       ON opportunities(ts);
`

const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background(), time.Now().UTC().Add(-retentionRuns))
	return s, nil
}

// SaveRun persiste el run y sus oportunidades en una sola transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("storage.SaveRun: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, started_at, duration_ns, threshold, idx, rows_a, rows_b,
			 found, buy_a, buy_b, invalid, total_unitary, avg_pct, best_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().UnixNano(),
		int64(run.Duration),
		nullable(run.Threshold),
		run.Index,
		run.RowsA,
		run.RowsB,
		len(run.Opportunities),
		sum.BuyA,
		sum.BuyB,
		sum.Invalid,
		nullable(sum.TotalUnitary),
		nullable(sum.AvgPct),
		nullable(sum.BestPct),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	if len(run.Opportunities) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO opportunities
				(run_id, seq, ts, type, profit_unitary, profit_pct,
				 price_a_high, price_a_low, price_b, volume_a, volume_b, threshold)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("storage.SaveRun: prepare: %w", err)
		}
		defer stmt.Close()

		for i, o := range run.Opportunities {
			if _, err := stmt.ExecContext(ctx,
				run.ID,
				i,
				o.Timestamp.UTC().UnixNano(),
				int(o.Type),
				nullable(o.ProfitUnitary),
				nullable(o.ProfitPercentage),
				nullable(o.PriceAHigh),
				nullable(o.PriceALow),
				nullable(o.PriceB),
				nullable(o.VolumeA),
				nullable(o.VolumeB),
				nullable(o.Threshold),
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert opportunity %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRuns devuelve los runs iniciados en [from, to], más recientes primero.
// Las oportunidades no se cargan; usar GetOpportunities.
func (s *SQLiteStorage) GetRuns(ctx context.Context, from, to time.Time) ([]domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ns, threshold, idx, rows_a, rows_b,
		       found, buy_a, buy_b, invalid, total_unitary, avg_pct, best_pct
		FROM runs
		WHERE started_at BETWEEN ? AND ?
		ORDER BY started_at DESC, id
	`, from.UTC().UnixNano(), to.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var startedAt, durationNs int64
		var threshold, totalUnitary, avgPct, bestPct sql.NullFloat64

		if err := rows.Scan(
			&run.ID,
			&startedAt,
			&durationNs,
			&threshold,
			&run.Index,
			&run.RowsA,
			&run.RowsB,
			&run.Summary.Total,
			&run.Summary.BuyA,
			&run.Summary.BuyB,
			&run.Summary.Invalid,
			&totalUnitary,
			&avgPct,
			&bestPct,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: scan row: %w", err)
		}

		run.StartedAt = time.Unix(0, startedAt).UTC()
		run.Duration = time.Duration(durationNs)
		run.Threshold = fromNullable(threshold)
		run.Summary.TotalUnitary = fromNullable(totalUnitary)
		run.Summary.AvgPct = fromNullable(avgPct)
		run.Summary.BestPct = fromNullable(bestPct)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetOpportunities devuelve las oportunidades del run en el orden del feed B.
func (s *SQLiteStorage) GetOpportunities(ctx context.Context, runID string) ([]domain.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, type, profit_unitary, profit_pct,
		       price_a_high, price_a_low, price_b, volume_a, volume_b, threshold
		FROM opportunities
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOpportunities: query: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var ts int64
		var typ int
		var vals [8]sql.NullFloat64

		if err := rows.Scan(&ts, &typ,
			&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6], &vals[7],
		); err != nil {
			return nil, fmt.Errorf("storage.GetOpportunities: scan row: %w", err)
		}

		opps = append(opps, domain.Opportunity{
			Timestamp:        time.Unix(0, ts).UTC(),
			Type:             domain.Signal(typ),
			ProfitUnitary:    fromNullable(vals[0]),
			ProfitPercentage: fromNullable(vals[1]),
			PriceAHigh:       fromNullable(vals[2]),
			PriceALow:        fromNullable(vals[3]),
			PriceB:           fromNullable(vals[4]),
			VolumeA:          fromNullable(vals[5]),
			VolumeB:          fromNullable(vals[6]),
			Threshold:        fromNullable(vals[7]),
		})
	}

	return opps, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina runs anteriores a cutoff y sus oportunidades.
func (s *SQLiteStorage) pruneOld(ctx context.Context, cutoff time.Time) {
	ns := cutoff.UnixNano()
	s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, ns)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, ns)
}

// nullable convierte NaN a NULL; el resto de valores (incluido ±Inf) va tal cual.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
