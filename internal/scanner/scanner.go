package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/spatialarb/internal/domain"
	"github.com/alejandrodnm/spatialarb/internal/ports"
)

// Config contiene la configuración del scanner.
type Config struct {
	Thresholds       []float64     // un run por threshold, en este orden
	Index            string        // linear | sorted
	ProgressEvery    int           // filas del feed B entre avisos de progreso
	ProgressInterval time.Duration // mínimo entre líneas de progreso en el log
	DryRun           bool          // no persistir en storage
}

// DefaultConfig devuelve una configuración sensata para análisis offline.
func DefaultConfig() Config {
	return Config{
		Thresholds:       []float64{0},
		Index:            IndexSorted,
		ProgressEvery:    defaultProgressEvery,
		ProgressInterval: 2 * time.Second,
	}
}

// Scanner es el orquestador: carga feeds, escanea por threshold, notifica,
// exporta y persiste.
type Scanner struct {
	cfg      Config
	feeds    ports.FeedSource
	storage  ports.Storage
	notifier ports.Notifier
	exporter ports.Exporter
	now      func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
// storage y exporter pueden ser nil.
func New(
	cfg Config,
	feeds ports.FeedSource,
	storage ports.Storage,
	notifier ports.Notifier,
	exporter ports.Exporter,
) *Scanner {
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = []float64{0}
	}
	return &Scanner{
		cfg:      cfg,
		feeds:    feeds,
		storage:  storage,
		notifier: notifier,
		exporter: exporter,
		now:      time.Now,
	}
}

// Run ejecuta un scan por cada threshold configurado y entrega los resultados.
// Cualquier error de carga, scan, export o storage aborta el run; los errores del
// notifier solo se loguean.
func (s *Scanner) Run(ctx context.Context) ([]domain.Run, error) {
	start := s.now()

	runs, err := s.RunOnce(ctx)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, run); err != nil {
				slog.Warn("notifier error", "err", err)
			}
		}
		if s.storage != nil && !s.cfg.DryRun {
			if err := s.storage.SaveRun(ctx, run); err != nil {
				return nil, fmt.Errorf("scanner.Run: save run %s: %w", run.ID, err)
			}
		}
	}

	if s.exporter != nil {
		if err := s.exporter.Export(ctx, runs); err != nil {
			return nil, fmt.Errorf("scanner.Run: export: %w", err)
		}
	}

	slog.Info("scan complete",
		"runs", len(runs),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return runs, nil
}

// RunOnce carga los feeds y escanea todos los thresholds sin efectos de salida.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.Run, error) {
	candles, err := s.feeds.LoadCandles(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.RunOnce: load feed A: %w", err)
	}
	ticks, err := s.feeds.LoadTicks(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.RunOnce: load feed B: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("scanner.RunOnce: %w", ErrEmptyFeed)
	}

	index, err := NewIndex(s.cfg.Index, candles)
	if err != nil {
		return nil, err
	}

	slog.Info("feeds loaded",
		"rows_a", len(candles),
		"rows_b", len(ticks),
		"index", indexName(s.cfg.Index),
		"thresholds", s.cfg.Thresholds,
	)

	runs := make([]domain.Run, 0, len(s.cfg.Thresholds))
	for _, threshold := range s.cfg.Thresholds {
		run, err := s.scan(ctx, candles, ticks, index, threshold)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// scan ejecuta un único threshold sobre el índice compartido.
func (s *Scanner) scan(
	ctx context.Context,
	candles domain.CandleFeed,
	ticks domain.TickFeed,
	index NearestIndex,
	threshold float64,
) (domain.Run, error) {
	started := s.now()
	progress := LogProgress(threshold, s.cfg.ProgressInterval)
	aligner := NewAligner(candles, index, progress, s.cfg.ProgressEvery)

	opps, err := aligner.Find(ctx, ticks, threshold)
	if err != nil {
		return domain.Run{}, fmt.Errorf("scanner.scan: threshold %g: %w", threshold, err)
	}

	run := domain.Run{
		ID:            uuid.New().String(),
		StartedAt:     started.UTC(),
		Duration:      s.now().Sub(started),
		Threshold:     threshold,
		Index:         indexName(s.cfg.Index),
		RowsA:         len(candles),
		RowsB:         len(ticks),
		Opportunities: opps,
		Summary:       domain.Summarize(opps),
	}

	slog.Debug("threshold scanned",
		"run_id", run.ID,
		"threshold", threshold,
		"opportunities", len(opps),
		"best_pct", run.Summary.BestPct,
	)
	return run, nil
}

func indexName(kind string) string {
	if kind == "" {
		return IndexSorted
	}
	return kind
}
