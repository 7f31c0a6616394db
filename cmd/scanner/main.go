package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/spatialarb/config"
	"github.com/alejandrodnm/spatialarb/internal/adapters/csvfeed"
	"github.com/alejandrodnm/spatialarb/internal/adapters/notify"
	"github.com/alejandrodnm/spatialarb/internal/adapters/storage"
	"github.com/alejandrodnm/spatialarb/internal/ports"
	"github.com/alejandrodnm/spatialarb/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty = defaults + env)")
	feedA := flag.String("feed-a", "", "feed A CSV (low/high/volume), overrides config")
	feedB := flag.String("feed-b", "", "feed B CSV (price/volume), overrides config")
	thresholds := flag.String("threshold", "", "comma-separated thresholds, e.g. 0,0.001 (overrides config)")
	index := flag.String("index", "", "nearest lookup: linear|sorted (overrides config)")
	out := flag.String("out", "", "CSV export path, '-' for stdout (overrides config)")
	dryRun := flag.Bool("dry-run", false, "do not write to storage")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full table per run (default: compact 1-line)")
	history := flag.Duration("history", 0, "print runs stored in the last duration and exit (e.g. 72h)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	applyFlags(cfg, *feedA, *feedB, *index, *out, *table)
	if *thresholds != "" {
		th, err := config.ParseThresholds(*thresholds)
		if err != nil {
			slog.Error("invalid -threshold", "err", err)
			os.Exit(1)
		}
		cfg.Scanner.Thresholds = th
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	notifier, exporter := buildOutputs(cfg.Output, os.Stdout, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history > 0 {
		runHistory(ctx, cfg, notifier, *history)
		return
	}

	slog.Info("spatialarb starting",
		"config", *configPath,
		"feed_a", cfg.Feeds.A.Path,
		"feed_b", cfg.Feeds.B.Path,
		"thresholds", cfg.Scanner.Thresholds,
		"index", cfg.Scanner.Index,
		"dry_run", *dryRun,
	)

	reader := csvfeed.NewReader(csvfeed.Config{
		PathA: cfg.Feeds.A.Path,
		PathB: cfg.Feeds.B.Path,
		ColumnsA: csvfeed.CandleColumns{
			Timestamp: cfg.Feeds.A.Columns.Timestamp,
			Low:       cfg.Feeds.A.Columns.Low,
			High:      cfg.Feeds.A.Columns.High,
			Volume:    cfg.Feeds.A.Columns.Volume,
		},
		ColumnsB: csvfeed.TickColumns{
			Timestamp: cfg.Feeds.B.Columns.Timestamp,
			Price:     cfg.Feeds.B.Columns.Price,
			Volume:    cfg.Feeds.B.Columns.Volume,
		},
		TimeLayout: cfg.Feeds.TimeLayout,
		Comma:      cfg.Comma(),
	})

	// Interfaces nil explícitos: un *SQLiteStorage nil dentro de ports.Storage no es nil.
	var store ports.Storage
	if cfg.Storage.Enabled && !*dryRun {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	scanCfg := scanner.DefaultConfig()
	scanCfg.Thresholds = cfg.Scanner.Thresholds
	scanCfg.Index = cfg.Scanner.Index
	scanCfg.ProgressEvery = cfg.Scanner.ProgressEvery
	scanCfg.ProgressInterval = cfg.ProgressInterval()
	scanCfg.DryRun = *dryRun

	s := scanner.New(scanCfg, reader, store, notifier, exporter)

	runs, err := s.Run(ctx)
	if err != nil {
		slog.Error("scan failed", "err", err)
		os.Exit(1)
	}

	slog.Info("spatialarb finished", "runs", len(runs), "csv", cfg.Output.CSVPath)
}

// applyFlags sobreescribe la config con los flags no vacíos.
func applyFlags(cfg *config.Config, feedA, feedB, index, out string, table bool) {
	if feedA != "" {
		cfg.Feeds.A.Path = feedA
	}
	if feedB != "" {
		cfg.Feeds.B.Path = feedB
	}
	if index != "" {
		cfg.Scanner.Index = index
	}
	if out != "" {
		cfg.Output.CSVPath = out
	}
	if table {
		cfg.Output.Table = true
	}
}

// buildOutputs crea la consola y el export CSV. Con "-out -" stdout queda solo
// para el CSV y la consola pasa a stderr.
func buildOutputs(cfg config.OutputConfig, stdout, stderr io.Writer) (*notify.Console, ports.Exporter) {
	consoleOut := stdout
	if cfg.CSVPath == "-" {
		consoleOut = stderr
	}
	console := notify.NewConsoleWriter(consoleOut, cfg.Table, cfg.Top)

	if cfg.CSVPath == "" {
		return console, nil
	}
	return console, csvfeed.NewWriter(csvfeed.WriterConfig{
		Path:      cfg.CSVPath,
		Precision: cfg.Precision,
		Stdout:    stdout,
	})
}

// runHistory imprime los runs guardados en la ventana dada.
func runHistory(ctx context.Context, cfg *config.Config, notifier *notify.Console, window time.Duration) {
	db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer db.Close()

	now := time.Now()
	runs, err := db.GetRuns(ctx, now.Add(-window), now)
	if err != nil {
		slog.Error("failed to read history", "err", err)
		os.Exit(1)
	}
	notifier.PrintHistory(runs)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
