package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usedcars-pipeline/config"
	"usedcars-pipeline/services"
	"usedcars-pipeline/storage"
	"usedcars-pipeline/utils"
)

func main() {
	var (
		target   string
		refresh  bool
		debug    bool
		insights bool
		exportPG bool
	)
	flag.StringVar(&target, "target", "", "merge only this batch file name")
	flag.StringVar(&target, "t", "", "shorthand for -target")
	flag.BoolVar(&refresh, "refresh", false, "discard the ledger and the dataset, then merge every batch")
	flag.BoolVar(&refresh, "r", false, "shorthand for -refresh")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.BoolVar(&debug, "d", false, "shorthand for -debug")
	flag.BoolVar(&insights, "insights", false, "print dataset insights after merging")
	flag.BoolVar(&exportPG, "export-pg", false, "mirror the dataset into PostgreSQL")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	logger.SetDebug(debug || cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Used cars dataset merge starting ===")
	logger.Info("Config — data dir: %s | dataset: %s | ledger: %s",
		cfg.DataDir, cfg.DatasetFile, cfg.LedgerFile)

	store := storage.NewFileStore(cfg.DataDir, cfg.DatasetFile, cfg.BatchExt, logger)
	ledger := storage.NewJSONLedger(cfg.LedgerPath())
	cleaner := services.NewCleaner(logger, services.NewFieldNormalizer(cfg.ListingPrefix, cfg.HeaderAliases))

	var exporters []storage.DatasetWriter
	var pgWriter *storage.PostgresWriter
	if exportPG || cfg.PostgresEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 500 * time.Millisecond, Logger: logger}
		pgWriter, err = storage.NewPostgresWriter(ctx, cfg.DSN(), retry, logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		defer pgWriter.Close()
		exporters = append(exporters, pgWriter)
	}
	var sqliteStore *storage.SQLiteStore
	if cfg.SQLitePath != "" {
		sqliteStore = storage.NewSQLiteStore(cfg.SQLitePath, logger)
		defer sqliteStore.Close()
		exporters = append(exporters, sqliteStore)
	}

	merger := services.NewMerger(logger, store, ledger, cleaner, exporters...)
	report, err := merger.Run(ctx, services.MergeOptions{Target: target, Refresh: refresh})
	if err != nil {
		if report != nil && report.Persisted {
			logger.Error("Dataset saved, but an export failed: %v", err)
		} else {
			logger.Error("Merge failed: %v", err)
		}
		os.Exit(1)
	}
	for _, f := range report.Failed {
		logger.Warn("Batch %s was skipped and stays pending: %v", f.Batch, f.Err)
	}

	if insights {
		var reader storage.DatasetReader = store
		switch {
		case pgWriter != nil && report.Persisted:
			reader = pgWriter
		case sqliteStore != nil && report.Persisted:
			reader = sqliteStore
		}
		opts := storage.LoadOptions{Columns: storage.ServingColumns}
		data, err := storage.LoadDataset(reader, opts)
		if err != nil {
			logger.Error("Failed to load dataset for insights: %v", err)
			if data, err = storage.LoadDataset(store, opts); err != nil {
				logger.Error("Failed to load dataset file: %v", err)
				os.Exit(1)
			}
		}
		insightSvc := services.NewInsightService(logger)
		insightSvc.Print(insightSvc.Generate(data.Listings))
	}

	logger.Info("=== Done: %d records in %s ===", report.Records, cfg.DatasetPath())
}
