package main

import (
	"can-dbc-catalog/internal/config"
	"can-dbc-catalog/internal/database"
	"can-dbc-catalog/internal/dbc"
	"can-dbc-catalog/internal/loader"
	"can-dbc-catalog/internal/logger"
	"can-dbc-catalog/internal/report"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "Path to .env configuration file")
	dump := flag.Bool("dump", false, "Print every parsed database to stdout")
	csvDir := flag.String("csv", "", "Write messages, signals and enums CSV files to this directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	code := run(cfg, zl, *dump, *csvDir)
	zl.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, zl *zap.Logger, dump bool, csvDir string) int {
	if !cfg.EnvFileFound {
		zl.Warn("configuration file not found, using defaults")
	}

	// Extra file arguments are parsed alongside the configured sources
	sources := cfg.DBCFiles
	for _, path := range flag.Args() {
		sources = append(sources, config.Source{Name: config.SourceName(path), Path: path})
	}
	if len(sources) == 0 && cfg.DBCDir == "" {
		zl.Error("no DBC sources configured, set DBC_FILES or DBC_DIR or pass files as arguments")
		return 2
	}

	ld, err := loader.New(cfg.DBCEncoding, zl)
	if err != nil {
		zl.Error("invalid DBC encoding", zap.String("encoding", cfg.DBCEncoding), zap.Error(err))
		return 2
	}

	writers, err := database.Open(cfg, zl)
	if err != nil {
		zl.Error("failed to open storage", zap.Error(err))
		return 1
	}
	defer func() {
		if err := writers.Close(); err != nil {
			zl.Error("failed to close storage", zap.Error(err))
		}
	}()

	docs, loadErrs := ld.Load(sources, cfg.DBCDir)
	for _, err := range loadErrs {
		zl.Error("failed to load DBC file", zap.Error(err))
	}

	runID := uuid.NewString()
	at := time.Now().UTC()
	zl.Info("parsing DBC documents",
		zap.String("run_id", runID),
		zap.Int("documents", len(docs)),
		zap.Int("workers", cfg.ParseWorkers))

	failed := len(loadErrs)
	for _, res := range dbc.ParseBatch(docs, cfg.ParseWorkers) {
		if res.Err != nil {
			failed++
			zl.Error("failed to parse DBC document",
				zap.String("database", res.Name),
				zap.String("source", res.Source),
				zap.Error(res.Err))
			writers.Write(res.Record(runID, at))
			continue
		}

		res.Result.Database = res.Result.Database.Subset(cfg.MessageFilter)
		db := res.Result.Database

		for _, f := range res.Result.Failures {
			zl.Warn("dropped DBC section", zap.String("database", res.Name), zap.Error(f))
		}
		zl.Info("parsed DBC document",
			zap.String("database", res.Name),
			zap.String("source", res.Source),
			zap.Int("messages", len(db.Messages)),
			zap.Int("signals", db.SignalCount()),
			zap.Int("failures", len(res.Result.Failures)),
			zap.Duration("duration", res.Duration))

		writers.Write(res.Record(runID, at))

		if dump {
			if err := report.Dump(os.Stdout, db); err != nil {
				zl.Error("failed to dump database", zap.String("database", res.Name), zap.Error(err))
			}
			fmt.Println()
		}

		if csvDir != "" {
			paths, err := report.WriteCSV(csvDir, db)
			if err != nil {
				failed++
				zl.Error("failed to write CSV", zap.String("database", res.Name), zap.Error(err))
				continue
			}
			zl.Info("wrote CSV files", zap.String("database", res.Name), zap.Strings("files", paths))
		}
	}

	if failed > 0 {
		zl.Warn("finished with failures", zap.String("run_id", runID), zap.Int("failed", failed))
		return 1
	}
	zl.Info("finished", zap.String("run_id", runID))
	return 0
}
