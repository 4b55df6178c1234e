package main

import (
	"can-dbc-catalog/internal/api"
	"can-dbc-catalog/internal/catalog"
	"can-dbc-catalog/internal/config"
	"can-dbc-catalog/internal/database"
	"can-dbc-catalog/internal/dbc"
	"can-dbc-catalog/internal/loader"
	"can-dbc-catalog/internal/logger"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	// Command line flag for config file
	envFile := flag.String("env", ".env", "Path to .env configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting CAN DBC catalog API server",
		zap.Int("port", cfg.APIPort),
		zap.Bool("clickhouse", cfg.ClickHouseEnabled),
		zap.Bool("influxdb", cfg.InfluxDBEnabled))

	ld, err := loader.New(cfg.DBCEncoding, zl)
	if err != nil {
		zl.Fatal("invalid DBC encoding", zap.String("encoding", cfg.DBCEncoding), zap.Error(err))
	}

	writers, err := database.Open(cfg, zl)
	if err != nil {
		zl.Fatal("failed to open storage", zap.Error(err))
	}

	cat := catalog.New()
	preload(cfg, ld, cat, writers, zl)

	serverConfig := api.ServerConfig{
		Port:     cfg.APIPort,
		Encoding: ld.Encoding(),
		Writers:  writers.All(),
	}
	if writers.ClickHouse != nil {
		serverConfig.RunsConn = writers.ClickHouse.GetConn()
		serverConfig.RunsTable = writers.ClickHouse.GetTables().Runs
	}
	server := api.NewServer(serverConfig, cat, zl.Named("api"))

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server error", zap.Error(err))
			sigChan <- syscall.SIGTERM
		}
	}()

	zl.Info("API server started, press Ctrl+C to stop",
		zap.Int("databases", len(cat.Names())))

	// Wait for termination signal
	<-sigChan
	zl.Info("shutting down API server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
	if err := writers.Close(); err != nil {
		zl.Error("failed to close storage", zap.Error(err))
	}

	zl.Info("API server stopped")
}

// preload parses the configured DBC sources into the catalog
func preload(cfg *config.Config, ld *loader.Loader, cat *catalog.Catalog, writers *database.Writers, zl *zap.Logger) {
	docs, errs := ld.Load(cfg.DBCFiles, cfg.DBCDir)
	for _, err := range errs {
		zl.Error("failed to load DBC file", zap.Error(err))
	}
	if len(docs) == 0 {
		return
	}

	runID := uuid.NewString()
	at := time.Now().UTC()

	for _, res := range dbc.ParseBatch(docs, cfg.ParseWorkers) {
		if res.Err == nil {
			res.Result.Database = res.Result.Database.Subset(cfg.MessageFilter)
		}
		writers.Write(res.Record(runID, at))

		if res.Err != nil {
			zl.Error("failed to parse DBC document",
				zap.String("database", res.Name),
				zap.String("source", res.Source),
				zap.Error(res.Err))
			continue
		}

		cat.Put(res.Source, res.Result)
		zl.Info("loaded DBC database",
			zap.String("database", res.Name),
			zap.Int("messages", len(res.Result.Database.Messages)),
			zap.Int("failures", len(res.Result.Failures)))
	}
}
