package database

import (
	"can-dbc-catalog/internal/config"
	"can-dbc-catalog/internal/database/clickhouse"
	"can-dbc-catalog/internal/database/influxdb"
	"can-dbc-catalog/internal/models"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Writers are the storage backends enabled by configuration
type Writers struct {
	ClickHouse *clickhouse.Writer
	InfluxDB   *influxdb.Writer
	all        []Writer
}

// Open creates and starts every enabled writer. Nothing is opened when
// both backends are disabled.
func Open(cfg *config.Config, logger *zap.Logger) (*Writers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writers{}

	if cfg.ClickHouseEnabled {
		ch, err := clickhouse.New(clickhouse.Config{
			Host:        cfg.ClickHouseHost,
			Port:        cfg.ClickHousePort,
			Database:    cfg.ClickHouseDatabase,
			Username:    cfg.ClickHouseUsername,
			Password:    cfg.ClickHousePassword,
			TablePrefix: cfg.ClickHouseTablePrefix,
		}, cfg.BatchSize, logger.Named("clickhouse"))
		if err != nil {
			return nil, fmt.Errorf("failed to create ClickHouse writer: %w", err)
		}
		w.ClickHouse = ch
		w.all = append(w.all, ch)
	}

	if cfg.InfluxDBEnabled {
		in, err := influxdb.New(influxdb.Config{
			URL:      cfg.InfluxDBURL,
			Token:    cfg.InfluxDBToken,
			Database: cfg.InfluxDBDatabase,
		}, cfg.BatchSize, logger.Named("influxdb"))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to create InfluxDB writer: %w", err)
		}
		w.InfluxDB = in
		w.all = append(w.all, in)
	}

	for _, wr := range w.all {
		wr.Start()
	}
	return w, nil
}

// All returns the enabled writers
func (w *Writers) All() []Writer {
	return w.all
}

// Write queues rec on every enabled writer
func (w *Writers) Write(rec models.ParseRecord) {
	for _, wr := range w.all {
		wr.Write(rec)
	}
}

// Close flushes and closes every writer
func (w *Writers) Close() error {
	var errs []error
	for _, wr := range w.all {
		if err := wr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
