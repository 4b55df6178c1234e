package influxdb

import (
	"can-dbc-catalog/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"
	"go.uber.org/zap"
)

// Measurement is the InfluxDB measurement parse runs are written to
const Measurement = "dbc_parse"

// Writer records parse run metrics in InfluxDB
type Writer struct {
	client     *influxdb3.Client
	logger     *zap.Logger
	batchSize  int
	batch      []models.ParseRecord
	batchChan  chan models.ParseRecord
	ctx        context.Context
	cancel     context.CancelFunc
	flushTimer *time.Ticker
	started    bool
	done       chan struct{}
	database   string
}

// New creates a new InfluxDB writer
func New(config Config, batchSize int, logger *zap.Logger) (*Writer, error) {
	client, err := influxdb3.New(influxdb3.ClientConfig{
		Host:     config.URL,
		Token:    config.Token,
		Database: config.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create InfluxDB client: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	writer := &Writer{
		client:     client,
		logger:     logger,
		batchSize:  batchSize,
		batch:      make([]models.ParseRecord, 0, batchSize),
		batchChan:  make(chan models.ParseRecord, batchSize*2),
		ctx:        ctx,
		cancel:     cancel,
		flushTimer: time.NewTicker(1 * time.Second),
		done:       make(chan struct{}),
		database:   config.Database,
	}

	return writer, nil
}

// Start begins processing and writing records
func (w *Writer) Start() {
	w.started = true
	go w.writeLoop()
}

func (w *Writer) writeLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			for {
				select {
				case rec := <-w.batchChan:
					w.batch = append(w.batch, rec)
				default:
					w.flushAndLog()
					return
				}
			}

		case rec := <-w.batchChan:
			w.batch = append(w.batch, rec)
			if len(w.batch) >= w.batchSize {
				w.flushAndLog()
			}

		case <-w.flushTimer.C:
			w.flushAndLog()
		}
	}
}

func (w *Writer) flushAndLog() {
	if err := w.flush(); err != nil {
		w.logger.Error("failed to flush parse runs to InfluxDB", zap.Error(err))
	}
}

// flush writes the current batch to InfluxDB
func (w *Writer) flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	defer func() { w.batch = w.batch[:0] }()

	points := make([]*influxdb3.Point, 0, len(w.batch))
	for _, rec := range w.batch {
		tags, fields := pointData(rec)
		points = append(points, influxdb3.NewPoint(Measurement, tags, fields, rec.Timestamp))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.client.WritePoints(ctx, points); err != nil {
		return fmt.Errorf("failed to write points: %w", err)
	}

	w.logger.Info("flushed parse runs to InfluxDB",
		zap.Int("points", len(points)),
		zap.String("database", w.database))
	return nil
}

// pointData builds the tags and fields of a parse run point
func pointData(rec models.ParseRecord) (map[string]string, map[string]any) {
	tags := map[string]string{
		"database": rec.Name,
		"status":   rec.Status(),
	}

	var messages, signals, enums int64
	if db := rec.Database; db != nil {
		messages = int64(len(db.Messages))
		for _, m := range db.Messages {
			signals += int64(len(m.Signals))
			for _, s := range m.Signals {
				enums += int64(len(s.Enumeration))
			}
		}
	}

	fields := map[string]any{
		"run_id":      rec.RunID,
		"messages":    messages,
		"signals":     signals,
		"enum_values": enums,
		"failures":    int64(len(rec.Failures)),
		"duration_ms": float64(rec.Duration.Microseconds()) / 1000,
	}
	if rec.Error != "" {
		fields["error"] = rec.Error
	}
	return tags, fields
}

// Write queues a record for writing. It blocks while the queue is full and
// drops the record only once the writer is closed.
func (w *Writer) Write(rec models.ParseRecord) {
	select {
	case w.batchChan <- rec:
	case <-w.ctx.Done():
		w.logger.Warn("writer closed, dropping parse record", zap.String("database", rec.Name))
	}
}

// Close flushes queued records and closes the InfluxDB client
func (w *Writer) Close() error {
	w.cancel()
	if w.started {
		<-w.done
	}
	w.flushTimer.Stop()

	if w.client != nil {
		return w.client.Close()
	}
	return nil
}
