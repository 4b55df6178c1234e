package clickhouse

import (
	"can-dbc-catalog/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Writer stores parsed DBC catalogs and parse runs in ClickHouse
type Writer struct {
	conn       driver.Conn
	config     Config
	tables     Tables
	logger     *zap.Logger
	batchSize  int
	batch      []models.ParseRecord
	batchChan  chan models.ParseRecord
	ctx        context.Context
	cancel     context.CancelFunc
	flushTimer *time.Ticker
	started    bool
	done       chan struct{}
}

// Tables are the ClickHouse table names derived from the configured prefix
type Tables struct {
	Runs     string
	Messages string
	Signals  string
	Enums    string
}

// TableNames derives the table names for a prefix
func TableNames(prefix string) Tables {
	if prefix == "" {
		prefix = "dbc"
	}
	return Tables{
		Runs:     prefix + "_parse_runs",
		Messages: prefix + "_messages",
		Signals:  prefix + "_signals",
		Enums:    prefix + "_enums",
	}
}

// Open connects to ClickHouse and verifies the connection
func Open(config Config) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", config.Host, config.Port)},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return conn, nil
}

// New creates a new ClickHouse writer
func New(config Config, batchSize int, logger *zap.Logger) (*Writer, error) {
	conn, err := Open(config)
	if err != nil {
		return nil, err
	}

	tables := TableNames(config.TablePrefix)
	if err := CreateTables(context.Background(), conn, tables); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	writer := &Writer{
		conn:       conn,
		config:     config,
		tables:     tables,
		logger:     logger,
		batchSize:  batchSize,
		batch:      make([]models.ParseRecord, 0, batchSize),
		batchChan:  make(chan models.ParseRecord, batchSize*2),
		ctx:        ctx,
		cancel:     cancel,
		flushTimer: time.NewTicker(1 * time.Second), // Flush every second
		done:       make(chan struct{}),
	}

	return writer, nil
}

// CreateTables creates the catalog tables. Catalog rows of a database are
// deleted before its new rows are inserted, see replaceStatements.
func CreateTables(ctx context.Context, conn driver.Conn, t Tables) error {
	queries := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id String,
			parsed_at DateTime64(6),
			database String,
			source String,
			status LowCardinality(String),
			messages UInt32,
			signals UInt32,
			failures Array(String),
			error String,
			duration_ms Float64
		) ENGINE = MergeTree()
		ORDER BY (parsed_at, database)
		PARTITION BY toYYYYMM(parsed_at)
		SETTINGS index_granularity = 8192
	`, t.Runs),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id String,
			parsed_at DateTime64(6),
			database String,
			message_id UInt32,
			message_name String,
			length UInt32,
			sender String
		) ENGINE = MergeTree()
		ORDER BY (database, message_id)
	`, t.Messages),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id String,
			parsed_at DateTime64(6),
			database String,
			message_id UInt32,
			signal_name String,
			multiplexer String,
			start_bit UInt32,
			bit_length UInt32,
			byte_order LowCardinality(String),
			is_signed Bool,
			scale Float64,
			value_offset Float64,
			min_value Float64,
			max_value Float64,
			unit String,
			receivers Array(String)
		) ENGINE = MergeTree()
		ORDER BY (database, message_id, signal_name)
	`, t.Signals),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id String,
			parsed_at DateTime64(6),
			database String,
			message_id UInt32,
			signal_name String,
			value Int64,
			label String
		) ENGINE = MergeTree()
		ORDER BY (database, message_id, signal_name, value)
	`, t.Enums),
	}

	for _, q := range queries {
		if err := conn.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Start begins processing and writing records
func (w *Writer) Start() {
	w.started = true
	go w.writeLoop()
}

// writeLoop processes records and writes them in batches
func (w *Writer) writeLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			// Drain queued records before exiting
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
		w.logger.Error("failed to flush DBC catalog to ClickHouse", zap.Error(err))
	}
}

// flush writes the current batch to ClickHouse. The batch is dropped after
// a failed attempt so one bad record cannot block the queue.
func (w *Writer) flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	defer func() { w.batch = w.batch[:0] }()

	rows := Flatten(w.batch)
	// flush runs during shutdown too, after ctx is cancelled
	ctx := context.Background()

	for _, st := range replaceStatements(w.tables, w.batch) {
		if err := w.conn.Exec(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("failed to clear stale catalog rows: %w", err)
		}
	}

	if err := w.send(ctx, w.tables.Runs, len(rows.Runs), func(i int) []any { return rows.Runs[i].values() }); err != nil {
		return err
	}
	if err := w.send(ctx, w.tables.Messages, len(rows.Messages), func(i int) []any { return rows.Messages[i].values() }); err != nil {
		return err
	}
	if err := w.send(ctx, w.tables.Signals, len(rows.Signals), func(i int) []any { return rows.Signals[i].values() }); err != nil {
		return err
	}
	if err := w.send(ctx, w.tables.Enums, len(rows.Enums), func(i int) []any { return rows.Enums[i].values() }); err != nil {
		return err
	}

	w.logger.Info("flushed DBC catalog to ClickHouse",
		zap.Int("records", len(w.batch)),
		zap.Int("messages", len(rows.Messages)),
		zap.Int("signals", len(rows.Signals)),
		zap.Int("enum_values", len(rows.Enums)))
	return nil
}

type statement struct {
	query string
	args  []any
}

// replaceStatements deletes the stored catalog rows of every database the
// batch carries a new model for. Failed records leave stored rows alone.
func replaceStatements(t Tables, records []models.ParseRecord) []statement {
	var (
		stmts []statement
		seen  = make(map[string]bool)
	)
	for _, rec := range records {
		if rec.Database == nil || seen[rec.Database.Name] {
			continue
		}
		seen[rec.Database.Name] = true

		for _, table := range []string{t.Messages, t.Signals, t.Enums} {
			stmts = append(stmts, statement{
				query: fmt.Sprintf("DELETE FROM %s WHERE database = ?", table),
				args:  []any{rec.Database.Name},
			})
		}
	}
	return stmts
}

// send appends n rows to one table in a single batch
func (w *Writer) send(ctx context.Context, table string, n int, row func(int) []any) error {
	if n == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", table))
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", table, err)
	}

	for i := 0; i < n; i++ {
		if err := batch.Append(row(i)...); err != nil {
			return fmt.Errorf("failed to append to batch for %s: %w", table, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch for %s: %w", table, err)
	}
	return nil
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

// Close flushes queued records and closes the ClickHouse connection
func (w *Writer) Close() error {
	w.cancel()
	if w.started {
		<-w.done
	}
	w.flushTimer.Stop()

	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// GetConn returns the underlying ClickHouse connection
func (w *Writer) GetConn() driver.Conn {
	return w.conn
}

// GetTables returns the table names in use
func (w *Writer) GetTables() Tables {
	return w.tables
}
