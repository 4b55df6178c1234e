package clickhouse

import (
	"can-dbc-catalog/internal/models"
	"time"
)

// Rows is a batch of parse records flattened into table rows
type Rows struct {
	Runs     []RunRow
	Messages []MessageRow
	Signals  []SignalRow
	Enums    []EnumRow
}

// RunRow is one row of the parse runs table
type RunRow struct {
	RunID      string
	ParsedAt   time.Time
	Database   string
	Source     string
	Status     string
	Messages   uint32
	Signals    uint32
	Failures   []string
	Error      string
	DurationMS float64
}

func (r RunRow) values() []any {
	return []any{r.RunID, r.ParsedAt, r.Database, r.Source, r.Status, r.Messages, r.Signals, r.Failures, r.Error, r.DurationMS}
}

// MessageRow is one row of the messages table
type MessageRow struct {
	RunID     string
	ParsedAt  time.Time
	Database  string
	MessageID uint32
	Name      string
	Length    uint32
	Sender    string
}

func (r MessageRow) values() []any {
	return []any{r.RunID, r.ParsedAt, r.Database, r.MessageID, r.Name, r.Length, r.Sender}
}

// SignalRow is one row of the signals table
type SignalRow struct {
	RunID       string
	ParsedAt    time.Time
	Database    string
	MessageID   uint32
	Name        string
	Multiplexer string
	StartBit    uint32
	BitLength   uint32
	ByteOrder   string
	Signed      bool
	Scale       float64
	Offset      float64
	Min         float64
	Max         float64
	Unit        string
	Receivers   []string
}

func (r SignalRow) values() []any {
	return []any{r.RunID, r.ParsedAt, r.Database, r.MessageID, r.Name, r.Multiplexer, r.StartBit, r.BitLength,
		r.ByteOrder, r.Signed, r.Scale, r.Offset, r.Min, r.Max, r.Unit, r.Receivers}
}

// EnumRow is one row of the enums table
type EnumRow struct {
	RunID     string
	ParsedAt  time.Time
	Database  string
	MessageID uint32
	Signal    string
	Value     int64
	Label     string
}

func (r EnumRow) values() []any {
	return []any{r.RunID, r.ParsedAt, r.Database, r.MessageID, r.Signal, r.Value, r.Label}
}

// Flatten turns parse records into rows. Every record yields a run row;
// only the last record with a database per database name yields catalog rows.
func Flatten(records []models.ParseRecord) Rows {
	var rows Rows

	latest := make(map[string]int)
	for i := range records {
		if db := records[i].Database; db != nil {
			latest[db.Name] = i
		}
	}

	for i := range records {
		rec := &records[i]

		run := RunRow{
			RunID:      rec.RunID,
			ParsedAt:   rec.Timestamp,
			Database:   rec.Name,
			Source:     rec.Source,
			Status:     rec.Status(),
			Failures:   rec.Failures,
			Error:      rec.Error,
			DurationMS: float64(rec.Duration.Microseconds()) / 1000,
		}
		if run.Failures == nil {
			run.Failures = []string{}
		}

		if db := rec.Database; db != nil {
			run.Messages = uint32(len(db.Messages))
			run.Signals = uint32(db.SignalCount())
		}

		if db := rec.Database; db != nil && latest[db.Name] == i {
			for _, m := range db.Messages {
				rows.Messages = append(rows.Messages, MessageRow{
					RunID:     rec.RunID,
					ParsedAt:  rec.Timestamp,
					Database:  db.Name,
					MessageID: m.ID,
					Name:      m.Name,
					Length:    uint32(m.Length),
					Sender:    m.Sender,
				})

				for _, s := range m.Signals {
					rows.Signals = append(rows.Signals, SignalRow{
						RunID:       rec.RunID,
						ParsedAt:    rec.Timestamp,
						Database:    db.Name,
						MessageID:   m.ID,
						Name:        s.Name,
						Multiplexer: s.Multiplexer,
						StartBit:    uint32(s.StartBit),
						BitLength:   uint32(s.BitLength),
						ByteOrder:   s.ByteOrder.String(),
						Signed:      s.Signedness == models.Signed,
						Scale:       s.Scale,
						Offset:      s.Offset,
						Min:         s.Min,
						Max:         s.Max,
						Unit:        s.Unit,
						Receivers:   s.Receivers,
					})

					for _, e := range s.Enumeration {
						rows.Enums = append(rows.Enums, EnumRow{
							RunID:     rec.RunID,
							ParsedAt:  rec.Timestamp,
							Database:  db.Name,
							MessageID: m.ID,
							Signal:    s.Name,
							Value:     e.Value,
							Label:     e.Label,
						})
					}
				}
			}
		}

		rows.Runs = append(rows.Runs, run)
	}

	return rows
}
