package models

import "time"

// ParseRecord is the outcome of parsing one document during a run
type ParseRecord struct {
	RunID     string
	Timestamp time.Time
	Name      string
	Source    string
	Database  *CANDatabase // nil when the whole document was rejected
	Failures  []string     // per-message and per-value-table failures
	Error     string       // document level failure
	Duration  time.Duration
}

// Status summarises the record as ok, partial or failed
func (r *ParseRecord) Status() string {
	switch {
	case r.Database == nil:
		return "failed"
	case len(r.Failures) > 0:
		return "partial"
	}
	return "ok"
}

// ParseRun is a stored parse record as read back from the runs table
type ParseRun struct {
	RunID      string    `json:"run_id"`
	ParsedAt   time.Time `json:"parsed_at"`
	Database   string    `json:"database"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Messages   uint32    `json:"messages"`
	Signals    uint32    `json:"signals"`
	Failures   []string  `json:"failures"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
}

// RunQuery filters parse run history
type RunQuery struct {
	Database  string
	Status    string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}
