package dbc

import (
	"can-dbc-catalog/internal/models"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

// Document is one DBC source awaiting parsing
type Document struct {
	Name     string
	Source   string // file path or other origin, informational
	Raw      []byte
	Encoding encoding.Encoding
}

// DocumentResult pairs a document with its parse outcome
type DocumentResult struct {
	Name     string
	Source   string
	Result   *Result
	Err      error
	Duration time.Duration
}

// ParseBatch parses documents concurrently with at most workers in flight
// (unlimited when workers <= 0). Each document is parsed independently;
// results are returned in input order.
func ParseBatch(docs []Document, workers int) []DocumentResult {
	results := make([]DocumentResult, len(docs))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, doc := range docs {
		g.Go(func() error {
			start := time.Now()
			res, err := ParseBytes(doc.Name, doc.Raw, doc.Encoding)
			results[i] = DocumentResult{
				Name:     doc.Name,
				Source:   doc.Source,
				Result:   res,
				Err:      err,
				Duration: time.Since(start),
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Record converts the result into a storage record for a parse run
func (r DocumentResult) Record(runID string, at time.Time) models.ParseRecord {
	rec := models.ParseRecord{
		RunID:     runID,
		Timestamp: at,
		Name:      r.Name,
		Source:    r.Source,
		Duration:  r.Duration,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		return rec
	}

	rec.Database = r.Result.Database
	for _, f := range r.Result.Failures {
		rec.Failures = append(rec.Failures, f.Error())
	}
	return rec
}
