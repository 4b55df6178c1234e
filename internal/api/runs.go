package api

import (
	"can-dbc-catalog/internal/models"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// RunsAPI serves parse run history stored in ClickHouse
type RunsAPI struct {
	conn      driver.Conn
	tableName string
}

// NewRunsAPI creates a new parse run history handler
func NewRunsAPI(conn driver.Conn, tableName string) *RunsAPI {
	return &RunsAPI{
		conn:      conn,
		tableName: tableName,
	}
}

// buildRunQuery renders the history query and its arguments
func buildRunQuery(table string, params models.RunQuery) (string, []any) {
	query := fmt.Sprintf(`
		SELECT
			run_id, parsed_at, database, source, status,
			messages, signals, failures, error, duration_ms
		FROM %s
		WHERE 1=1`, table)

	args := []any{}

	if params.Database != "" {
		query += " AND database = ?"
		args = append(args, params.Database)
	}
	if params.Status != "" {
		query += " AND status = ?"
		args = append(args, params.Status)
	}
	if params.StartTime != nil {
		query += " AND parsed_at >= ?"
		args = append(args, *params.StartTime)
	}
	if params.EndTime != nil {
		query += " AND parsed_at <= ?"
		args = append(args, *params.EndTime)
	}

	query += " ORDER BY parsed_at DESC"

	if params.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, params.Limit)
	}
	if params.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, params.Offset)
	}

	return query, args
}

// GetRuns lists parse runs, newest first
// GET /api/dbc/runs?database=powertrain&status=partial&start_time=2024-01-01T00:00:00Z&limit=100&offset=0
func (api *RunsAPI) GetRuns(w http.ResponseWriter, r *http.Request) {
	params, err := parseRunQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	query, args := buildRunQuery(api.tableName, params)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	rows, err := api.conn.Query(ctx, query, args...)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Query failed: %v", err))
		return
	}
	defer rows.Close()

	runs := []models.ParseRun{}
	for rows.Next() {
		var run models.ParseRun
		if err := rows.Scan(
			&run.RunID, &run.ParsedAt, &run.Database, &run.Source, &run.Status,
			&run.Messages, &run.Signals, &run.Failures, &run.Error, &run.DurationMS,
		); err != nil {
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Scan failed: %v", err))
			return
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Query failed: %v", err))
		return
	}

	respondWithJSON(w, http.StatusOK, runs)
}
