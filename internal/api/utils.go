package api

import (
	"can-dbc-catalog/internal/models"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// parseRunQuery parses the parse run history filters from the request
func parseRunQuery(r *http.Request) (models.RunQuery, error) {
	q := r.URL.Query()
	params := models.RunQuery{
		Database: q.Get("database"),
		Status:   q.Get("status"),
		Limit:    100,
	}

	switch params.Status {
	case "", "ok", "partial", "failed":
	default:
		return params, fmt.Errorf("invalid status %q", params.Status)
	}

	if s := q.Get("start_time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return params, fmt.Errorf("invalid start_time format: %v", err)
		}
		params.StartTime = &t
	}

	if s := q.Get("end_time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return params, fmt.Errorf("invalid end_time format: %v", err)
		}
		params.EndTime = &t
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return params, fmt.Errorf("invalid limit %q", s)
		}
		params.Limit = limit
	}

	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return params, fmt.Errorf("invalid offset %q", s)
		}
		params.Offset = offset
	}

	return params, nil
}

// parseCANID parses a message id given in decimal or 0x-prefixed hex
func parseCANID(s string) (uint32, error) {
	var (
		id  uint64
		err error
	)
	if len(s) > 2 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		id, err = strconv.ParseUint(s[2:], 16, 32)
	} else {
		id, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q", s)
	}
	return uint32(id), nil
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
