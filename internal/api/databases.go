package api

import (
	"can-dbc-catalog/internal/catalog"
	"can-dbc-catalog/internal/database"
	"can-dbc-catalog/internal/dbc"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// UploadSource is recorded as the source of databases uploaded over HTTP
const UploadSource = "upload"

// DatabaseAPI handles HTTP API requests for the DBC catalog
type DatabaseAPI struct {
	catalog   *catalog.Catalog
	encoding  encoding.Encoding
	maxUpload int64
	writers   []database.Writer
	logger    *zap.Logger
}

// NewDatabaseAPI creates a new catalog handler. Uploaded documents are
// decoded with enc (UTF-8 when nil) and recorded to every writer.
func NewDatabaseAPI(cat *catalog.Catalog, enc encoding.Encoding, maxUpload int64, writers []database.Writer, logger *zap.Logger) *DatabaseAPI {
	return &DatabaseAPI{
		catalog:   cat,
		encoding:  enc,
		maxUpload: maxUpload,
		writers:   writers,
		logger:    logger,
	}
}

// ListDatabases lists every database in the catalog
// GET /api/dbc/databases
func (api *DatabaseAPI) ListDatabases(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, api.catalog.Summaries())
}

// GetDatabase returns a full database
// GET /api/dbc/databases/{name}
func (api *DatabaseAPI) GetDatabase(w http.ResponseWriter, r *http.Request) {
	entry, ok := api.entry(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, entry.Database)
}

// PutDatabase parses the request body as DBC text and stores the result
// under the name in the path, replacing any previous database
// PUT /api/dbc/databases/{name}
func (api *DatabaseAPI) PutDatabase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body := http.MaxBytesReader(w, r.Body, api.maxUpload)
	start := time.Now()
	res, err := dbc.ParseReader(name, body, api.encoding)
	api.record(dbc.DocumentResult{
		Name:     name,
		Source:   UploadSource,
		Result:   res,
		Err:      err,
		Duration: time.Since(start),
	})

	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, dbc.ErrMalformedDocument):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, dbc.ErrAssembly):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	entry := api.catalog.Put(UploadSource, res)

	api.logger.Info("stored uploaded DBC database",
		zap.String("database", name),
		zap.Int("messages", len(res.Database.Messages)),
		zap.Int("failures", len(res.Failures)))

	respondWithJSON(w, http.StatusOK, entry.Summary())
}

// DeleteDatabase removes a database from the catalog
// DELETE /api/dbc/databases/{name}
func (api *DatabaseAPI) DeleteDatabase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !api.catalog.Delete(name) {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("database %q not found", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFailures returns the messages and value tables dropped while parsing
// GET /api/dbc/databases/{name}/failures
func (api *DatabaseAPI) GetFailures(w http.ResponseWriter, r *http.Request) {
	entry, ok := api.entry(w, r)
	if !ok {
		return
	}

	failures := make([]string, 0, len(entry.Failures))
	for _, f := range entry.Failures {
		failures = append(failures, f.Error())
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"name":     entry.Database.Name,
		"failures": failures,
	})
}

// GetMessage returns one message with its signals
// GET /api/dbc/databases/{name}/messages/{id}
func (api *DatabaseAPI) GetMessage(w http.ResponseWriter, r *http.Request) {
	entry, ok := api.entry(w, r)
	if !ok {
		return
	}

	id, err := parseCANID(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, ok := entry.Database.Message(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("message %d not found", id))
		return
	}
	respondWithJSON(w, http.StatusOK, msg)
}

// GetSignal returns one signal of a message
// GET /api/dbc/databases/{name}/messages/{id}/signals/{signal}
func (api *DatabaseAPI) GetSignal(w http.ResponseWriter, r *http.Request) {
	entry, ok := api.entry(w, r)
	if !ok {
		return
	}

	id, err := parseCANID(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, ok := entry.Database.Message(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("message %d not found", id))
		return
	}

	name := chi.URLParam(r, "signal")
	sig, ok := msg.Signal(name)
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("signal %q not found in message %d", name, id))
		return
	}
	respondWithJSON(w, http.StatusOK, sig)
}

// entry looks up the database named in the path, writing a 404 if absent
func (api *DatabaseAPI) entry(w http.ResponseWriter, r *http.Request) (catalog.Entry, bool) {
	name := chi.URLParam(r, "name")
	entry, ok := api.catalog.Get(name)
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("database %q not found", name))
	}
	return entry, ok
}

func (api *DatabaseAPI) record(res dbc.DocumentResult) {
	if len(api.writers) == 0 {
		return
	}
	rec := res.Record(uuid.NewString(), time.Now().UTC())
	for _, w := range api.writers {
		w.Write(rec)
	}
}
