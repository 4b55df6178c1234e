package api

import (
	"can-dbc-catalog/internal/catalog"
	"can-dbc-catalog/internal/database"
	"can-dbc-catalog/internal/dbc"
	"can-dbc-catalog/internal/models"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const engineDBC = `BO_ 100 EngineStatus: 8 ECU
 SG_ RPM : 0|16@1+ (0.25,0) [0|8000] "rpm" Gateway,Dash
 SG_ Temp : 16|8@0- (0.1,-5) [-5|20.5] "degC" Gateway
BO_ 2566844926 Extended: 8 ECU
 SG_ Broken : 0|8@1+ (1,0) [0|1]

VAL_ 100 RPM 0 "Idle" 1 "Running";
`

type recordingWriter struct {
	mu      sync.Mutex
	records []models.ParseRecord
}

func (w *recordingWriter) Start()       {}
func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) Write(rec models.ParseRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, rec)
}

func newTestServer(t *testing.T) (*Server, *catalog.Catalog, *recordingWriter) {
	t.Helper()

	cat := catalog.New()
	res, err := dbc.Parse("engine", engineDBC)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cat.Put("engine.dbc", res)

	rw := &recordingWriter{}
	s := NewServer(ServerConfig{MaxUpload: 1024, Writers: []database.Writer{rw}}, cat, nil)
	return s, cat, rw
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServer_Status(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"root", http.MethodGet, "/", http.StatusOK},
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"list", http.MethodGet, "/api/dbc/databases", http.StatusOK},
		{"database", http.MethodGet, "/api/dbc/databases/engine", http.StatusOK},
		{"unknown database", http.MethodGet, "/api/dbc/databases/nope", http.StatusNotFound},
		{"failures", http.MethodGet, "/api/dbc/databases/engine/failures", http.StatusOK},
		{"message decimal", http.MethodGet, "/api/dbc/databases/engine/messages/100", http.StatusOK},
		{"message hex", http.MethodGet, "/api/dbc/databases/engine/messages/0x64", http.StatusOK},
		{"message bad id", http.MethodGet, "/api/dbc/databases/engine/messages/abc", http.StatusBadRequest},
		{"message missing", http.MethodGet, "/api/dbc/databases/engine/messages/7", http.StatusNotFound},
		{"signal", http.MethodGet, "/api/dbc/databases/engine/messages/100/signals/RPM", http.StatusOK},
		{"signal missing", http.MethodGet, "/api/dbc/databases/engine/messages/100/signals/Speed", http.StatusNotFound},
		{"runs disabled", http.MethodGet, "/api/dbc/runs", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/api/dbc/databases/engine", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "")
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestServer_Lookups(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	summaries := decode[[]catalog.Summary](t, do(t, h, http.MethodGet, "/api/dbc/databases", ""))
	if len(summaries) != 1 || summaries[0].Name != "engine" || summaries[0].Messages != 1 || summaries[0].Failures != 1 {
		t.Errorf("summaries = %+v", summaries)
	}

	sig := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/dbc/databases/engine/messages/100/signals/Temp", ""))
	if sig["byte_order"] != "big-endian" || sig["signedness"] != "signed" {
		t.Errorf("signal = %v", sig)
	}

	failures := decode[struct {
		Failures []string `json:"failures"`
	}](t, do(t, h, http.MethodGet, "/api/dbc/databases/engine/failures", ""))
	if len(failures.Failures) != 1 || !strings.Contains(failures.Failures[0], "2566844926") {
		t.Errorf("failures = %q", failures.Failures)
	}
}

func TestServer_PutDatabase(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		want       int
		wantStored bool
	}{
		{"valid", "BO_ 1 A: 8 ECU\n SG_ S : 0|8@1+ (1,0) [0|255] \"\" X\n", http.StatusOK, true},
		{"partial", "BO_ 1 A: 8 ECU\n SG_ S : bad\nBO_ 2 B: 8 ECU\n", http.StatusOK, true},
		{"invalid utf-8", "BO_ 1 \xff: 8 ECU\n", http.StatusBadRequest, false},
		{"duplicate id", "BO_ 1 A: 8 ECU\nBO_ 1 B: 8 ECU\n", http.StatusConflict, false},
		{"too large", strings.Repeat("x", 2048), http.StatusRequestEntityTooLarge, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cat, rw := newTestServer(t)

			rec := do(t, s.Handler(), http.MethodPut, "/api/dbc/databases/uploaded", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("PUT = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}

			entry, ok := cat.Get("uploaded")
			if ok != tt.wantStored {
				t.Fatalf("stored = %v, want %v", ok, tt.wantStored)
			}
			if ok && entry.Source != UploadSource {
				t.Errorf("Source = %q, want %q", entry.Source, UploadSource)
			}

			if len(rw.records) != 1 {
				t.Fatalf("writer got %d records, want 1", len(rw.records))
			}
			if got := rw.records[0]; got.Name != "uploaded" || got.RunID == "" || (got.Database != nil) != tt.wantStored {
				t.Errorf("record = %+v", got)
			}
		})
	}
}

func TestServer_PutReplaces(t *testing.T) {
	s, cat, _ := newTestServer(t)

	rec := do(t, s.Handler(), http.MethodPut, "/api/dbc/databases/engine", "BO_ 5 Only: 2 ECU\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT = %d", rec.Code)
	}
	summary := decode[catalog.Summary](t, rec)
	if summary.Messages != 1 || summary.Failures != 0 {
		t.Errorf("summary = %+v", summary)
	}

	entry, _ := cat.Get("engine")
	if _, ok := entry.Database.Message(100); ok {
		t.Error("old message 100 still present after replace")
	}
}

func TestServer_DeleteDatabase(t *testing.T) {
	s, cat, _ := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodDelete, "/api/dbc/databases/engine", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, ok := cat.Get("engine"); ok {
		t.Error("engine still in catalog")
	}
	if rec := do(t, h, http.MethodDelete, "/api/dbc/databases/engine", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
