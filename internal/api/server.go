package api

import (
	"can-dbc-catalog/internal/catalog"
	"can-dbc-catalog/internal/database"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// DefaultMaxUpload bounds the size of an uploaded DBC document
const DefaultMaxUpload = 16 << 20

// Server represents the HTTP API server
type Server struct {
	server      *http.Server
	router      *chi.Mux
	logger      *zap.Logger
	databaseAPI *DatabaseAPI
	runsAPI     *RunsAPI
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Port      int
	Encoding  encoding.Encoding // charset of uploaded documents, nil = UTF-8
	MaxUpload int64

	// Writers receive a parse record for every upload
	Writers []database.Writer

	// RunsConn enables the parse run history endpoint when set
	RunsConn  driver.Conn
	RunsTable string
}

// NewServer creates a new API server instance
func NewServer(config ServerConfig, cat *catalog.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxUpload <= 0 {
		config.MaxUpload = DefaultMaxUpload
	}

	server := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		databaseAPI: NewDatabaseAPI(cat, config.Encoding, config.MaxUpload, config.Writers, logger),
	}
	if config.RunsConn != nil {
		server.runsAPI = NewRunsAPI(config.RunsConn, config.RunsTable)
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      server.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/dbc", func(r chi.Router) {
		r.Get("/databases", s.databaseAPI.ListDatabases)
		r.Route("/databases/{name}", func(r chi.Router) {
			r.Get("/", s.databaseAPI.GetDatabase)
			r.Put("/", s.databaseAPI.PutDatabase)
			r.Delete("/", s.databaseAPI.DeleteDatabase)
			r.Get("/failures", s.databaseAPI.GetFailures)
			r.Get("/messages/{id}", s.databaseAPI.GetMessage)
			r.Get("/messages/{id}/signals/{signal}", s.databaseAPI.GetSignal)
		})

		if s.runsAPI != nil {
			r.Get("/runs", s.runsAPI.GetRuns)
		}
	})
}

// handleRoot returns API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"health":    "/health",
		"databases": "/api/dbc/databases",
		"database":  "GET|PUT|DELETE /api/dbc/databases/{name} (PUT body: DBC text)",
		"failures":  "/api/dbc/databases/{name}/failures",
		"message":   "/api/dbc/databases/{name}/messages/{id} (decimal or 0x hex)",
		"signal":    "/api/dbc/databases/{name}/messages/{id}/signals/{signal}",
	}
	if s.runsAPI != nil {
		endpoints["runs"] = "/api/dbc/runs?database=powertrain&status=partial&start_time=2024-01-01T00:00:00Z&limit=100&offset=0"
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"name":      "CAN DBC Catalog API Server",
		"version":   "1.0.0",
		"endpoints": endpoints,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{"api": "up"}
	if s.runsAPI != nil {
		services["clickhouse"] = "connected"
		if err := s.runsAPI.conn.Ping(r.Context()); err != nil {
			services["clickhouse"] = "unreachable"
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now(),
		"services":  services,
	})
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP API server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
