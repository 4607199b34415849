package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/docmark/internal/config"
	"github.com/dgallion1/docmark/internal/library"
	"github.com/dgallion1/docmark/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// Server is the HTTP API server for docmark.
type Server struct {
	router  chi.Router
	library *library.Library
	search  *stats.Latency
	uploads *rate.Limiter
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(lib *library.Library, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		library: lib,
		search:  stats.NewLatency(time.Hour),
		log:     log,
		cfg:     cfg,
	}
	if cfg.UploadRate > 0 {
		s.uploads = rate.NewLimiter(rate.Limit(cfg.UploadRate), cfg.UploadBurst)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DocmarkAPIKey, s.log))

		r.Get("/api/stats", s.handleStats)

		r.Route("/api/documents", func(r chi.Router) {
			r.With(RateLimit(s.uploads)).Post("/", s.handleUpload)
			r.Get("/", s.handleListDocuments)
			r.Get("/{docID}", s.handleGetDocument)
			r.Delete("/{docID}", s.handleDeleteDocument)
			r.Post("/{docID}/sessions", s.handleOpenSession)
		})

		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Post("/search", s.handleSearch)
			r.Post("/next", s.handleNext)
			r.Post("/prev", s.handlePrev)
			r.Post("/select", s.handleSelect)
			r.Delete("/selection", s.handleClearSelection)
			r.Delete("/highlights", s.handleClearHighlights)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
