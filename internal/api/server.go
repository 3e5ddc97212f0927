package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tannerhall/mathdex/internal/config"
	"github.com/tannerhall/mathdex/internal/index"
)

// Server is the HTTP query surface over the index: rendering surfaces ask it
// to resolve positions, fetch pages, and force re-indexing.
type Server struct {
	router chi.Router
	idx    *index.Indexer
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(idx *index.Indexer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		idx: idx,
		log: log,
		cfg: cfg,
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

	// Query endpoints; authenticated only when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/pages", s.handleGetPage)
		r.Get("/api/pages/blocks", s.handleGetBlock)
		r.Get("/api/pages/equations", s.handleEquationsInRange)
		r.Post("/api/resolve", s.handleResolve)
		r.Post("/api/reindex", s.handleReindex)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
