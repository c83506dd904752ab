package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"interestingness/app"
	"interestingness/ports"
)

// Server exposes the analysis service and snapshot ledger over HTTP.
type Server struct {
	router  *chi.Mux
	service *app.AnalysisService
	store   ports.AnalysisStore
}

// NewServer creates an API server around the given service and store.
func NewServer(service *app.AnalysisService, store ports.AnalysisStore) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		store:   store,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/kinds", s.handleKinds)

	s.router.Post("/api/runs", s.handleCreateRun)

	s.router.Get("/api/snapshots", s.handleListSnapshots)
	s.router.Get("/api/snapshots/{id}", s.handleGetSnapshot)
	s.router.Get("/api/snapshots/{id}/stats", s.handleSnapshotStats)
	s.router.Get("/api/snapshots/{id}/report", s.handleSnapshotReport)
	s.router.Get("/api/snapshots/{id}/diff/{otherID}", s.handleSnapshotDiff)
}

// ServeHTTP makes the server a http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the HTTP server on the given port.
func (s *Server) Start(port string) error {
	addr := ":" + port
	log.Printf("Starting analysis API server on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
