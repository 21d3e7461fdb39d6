package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hanyang/handlers"
	"hanyang/internal/auth"
	"hanyang/internal/database"
	"hanyang/pkg/config"
	"hanyang/pkg/logger"
)

// Server assembles the HTTP surface of the game server: the public
// banner and health probe, the bearer-token /api subtree and the
// per-game websocket endpoint.
type Server struct {
	cfg        *config.Config
	db         *database.DB
	httpServer *http.Server
	logger     *logger.ColoredLogger
}

// Handlers groups the route providers wired into the router.
type Handlers struct {
	Game *handlers.GameHandler
	WS   *handlers.WSHandler
	DB   *handlers.DBHandler
}

// NewServer builds the router and the HTTP server around it. Everything
// under /api requires a valid token; / and /health stay open. The
// websocket endpoint authenticates after the upgrade so clients get a
// close code instead of an HTTP error.
func NewServer(cfg *config.Config, db *database.DB, verifier *auth.Verifier, hs Handlers) *Server {
	s := &Server{
		cfg:    cfg,
		db:     db,
		logger: logger.ServerLogger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(verifier.Middleware)
	hs.Game.RegisterRoutes(api)
	hs.DB.RegisterRoutes(api)

	hs.WS.RegisterRoutes(router)

	s.httpServer = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     logger.StdLogger(logger.HTTPLogger),
	}

	return s
}

// Addr returns the listen address the server was configured with.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the assembled router, mainly so tests can serve it
// without binding the configured address.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting new connections and drains in-flight
// requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHome serves the service banner.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":    "Hanyang Game Server",
		"version": "1.0.0",
		"status":  "running",
	})
}

// handleHealth reports process and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := s.db.Health(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status":   "unhealthy",
			"database": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}
