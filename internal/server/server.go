package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/spf13/afero"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, CORS, artificial latency and panic recovery.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the mock API.
// Implementations serve a resource (a collection of records) across several routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method-qualified path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Collections served by the mock API.
const (
	CollectionMovies = "movies"
	CollectionUsers  = "users"
)

// Server is the mock REST API: a json-server analogue over a flat JSON file.
type Server struct {
	cfg    shared.MockAPIConfig
	db     *JSONDB
	router *BasicRouter
	logger *log.Logger
}

// New opens the JSON database at cfg.DBPath on fs and builds the router.
func New(cfg shared.MockAPIConfig, fs afero.Fs, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "db.json"
	}

	db, err := OpenJSONDB(fs, cfg.DBPath, CollectionMovies, CollectionUsers)
	if err != nil {
		return nil, err
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger), CORS())
	if cfg.DelayMS > 0 {
		router.Use(Delay(time.Duration(cfg.DelayMS) * time.Millisecond))
	}

	router.Handler(NewCollectionHandler(db, CollectionMovies, nil))
	router.Handler(NewCollectionHandler(db, CollectionUsers, RejectDuplicateEmail))
	router.Handle(http.MethodGet, "/api/db", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			CollectionMovies: db.List(CollectionMovies, nil),
			CollectionUsers:  db.List(CollectionUsers, nil),
		})
	}))

	return &Server{cfg: cfg, db: db, router: router, logger: logger}, nil
}

// DB returns the backing database.
func (s *Server) DB() *JSONDB { return s.db }

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr() until ctx is canceled, then shuts down gracefully.
//
// ready, when non-nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}

	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	s.logger.Info("mock API listening", "url", "http://"+addr+"/api")
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		s.logger.Info("mock API stopped")
		return nil
	}
}
