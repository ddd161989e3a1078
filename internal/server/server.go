// Package server exposes the conversion engine over HTTP.
//
// Stateless conversions go through the cached pipeline. Stateful clients
// create an engine session, load a model into it, and then save or render
// it as often as they like:
//
//	POST   /v1/convert?from=auto&to=schem      body: input bytes
//	POST   /v1/engines                         -> {"id": "..."}
//	PUT    /v1/engines/{id}/model?format=auto  body: input bytes
//	GET    /v1/engines/{id}/model?format=schem
//	GET    /v1/engines/{id}/text
//	GET    /v1/engines/{id}/debug?output=json
//	DELETE /v1/engines/{id}
//
// Errors are JSON objects {"code": "...", "message": "..."}.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/schemconv/pkg/engine"
	"github.com/matzehuels/schemconv/pkg/pipeline"
	"github.com/matzehuels/schemconv/pkg/session"
)

// DefaultMaxBody bounds request bodies when Config.MaxBody is zero.
const DefaultMaxBody int64 = 64 << 20

// Config wires a Server.
type Config struct {
	// Runner serves /v1/convert. Required.
	Runner *pipeline.Runner

	// Sessions holds engine sessions. Defaults to a MemoryStore.
	Sessions session.Store

	// Options seeds every conversion (versions, author, limits).
	Options pipeline.Options

	// Engine configures engines created for sessions.
	Engine []engine.Option

	Logger  *log.Logger
	MaxBody int64
}

// Server handles the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	opts     pipeline.Options
	engine   []engine.Option
	logger   *log.Logger
	maxBody  int64
}

// New validates cfg and returns a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("nil runner")
	}
	s := &Server{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		opts:     cfg.Options,
		engine:   cfg.Engine,
		logger:   cfg.Logger,
		maxBody:  cfg.MaxBody,
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore(0, 0)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/engines", s.handleCreateEngine)
		r.Route("/engines/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEngine)
			r.Delete("/", s.handleDeleteEngine)
			r.Put("/model", s.handleLoad)
			r.Get("/model", s.handleSave)
			r.Get("/text", s.handleText)
			r.Get("/debug", s.handleDebug)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Expired sessions are swept in the background when the
// store supports it.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if mem, ok := s.sessions.(*session.MemoryStore); ok {
		go mem.Run(ctx, time.Minute)
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
