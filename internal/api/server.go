// Package api is the HTTP management console: read-only views over the scan
// index plus file mutations and re-scan control. It never mutates group
// state in memory — every listing is a fresh index query.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/johnhenry/super-dee-duper/internal/api/handlers"
	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/mutate"
	"github.com/johnhenry/super-dee-duper/internal/scan"
	"github.com/johnhenry/super-dee-duper/internal/scheduler"
)

// Server holds the HTTP server and all handler dependencies.
type Server struct {
	addr string
	srv  *http.Server
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// New wires all routes and returns a Server ready to Run.
func New(
	addr string,
	store *index.Store,
	mgr *scan.Manager,
	mut *mutate.Manager,
	sched *scheduler.Scheduler,
	version string,
) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	statusH := &handlers.StatusHandler{Store: store, Manager: mgr, Sched: sched, Version: version}
	sessionsH := &handlers.SessionsHandler{Store: store}
	filesH := &handlers.FilesHandler{Mutator: mut}
	scansH := &handlers.ScansHandler{Manager: mgr}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", statusH.ServeHTTP)

		r.Get("/sessions", sessionsH.List)
		r.Get("/sessions/{id}", sessionsH.Get)
		r.Get("/sessions/{id}/groups", sessionsH.Groups)

		r.Post("/files/delete", filesH.Delete)
		r.Post("/files/rename", filesH.Rename)

		r.Post("/scans", scansH.Create)
		r.Delete("/scans/current", scansH.Cancel)
	})

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: r},
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		return s.srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
