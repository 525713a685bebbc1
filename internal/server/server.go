// Package server exposes the assistant and auth APIs over HTTP. Turn
// results stream to the client as server-sent events; workspace events are
// observable over a websocket.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifedesk/lifedesk/internal/auth"
	"github.com/lifedesk/lifedesk/internal/bus"
	"github.com/lifedesk/lifedesk/internal/config"
	"github.com/lifedesk/lifedesk/internal/logging"
	"github.com/lifedesk/lifedesk/internal/metrics"
	"github.com/lifedesk/lifedesk/internal/turn"
)

// Server is the LifeDesk HTTP API.
type Server struct {
	cfg         config.ServerConfig
	coordinator *turn.Coordinator
	authSvc     *auth.Service
	events      *bus.Bus
	observer    *bus.Observer
	collector   *metrics.Collector
	version     string
	startedAt   time.Time

	httpServer *http.Server
	log        zerolog.Logger
}

// New assembles the server and its routes.
func New(cfg config.ServerConfig, coordinator *turn.Coordinator, authSvc *auth.Service, events *bus.Bus, version string) *Server {
	s := &Server{
		cfg:         cfg,
		coordinator: coordinator,
		authSvc:     authSvc,
		events:      events,
		observer:    bus.NewObserver(events, 50),
		collector:   metrics.NewCollector(events),
		version:     version,
		startedAt:   time.Now().UTC(),
		log:         logging.Component("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)

	mux.Handle("POST /api/v1/assistant/turn", authSvc.Middleware(http.HandlerFunc(s.handleTurn)))
	mux.Handle("GET /api/v1/assistant/events", authSvc.Middleware(s.observer))

	s.httpServer = &http.Server{
		Addr:        cfg.Addr,
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
		// WriteTimeout stays unset: turn streams outlive any fixed bound.
	}
	return s
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the listener until the context is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	s.observer.Close()
	s.collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
