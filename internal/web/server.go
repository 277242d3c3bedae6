package web

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/tutormatch/tutormatch/internal/catalog"
	"github.com/tutormatch/tutormatch/internal/config"
	"github.com/tutormatch/tutormatch/internal/database"
	"github.com/tutormatch/tutormatch/internal/metrics"
	"github.com/tutormatch/tutormatch/internal/web/handlers"
	"github.com/tutormatch/tutormatch/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	db         *database.DB
	port       int
	bind       string
	allowedNet *net.IPNet
	router     *chi.Mux
	metrics    *metrics.Metrics
	handlers   *handlers.Handlers
}

// NewServer creates a new web server. m may be nil to disable /metrics.
// mode is the row mode every request scope is opened with.
func NewServer(db *database.DB, cat *catalog.Catalog, m *metrics.Metrics, mode database.RowMode, port int, bind string, allowedNet *net.IPNet) *Server {
	s := &Server{
		db:         db,
		port:       port,
		bind:       bind,
		allowedNet: allowedNet,
		router:     chi.NewRouter(),
		metrics:    m,
		handlers:   handlers.New(db, cat, mode),
	}

	if m != nil {
		cat.SetObserver(m)
		m.TrackPool(db)
	}

	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}
	r.Use(chimiddleware.Recoverer)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.GetTimeouts().Request))

		r.Get("/", h.Home)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.API(h.Users))
			r.Get("/count", h.API(h.UsersCount))
			r.Get("/with/{skill}", h.API(h.UsersBySkill))
			r.Get("/with/{skill}/count", h.API(h.UsersBySkillCount))
			r.Get("/{key}", h.API(h.UserByIDOrType))
			r.Get("/{key}/count", h.API(h.UsersByTypeCount))
			r.Get("/{key}/with/{skill}", h.API(h.UsersByTypeAndSkill))
			r.Get("/{key}/with/{skill}/count", h.API(h.UsersByTypeAndSkillCount))
		})

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", h.API(h.Skills))
			r.Get("/count", h.API(h.SkillsCount))
			r.Get("/{key}", h.API(h.SkillByIDOrName))
		})
	})
}

// Start starts the web server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	timeouts := config.GetTimeouts()
	server := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: timeouts.Read,
		IdleTimeout: timeouts.Idle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
