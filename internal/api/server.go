// Package api provides the HTTP API for investment listings and their
// translations.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ZaguanLabs/invlocale/internal/investment"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP layer.
type Options struct {
	CORSOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	service *investment.Service
	db      Pinger
	options Options
	router  *chi.Mux
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(service *investment.Service, db Pinger, options Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if len(options.CORSOrigins) == 0 {
		options.CORSOrigins = []string{"*"}
	}

	s := &Server{
		service: service,
		db:      db,
		options: options,
		router:  chi.NewRouter(),
		logger:  logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.options.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Language"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/locales", s.handleListLocales)

		r.Route("/investments", func(r chi.Router) {
			r.Get("/", s.handleListInvestments)
			r.Post("/", s.handleCreateInvestment)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetInvestment)
				r.Patch("/", s.handleUpdateInvestment)
				r.Delete("/", s.handleDeleteInvestment)

				r.Get("/translations", s.handleListTranslations)
				r.Post("/translations/refresh", s.handleRefreshTranslations)
				r.Put("/translations/{lang}", s.handleCurateTranslation)
			})
		})
	})
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
