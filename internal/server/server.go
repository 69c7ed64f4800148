// Package server provides the HTTP server and routing for the calculator.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/fxcalc/internal/config"
	"github.com/aristath/fxcalc/internal/database"
	analyticshandlers "github.com/aristath/fxcalc/internal/modules/analytics/handlers"
	calculatorhandlers "github.com/aristath/fxcalc/internal/modules/calculator/handlers"
	rateshandlers "github.com/aristath/fxcalc/internal/modules/rates/handlers"
	"github.com/aristath/fxcalc/internal/rates"
)

// Config holds server configuration
type Config struct {
	Log               zerolog.Logger
	Cfg               *config.Config
	CacheDB           *database.DB
	RateService       *rates.Service
	CalculatorHandler *calculatorhandlers.Handler
	RatesHandler      *rateshandlers.Handler
	AnalyticsHandler  *analyticshandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	systemHandlers *SystemHandlers
	streamHandler  *StreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Cfg,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.CacheDB, cfg.RateService),
		streamHandler:  NewStreamHandler(cfg.RateService, cfg.Log),
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Route("/api", func(r chi.Router) {
		// The stream keeps its connection open past the write timeout, so
		// it bypasses the shared timeout middleware group.
		r.Get("/rates/stream", s.streamHandler.HandleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			cfg.CalculatorHandler.RegisterRoutes(r)
			cfg.RatesHandler.RegisterRoutes(r)
			cfg.AnalyticsHandler.RegisterRoutes(r)

			r.Get("/health", s.systemHandlers.HandleHealth)
			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.streamHandler.Close()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
