// Package server wires the HTTP surface: the send and observe endpoints the
// host calls, plus health and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/notelink/slack-bridge/internal/config"
	"github.com/notelink/slack-bridge/internal/notes"
	"github.com/notelink/slack-bridge/internal/observer"
	"github.com/notelink/slack-bridge/internal/send"
	"github.com/notelink/slack-bridge/internal/slackapi"
	"github.com/notelink/slack-bridge/pkg/health"
	"github.com/notelink/slack-bridge/pkg/health/checkers"
	"github.com/notelink/slack-bridge/pkg/httpmiddleware"
	"github.com/notelink/slack-bridge/pkg/logger"
	"github.com/notelink/slack-bridge/pkg/metrics"
)

// Server encapsulates the HTTP server and the components behind it.
type Server struct {
	cfg     *config.AppConfig
	log     logger.Logger
	metrics *metrics.Metrics
	health  *health.HealthChecker

	sender   *send.Orchestrator
	observer *observer.Observer

	server *http.Server
}

// New creates a Server with all components initialized.
func New(cfg *config.AppConfig, log logger.Logger) *Server {
	m := metrics.NewMetrics(cfg.Monitoring.MetricsEnabled, cfg.Monitoring.MetricsEnabled, log)

	store := notes.NewClient(cfg.Host.BaseURL,
		notes.WithClientLogger(log),
		notes.WithHTTPClient(&http.Client{Timeout: cfg.Host.Timeout}))

	var factoryOpts []slackapi.Option
	if cfg.Slack.APIURL != "" {
		factoryOpts = append(factoryOpts, slackapi.WithAPIURL(cfg.Slack.APIURL))
	}
	factory := slackapi.NewFactory(factoryOpts...)

	sender := send.NewOrchestrator(store, factory,
		send.StaticTokens{Bot: cfg.Slack.BotToken, User: cfg.Slack.UserToken},
		send.WithLogger(log),
		send.WithMetrics(m),
		send.WithPageLimit(cfg.Slack.PageLimit))

	healthOpts := []health.Option{health.WithLogger(log)}
	if cfg.Monitoring.HealthCheckTimeout > 0 {
		healthOpts = append(healthOpts, health.WithTimeout(cfg.Monitoring.HealthCheckTimeout))
	}
	hc := health.New(healthOpts...)
	hc.AddReadinessCheck(checkers.NewHTTPChecker(cfg.Host.BaseURL, "host"))
	hc.AddReadinessCheck(checkers.NewSlackChecker(factory.Client(cfg.Slack.BotToken), "slack"))

	s := &Server{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		health:   hc,
		sender:   sender,
		observer: observer.NewObserver(store, observer.WithLogger(log)),
	}

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.createRouter(),
		ReadTimeout: cfg.RequestTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}

	log.Info("server initialized",
		logger.IntField("port", cfg.Port),
		logger.BoolField("as_user_enabled", cfg.Slack.AsUserEnabled()))
	return s
}

// createRouter sets up all routes and middleware.
func (s *Server) createRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpmiddleware.CorrelationID())
	r.Use(httpmiddleware.NewHTTPLogger(s.log).Middleware)
	r.Use(s.metrics.HTTPMiddleware)
	r.Use(httpmiddleware.Security(nil))
	corsConfig := httpmiddleware.DefaultCORSConfig()
	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	}
	r.Use(httpmiddleware.CORS(corsConfig))

	r.Route("/v1", func(r chi.Router) {
		sendRoute := r
		if s.cfg.Security.MaxRequestSize > 0 {
			sendRoute = r.With(chimiddleware.RequestSize(s.cfg.Security.MaxRequestSize))
		}
		sendRoute.Post("/send", s.sendHandler)
		r.Get("/observe", s.observer.ServeHTTP)
	})
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())
	if s.cfg.Monitoring.MetricsEnabled {
		r.Get("/metrics", s.metrics.Handler().ServeHTTP)
	}

	return r
}

// Listen starts the HTTP server. The returned channel reports a listener
// failure; the two funcs close the server forcefully and gracefully.
func (s *Server) Listen() (chan error, func(), func()) {
	errChan := make(chan error, 1)

	go func() {
		s.log.Info("starting HTTP server", logger.StringField("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	closer := func() {
		s.log.Info("forcefully closing HTTP server")
		if err := s.Close(); err != nil {
			s.log.Error("error during forced shutdown", logger.ErrorField(err))
		}
	}
	gracefulCloser := func() {
		s.log.Info("gracefully closing HTTP server")
		if err := s.GracefulShutdown(); err != nil {
			s.log.Error("error during graceful shutdown", logger.ErrorField(err))
		}
	}
	return errChan, closer, gracefulCloser
}

// GracefulShutdown drains in-flight requests before closing.
func (s *Server) GracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close forcefully shuts down the server.
func (s *Server) Close() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
