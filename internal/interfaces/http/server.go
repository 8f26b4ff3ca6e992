// Package http exposes the read-only scoring surface: health, Prometheus
// metrics and conviction evaluation. Nothing here mutates backtest or
// strategy state.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dvirmail/cryptonew-sub003/internal/conviction"
	"github.com/dvirmail/cryptonew-sub003/internal/metrics"
	"github.com/dvirmail/cryptonew-sub003/internal/persistence"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"` // Default: 127.0.0.1, local-only
	Port         int           `yaml:"port"` // Default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// Token-bucket rate limit applied to scoring requests.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // Default: 10
	RateLimitBurst int     `yaml:"rate_limit_burst"` // Default: 20
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
}

// Server is the read-only HTTP surface for conviction scoring.
type Server struct {
	router     *mux.Router
	server     *http.Server
	config     ServerConfig
	scorer     *conviction.Scorer
	strategies persistence.StrategyRepo // May be nil; endpoints degrade to 503
	metrics    *metrics.Registry
}

// NewServer creates the HTTP server. strategies and reg may be nil.
func NewServer(config ServerConfig, scorer *conviction.Scorer, strategies persistence.StrategyRepo, reg *metrics.Registry) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		config:     config,
		scorer:     scorer,
		strategies: strategies,
		metrics:    reg,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware, accessLogMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(rateLimitMiddleware(s.config.RateLimitRPS, s.config.RateLimitBurst))
	api.HandleFunc("/score", s.handleScore).Methods(http.MethodPost)
	api.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
}

// Start begins serving and blocks until the listener fails or the server
// is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("scoring server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
