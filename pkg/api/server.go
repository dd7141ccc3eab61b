package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bytevault/bytevault/internal/logger"
	"github.com/bytevault/bytevault/pkg/registry"
)

// Server provides the HTTP status surface for a running store.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe
//   - GET /stats: Store statistics
//   - GET /metrics: Prometheus metrics
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	registry     *registry.Registry
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new status HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// Defaults are applied here to ensure the server works correctly even when
// created directly (e.g., in tests). This is idempotent with the defaults
// applied during config loading.
func NewServer(config APIConfig, registry *registry.Registry) *Server {
	config.applyDefaults()

	router := NewRouter(registry)

	server := &http.Server{
		Addr:         net.JoinHostPort(config.Host, fmt.Sprintf("%d", config.Port)),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server:   server,
		registry: registry,
		config:   config,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns nil on success.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "addr", s.server.Addr)
		logger.Debug("status endpoints available",
			"health", fmt.Sprintf("http://%s/health", s.server.Addr),
			"stats", fmt.Sprintf("http://%s/stats", s.server.Addr),
			"metrics", fmt.Sprintf("http://%s/metrics", s.server.Addr),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("status server shutdown signal received")
		// Don't use the cancelled ctx as it would cause immediate shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("status server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the status server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("status server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("status server shutdown error: %w", err)
			logger.Error("status server shutdown error", logger.KeyError, err)
		} else {
			logger.Info("status server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.server.Addr
}
