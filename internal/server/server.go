// Package server provides the HTTP API for the passkey radar: it starts
// combine and merge runs as background tasks and serves combined, merged
// and conflict files from the data directory.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar"
	"github.com/passkeyradar/radar/internal/server/cache"
	"github.com/passkeyradar/radar/internal/tasks"
	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/merger"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	radar     radar.Client
	tasks     *tasks.Manager
	cache     *cache.Cache
	validate  *validator.Validate
	logger    *zerolog.Logger
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// New creates a new server instance with the given configuration.
func New(rd radar.Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if rd == nil {
		return nil, errors.NewValidationError("radar", nil, "cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultAddr
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = constants.ShutdownTimeout
	}

	// Background tasks outlive the request that started them, so they run
	// under the server context rather than the request context.
	ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), logger))

	s := &Server{
		radar:     rd,
		tasks:     tasks.NewManager(logger),
		cache:     cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		validate:  validator.New(),
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	s.connectHooks()
	return s, nil
}

// connectHooks drops cached data whenever the pipeline writes new files.
func (s *Server) connectHooks() {
	s.radar.OnCombined(func(res combiner.Result) {
		s.cache.DeletePrefix(cache.CombinedPrefix)
		s.logger.Debug().Str("snapshot", res.ID.String()).Msg("Combined cache invalidated")
	})
	s.radar.OnMerged(func(res merger.BatchResult) {
		s.cache.DeletePrefix(cache.MergedPrefix)
		s.cache.DeletePrefix(cache.ConflictsPrefix)
		s.logger.Debug().Str("snapshot", res.ID.String()).Msg("Merged cache invalidated")
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.Shutdown(shutdownCtx)
}

// Shutdown cancels running tasks and waits for them until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down background tasks")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background tasks shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background tasks shutdown timed out")
		return ctx.Err()
	}
}

// Tasks returns the background task manager.
func (s *Server) Tasks() *tasks.Manager {
	return s.tasks
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
