// Package app wires configuration, logging and the radar client together
// for the radar CLI and hands them to commands through
// cmd/application.Application.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar"
	"github.com/passkeyradar/radar/cmd/application"
	"github.com/passkeyradar/radar/internal/cmd/output"
	"github.com/passkeyradar/radar/internal/server"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/merger"
)

// App represents the radar application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Radar client (lazy-initialized, singleton)
	mu    sync.Mutex
	radar radar.Client
}

var _ application.Application = (*App)(nil)

// New creates a new App with configuration loaded from the environment.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, errors.WrapResource("load", "config", "", err)
		}
		app.config = config
	}
	if app.logger == nil {
		logger := NewLogger(app.config)
		app.logger = &logger
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the output format, detecting one from the
// terminal when none is configured.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// ServerConfig returns server settings derived from the configuration.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if a.config.ServerAddr != "" {
		cfg.Addr = a.config.ServerAddr
	}
	if a.config.ServerCacheTTL > 0 {
		cfg.CacheTTL = a.config.ServerCacheTTL
	}
	if len(a.config.ServerCORSOrigins) > 0 {
		cfg.CORSOrigins = a.config.ServerCORSOrigins
	}
	return cfg
}

// Radar returns the radar client, creating it on first use.
func (a *App) Radar() (radar.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.radar != nil {
		return a.radar, nil
	}
	rd, err := radar.New(a.radarOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "radar", a.config.DataDir, err)
	}
	a.radar = rd
	return rd, nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutdown complete")
	return nil
}

func (a *App) radarOptions() []radar.Option {
	opts := []radar.Option{
		radar.WithDataDir(a.config.DataDir),
		radar.WithLogger(a.logger),
	}
	if a.config.AliasesFile != "" {
		opts = append(opts, radar.WithAliasesFile(a.config.AliasesFile))
	}
	if a.config.Concurrency > 0 {
		opts = append(opts, radar.WithConcurrency(a.config.Concurrency))
	}
	if a.config.ConflictPolicy != "" {
		opts = append(opts, radar.WithConflictPolicy(merger.ConflictPolicy(a.config.ConflictPolicy)))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRadar sets a custom radar client (useful for testing).
func WithRadar(rd radar.Client) Option {
	return func(a *App) error {
		a.radar = rd
		return nil
	}
}
