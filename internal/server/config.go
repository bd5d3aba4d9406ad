package server

import (
	"time"

	"github.com/passkeyradar/radar/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// CacheTTL bounds how long data responses are reused. Cached data is
	// also dropped whenever a combine or merge writes new files.
	CacheTTL time.Duration

	// HTTP timeouts
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              constants.DefaultAddr,
		CORSEnabled:       true,
		CORSOrigins:       []string{},
		CacheTTL:          constants.CacheTTL,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   constants.ShutdownTimeout,
	}
}
