// Package application provides the application interface for radar commands.
//
// Commands accept Application rather than the concrete App so they can be
// tested against a mock:
//
//	mock := &application.Mock{
//	    RadarFunc: func() (radar.Client, error) { return client, nil },
//	}
//	cmd := combine.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar"
	"github.com/passkeyradar/radar/internal/server"
)

// Application provides what commands need from the running app.
type Application interface {
	// Radar returns the pipeline client, creating it lazily on first use.
	Radar() (radar.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide, json, yaml).
	OutputFormat() string

	// ServerConfig returns the HTTP server settings from configuration.
	ServerConfig() server.Config

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
