// Package constants provides shared constants used throughout the radar codebase.
// This includes on-disk layout names, timestamp formats, file permissions and
// the limits that keep the pipeline and its API consistent.
package constants

import "time"

// On-disk layout under the data directory
const (
	// CategoryDirectories holds third-party passkey directory snapshots
	CategoryDirectories = "directories"

	// CategoryWellknown holds snapshots of scanned .well-known endpoints
	CategoryWellknown = "wellknown"

	// CombinedDir holds one combined artifact per target timestamp
	CombinedDir = "combined"

	// MergedDir holds the merged entity list per target timestamp
	MergedDir = "merged"

	// ConflictsDir holds the conflict log per target timestamp
	ConflictsDir = "conflicts"

	// SnapshotExt is the extension of every snapshot and artifact file
	SnapshotExt = ".json"

	// DefaultDataDir is the data directory used when none is configured
	DefaultDataDir = "../data"
)

// Categories lists the snapshot categories in the order they are combined.
var Categories = []string{CategoryDirectories, CategoryWellknown}

// Format constants
const (
	// TimestampLayout is the layout of snapshot ids, e.g. 2024-03-01-12-00-00
	TimestampLayout = "2006-01-02-15-04-05"

	// DateLayout is the short form accepted for date ranges and data lookups
	DateLayout = "2006-01-02"

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// DefaultConcurrency is how many combine or merge targets run at once
	DefaultConcurrency = 4

	// MaxConcurrency bounds the configurable concurrency
	MaxConcurrency = 64

	// TaskRetention is how many finished background tasks are kept in memory
	TaskRetention = 100

	// MinTokenMatchLength is the shortest normalized name allowed to match as a token of another name
	MinTokenMatchLength = 3
)

// Timeout constants
const (
	// ShutdownTimeout bounds graceful HTTP server shutdown
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds how long the server waits for request headers
	ReadHeaderTimeout = 10 * time.Second

	// WatchDebounce is how long the watcher waits for writes to settle
	WatchDebounce = 2 * time.Second
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached API responses
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Server defaults
const (
	// DefaultAddr is the listen address of the API server
	DefaultAddr = ":8000"
)
