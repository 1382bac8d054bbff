package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultCommandTimeout bounds a single subprocess dispatch
	DefaultCommandTimeout = 2 * time.Minute
	// DefaultProbeTimeout bounds capability probes (nixos-version, readlink)
	DefaultProbeTimeout = 2 * time.Second
	// DefaultCacheTTL is the default lifetime of a cached command result
	DefaultCacheTTL = time.Hour
)

// Limit constants
const (
	// DefaultMaxCacheEntries is the maximum number of cache entries
	DefaultMaxCacheEntries = 200
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
