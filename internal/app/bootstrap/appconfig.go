// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application:
//   - Database connection strings (MongoDB URI, Postgres DSN, etc.)
//   - Feature flags and application modes
//   - Business logic configuration
//   - Default values for your domain
//
// Add fields here as your application grows. The struct is passed to
// most lifecycle hooks, so any configuration needed during startup,
// request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Audit logging configuration
	AuditLogAuth       string        // Auth event destination: "all", "db", "log", or "off"
	AuditLogAdmin      string        // Admin event destination: "all", "db", "log", or "off"
	AuditRestoreWindow time.Duration // How long soft-deleted audit events stay restorable
	AuditPurgeInterval time.Duration // How often the purge worker sweeps expired deletions

	// Client ownership cache
	ScopeCacheTTL time.Duration // TTL for cached client-to-owner lookups

	// SuperAdmin bootstrap
	SuperAdminEmail string // Email of the super admin user (promotes/creates on startup)
}
