// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CarbonHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, audit_log_admin, etc.
//   - Environment variables: CARBONHUB_MONGO_URI, CARBONHUB_AUDIT_LOG_ADMIN, etc.
//   - Command-line flags: --mongo_uri, --audit_log_admin, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "carbon_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_restore_window", Default: "720h", Desc: "How long soft-deleted audit events stay restorable (e.g., 720h)"},
	{Name: "audit_purge_interval", Default: "1h", Desc: "How often the audit purge worker sweeps expired deletions"},

	// Client ownership cache
	{Name: "scope_cache_ttl", Default: "5m", Desc: "TTL for cached client ownership lookups"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the super admin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CARBONHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CARBONHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Audit logging
		AuditLogAuth:       appValues.String("audit_log_auth"),
		AuditLogAdmin:      appValues.String("audit_log_admin"),
		AuditRestoreWindow: appValues.Duration("audit_restore_window", 720*time.Hour),
		AuditPurgeInterval: appValues.Duration("audit_purge_interval", time.Hour),

		// Client ownership cache
		ScopeCacheTTL: appValues.Duration("scope_cache_ttl", 5*time.Minute),

		// SuperAdmin
		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	return coreCfg, appCfg, nil
}

// validAuditMode reports whether m names a supported audit log destination.
func validAuditMode(m string) bool {
	switch m {
	case "all", "db", "log", "off":
		return true
	}
	return false
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
//
// CarbonHub validates the MongoDB URI format and the audit log modes to
// catch configuration errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if !validAuditMode(appCfg.AuditLogAuth) {
		return fmt.Errorf("audit_log_auth must be 'all', 'db', 'log', or 'off' (got %q)", appCfg.AuditLogAuth)
	}
	if !validAuditMode(appCfg.AuditLogAdmin) {
		return fmt.Errorf("audit_log_admin must be 'all', 'db', 'log', or 'off' (got %q)", appCfg.AuditLogAdmin)
	}

	if appCfg.AuditRestoreWindow <= 0 {
		return fmt.Errorf("audit_restore_window must be positive (got %s)", appCfg.AuditRestoreWindow)
	}
	if appCfg.AuditPurgeInterval <= 0 {
		return fmt.Errorf("audit_purge_interval must be positive (got %s)", appCfg.AuditPurgeInterval)
	}

	return nil
}
