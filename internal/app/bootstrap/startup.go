// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	clientstore "github.com/dalemusser/carbonhub/internal/app/store/clients"
	userstore "github.com/dalemusser/carbonhub/internal/app/store/users"
	"github.com/dalemusser/carbonhub/internal/app/system/auditlog"
	"github.com/dalemusser/carbonhub/internal/app/system/scopecache"
	"github.com/dalemusser/carbonhub/internal/app/system/timeouts"
	"github.com/dalemusser/carbonhub/internal/app/system/workers"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// auditPurge is started in Startup and stopped in Shutdown.
var auditPurge *workers.AuditPurge

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// configures operation timeouts, seeds the super admin account, and starts
// the background purge worker for soft-deleted audit events.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("configured operation timeouts from environment", zap.Int("overrides", n))
	}

	db := deps.CarbonHubMongoDatabase
	auditStore := audit.New(db)
	owners := scopecache.New(appCfg.ScopeCacheTTL, clientstore.New(db).OwnerAdminID)
	auditLog := auditlog.New(auditStore, owners, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, auditLog, logger); err != nil {
			return err
		}
	}

	auditPurge = workers.NewAuditPurge(auditStore, logger, appCfg.AuditPurgeInterval, appCfg.AuditRestoreWindow)
	auditPurge.Start()

	return nil
}

// ensureSuperAdmin guarantees a super admin account exists for the given
// email. A missing account is created; an existing account with another
// role is promoted in place. auditLog may be nil.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, auditLog *auditlog.Logger, logger *zap.Logger) error {
	users := userstore.New(deps.CarbonHubMongoDatabase)

	existing, err := users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		u, err := users.Create(ctx, models.User{
			FullName: "Super Admin",
			Email:    email,
			Role:     models.RoleSuperAdmin,
		})
		if err != nil {
			return fmt.Errorf("create super admin: %w", err)
		}
		auditLog.UserCreated(ctx, nil, &u)
		logger.Info("created super admin", zap.String("email", u.Email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up super admin: %w", err)
	}

	if existing.Role == models.RoleSuperAdmin {
		return nil
	}

	// Promote in place. Client bindings and any checklist are cleared so
	// the account carries no tenant scoping.
	_, err = deps.CarbonHubMongoDatabase.Collection("users").UpdateByID(ctx, existing.ID, bson.M{
		"$set": bson.M{
			"role":       models.RoleSuperAdmin,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{
			"client_id":           "",
			"consulting_admin_id": "",
			"employee_head_id":    "",
			"checklist":           "",
		},
	})
	if err != nil {
		return fmt.Errorf("promote super admin: %w", err)
	}

	logger.Info("promoted existing user to super admin",
		zap.String("email", existing.Email),
		zap.String("previous_role", string(existing.Role)))
	return nil
}
