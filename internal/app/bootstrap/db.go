// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	chartstore "github.com/dalemusser/carbonhub/internal/app/store/charts"
	clientstore "github.com/dalemusser/carbonhub/internal/app/store/clients"
	projectstore "github.com/dalemusser/carbonhub/internal/app/store/reductionprojects"
	summarystore "github.com/dalemusser/carbonhub/internal/app/store/summaries"
	userstore "github.com/dalemusser/carbonhub/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// connectPingTimeout bounds the initial connectivity check. The timeouts
// package is not configured until Startup, so this uses a literal.
const connectPingTimeout = 10 * time.Second

// ConnectDB establishes the MongoDB connection used by all stores.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		CarbonHubMongoClient:   client,
		CarbonHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Each store's
// EnsureIndexes is idempotent. Problems are aggregated so every broken
// collection is visible at once and startup can fail fast.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.CarbonHubMongoDatabase

	ensurers := []struct {
		collection string
		ensure     func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"clients", clientstore.New(db).EnsureIndexes},
		{"chart_nodes", chartstore.New(db).EnsureIndexes},
		{"reduction_projects", projectstore.New(db).EnsureIndexes},
		{"summaries", summarystore.New(db).EnsureIndexes},
		{"audit_events", audit.New(db).EnsureIndexes},
	}

	var problems []string
	for _, e := range ensurers {
		if err := e.ensure(ctx); err != nil {
			problems = append(problems, e.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New("ensure indexes: " + strings.Join(problems, "; "))
	}

	logger.Info("database indexes ensured", zap.Int("collections", len(ensurers)))
	return nil
}
