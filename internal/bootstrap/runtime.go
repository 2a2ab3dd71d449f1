// Package bootstrap wires the database, schema, cache and optional seed data for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"blogly/internal/cache"
	"blogly/internal/config"
	"blogly/internal/database"
	"blogly/internal/middleware"
	"blogly/internal/models"
	"blogly/internal/observability"
	"blogly/internal/seed"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedIfEmpty loads the demo fixtures when the users table is empty.
	SeedIfEmpty bool
}

// InitRuntime connects to DB and Redis, applies the schema and optionally seeds demo data.
// The Redis client is nil when caching is disabled or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (_ *gorm.DB, _ *redis.Client, err error) {
	span, ctx := observability.NewSpan(ctx, "bootstrap.InitRuntime")
	span.AddAttributes(
		attribute.String("db.driver", cfg.DBDriver),
		attribute.Bool("seed_if_empty", opts.SeedIfEmpty),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("schema setup failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	if cfg.CacheTTLSeconds > 0 {
		cache.SetTTL(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	}

	if opts.SeedIfEmpty {
		if err := seedIfEmpty(ctx, db); err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, cache.GetClient(), nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("seed skipped, database already has users", "users", users)
		return nil
	}
	return seed.Seed(ctx, db, seed.Options{})
}
