package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blogly/internal/config"
	"blogly/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes.
const (
	// SchemaModeHybrid runs the SQL migrations and, outside production, creates any table they missed.
	SchemaModeHybrid = "hybrid"
	// SchemaModeSQL runs the SQL migrations only.
	SchemaModeSQL = "sql"
	// SchemaModeAuto lets gorm AutoMigrate every model.
	SchemaModeAuto = "auto"
)

// SchemaPlan is what ApplySchema will do for a configuration.
type SchemaPlan struct {
	Mode          string
	RunMigrations bool
	AutoMigrate   bool
	RepairMissing bool
}

func isProdLike(cfg *config.Config) bool {
	return cfg.IsProduction() || cfg.Env == "staging" || cfg.Env == "stage"
}

// PlanSchema resolves DB_SCHEMA_MODE for the configured environment.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	prod := isProdLike(cfg)

	switch mode {
	case SchemaModeSQL:
		return SchemaPlan{Mode: mode, RunMigrations: true}, nil
	case SchemaModeAuto:
		if prod && !cfg.DBAutoMigrateAllowDestructive {
			return SchemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return SchemaPlan{Mode: mode, AutoMigrate: true}, nil
	case SchemaModeHybrid:
		return SchemaPlan{Mode: mode, RunMigrations: true, RepairMissing: !prod}, nil
	default:
		return SchemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// ApplySchema brings the schema up to date and then checks that every blog table exists.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunMigrations {
		migrator, err := NewMigrator(db)
		if err != nil {
			return err
		}
		if _, err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if plan.AutoMigrate {
		if cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	missing, names := missingTables(db.WithContext(ctx))
	if len(missing) == 0 {
		return nil
	}
	if !plan.RepairMissing {
		return fmt.Errorf("schema is missing tables: %s", strings.Join(names, ", "))
	}
	middleware.Logger.Warn("Creating tables the migrations did not", slog.String("tables", strings.Join(names, ", ")))
	if err := db.WithContext(ctx).AutoMigrate(missing...); err != nil {
		return fmt.Errorf("create missing tables: %w", err)
	}
	return nil
}

func missingTables(db *gorm.DB) ([]interface{}, []string) {
	var models []interface{}
	var names []string
	for _, model := range PersistentModels() {
		if db.Migrator().HasTable(model) {
			continue
		}
		name, err := tableName(db, model)
		if err != nil {
			name = fmt.Sprintf("%T", model)
		}
		models = append(models, model)
		names = append(names, name)
	}
	return models, names
}
