package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blogly/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog records one applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// TableStatus is the row count of one application table.
type TableStatus struct {
	Name   string
	Exists bool
	Rows   int64
}

// MigrationStatus is a read-only snapshot of the schema for cmd/migrate status.
type MigrationStatus struct {
	Dialect string
	Applied []MigrationLog
	Pending []Migration
	Tables  []TableStatus
}

// Migrator applies the embedded migrations that match the connection's dialect.
type Migrator struct {
	db         *gorm.DB
	dialect    string
	migrations []Migration
	now        func() time.Time
}

func NewMigrator(db *gorm.DB) (*Migrator, error) {
	dialect := db.Dialector.Name()
	ms, err := MigrationsFor(dialect)
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, dialect: dialect, migrations: ms, now: time.Now}, nil
}

// applied returns the log rows, oldest first. A missing log table means nothing was applied.
func (m *Migrator) applied(ctx context.Context) ([]MigrationLog, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return nil, nil
	}
	var logs []MigrationLog
	if err := db.Order("version").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}

	for i, l := range logs {
		if l.Version != i+1 || l.Version > len(m.migrations) {
			return nil, fmt.Errorf("migration_logs holds version %06d that this build does not ship; roll back with the build that applied it", l.Version)
		}
	}
	return logs, nil
}

// Up applies every pending migration. Each script runs in its own transaction together with
// its log row, so a failed script leaves the previous versions in place.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationLog{}) {
		if err := db.Migrator().CreateTable(&MigrationLog{}); err != nil {
			return nil, fmt.Errorf("create migration_logs: %w", err)
		}
	}

	logs, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for _, mig := range m.migrations[len(logs):] {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{Version: mig.Version, Name: mig.Name, AppliedAt: m.now().UTC()}).Error
		})
		if err != nil {
			return done, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "Migration applied",
			slog.String("dialect", m.dialect), slog.String("migration", mig.String()))
		done = append(done, mig)
	}
	return done, nil
}

// Down reverts the latest applied migration. A non-zero version must name that migration,
// which guards against rolling back something other than what the operator expects.
func (m *Migrator) Down(ctx context.Context, version int) (*Migration, error) {
	logs, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("no migrations have been applied")
	}

	latest := m.migrations[len(logs)-1]
	if version != 0 && version != latest.Version {
		return nil, fmt.Errorf("can only roll back the latest migration %s, not %06d", latest, version)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(latest.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", latest.Version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("roll back %s: %w", latest, err)
	}
	middleware.Logger.InfoContext(ctx, "Migration rolled back",
		slog.String("dialect", m.dialect), slog.String("migration", latest.String()))
	return &latest, nil
}

// Status reports applied and pending migrations and the row counts of the blog tables.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	logs, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		Dialect: m.dialect,
		Applied: logs,
		Pending: m.migrations[len(logs):],
	}

	db := m.db.WithContext(ctx)
	for _, model := range PersistentModels() {
		name, err := tableName(db, model)
		if err != nil {
			return nil, err
		}
		ts := TableStatus{Name: name, Exists: db.Migrator().HasTable(model)}
		if ts.Exists {
			if err := db.Model(model).Count(&ts.Rows).Error; err != nil {
				return nil, fmt.Errorf("count %s: %w", name, err)
			}
		}
		status.Tables = append(status.Tables, ts)
	}
	return status, nil
}

func tableName(db *gorm.DB, model interface{}) (string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", fmt.Errorf("parse model %T: %w", model, err)
	}
	return stmt.Schema.Table, nil
}
