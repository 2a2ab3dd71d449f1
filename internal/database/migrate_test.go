package database

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var memSeq atomic.Int64

// openMemorySQLite returns an empty private in-memory database pinned to one connection.
func openMemorySQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, memSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Prepare(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrationsFor_DialectsShipSameVersions(t *testing.T) {
	pg, err := MigrationsFor("postgres")
	require.NoError(t, err)
	lite, err := MigrationsFor("sqlite")
	require.NoError(t, err)

	require.Len(t, lite, len(pg))
	for i := range pg {
		assert.Equal(t, pg[i].String(), lite[i].String())
	}
	assert.Equal(t, "000001_init_schema", pg[0].String())
	assert.Contains(t, pg[0].Up, "BIGSERIAL")
	assert.Contains(t, lite[0].Up, "AUTOINCREMENT")

	_, err = MigrationsFor("mysql")
	assert.Error(t, err)
}

func TestParseMigrations(t *testing.T) {
	file := func(body string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(body)} }

	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{"paired", fstest.MapFS{
			"000001_a.up.sql": file("up1"), "000001_a.down.sql": file("down1"),
			"000002_b.up.sql": file("up2"), "000002_b.down.sql": file("down2"),
		}, ""},
		{"missing down", fstest.MapFS{"000001_a.up.sql": file("up1")}, "needs both"},
		{"gap", fstest.MapFS{
			"000001_a.up.sql": file("up1"), "000001_a.down.sql": file("down1"),
			"000003_c.up.sql": file("up3"), "000003_c.down.sql": file("down3"),
		}, "expected version 000002"},
		{"bad name", fstest.MapFS{"1_a.up.sql": file("up")}, "unexpected file"},
		{"name mismatch", fstest.MapFS{"000001_a.up.sql": file("up"), "000001_b.down.sql": file("down")}, "two names"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, err := parseMigrations(tt.fsys)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, ms, 2)
			assert.Equal(t, "up2", ms[1].Up)
			assert.Equal(t, "down1", ms[0].Down)
		})
	}
}

func TestMigrator_UpStatusDown_SQLite(t *testing.T) {
	db := openMemorySQLite(t)
	ctx := context.Background()

	m, err := NewMigrator(db)
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Dialect)
	assert.Empty(t, status.Applied)
	assert.Len(t, status.Pending, 2)
	for _, ts := range status.Tables {
		assert.False(t, ts.Exists, ts.Name)
	}

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, db.Exec("INSERT INTO users (first_name, last_name) VALUES ('Ada', 'Lovelace')").Error)

	// Blank titles are rejected once the second migration is in.
	err = db.Exec("INSERT INTO posts (title, content, user_id) VALUES ('   ', 'body', 1)").Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chk_posts_title_not_blank")

	status, err = m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status.Applied, 2)
	assert.True(t, status.Applied[0].AppliedAt.Equal(fixed))
	assert.Empty(t, status.Pending)
	names := map[string]TableStatus{}
	for _, ts := range status.Tables {
		names[ts.Name] = ts
	}
	assert.Equal(t, TableStatus{Name: "users", Exists: true, Rows: 1}, names["users"])
	assert.Equal(t, TableStatus{Name: "post_tags", Exists: true, Rows: 0}, names["post_tags"])
	assert.Len(t, names, 4)

	_, err = m.Down(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only roll back the latest")

	rolled, err := m.Down(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, rolled.Version)
	require.NoError(t, db.Exec("INSERT INTO posts (title, content, user_id) VALUES ('   ', 'body', 1)").Error)

	_, err = m.Down(ctx, 1)
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable("users"))

	_, err = m.Down(ctx, 0)
	assert.ErrorContains(t, err, "no migrations have been applied")
}

func TestMigrator_RejectsUnknownAppliedVersion(t *testing.T) {
	db := openMemorySQLite(t)
	ctx := context.Background()

	m, err := NewMigrator(db)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&MigrationLog{Version: 3, Name: "from_the_future", AppliedAt: time.Now()}).Error)

	_, err = m.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003")
}
