package database

import (
	"context"
	"testing"

	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", SQLiteDSN(":memory:"))
	assert.Equal(t, "data.db?_foreign_keys=on", SQLiteDSN("data.db"))
	assert.Equal(t, "file:data.db?mode=rwc&_foreign_keys=on", SQLiteDSN("file:data.db?mode=rwc"))
}

func TestNewDatabaseSQLiteMigratesAndPings(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = t.TempDir() + "/materia.db"
	cfg.Log.Level = "info"

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, Ping(context.Background(), db))

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&model.Favorite{}, "idx_favorite_user_material"))
	assert.True(t, db.Migrator().HasIndex(&model.Follow{}, "idx_follow_author_user"))
	assert.True(t, db.Migrator().HasIndex(&model.ShoppingListEntry{}, "idx_shopping_list_user_material"))
}
