// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"redsocial/internal/config"
	"redsocial/internal/db"
)

// New returns a migrated database private to t, closed on cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:redsocial-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())

	gdb, err := db.OpenWithLogger(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}
