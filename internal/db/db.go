package db

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"redsocial/internal/config"
	"redsocial/internal/models"
)

// Open connects to the configured database and tunes the pool.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return OpenWithLogger(cfg, logger.Default.LogMode(logger.Warn))
}

func OpenWithLogger(cfg config.DatabaseConfig, l logger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(withForeignKeys(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         l,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps
		// in-memory databases alive and shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	slog.Info("database connection established", "driver", cfg.Driver)
	return gdb, nil
}

// withForeignKeys enables SQLite foreign key enforcement unless the DSN
// already configures it. Cascading deletes depend on it.
func withForeignKeys(dsn string) string {
	_, query, found := strings.Cut(dsn, "?")
	if !found {
		return dsn + "?_foreign_keys=on"
	}
	params, _ := url.ParseQuery(query)
	if params.Has("_foreign_keys") || params.Has("_fk") {
		return dsn
	}
	return dsn + "&_foreign_keys=on"
}

// Migrate creates or updates every table.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("database migration completed")
	return nil
}

// Close releases the underlying pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
