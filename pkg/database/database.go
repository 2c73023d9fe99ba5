package database

import (
	"fmt"

	"ticktask-backend/pkg/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database selected by cfg.DBDriver.
func New(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		return NewPostgresConnection(cfg.DBDSN)
	case "sqlite":
		return NewSQLiteConnection(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// NewPostgresConnection opens a PostgreSQL connection pool.
func NewPostgresConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewSQLiteConnection opens a pure-Go SQLite database. ":memory:" databases
// are pinned to a single connection so every query sees the same data.
func NewSQLiteConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
