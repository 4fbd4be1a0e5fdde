package main

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Dialect and connection settings.
	Config DatabaseConfig
}

// NewDB returns a new instance of DB.
func NewDB(cfg DatabaseConfig) *DB {
	return &DB{
		Config: cfg,
	}
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	}
	if !isProd {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	switch db.Config.Dialect {
	case "sqlite":
		if db.Config.Path == "" {
			return fmt.Errorf("database path required")
		}
		db.Gorm, err = gorm.Open(sqlite.Open(sqliteDSN(db.Config.Path)), gormCfg)
		if err != nil {
			return fmt.Errorf("open sqlite database: %w", err)
		}
		// sqlite allows a single writer. One connection also keeps in-memory databases alive.
		sqlDB, err := db.Gorm.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	default:
		db.Gorm, err = gorm.Open(postgres.Open(db.Config.ConnectionInfo()), gormCfg)
		if err != nil {
			return fmt.Errorf("open postgres database: %w", err)
		}
	}
	return nil
}

// sqliteDSN turns on foreign keys, which sqlite leaves off by default.
// Without them, deleting a user wouldn't cascade to their tweets and likes.
func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Ping checks that the database is reachable.
func Ping(ctx context.Context, db *DB) error {
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
