// Package database opens the relational database used by the task and
// conversation stores. GORM with a driver per configuration: sqlite for
// single-node deployments, postgres or mysql for shared ones.
// This package is internal and should not be imported by external projects.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aman1195/helium/config"
)

// DB wraps a GORM handle with pool management.
type DB struct {
	gorm   *gorm.DB
	sqlDB  *sql.DB
	driver string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Open connects using the configured driver and applies pool settings.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger = logger.With(zap.String("component", "database"))
	logger.Info("database opened",
		zap.String("driver", cfg.Driver),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return &DB{
		gorm:   gdb,
		sqlDB:  sqlDB,
		driver: cfg.Driver,
		logger: logger,
	}, nil
}

// FromGorm wraps an existing GORM handle (tests).
func FromGorm(gdb *gorm.DB, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return &DB{
		gorm:   gdb,
		sqlDB:  sqlDB,
		driver: "custom",
		logger: logger.With(zap.String("component", "database")),
	}, nil
}

// dialectorFor maps the configured driver to a GORM dialector.
func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.DSN()
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %q (valid: sqlite, postgres, mysql)", cfg.Driver)
	}
}

// Gorm returns the underlying GORM handle.
func (d *DB) Gorm() *gorm.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gorm
}

// Driver returns the configured driver name.
func (d *DB) Driver() string { return d.driver }

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("database is closed")
	}
	return d.sqlDB.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (d *DB) Stats() sql.DBStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sqlDB.Stats()
}

// Close closes the connection pool.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.logger.Info("closing database")
	return d.sqlDB.Close()
}
