package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aman1195/helium/config"
)

// newMockDB builds a *DB backed by sqlmock.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	db, err := FromGorm(gdb, nil)
	require.NoError(t, err)

	return db, mock
}

func TestDB_Ping(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectPing()

	require.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_PingAfterClose(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))

	// Close is idempotent.
	assert.NoError(t, db.Close())
}

func TestDB_Stats(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	stats := db.Stats()
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
}

func TestDialectorFor_UnknownDriver(t *testing.T) {
	_, err := dialectorFor(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestDialectorFor_KnownDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql"} {
		cfg := config.DefaultDatabaseConfig()
		cfg.Driver = driver
		d, err := dialectorFor(cfg)
		require.NoError(t, err, driver)
		assert.NotNil(t, d, driver)
	}
}
