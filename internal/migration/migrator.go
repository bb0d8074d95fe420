package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var sqliteFS embed.FS

//go:embed migrations/postgres/*.sql
var postgresFS embed.FS

//go:embed migrations/mysql/*.sql
var mysqlFS embed.FS

const migrationsTable = "schema_migrations"

// Migrator applies the embedded schema migrations for one database.
type Migrator struct {
	m      *migrate.Migrate
	db     *sql.DB
	logger *zap.Logger
}

// New opens the configured database and prepares a migrator with the
// embedded migrations for its driver.
func New(cfg config.DatabaseConfig, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "migration"))

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbDriver, err := databaseDriver(cfg.Driver, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	srcDriver, err := sourceDriver(cfg.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, cfg.Driver, dbDriver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{m: m, db: db, logger: logger}, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	var driverName string
	switch cfg.Driver {
	case "sqlite", "":
		driverName = "sqlite"
	case "postgres":
		driverName = "postgres"
	case "mysql":
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("unsupported database driver: %q (valid: sqlite, postgres, mysql)", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func databaseDriver(driver string, db *sql.DB) (database.Driver, error) {
	switch driver {
	case "sqlite", "":
		return migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	case "postgres":
		return migratepostgres.WithInstance(db, &migratepostgres.Config{MigrationsTable: migrationsTable})
	case "mysql":
		return migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

func sourceDriver(driver string) (source.Driver, error) {
	var fsys fs.FS
	var dir string
	switch driver {
	case "sqlite", "":
		fsys, dir = sqliteFS, "migrations/sqlite"
	case "postgres":
		fsys, dir = postgresFS, "migrations/postgres"
	case "mysql":
		fsys, dir = mysqlFS, "migrations/mysql"
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
	return iofs.New(fsys, dir)
}

// Up applies all pending migrations. Already being current is not an
// error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	version, _, _ := mg.Version()
	mg.logger.Info("migrations applied", zap.Uint("version", version))
	return nil
}

// Down rolls back the most recent migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Reset rolls back every migration.
func (mg *Migrator) Reset() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration reset failed: %w", err)
	}
	return nil
}

// Steps applies n migrations forward, or rolls back -n.
func (mg *Migrator) Steps(n int) error {
	if err := mg.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return nil
}

// Goto migrates up or down to the given version.
func (mg *Migrator) Goto(version uint) error {
	if err := mg.m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration goto failed: %w", err)
	}
	return nil
}

// Force overwrites the recorded version without running migrations.
// Used to clear a dirty state after a failed migration.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("migration force failed: %w", err)
	}
	return nil
}

// Version reports the current schema version and whether the last
// migration left the database dirty. A fresh database reports 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migrator and its database connection.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	closeErr := mg.db.Close()
	if srcErr != nil {
		return srcErr
	}
	if dbErr != nil {
		return dbErr
	}
	return closeErr
}
