package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending migration for the dialect.
//
// SQLite runs on the caller's handle so in-memory databases see the schema;
// closing the migrate instance would close that handle, so only the source
// is released. PostgreSQL gets a separate connection, as the driver pins one
// for its advisory lock.
func RunMigrations(db *sql.DB, d Dialect, dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(d))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	switch d {
	case DialectSQLite:
		driver, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			src.Close()
			return fmt.Errorf("create sqlite driver: %w", err)
		}
		defer src.Close()
		return up(src, "sqlite", driver)

	case DialectPostgres:
		migrateDB, err := sql.Open("pgx", dsn)
		if err != nil {
			src.Close()
			return fmt.Errorf("open migration database: %w", err)
		}
		defer migrateDB.Close()
		driver, err := migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
		if err != nil {
			src.Close()
			return fmt.Errorf("create pgx driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
		if err != nil {
			src.Close()
			return fmt.Errorf("create migrate instance: %w", err)
		}
		defer m.Close()
		return apply(m)

	default:
		src.Close()
		return fmt.Errorf("unsupported dialect: %s", d)
	}
}

func up(src source.Driver, name string, driver database.Driver) error {
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	return apply(m)
}

func apply(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
