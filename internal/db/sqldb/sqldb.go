// Package sqldb opens SQL databases for the question store and keeps their
// schema current.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a supported SQL backend.
type Driver string

const (
	// DriverSQLite uses the pure-Go modernc driver.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres uses pgx through database/sql.
	DriverPostgres Driver = "postgres"
)

// DB is an opened database together with its driver.
type DB struct {
	*sql.DB
	driver Driver
}

// Driver returns the backend in use.
func (d *DB) Driver() Driver { return d.driver }

// Open connects to dsn and ensures the schema exists. An empty dsn selects a
// local default.
func Open(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "file:codegrade.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/codegrade?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	sqlDB, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time; concurrent writers only fight over the lock.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	d := &DB{DB: sqlDB, driver: driver}
	if err := d.ensureSchema(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return d, nil
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.PingContext(ctx)
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (d *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := d.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *DB) ensureSchema(ctx context.Context) error {
	schema := schemaSQLite
	if d.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := d.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  reference_code TEXT NOT NULL,
  reference_dump TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  revision INTEGER NOT NULL DEFAULT 1
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  reference_code TEXT NOT NULL,
  reference_dump TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  revision INTEGER NOT NULL DEFAULT 1
);
`
