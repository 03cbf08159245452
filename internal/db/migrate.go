// Package db applies the embedded schema migrations with goose.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PrefixEnv is the variable the migrations interpolate into table names.
const PrefixEnv = "TABLE_PREFIX"

// Open opens a database/sql handle through the pgx stdlib driver.
// goose drives migrations over database/sql rather than pgxpool.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// setupGoose points goose at the embedded migrations and the prefixed
// version table for this environment
func setupGoose(tablePrefix string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations directory: %w", err)
	}
	goose.SetBaseFS(migrationsDir)
	goose.SetTableName(tablePrefix + "goose_db_version")

	// ENVSUB blocks read the prefix from the environment
	if err := os.Setenv(PrefixEnv, tablePrefix); err != nil {
		return fmt.Errorf("set %s: %w", PrefixEnv, err)
	}
	return nil
}

// RunMigrations applies every pending migration
func RunMigrations(db *sql.DB, tablePrefix string) error {
	if err := setupGoose(tablePrefix); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("migrations completed", "table_prefix", tablePrefix)
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(db *sql.DB, tablePrefix string) error {
	if err := setupGoose(tablePrefix); err != nil {
		return err
	}
	if err := goose.Down(db, "."); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	slog.Info("rolled back one migration", "table_prefix", tablePrefix)
	return nil
}

// Status prints the applied state of every migration
func Status(db *sql.DB, tablePrefix string) error {
	if err := setupGoose(tablePrefix); err != nil {
		return err
	}
	if err := goose.Status(db, "."); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}
