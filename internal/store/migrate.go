package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// EnsureTrgm attempts to create the pg_trgm extension (used by the fuzzy name
// index). If the current user lacks superuser privileges, it checks whether
// the extension already exists. This allows non-superuser roles to run the app
// as long as a DBA has pre-created the extension.
func EnsureTrgm(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	_, err = db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm")
	if err == nil {
		return nil // created or already existed with sufficient privileges
	}

	// If we got a permission error, check whether the extension already exists.
	if strings.Contains(err.Error(), "permission denied") {
		var exists bool
		qErr := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm')").Scan(&exists)
		if qErr != nil {
			return fmt.Errorf("check pg_trgm: %w (original: %w)", qErr, err)
		}
		if exists {
			return nil // extension was pre-created by an admin
		}
		return fmt.Errorf("pg_trgm extension is not installed and the current database user lacks permission to create it; "+
			"ask your database admin to run: CREATE EXTENSION pg_trgm; (original: %w)", err)
	}

	return fmt.Errorf("create pg_trgm extension: %w", err)
}

// RunMigrations runs SQL migrations from the given directory (e.g. "file://migrations") against the DSN.
func RunMigrations(dsn string, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	return nil
}
