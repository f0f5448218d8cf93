// Package migrations resolves the embedded account schema for a store driver.
package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	accounts "github.com/goliatone/go-marketplace-accounts"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const migrationsDir = "data/sql/migrations"

// Postgres migrations sit at the root of migrationsDir, the SQLite variants
// in a sqlite/ subdirectory with the same file names.
var dialectDirs = map[string]string{
	DialectPostgres: migrationsDir,
	DialectSQLite:   migrationsDir + "/sqlite",
}

// DialectForDriver maps a database/sql driver name to the migration dialect
// that carries its schema.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "pgx", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: no dialect for driver %q", driver)
	}
}

// ForDriver returns the migration filesystem for driver. It fails when the
// dialect has no up migrations, so a broken embed is caught at connect time.
func ForDriver(driver string) (fs.FS, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	return ForDialect(accounts.GetMigrationsFS(), dialect)
}

func ForDialect(root fs.FS, dialect string) (fs.FS, error) {
	dir, ok := dialectDirs[dialect]
	if !ok {
		return nil, fmt.Errorf("migrations: unknown dialect %q", dialect)
	}
	if root == nil {
		return nil, fmt.Errorf("migrations: filesystem is required")
	}
	sub, err := fs.Sub(root, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
	}
	ups, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: glob %s: %w", dir, err)
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("migrations: %s has no *.up.sql files", dir)
	}
	return sub, nil
}
