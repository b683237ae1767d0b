// Package migrations embeds the SQL schema of the settings and friends
// stores and applies it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed settings/*.sql friends/*.sql
var FS embed.FS

// Settings returns the settings store migrations.
func Settings() fs.FS {
	return sub("settings")
}

// Friends returns the friends store migrations.
func Friends() fs.FS {
	return sub("friends")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(FS, dir)
	if err != nil {
		panic(fmt.Sprintf("migrations: %s: %v", dir, err))
	}
	return fsys
}

// Run applies all pending migrations in fsys to db.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Version returns the applied schema version of db.
func Version(ctx context.Context, db *sql.DB, fsys fs.FS) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("create migration provider: %w", err)
	}
	return provider.GetDBVersion(ctx)
}
