// Package settings holds the SQLite-backed settings and friends stores. Every
// call goes through one FIFO lock per store; transient database errors are
// logged and absorbed, and only use after Close is reported as an error.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/loader"
	"github.com/tazuo/autoloot/migrations"
)

// DefaultBackups is the number of rotated copies kept of each database file.
const DefaultBackups = 3

// db is the locked connection shared by Settings and Friends.
type db struct {
	name     string
	path     string
	conn     *sql.DB
	lock     *semaphore.Weighted
	disposed bool
}

func openDB(ctx context.Context, name, path string, backups int, schema fs.FS) (*db, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create %s directory: %w", name, err)
	}

	// Pages left in a write-ahead log are folded into the main file first so
	// the backup copy is complete.
	if err := checkpointWAL(ctx, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to checkpoint write-ahead log")
	}

	// Rotate before anything opens and writes the live file.
	if err := loader.RotateBackups(path, backups); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to rotate database backups")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	conn.SetMaxOpenConns(1)

	// Rollback journal: every commit lands in the single file that
	// RotateBackups copies.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(ctx, conn, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate %s: %w", name, err)
	}

	log.Debug().Str("store", name).Str("path", path).Msg("Database opened")
	return &db{
		name: name,
		path: path,
		conn: conn,
		lock: semaphore.NewWeighted(1),
	}, nil
}

// checkpointWAL merges a leftover -wal file into path and removes it.
func checkpointWAL(ctx context.Context, path string) error {
	if _, err := os.Stat(path + "-wal"); err != nil {
		return nil
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return err
	}
	_, err = conn.ExecContext(ctx, "PRAGMA journal_mode=DELETE")
	return err
}

// acquire takes the store lock. Callers must release it when err is nil.
func (d *db) acquire(ctx context.Context) error {
	if err := d.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	if d.disposed {
		d.lock.Release(1)
		return domain.ErrDisposed(d.name)
	}
	return nil
}

func (d *db) release() {
	d.lock.Release(1)
}

// with runs fn under the lock.
func (d *db) with(ctx context.Context, fn func(conn *sql.DB)) error {
	if err := d.acquire(ctx); err != nil {
		return err
	}
	defer d.release()
	fn(d.conn)
	return nil
}

// close waits for in-flight calls, marks the store disposed and closes the
// connection. Closing twice is a no-op.
func (d *db) close() error {
	if err := d.lock.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer d.lock.Release(1)

	if d.disposed {
		return nil
	}
	d.disposed = true
	log.Debug().Str("store", d.name).Msg("Database closed")
	return d.conn.Close()
}

// health pings the database.
func (d *db) health(ctx context.Context) domain.HealthStatus {
	var status domain.HealthStatus
	err := d.with(ctx, func(conn *sql.DB) {
		if pingErr := conn.PingContext(ctx); pingErr != nil {
			status = domain.HealthStatus{Status: domain.HealthStatusUnhealthy, Message: pingErr.Error()}
			return
		}
		status = domain.HealthStatus{Status: domain.HealthStatusHealthy, Message: d.name + " database reachable"}
	})
	if err != nil {
		return domain.HealthStatus{Status: domain.HealthStatusUnhealthy, Message: err.Error()}
	}
	return status
}
