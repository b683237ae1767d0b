package settings

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/migrations"
)

// Scope is the only settings scope in use.
const Scope = "futureScopeSupport"

// Settings is a string key/value store with typed accessors. Reads return
// the caller's default when a value is absent, unparseable or unreadable.
type Settings struct {
	db *db
}

// OpenSettings opens (creating and migrating) the settings database at
// path, rotating up to backups copies of an existing file first.
func OpenSettings(ctx context.Context, path string, backups int) (*Settings, error) {
	d, err := openDB(ctx, "settings", path, backups, migrations.Settings())
	if err != nil {
		return nil, err
	}
	return &Settings{db: d}, nil
}

// Path is the database file.
func (s *Settings) Path() string {
	return s.db.path
}

// Lookup returns the stored value and whether one exists.
func (s *Settings) Lookup(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.with(ctx, func(conn *sql.DB) {
		row := conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE scope = ? AND name = ?`, Scope, name)
		switch err := row.Scan(&value); {
		case err == nil:
			found = true
		case errors.Is(err, sql.ErrNoRows):
		default:
			log.Error().Err(err).Str("name", name).Str("scope", Scope).Msg("Failed to read setting")
		}
	})
	return value, found, err
}

func (s *Settings) GetString(ctx context.Context, name, def string) (string, error) {
	value, ok, err := s.Lookup(ctx, name)
	if err != nil || !ok {
		return def, err
	}
	return value, nil
}

func (s *Settings) GetBool(ctx context.Context, name string, def bool) (bool, error) {
	value, ok, err := s.Lookup(ctx, name)
	if err != nil || !ok {
		return def, err
	}
	b, perr := strconv.ParseBool(value)
	if perr != nil {
		return def, nil
	}
	return b, nil
}

func (s *Settings) GetInt(ctx context.Context, name string, def int) (int, error) {
	value, ok, err := s.Lookup(ctx, name)
	if err != nil || !ok {
		return def, err
	}
	n, perr := strconv.Atoi(value)
	if perr != nil {
		return def, nil
	}
	return n, nil
}

func (s *Settings) GetInt64(ctx context.Context, name string, def int64) (int64, error) {
	value, ok, err := s.Lookup(ctx, name)
	if err != nil || !ok {
		return def, err
	}
	n, perr := strconv.ParseInt(value, 10, 64)
	if perr != nil {
		return def, nil
	}
	return n, nil
}

func (s *Settings) GetUint32(ctx context.Context, name string, def uint32) (uint32, error) {
	value, ok, err := s.Lookup(ctx, name)
	if err != nil || !ok {
		return def, err
	}
	n, perr := strconv.ParseUint(value, 10, 32)
	if perr != nil {
		return def, nil
	}
	return uint32(n), nil
}

// GetDuration accepts Go duration strings ("750ms") or bare milliseconds.
func (s *Settings) GetDuration(ctx context.Context, name string, def time.Duration) (time.Duration, error) {
	value, ok, err := s.Lookup(ctx, name)
	if err != nil || !ok {
		return def, err
	}
	if d, perr := time.ParseDuration(value); perr == nil {
		return d, nil
	}
	if ms, perr := strconv.ParseInt(value, 10, 64); perr == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return def, nil
}

// Set stores value under name; the last write wins.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	return s.db.with(ctx, func(conn *sql.DB) {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO settings (scope, name, value) VALUES (?, ?, ?)
			 ON CONFLICT (scope, name) DO UPDATE SET value = excluded.value`,
			Scope, name, value,
		)
		if err != nil {
			log.Error().Err(err).Str("name", name).Str("scope", Scope).Msg("Failed to write setting")
		}
	})
}

func (s *Settings) SetBool(ctx context.Context, name string, value bool) error {
	return s.Set(ctx, name, strconv.FormatBool(value))
}

func (s *Settings) SetInt(ctx context.Context, name string, value int) error {
	return s.Set(ctx, name, strconv.Itoa(value))
}

func (s *Settings) SetDuration(ctx context.Context, name string, value time.Duration) error {
	return s.Set(ctx, name, value.String())
}

// Delete removes name. Deleting an absent setting is not an error.
func (s *Settings) Delete(ctx context.Context, name string) error {
	return s.db.with(ctx, func(conn *sql.DB) {
		if _, err := conn.ExecContext(ctx, `DELETE FROM settings WHERE scope = ? AND name = ?`, Scope, name); err != nil {
			log.Error().Err(err).Str("name", name).Msg("Failed to delete setting")
		}
	})
}

// GetAll returns every setting in the scope. A read failure yields an empty map.
func (s *Settings) GetAll(ctx context.Context) (map[string]string, error) {
	all := make(map[string]string)
	err := s.db.with(ctx, func(conn *sql.DB) {
		rows, err := conn.QueryContext(ctx, `SELECT name, value FROM settings WHERE scope = ?`, Scope)
		if err != nil {
			log.Error().Err(err).Str("scope", Scope).Msg("Failed to list settings")
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var name, value string
			if err := rows.Scan(&name, &value); err != nil {
				log.Error().Err(err).Msg("Failed to scan setting")
				continue
			}
			all[name] = value
		}
		if err := rows.Err(); err != nil {
			log.Error().Err(err).Msg("Failed to iterate settings")
		}
	})
	return all, err
}

// Clear removes every setting in the scope.
func (s *Settings) Clear(ctx context.Context) error {
	return s.db.with(ctx, func(conn *sql.DB) {
		if _, err := conn.ExecContext(ctx, `DELETE FROM settings WHERE scope = ?`, Scope); err != nil {
			log.Error().Err(err).Str("scope", Scope).Msg("Failed to clear settings")
		}
	})
}

// HealthCheck pings the database.
func (s *Settings) HealthCheck(ctx context.Context) domain.HealthStatus {
	return s.db.health(ctx)
}

// Close disposes the store. Later calls fail with STORE_DISPOSED.
func (s *Settings) Close() error {
	return s.db.close()
}
