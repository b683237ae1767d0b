package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/migrations"
)

// Friend is one entry of the friends list, keyed by serial.
type Friend struct {
	Serial  uint32    `json:"serial"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at,omitzero"`
}

// Friends is the persisted friends list.
type Friends struct {
	db    *db
	clock func() time.Time
}

// OpenFriends opens (creating and migrating) the friends database at path,
// rotating up to backups copies of an existing file first.
func OpenFriends(ctx context.Context, path string, backups int) (*Friends, error) {
	d, err := openDB(ctx, "friends", path, backups, migrations.Friends())
	if err != nil {
		return nil, err
	}
	return &Friends{db: d, clock: time.Now}, nil
}

func (f *Friends) Path() string {
	return f.db.path
}

// Add stores or renames a friend; the last write wins.
func (f *Friends) Add(ctx context.Context, serial uint32, name string) error {
	added := f.clock().UTC().Format(time.RFC3339)
	return f.db.with(ctx, func(conn *sql.DB) {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO friendlies (serial, name, added_at) VALUES (?, ?, ?)
			 ON CONFLICT (serial) DO UPDATE SET name = excluded.name`,
			int64(serial), name, added,
		)
		if err != nil {
			log.Error().Err(err).Uint32("serial", serial).Msg("Failed to add friend")
		}
	})
}

// Remove deletes a friend. Removing an unknown serial is a no-op.
func (f *Friends) Remove(ctx context.Context, serial uint32) error {
	return f.db.with(ctx, func(conn *sql.DB) {
		if _, err := conn.ExecContext(ctx, `DELETE FROM friendlies WHERE serial = ?`, int64(serial)); err != nil {
			log.Error().Err(err).Uint32("serial", serial).Msg("Failed to remove friend")
		}
	})
}

// Get returns the friend with serial, if any.
func (f *Friends) Get(ctx context.Context, serial uint32) (Friend, bool, error) {
	var (
		friend Friend
		found  bool
	)
	err := f.db.with(ctx, func(conn *sql.DB) {
		var added string
		row := conn.QueryRowContext(ctx, `SELECT name, added_at FROM friendlies WHERE serial = ?`, int64(serial))
		switch err := row.Scan(&friend.Name, &added); {
		case err == nil:
			found = true
			friend.Serial = serial
			friend.AddedAt = parseTime(added)
		case errors.Is(err, sql.ErrNoRows):
		default:
			log.Error().Err(err).Uint32("serial", serial).Msg("Failed to read friend")
		}
	})
	return friend, found, err
}

// IsFriend reports whether serial is on the list.
func (f *Friends) IsFriend(ctx context.Context, serial uint32) (bool, error) {
	_, ok, err := f.Get(ctx, serial)
	return ok, err
}

// List returns all friends ordered by serial.
func (f *Friends) List(ctx context.Context) ([]Friend, error) {
	var friends []Friend
	err := f.db.with(ctx, func(conn *sql.DB) {
		rows, err := conn.QueryContext(ctx, `SELECT serial, name, added_at FROM friendlies ORDER BY serial`)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list friends")
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				serial int64
				friend Friend
				added  string
			)
			if err := rows.Scan(&serial, &friend.Name, &added); err != nil {
				log.Error().Err(err).Msg("Failed to scan friend")
				continue
			}
			friend.Serial = uint32(serial)
			friend.AddedAt = parseTime(added)
			friends = append(friends, friend)
		}
		if err := rows.Err(); err != nil {
			log.Error().Err(err).Msg("Failed to iterate friends")
		}
	})
	return friends, err
}

// Clear removes every friend.
func (f *Friends) Clear(ctx context.Context) error {
	return f.db.with(ctx, func(conn *sql.DB) {
		if _, err := conn.ExecContext(ctx, `DELETE FROM friendlies`); err != nil {
			log.Error().Err(err).Msg("Failed to clear friends")
		}
	})
}

func (f *Friends) HealthCheck(ctx context.Context) domain.HealthStatus {
	return f.db.health(ctx)
}

// Close disposes the store. Later calls fail with STORE_DISPOSED.
func (f *Friends) Close() error {
	return f.db.close()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
