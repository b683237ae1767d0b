package settings

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tazuo/autoloot/internal/domain"
)

func openTestFriends(t *testing.T, path string) *Friends {
	t.Helper()
	f, err := OpenFriends(context.Background(), path, DefaultBackups)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestFriends_AddGetList(t *testing.T) {
	ctx := context.Background()
	f := openTestFriends(t, filepath.Join(t.TempDir(), "friendlies.db"))
	added := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.clock = func() time.Time { return added }

	require.NoError(t, f.Add(ctx, 0x200, "Bob"))
	require.NoError(t, f.Add(ctx, 0x100, "Alice"))

	got, ok, err := f.Get(ctx, 0x100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Friend{Serial: 0x100, Name: "Alice", AddedAt: added}, got)

	list, err := f.List(ctx)
	require.NoError(t, err)
	want := []Friend{
		{Serial: 0x100, Name: "Alice", AddedAt: added},
		{Serial: 0x200, Name: "Bob", AddedAt: added},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("friends mismatch (-want +got):\n%s", diff)
	}

	isFriend, err := f.IsFriend(ctx, 0x300)
	require.NoError(t, err)
	assert.False(t, isFriend)
}

func TestFriends_ReAddRenames(t *testing.T) {
	ctx := context.Background()
	f := openTestFriends(t, filepath.Join(t.TempDir(), "friendlies.db"))
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.clock = func() time.Time { return first }
	require.NoError(t, f.Add(ctx, 0x100, "Alice"))

	f.clock = func() time.Time { return first.Add(time.Hour) }
	require.NoError(t, f.Add(ctx, 0x100, "Alicia"))

	got, _, _ := f.Get(ctx, 0x100)
	assert.Equal(t, "Alicia", got.Name)
	assert.Equal(t, first, got.AddedAt, "re-adding keeps the original time")

	list, _ := f.List(ctx)
	assert.Len(t, list, 1)
}

func TestFriends_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	f := openTestFriends(t, filepath.Join(t.TempDir(), "friendlies.db"))
	require.NoError(t, f.Add(ctx, 1, "a"))
	require.NoError(t, f.Add(ctx, 2, "b"))

	require.NoError(t, f.Remove(ctx, 1))
	require.NoError(t, f.Remove(ctx, 99))
	ok, _ := f.IsFriend(ctx, 1)
	assert.False(t, ok)

	require.NoError(t, f.Clear(ctx))
	list, err := f.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFriends_HighSerialRoundTrips(t *testing.T) {
	ctx := context.Background()
	f := openTestFriends(t, filepath.Join(t.TempDir(), "friendlies.db"))
	require.NoError(t, f.Add(ctx, 0xFFFFFFFF, "max"))

	got, ok, err := f.Get(ctx, 0xFFFFFFFF)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0xFFFFFFFF), got.Serial)
}

func TestFriends_UpgradesExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "friendlies.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE friendlies (serial INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO friendlies (serial, name) VALUES (5, 'Old Friend')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	f := openTestFriends(t, path)
	got, ok, err := f.Get(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Old Friend", got.Name)
	assert.True(t, got.AddedAt.IsZero())
}

func TestFriends_DisposedFails(t *testing.T) {
	ctx := context.Background()
	f, err := OpenFriends(ctx, filepath.Join(t.TempDir(), "friendlies.db"), DefaultBackups)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.True(t, domain.IsDisposed(f.Add(ctx, 1, "a")))
	assert.True(t, domain.IsDisposed(f.Remove(ctx, 1)))
	_, _, err = f.Get(ctx, 1)
	assert.True(t, domain.IsDisposed(err))
	_, err = f.List(ctx)
	assert.True(t, domain.IsDisposed(err))
}
