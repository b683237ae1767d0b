package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazuo/autoloot/internal/domain"
)

func newLootStore(t *testing.T) *RuleStore[domain.LootEntry] {
	t.Helper()
	return NewRuleStore[domain.LootEntry](StoreConfig{
		Kind:    "autoloot",
		Path:    filepath.Join(t.TempDir(), "autoloot.json"),
		Backups: 3,
	})
}

func gold() domain.LootEntry {
	return domain.LootEntry{Name: "Gold", Graphic: domain.Int(0x0EED)}
}

func TestRuleStore_BasicOperations(t *testing.T) {
	store := newLootStore(t)
	require.NoError(t, store.Load(context.Background()))
	assert.True(t, store.Loaded(), "missing file loads as empty")
	assert.Empty(t, store.All())

	added, created, err := store.Add(gold())
	require.NoError(t, err)
	assert.True(t, created)
	_, err = uuid.Parse(added.ID)
	assert.NoError(t, err, "id is assigned on add")

	got, ok := store.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, added, got)

	added.Name = "Gold coins"
	require.NoError(t, store.Update(added))
	got, _ = store.Get(added.ID)
	assert.Equal(t, "Gold coins", got.Name)

	assert.True(t, store.Remove(added.ID))
	assert.False(t, store.Remove(added.ID), "unknown id is a no-op")
	assert.Equal(t, 0, store.Len())

	err = store.Update(domain.LootEntry{ID: "missing"})
	assert.True(t, domain.IsNotFound(err))
}

func TestRuleStore_IdempotentAdd(t *testing.T) {
	store := newLootStore(t)

	first, created, err := store.Add(gold())
	require.NoError(t, err)
	require.True(t, created)

	dup := gold()
	dup.Name = "different label"
	second, created, err := store.Add(dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestRuleStore_IdempotentHighlightAdd(t *testing.T) {
	store := NewRuleStore[domain.HighlightRule](StoreConfig{Path: filepath.Join(t.TempDir(), "grid_highlight.json")})

	first, created, err := store.Add(domain.HighlightRule{Name: "a", Graphic: domain.Int(0x0EED)})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := store.Add(domain.HighlightRule{Name: "b", Graphic: domain.Int(0x0EED), HighlightColor: "#FF0000"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())

	_, created, err = store.Add(domain.HighlightRule{Name: "b", Graphic: domain.Int(0x0EED), Hue: domain.Int(0x0481)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, store.Len())
}

func TestRuleStore_AddRejectsInvalid(t *testing.T) {
	store := newLootStore(t)
	_, _, err := store.Add(domain.LootEntry{Regex: "(["})
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, 0, store.Len())
}

func TestRuleStore_Move(t *testing.T) {
	store := newLootStore(t)
	var ids []string
	for i := 0; i < 3; i++ {
		e, _, err := store.Add(domain.LootEntry{Graphic: domain.Int(i + 1)})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	order := func() []string {
		var out []string
		for _, e := range store.All() {
			out = append(out, e.ID)
		}
		return out
	}

	assert.False(t, store.Move(ids[0], true), "top cannot move up")
	assert.False(t, store.Move(ids[2], false), "bottom cannot move down")
	assert.Equal(t, ids, order())

	assert.True(t, store.Move(ids[2], true))
	assert.Equal(t, []string{ids[0], ids[2], ids[1]}, order())

	assert.True(t, store.Move(ids[0], false))
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, order())

	assert.False(t, store.Move("nope", true))
}

func TestRuleStore_SnapshotIsStable(t *testing.T) {
	store := newLootStore(t)
	_, _, err := store.Add(gold())
	require.NoError(t, err)

	snap := store.All()
	_, _, err = store.Add(domain.LootEntry{Graphic: domain.Int(1)})
	require.NoError(t, err)

	assert.Len(t, snap, 1, "earlier snapshot is not mutated")
	assert.Len(t, store.All(), 2)
}

func TestRuleStore_Import(t *testing.T) {
	store := newLootStore(t)
	existing, _, err := store.Add(gold())
	require.NoError(t, err)

	report := store.Import([]domain.LootEntry{
		gold(),
		{ID: existing.ID, Graphic: domain.Int(0x1F4C)},
		{Graphic: domain.Int(0x1F4C)},
		{Regex: "(["},
	}, "friend.json")

	assert.Equal(t, domain.ImportReport{Source: "friend.json", Imported: 1, Skipped: 2, Invalid: 1}, report)
	require.Equal(t, 2, store.Len())
	assert.NotEqual(t, existing.ID, store.All()[1].ID, "colliding id is replaced")
}

func TestRuleStore_SaveLoadRoundTrip(t *testing.T) {
	store := newLootStore(t)
	for _, e := range []domain.LootEntry{
		gold(),
		{Name: "Ruby", Graphic: domain.Int(0x0F13), Hue: domain.Int(0)},
		{Name: "Slayer", Regex: `(?i)slayer`},
	} {
		_, _, err := store.Add(e)
		require.NoError(t, err)
	}
	require.NoError(t, store.Save())
	assert.True(t, store.Loaded())

	fresh := NewRuleStore[domain.LootEntry](StoreConfig{Kind: "autoloot", Path: store.Path(), Backups: 3})
	require.NoError(t, fresh.Load(context.Background()))
	assert.True(t, fresh.Loaded())
	if diff := cmp.Diff(store.All(), fresh.All()); diff != "" {
		t.Errorf("reloaded rules mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleStore_GracefulCorruptionRecovery(t *testing.T) {
	store := newLootStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`[{"id": "x", "graphic": `), 0644))

	require.NoError(t, store.Load(context.Background()))
	assert.False(t, store.Loaded())
	assert.Empty(t, store.All())
	assert.NoError(t, store.Flush())
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"graphic": `, "flush does not overwrite an unloaded file")

	added, _, err := store.Add(gold())
	require.NoError(t, err)
	require.NoError(t, store.Save())
	assert.True(t, store.Loaded())

	fresh := NewRuleStore[domain.LootEntry](StoreConfig{Path: store.Path()})
	require.NoError(t, fresh.Load(context.Background()))
	assert.True(t, fresh.Loaded())
	require.Equal(t, 1, fresh.Len())
	assert.Equal(t, added, fresh.All()[0])

	assert.FileExists(t, store.Path()+".1", "corrupt file kept as backup")
}

func TestRuleStore_LoadAssignsMissingAndDuplicateIDs(t *testing.T) {
	store := newLootStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`[{"graphic":1},{"id":"a","graphic":2},{"id":"a","graphic":3}]`), 0644))
	require.NoError(t, store.Load(context.Background()))

	ids := map[string]bool{}
	for _, e := range store.All() {
		assert.NotEmpty(t, e.ID)
		ids[e.ID] = true
	}
	assert.Len(t, ids, 3)
	_, ok := store.Get("a")
	assert.True(t, ok)
}

func TestRuleStore_LoadCancelled(t *testing.T) {
	store := newLootStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, store.Load(ctx))
}

func TestRuleStore_ExportImportFileFormats(t *testing.T) {
	src := NewRuleStore[domain.HighlightRule](StoreConfig{Path: filepath.Join(t.TempDir(), "grid_highlight.json")})
	_, _, err := src.Add(domain.HighlightRule{
		Name:       "Jewelry",
		Slots:      domain.SlotRing | domain.SlotBracelet,
		Properties: []domain.PropertyRule{{Name: "Luck", MinValue: 100}},
	})
	require.NoError(t, err)
	_, _, err = src.Add(domain.HighlightRule{Name: "Arties", Regex: "(?i)artifact", RequiredRarities: []string{"Legendary Artifact"}})
	require.NoError(t, err)

	for _, ext := range []string{"json", "yaml", "toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "export."+ext)
			require.NoError(t, src.Export(path))

			dst := NewRuleStore[domain.HighlightRule](StoreConfig{Path: filepath.Join(t.TempDir(), "grid_highlight.json")})
			report, err := dst.ImportFile(path)
			require.NoError(t, err)
			assert.Equal(t, 2, report.Imported)

			if diff := cmp.Diff(src.All(), dst.All(), cmpopts.IgnoreFields(domain.HighlightRule{}, "ID")); diff != "" {
				t.Errorf("import mismatch (-want +got):\n%s", diff)
			}

			again, err := dst.ImportFile(path)
			require.NoError(t, err)
			assert.Equal(t, 0, again.Imported)
			assert.Equal(t, 2, again.Skipped)
		})
	}

	_, err = src.ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrImportFailed)

	assert.Contains(t, src.Export(filepath.Join(t.TempDir(), "out.xml")).Error(), domain.ErrExportFailed)
}

func TestRuleStore_ConcurrentReadersDuringWrites(t *testing.T) {
	store := newLootStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				for _, e := range store.All() {
					_ = e.EquivalenceKey()
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		_, _, err := store.Add(domain.LootEntry{Graphic: domain.Int(i)})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, 200, store.Len())
}

func TestRuleStore_HealthCheck(t *testing.T) {
	store := newLootStore(t)
	assert.Equal(t, domain.HealthStatusUnhealthy, store.HealthCheck().Status)
	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, domain.HealthStatusHealthy, store.HealthCheck().Status)
}

func TestProperty_IdempotentAdd(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding an equivalent entry never changes the count", prop.ForAll(
		func(graphic int, hue int, regex string, label string) bool {
			store := NewRuleStore[domain.LootEntry](StoreConfig{Path: filepath.Join(os.TempDir(), "unused.json")})
			entry := domain.LootEntry{Graphic: domain.Int(graphic), Hue: domain.Int(hue), Regex: regex}
			first, _, err := store.Add(entry)
			if err != nil {
				return false
			}
			entry.Name = label
			second, created, err := store.Add(entry)
			return err == nil && !created && second.ID == first.ID && store.Len() == 1
		},
		gen.IntRange(-1, 0xFFFF),
		gen.IntRange(0, 0xFFFF),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDiscoverProfiles(t *testing.T) {
	root := t.TempDir()
	write := func(character, content string) {
		dir := filepath.Join(root, "acct", "Atlantic", character)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "autoloot.json"), []byte(content), 0644))
	}
	write("Alice", `[{"id":"1","graphic":3821},{"id":"2","graphic":3822}]`)
	write("Bob", `not json`)

	profiles, err := DiscoverProfiles[domain.LootEntry](context.Background(), root, "autoloot.json")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "acct/Atlantic/Alice", profiles[0].Profile.Label())

	store := newLootStore(t)
	_, _, err = store.Add(domain.LootEntry{Graphic: domain.Int(3821)})
	require.NoError(t, err)

	report := store.ImportFromProfile(profiles[0])
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "acct/Atlantic/Alice", report.Source)

	_, err = DiscoverProfiles[domain.LootEntry](context.Background(), filepath.Join(root, "nope"), "autoloot.json")
	assert.Error(t, err)
}
