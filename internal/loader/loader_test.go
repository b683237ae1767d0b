package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazuo/autoloot/internal/domain"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"autoloot.json", FormatJSON, false},
		{"rules.YAML", FormatYAML, false},
		{"rules.yml", FormatYAML, false},
		{"dir/rules.toml", FormatTOML, false},
		{"rules.xml", "", true},
		{"rules", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_JSONLayouts(t *testing.T) {
	bare := `[{"id":"a","graphic":3821,"regex":"gold"}]`
	wrapped := `{"rules":[{"id":"a","graphic":3821,"regex":"gold"}]}`

	for name, data := range map[string]string{"bare": bare, "wrapped": wrapped} {
		t.Run(name, func(t *testing.T) {
			entries, err := Parse[domain.LootEntry]([]byte(data), FormatJSON)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "a", entries[0].ID)
			require.NotNil(t, entries[0].Graphic)
			assert.Equal(t, 3821, *entries[0].Graphic)
			assert.Nil(t, entries[0].Hue)
		})
	}
}

func TestParse_YAMLLayouts(t *testing.T) {
	wrapped := `rules:
  - id: "r1"
    name: "Jewelry"
    slots: 8192
    properties:
      - name: "Luck"
        min_value: 80
`
	bare := `- id: "r1"
  name: "Jewelry"
`
	rules, err := Parse[domain.HighlightRule]([]byte(wrapped), FormatYAML)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Jewelry", rules[0].Name)
	assert.Equal(t, domain.SlotRing, rules[0].Slots)
	assert.Equal(t, []domain.PropertyRule{{Name: "Luck", MinValue: 80}}, rules[0].Properties)

	rules, err = Parse[domain.HighlightRule]([]byte(bare), FormatYAML)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].ID)
}

func TestParse_EmptyAndMalformed(t *testing.T) {
	entries, err := Parse[domain.LootEntry]([]byte("  \n"), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)

	_, err = Parse[domain.LootEntry]([]byte(`[{"id": `), FormatJSON)
	assert.ErrorContains(t, err, "failed to parse JSON")

	_, err = Parse[domain.LootEntry]([]byte(`this is not valid yaml: [[[`), FormatYAML)
	assert.ErrorContains(t, err, "failed to parse YAML")

	_, err = Parse[domain.LootEntry]([]byte(`"just a string"`), FormatYAML)
	assert.ErrorContains(t, err, "expected a list of rules")

	_, err = Parse[domain.LootEntry]([]byte(`rules = [`), FormatTOML)
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestEncodeParse_RoundTripAllFormats(t *testing.T) {
	rules := []domain.HighlightRule{
		{
			ID:                "r1",
			Name:              "Weapons",
			ItemNames:         []string{"katana"},
			Graphic:           domain.Int(0x13FF),
			Hue:               domain.Int(0),
			Regex:             `(?i)slayer`,
			Properties:        []domain.PropertyRule{{Name: "Damage Increase", MinValue: 35}, {Name: "Luck", MinValue: -1, Optional: true}},
			ExcludeSubstrings: []string{"Cursed"},
			RequiredRarities:  []string{"Legendary Artifact"},
			Slots:             domain.SlotRightHand | domain.SlotLeftHand,
			MinProperties:     1,
			MaxProperties:     5,
			LootOnMatch:       true,
			HighlightColor:    "#00FF00",
		},
		{ID: "r2", Name: "Anything"},
	}

	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(rules, format)
			require.NoError(t, err)

			got, err := Parse[domain.HighlightRule](data, format)
			require.NoError(t, err)
			if diff := cmp.Diff(rules, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteRules_AtomicWithBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "autoloot.json")

	for i := 1; i <= 5; i++ {
		entries := make([]domain.LootEntry, i)
		for j := range entries {
			entries[j] = domain.LootEntry{ID: string(rune('a' + j))}
		}
		require.NoError(t, WriteRules(path, entries, 3))
	}

	current, err := ParseFile[domain.LootEntry](path)
	require.NoError(t, err)
	assert.Len(t, current, 5)

	// .1 is the newest backup
	for n, want := range map[int]int{1: 4, 2: 3, 3: 2} {
		data, err := os.ReadFile(backupName(path, n))
		require.NoError(t, err)
		backup, err := Parse[domain.LootEntry](data, FormatJSON)
		require.NoError(t, err)
		assert.Len(t, backup, want, "backup %d", n)
	}
	assert.NoFileExists(t, backupName(path, 4))

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", ".rules-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRotateBackups_MissingSourceAndZeroCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.db")
	assert.NoError(t, RotateBackups(path, 3))
	assert.NoFileExists(t, backupName(path, 1))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.NoError(t, RotateBackups(path, 0))
	assert.NoFileExists(t, backupName(path, 1))
}

func writeProfile(t *testing.T, root, account, shard, character, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, account, shard, character)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanProfiles(t *testing.T) {
	root := t.TempDir()
	writeProfile(t, root, "acct1", "Atlantic", "Bob", "autoloot.json", `[]`)
	writeProfile(t, root, "acct1", "Atlantic", "Alice", "autoloot.json", `[]`)
	writeProfile(t, root, "acct2", "Pacific", "Carol", "grid_highlight.json", `[]`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.json"), []byte("{}"), 0644))

	files, err := ScanProfiles(context.Background(), root, "autoloot.json")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "acct1/Atlantic/Alice", files[0].Label())
	assert.Equal(t, "acct1/Atlantic/Bob", files[1].Label())

	_, err = ScanProfiles(context.Background(), filepath.Join(root, "missing"), "autoloot.json")
	assert.Error(t, err)
}

func TestScanProfiles_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeProfile(t, root, "a", "s", "c", "autoloot.json", `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanProfiles(ctx, root, "autoloot.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadProfiles(t *testing.T) {
	root := t.TempDir()
	writeProfile(t, root, "a", "s", "good", "autoloot.json", `[{"id":"1","graphic":3821}]`)
	writeProfile(t, root, "a", "s", "bad", "autoloot.json", `[{`)

	files, err := ScanProfiles(context.Background(), root, "autoloot.json")
	require.NoError(t, err)
	require.Len(t, files, 2)

	loaded, loadErrors, err := LoadProfiles[domain.LootEntry](context.Background(), files)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].Profile.Character)
	assert.Len(t, loaded[0].Rules, 1)
	require.Len(t, loadErrors, 1)
	assert.Contains(t, loadErrors[0].FilePath, "bad")
}
