package matcher

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/tazuo/autoloot/internal/domain"
)

func TestStripTags(t *testing.T) {
	tests := map[string]string{
		"Luck 80":                             "Luck 80",
		"<BASEFONT COLOR=#FF0000>Cursed</BASEFONT>": "Cursed",
		"a <b>bold</b> move":                  "a bold move",
		"unterminated <tag":                   "unterminated ",
		"":                                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripTags(in), in)
	}
}

func TestCleanItemName(t *testing.T) {
	assert.Equal(t, "gold coins", CleanItemName("1500 Gold Coins"))
	assert.Equal(t, "gold ring", CleanItemName("  Gold Ring "))
	assert.Equal(t, "", CleanItemName("42"))
	assert.Equal(t, "", CleanItemName(""))
}

func TestNormalizer_Caches(t *testing.T) {
	n := NewNormalizer(16)
	assert.Equal(t, "Cursed", n.Normalize(" <i>Cursed</i> "))
	assert.Equal(t, "cursed", n.Fold(" <i>Cursed</i> "))

	stats := n.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestCompleteProperty(t *testing.T) {
	got := CompleteProperty(domain.PropertyLine{Text: "Luck 150", First: domain.NoValue, Second: domain.NoValue})
	assert.Equal(t, "Luck", got.Name)
	assert.Equal(t, 150.0, got.First)

	got = CompleteProperty(domain.PropertyLine{Text: "Luck 150", Name: "Luck", First: domain.NoValue, Second: domain.NoValue})
	assert.Equal(t, "Luck", got.Name)
	assert.Equal(t, 150.0, got.First)

	got = CompleteProperty(domain.PropertyLine{Text: "Weapon Damage 11 - 15", Name: "Damage", First: domain.NoValue, Second: domain.NoValue})
	assert.Equal(t, "Damage", got.Name, "host name is kept")
	assert.Equal(t, 11.0, got.First)
	assert.Equal(t, 15.0, got.Second)

	sent := domain.PropertyLine{Text: "Luck 150", Name: "Fortune", First: 99, Second: domain.NoValue}
	assert.Equal(t, sent, CompleteProperty(sent))

	blessed := CompleteProperty(domain.PropertyLine{Text: "Blessed", First: domain.NoValue, Second: domain.NoValue})
	assert.Equal(t, "Blessed", blessed.Name)
	assert.False(t, blessed.HasValue())

	empty := domain.PropertyLine{First: domain.NoValue, Second: domain.NoValue}
	assert.Equal(t, empty, CompleteProperty(empty))
}

func TestParseProperty(t *testing.T) {
	tests := []struct {
		text          string
		name          string
		first, second float64
	}{
		{"Luck 80", "Luck", 80, domain.NoValue},
		{"Hit Chance Increase 15%", "Hit Chance Increase", 15, domain.NoValue},
		{"Weapon Damage 11 - 15", "Weapon Damage", 11, 15},
		{"Weight: 50 Stones", "Weight", 50, domain.NoValue},
		{"Durability 255 / 255", "Durability", 255, 255},
		{"Fire Resist -5%", "Fire Resist", -5, domain.NoValue},
		{"<BASEFONT COLOR=#00FF00>Legendary Artifact</BASEFONT>", "Legendary Artifact", domain.NoValue, domain.NoValue},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseProperty(tt.text)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.name, got.Name)
			assert.Equal(t, tt.first, got.First)
			assert.Equal(t, tt.second, got.Second)
		})
	}

	assert.Len(t, ParseProperties([]string{"Luck 1", " ", "Rare"}), 2)
}

func TestProperty_StripTagsRemovesAllBrackets(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stripped text never contains angle brackets", prop.ForAll(
		func(s string) bool {
			out := StripTags(s)
			for _, r := range out {
				if r == '<' || r == '>' {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("normalizing twice is the same as once", prop.ForAll(
		func(s string) bool {
			n := NewNormalizer(8)
			once := n.Normalize(s)
			return n.Normalize(once) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
