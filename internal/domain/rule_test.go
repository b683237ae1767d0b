package domain

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLootEntry_EquivalenceKey(t *testing.T) {
	a := LootEntry{ID: "a", Name: "gold", Graphic: Int(0x0EED), Hue: nil}
	b := LootEntry{ID: "b", Name: "other label", Graphic: Int(0x0EED), Hue: Int(AnyHue)}
	c := LootEntry{ID: "c", Graphic: Int(0x0EED), Hue: Int(5)}

	assert.Equal(t, a.EquivalenceKey(), b.EquivalenceKey(), "nil hue and 0xFFFF are both any")
	assert.NotEqual(t, a.EquivalenceKey(), c.EquivalenceKey())
}

func TestHighlightRule_EquivalenceKeyIgnoresName(t *testing.T) {
	a := HighlightRule{Name: "Jewelry", Graphic: Int(0x0EED)}
	b := HighlightRule{Name: "Weapons", Graphic: Int(0x0EED), Properties: []PropertyRule{{Name: "Luck", MinValue: 100}}}
	assert.Equal(t, a.EquivalenceKey(), b.EquivalenceKey())
	assert.Equal(t, LootEntry{Graphic: Int(0x0EED)}.EquivalenceKey(), a.EquivalenceKey())

	assert.NotEqual(t, a.EquivalenceKey(), HighlightRule{Graphic: Int(0x0EED), Hue: Int(5)}.EquivalenceKey())
	assert.NotEqual(t, a.EquivalenceKey(), HighlightRule{Graphic: Int(0x0EED), Regex: "ring"}.EquivalenceKey())
}

func TestFilters(t *testing.T) {
	e := LootEntry{Graphic: Int(AnyGraphic)}
	assert.True(t, e.MatchesGraphic(0x1234))
	assert.True(t, e.MatchesHue(0))

	e = LootEntry{Graphic: Int(0x0EED), Hue: Int(0x0481)}
	assert.True(t, e.MatchesGraphic(0x0EED))
	assert.False(t, e.MatchesGraphic(0x0EEE))
	assert.True(t, e.MatchesHue(0x0481))
	assert.False(t, e.MatchesHue(0))
}

func TestWithID_DoesNotMutateReceiver(t *testing.T) {
	r := HighlightRule{Name: "x"}
	r2 := r.WithID("id-1")
	assert.Empty(t, r.ID)
	assert.Equal(t, "id-1", r2.RuleID())
}

func TestSlotMask_Allows(t *testing.T) {
	tests := []struct {
		name  string
		mask  SlotMask
		layer Layer
		want  bool
	}{
		{"zero mask is any", 0, LayerInvalid, true},
		{"other flag is any", SlotOther | SlotHead, LayerBank, true},
		{"head matches helmet", SlotHead, LayerHelmet, true},
		{"head rejects ring", SlotHead, LayerRing, false},
		{"chest matches tunic", SlotChest, LayerTunic, true},
		{"chest matches torso", SlotChest, LayerTorso, true},
		{"legs matches pants", SlotLegs, LayerPants, true},
		{"hair never matches scoped rule", SlotHead | SlotRing, LayerHair, false},
		{"backpack never matches scoped rule", SlotRing, LayerBackpack, false},
		{"unknown layer passes", SlotRing, Layer(0x40), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mask.Allows(tt.layer))
		})
	}
}

func TestParseSlot(t *testing.T) {
	s, ok := ParseSlot(" Head ")
	require.True(t, ok)
	assert.Equal(t, SlotHead, s)

	_, ok = ParseSlot("tail")
	assert.False(t, ok)

	assert.Equal(t, []string{"head", "ring"}, (SlotHead | SlotRing).Names())
}

func TestProperty_SlotMaskOtherAllowsEveryLayer(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a mask with the other flag set allows every layer", prop.ForAll(
		func(mask uint32, layer uint8) bool {
			return (SlotMask(mask) | SlotOther).Allows(Layer(layer))
		},
		gen.UInt32(),
		gen.UInt8(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestItemSnapshot_SearchText(t *testing.T) {
	s := ItemSnapshot{
		Name: "a ring",
		Properties: []PropertyLine{
			{Text: "Luck 80"},
			{Text: "Insured"},
		},
	}
	assert.Equal(t, "a ring\nLuck 80\nInsured", s.SearchText())
}

func TestPropertyLine_UnmarshalDefaultsToNoValue(t *testing.T) {
	var s ItemSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"properties":[{"text":"Luck 150","name":"Luck"},{"name":"Damage","first":11,"second":15},{"name":"Zero","first":0,"second":null}]}`), &s))
	require.Len(t, s.Properties, 3)

	assert.False(t, s.Properties[0].HasValue())
	assert.Equal(t, NoValue, s.Properties[0].Second)
	assert.Equal(t, PropertyLine{Name: "Damage", First: 11, Second: 15}, s.Properties[1])
	assert.Equal(t, PropertyLine{Name: "Zero", First: 0, Second: NoValue}, s.Properties[2])

	raw, err := json.Marshal(s.Properties[0])
	require.NoError(t, err)
	var back PropertyLine
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s.Properties[0], back)
}
