package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// NoValue marks a property line that carries no numeric value.
const NoValue = -math.MaxFloat64

// PropertyLine is one parsed tooltip line of an item.
type PropertyLine struct {
	Text   string  `json:"text"`
	Name   string  `json:"name"`
	First  float64 `json:"first"`
	Second float64 `json:"second"`
}

// UnmarshalJSON leaves First and Second at NoValue when they are absent
// or null.
func (p *PropertyLine) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text   string   `json:"text"`
		Name   string   `json:"name"`
		First  *float64 `json:"first"`
		Second *float64 `json:"second"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PropertyLine{Text: raw.Text, Name: raw.Name, First: NoValue, Second: NoValue}
	if raw.First != nil {
		p.First = *raw.First
	}
	if raw.Second != nil {
		p.Second = *raw.Second
	}
	return nil
}

// HasValue reports whether the line carries a first numeric value.
func (p PropertyLine) HasValue() bool {
	return p.First != NoValue
}

// ItemSnapshot is the state of one item at evaluation time.
type ItemSnapshot struct {
	Serial        uint32         `json:"serial"`
	Name          string         `json:"name"`
	Properties    []PropertyLine `json:"properties,omitempty"`
	Graphic       uint16         `json:"graphic"`
	Hue           uint16         `json:"hue"`
	Layer         Layer          `json:"layer"`
	Container     uint32         `json:"container,omitempty"`
	RootContainer uint32         `json:"root_container,omitempty"`
	Distance      int            `json:"distance"`
	IsCorpse      bool           `json:"is_corpse,omitempty"`
	IsHumanCorpse bool           `json:"is_human_corpse,omitempty"`
	OnGround      bool           `json:"on_ground,omitempty"`
	IsLocked      bool           `json:"is_locked,omitempty"`
}

// SearchText is the text a rule regex is matched against: the name
// followed by every property line.
func (s ItemSnapshot) SearchText() string {
	var b strings.Builder
	b.WriteString(s.Name)
	for _, p := range s.Properties {
		b.WriteByte('\n')
		b.WriteString(p.Text)
	}
	return b.String()
}

// Layer is the equipment layer byte of an item.
type Layer uint8

const (
	LayerInvalid        Layer = 0x00
	LayerOneHanded      Layer = 0x01
	LayerTwoHanded      Layer = 0x02
	LayerShoes          Layer = 0x03
	LayerPants          Layer = 0x04
	LayerShirt          Layer = 0x05
	LayerHelmet         Layer = 0x06
	LayerGloves         Layer = 0x07
	LayerRing           Layer = 0x08
	LayerTalisman       Layer = 0x09
	LayerNecklace       Layer = 0x0A
	LayerHair           Layer = 0x0B
	LayerWaist          Layer = 0x0C
	LayerTorso          Layer = 0x0D
	LayerBracelet       Layer = 0x0E
	LayerFace           Layer = 0x0F
	LayerBeard          Layer = 0x10
	LayerTunic          Layer = 0x11
	LayerEarrings       Layer = 0x12
	LayerArms           Layer = 0x13
	LayerCloak          Layer = 0x14
	LayerBackpack       Layer = 0x15
	LayerRobe           Layer = 0x16
	LayerSkirt          Layer = 0x17
	LayerLegs           Layer = 0x18
	LayerMount          Layer = 0x19
	LayerShopBuyRestock Layer = 0x1A
	LayerShopBuy        Layer = 0x1B
	LayerShopSell       Layer = 0x1C
	LayerBank           Layer = 0x1D
)

// SlotMask is a set of wearable slots a highlight rule applies to.
// The zero mask and any mask containing SlotOther apply to every layer.
type SlotMask uint32

const (
	SlotTalisman SlotMask = 1 << iota
	SlotRightHand
	SlotLeftHand
	SlotHead
	SlotEarring
	SlotNeck
	SlotChest
	SlotShirt
	SlotBack
	SlotRobe
	SlotArms
	SlotHands
	SlotBracelet
	SlotRing
	SlotBelt
	SlotSkirt
	SlotLegs
	SlotFootwear
	SlotOther
)

var slotNames = map[string]SlotMask{
	"talisman":  SlotTalisman,
	"righthand": SlotRightHand,
	"lefthand":  SlotLeftHand,
	"head":      SlotHead,
	"earring":   SlotEarring,
	"neck":      SlotNeck,
	"chest":     SlotChest,
	"shirt":     SlotShirt,
	"back":      SlotBack,
	"robe":      SlotRobe,
	"arms":      SlotArms,
	"hands":     SlotHands,
	"bracelet":  SlotBracelet,
	"ring":      SlotRing,
	"belt":      SlotBelt,
	"skirt":     SlotSkirt,
	"legs":      SlotLegs,
	"footwear":  SlotFootwear,
	"other":     SlotOther,
}

var layerSlots = map[Layer]SlotMask{
	LayerTalisman:  SlotTalisman,
	LayerOneHanded: SlotRightHand,
	LayerTwoHanded: SlotLeftHand,
	LayerHelmet:    SlotHead,
	LayerEarrings:  SlotEarring,
	LayerNecklace:  SlotNeck,
	LayerTorso:     SlotChest,
	LayerTunic:     SlotChest,
	LayerShirt:     SlotShirt,
	LayerCloak:     SlotBack,
	LayerRobe:      SlotRobe,
	LayerArms:      SlotArms,
	LayerGloves:    SlotHands,
	LayerBracelet:  SlotBracelet,
	LayerRing:      SlotRing,
	LayerWaist:     SlotBelt,
	LayerSkirt:     SlotSkirt,
	LayerLegs:      SlotLegs,
	LayerPants:     SlotLegs,
	LayerShoes:     SlotFootwear,
}

// layers that are never wearable equipment
var unslottedLayers = map[Layer]bool{
	LayerInvalid:        true,
	LayerHair:           true,
	LayerBeard:          true,
	LayerFace:           true,
	LayerMount:          true,
	LayerBackpack:       true,
	LayerShopBuy:        true,
	LayerShopBuyRestock: true,
	LayerShopSell:       true,
	LayerBank:           true,
}

// ParseSlot resolves a slot name such as "head" or "righthand".
func ParseSlot(name string) (SlotMask, bool) {
	s, ok := slotNames[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// IsAny reports whether the mask applies to every layer.
func (m SlotMask) IsAny() bool {
	return m == 0 || m&SlotOther != 0
}

// Allows reports whether an item on layer l passes the slot filter.
func (m SlotMask) Allows(l Layer) bool {
	if m.IsAny() {
		return true
	}
	if unslottedLayers[l] {
		return false
	}
	slot, ok := layerSlots[l]
	if !ok {
		// unknown layers are not slot scoped
		return true
	}
	return m&slot != 0
}

// Names lists the slots in the mask in declaration order.
func (m SlotMask) Names() []string {
	var out []string
	for bit := SlotTalisman; bit <= SlotOther; bit <<= 1 {
		if m&bit == 0 {
			continue
		}
		for name, s := range slotNames {
			if s == bit {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
