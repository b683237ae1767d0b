package matcher

import "strings"

// RarityProperties are tooltip lines that flag an item's rarity.
var RarityProperties = []string{
	"Minor Magic Item",
	"Lesser Magic Item",
	"Greater Magic Item",
	"Major Magic Item",
	"Minor Artifact",
	"Lesser Artifact",
	"Greater Artifact",
	"Major Artifact",
	"Legendary Artifact",
	"Rare",
}

// NegativeProperties are tooltip lines that lower an item's value.
var NegativeProperties = []string{
	"Antique",
	"Brittle",
	"Cursed",
	"Prized",
	"Massive",
	"Unwieldy",
}

// KnownProperties are the magic properties considered in strict matching.
var KnownProperties = []string{
	"Hit Chance Increase",
	"Defense Chance Increase",
	"Damage Increase",
	"Swing Speed Increase",
	"Faster Casting",
	"Faster Cast Recovery",
	"Lower Mana Cost",
	"Lower Reagent Cost",
	"Spell Damage Increase",
	"Enhance Potions",
	"Reflect Physical Damage",
	"Luck",
	"Strength Bonus",
	"Dexterity Bonus",
	"Intelligence Bonus",
	"Hit Point Increase",
	"Stamina Increase",
	"Mana Increase",
	"Hit Point Regeneration",
	"Stamina Regeneration",
	"Mana Regeneration",
	"Physical Resist",
	"Fire Resist",
	"Cold Resist",
	"Poison Resist",
	"Energy Resist",
	"Hit Life Leech",
	"Hit Mana Leech",
	"Hit Stamina Leech",
	"Hit Lower Attack",
	"Hit Lower Defense",
	"Hit Magic Arrow",
	"Hit Harm",
	"Hit Fireball",
	"Hit Lightning",
	"Hit Dispel",
	"Hit Physical Area",
	"Hit Fire Area",
	"Hit Cold Area",
	"Hit Poison Area",
	"Hit Energy Area",
	"Spell Channeling",
	"Mage Armor",
	"Mage Weapon",
	"Self Repair",
	"Lower Requirements",
	"Use Best Weapon Skill",
	"Night Sight",
	"Balanced",
	"Casting Focus",
	"Damage Eater",
	"Kinetic Eater",
	"Fire Eater",
	"Cold Eater",
	"Poison Eater",
	"Energy Eater",
	"Soul Charge",
	"Splintering Weapon",
	"Velocity",
	"Reactive Paralyze",
	"Resonance",
	"Durability",
	"Slayer",
}

var (
	knownSet    = foldSet(KnownProperties)
	negativeSet = foldSet(NegativeProperties)
	raritySet   = foldSet(RarityProperties)
)

func foldSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}
