package domain

import "fmt"

// Filter sentinels accepted in rule files for "any graphic" and "any hue".
// A nil filter means the same thing.
const (
	AnyGraphic = -1
	AnyHue     = 0xFFFF

	// NoThreshold disables the numeric check of a PropertyRule.
	NoThreshold = -1.0
)

// Rule is the contract shared by every rule kind held in a RuleStore.
type Rule[T any] interface {
	RuleID() string
	// EquivalenceKey identifies rules that are duplicates of one another
	// for idempotent add and import.
	EquivalenceKey() string
	WithID(id string) T
}

// PropertyRule is one (name, minimum, optional) requirement of a HighlightRule.
type PropertyRule struct {
	Name     string  `json:"name" yaml:"name" toml:"name" validate:"required,max=128"`
	MinValue float64 `json:"min_value" yaml:"min_value" toml:"min_value"`
	Optional bool    `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
}

// HasThreshold reports whether the rule constrains the property value.
func (p PropertyRule) HasThreshold() bool {
	return p.MinValue != NoThreshold
}

// HighlightRule is a multi-criteria grid highlight rule.
type HighlightRule struct {
	ID                string         `json:"id" yaml:"id" toml:"id"`
	Name              string         `json:"name" yaml:"name" toml:"name" validate:"max=128"`
	ItemNames         []string       `json:"item_names,omitempty" yaml:"item_names,omitempty" toml:"item_names,omitempty" validate:"dive,max=128"`
	Graphic           *int           `json:"graphic,omitempty" yaml:"graphic,omitempty" toml:"graphic,omitempty" validate:"omitempty,min=-1,max=65535"`
	Hue               *int           `json:"hue,omitempty" yaml:"hue,omitempty" toml:"hue,omitempty" validate:"omitempty,min=0,max=65535"`
	Regex             string         `json:"regex,omitempty" yaml:"regex,omitempty" toml:"regex,omitempty" validate:"omitempty,max=1024,regexp"`
	Properties        []PropertyRule `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty" validate:"dive"`
	ExcludeSubstrings []string       `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	RequiredRarities  []string       `json:"rarities,omitempty" yaml:"rarities,omitempty" toml:"rarities,omitempty"`
	Slots             SlotMask       `json:"slots,omitempty" yaml:"slots,omitempty" toml:"slots,omitempty"`
	MinProperties     int            `json:"min_properties,omitempty" yaml:"min_properties,omitempty" toml:"min_properties,omitempty" validate:"min=0"`
	MaxProperties     int            `json:"max_properties,omitempty" yaml:"max_properties,omitempty" toml:"max_properties,omitempty" validate:"min=0"`
	Overweight        bool           `json:"overweight,omitempty" yaml:"overweight,omitempty" toml:"overweight,omitempty"`
	// KnownPropertiesOnly restricts matching to the fixed tables of known
	// property, negative and rarity names.
	KnownPropertiesOnly bool   `json:"known_properties_only,omitempty" yaml:"known_properties_only,omitempty" toml:"known_properties_only,omitempty"`
	LootOnMatch         bool   `json:"loot_on_match,omitempty" yaml:"loot_on_match,omitempty" toml:"loot_on_match,omitempty"`
	HighlightColor      string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty" validate:"omitempty,hexcolor"`
}

func (r HighlightRule) RuleID() string { return r.ID }

func (r HighlightRule) WithID(id string) HighlightRule {
	r.ID = id
	return r
}

// EquivalenceKey is graphic|hue|regex; the name and property criteria do
// not distinguish duplicates.
func (r HighlightRule) EquivalenceKey() string {
	return fmt.Sprintf("%s|%s|%s", filterKey(r.Graphic, AnyGraphic), filterKey(r.Hue, AnyHue), r.Regex)
}

// MatchesGraphic reports whether graphic passes the rule's graphic filter.
func (r HighlightRule) MatchesGraphic(graphic uint16) bool {
	return filterMatches(r.Graphic, AnyGraphic, int(graphic))
}

// MatchesHue reports whether hue passes the rule's hue filter.
func (r HighlightRule) MatchesHue(hue uint16) bool {
	return filterMatches(r.Hue, AnyHue, int(hue))
}

// LootEntry is a flat auto-loot rule: graphic, hue and an optional regex.
type LootEntry struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" validate:"max=128"`
	Graphic *int   `json:"graphic,omitempty" yaml:"graphic,omitempty" toml:"graphic,omitempty" validate:"omitempty,min=-1,max=65535"`
	Hue     *int   `json:"hue,omitempty" yaml:"hue,omitempty" toml:"hue,omitempty" validate:"omitempty,min=0,max=65535"`
	Regex   string `json:"regex,omitempty" yaml:"regex,omitempty" toml:"regex,omitempty" validate:"omitempty,max=1024,regexp"`
}

func (e LootEntry) RuleID() string { return e.ID }

func (e LootEntry) WithID(id string) LootEntry {
	e.ID = id
	return e
}

func (e LootEntry) EquivalenceKey() string {
	return fmt.Sprintf("%s|%s|%s", filterKey(e.Graphic, AnyGraphic), filterKey(e.Hue, AnyHue), e.Regex)
}

func (e LootEntry) MatchesGraphic(graphic uint16) bool {
	return filterMatches(e.Graphic, AnyGraphic, int(graphic))
}

func (e LootEntry) MatchesHue(hue uint16) bool {
	return filterMatches(e.Hue, AnyHue, int(hue))
}

// Int returns a pointer to v, for filling graphic and hue filters.
func Int(v int) *int {
	return &v
}

func filterMatches(filter *int, wildcard, actual int) bool {
	return filter == nil || *filter == wildcard || *filter == actual
}

func filterKey(filter *int, wildcard int) string {
	if filter == nil || *filter == wildcard {
		return "*"
	}
	return fmt.Sprintf("%d", *filter)
}

// MatchResult is the winning highlight rule for an item.
type MatchResult struct {
	Serial   uint32 `json:"serial"`
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Color    string `json:"color,omitempty"`
	Score    int    `json:"score"`
	Exact    bool   `json:"exact"`
	Loot     bool   `json:"loot"`
}

// ImportReport summarizes a merge into a RuleStore.
type ImportReport struct {
	Source   string `json:"source"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Invalid  int    `json:"invalid"`
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusDegraded  = "degraded"
)
