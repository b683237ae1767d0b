// Package matcher decides whether an item snapshot satisfies highlight
// rules and auto-loot entries. It holds no rule state of its own.
package matcher

import (
	"strings"

	"github.com/tazuo/autoloot/internal/cache"
	"github.com/tazuo/autoloot/internal/domain"
)

const overweightMarker = "weight: 50 stones"

// Matcher evaluates snapshots against rules. It is safe for concurrent use.
type Matcher struct {
	norm    *Normalizer
	regexes *regexCache
}

// New creates a Matcher whose normalization cache holds cacheSize strings.
func New(cacheSize int) *Matcher {
	return &Matcher{
		norm:    NewNormalizer(cacheSize),
		regexes: newRegexCache(),
	}
}

// IsMatch reports whether item satisfies every filter of rule.
func (m *Matcher) IsMatch(item domain.ItemSnapshot, rule domain.HighlightRule) bool {
	if !rule.MatchesGraphic(item.Graphic) || !rule.MatchesHue(item.Hue) {
		return false
	}
	if rule.Regex != "" && !m.regexes.match(rule.Regex, item.SearchText()) {
		return false
	}
	if !m.nameMatches(item.Name, rule.ItemNames) {
		return false
	}
	if !rule.Slots.Allows(item.Layer) {
		return false
	}
	if rule.KnownPropertiesOnly {
		return m.matchKnown(item, rule)
	}
	return m.matchLoose(item, rule)
}

// BestMatch returns the winning rule among those item satisfies. A rule
// with an exact property-name match beats any rule without one; within the
// same tier the higher score wins and the earlier rule wins ties.
func (m *Matcher) BestMatch(item domain.ItemSnapshot, rules []domain.HighlightRule) (domain.MatchResult, bool) {
	var (
		best         *domain.HighlightRule
		bestScore    int
		bestHasExact bool
	)

	for i := range rules {
		rule := &rules[i]
		if !m.IsMatch(item, *rule) {
			continue
		}

		score, hasExact := m.score(item, *rule)
		if best == nil || (hasExact && !bestHasExact) || (hasExact == bestHasExact && score > bestScore) {
			best = rule
			bestScore = score
			bestHasExact = hasExact
		}
	}

	if best == nil {
		return domain.MatchResult{}, false
	}
	return domain.MatchResult{
		Serial:   item.Serial,
		RuleID:   best.ID,
		RuleName: best.Name,
		Color:    best.HighlightColor,
		Score:    bestScore,
		Exact:    bestHasExact,
		Loot:     best.LootOnMatch,
	}, true
}

// score adds 2 for every property line whose name equals a rule property
// and 1 for every line that merely contains it.
func (m *Matcher) score(item domain.ItemSnapshot, rule domain.HighlightRule) (score int, hasExact bool) {
	for _, line := range item.Properties {
		name := m.norm.Fold(line.Name)
		for _, prop := range rule.Properties {
			target := m.norm.Fold(prop.Name)
			switch {
			case name == target:
				score += 2
				hasExact = true
			case strings.Contains(name, target) || strings.Contains(m.norm.Fold(line.Text), target):
				score++
			}
		}
	}
	return score, hasExact
}

func (m *Matcher) nameMatches(itemName string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	cleaned := CleanItemName(itemName)
	for _, n := range names {
		if strings.EqualFold(cleaned, strings.TrimSpace(n)) {
			return true
		}
	}
	return false
}

func (m *Matcher) matchLoose(item domain.ItemSnapshot, rule domain.HighlightRule) bool {
	if rule.Overweight && m.isOverweight(item.Properties) {
		return false
	}

	for _, pattern := range rule.ExcludeSubstrings {
		p := m.norm.Fold(pattern)
		if p == "" {
			continue
		}
		for _, line := range item.Properties {
			if strings.Contains(m.norm.Fold(line.Name), p) || strings.Contains(m.norm.Fold(line.Text), p) {
				return false
			}
		}
	}

	if len(rule.RequiredRarities) > 0 && !m.hasRequiredRarity(item.Properties, rule.RequiredRarities) {
		return false
	}

	satisfied := 0
	for _, prop := range rule.Properties {
		target := m.norm.Fold(prop.Name)
		matched := false
		for _, line := range item.Properties {
			nameHit := strings.Contains(m.norm.Fold(line.Name), target) || strings.Contains(m.norm.Fold(line.Text), target)
			if nameHit && valuePasses(prop, line) {
				matched = true
				break
			}
		}
		if matched {
			satisfied++
		} else if !prop.Optional {
			return false
		}
	}
	return withinBounds(satisfied, rule.MinProperties, rule.MaxProperties)
}

// matchKnown only looks at lines named in the known property, negative
// and rarity tables, and requires exact property names.
func (m *Matcher) matchKnown(item domain.ItemSnapshot, rule domain.HighlightRule) bool {
	var known, negatives, rarities []domain.PropertyLine
	for _, line := range item.Properties {
		name := m.norm.Fold(line.Name)
		switch {
		case knownSet[name]:
			known = append(known, line)
		case negativeSet[name]:
			negatives = append(negatives, line)
		case raritySet[name]:
			rarities = append(rarities, line)
		}
	}
	if len(known) == 0 && len(negatives) == 0 && len(rarities) == 0 {
		return false
	}

	if rule.Overweight && m.isOverweight(item.Properties) {
		return false
	}

	for _, pattern := range rule.ExcludeSubstrings {
		p := m.norm.Fold(pattern)
		if p == "" {
			continue
		}
		if m.anyNameContains(known, p) || m.anyNameContains(negatives, p) {
			return false
		}
	}

	if len(rule.RequiredRarities) > 0 && !m.hasRequiredRarity(rarities, rule.RequiredRarities) {
		return false
	}

	satisfied := 0
	for _, prop := range rule.Properties {
		target := m.norm.Fold(prop.Name)
		var found *domain.PropertyLine
		for i := range known {
			if m.norm.Fold(known[i].Name) == target {
				found = &known[i]
				break
			}
		}
		if found == nil {
			if !prop.Optional {
				return false
			}
			continue
		}
		if !valuePasses(prop, *found) {
			return false
		}
		satisfied++
	}
	return withinBounds(satisfied, rule.MinProperties, rule.MaxProperties)
}

func (m *Matcher) isOverweight(lines []domain.PropertyLine) bool {
	for _, line := range lines {
		if strings.Contains(m.norm.Fold(line.Text), overweightMarker) {
			return true
		}
	}
	return false
}

func (m *Matcher) anyNameContains(lines []domain.PropertyLine, folded string) bool {
	for _, line := range lines {
		if strings.Contains(m.norm.Fold(line.Name), folded) {
			return true
		}
	}
	return false
}

func (m *Matcher) hasRequiredRarity(lines []domain.PropertyLine, required []string) bool {
	for _, line := range lines {
		name := m.norm.Fold(line.Name)
		if !raritySet[name] {
			continue
		}
		for _, r := range required {
			if m.norm.Fold(r) == name {
				return true
			}
		}
	}
	return false
}

// valuePasses treats a line without a numeric value as satisfying any
// threshold; only a missing line can disqualify.
func valuePasses(prop domain.PropertyRule, line domain.PropertyLine) bool {
	return !prop.HasThreshold() || !line.HasValue() || line.First >= prop.MinValue
}

func withinBounds(n, lo, hi int) bool {
	if lo > 0 && n < lo {
		return false
	}
	if hi > 0 && n > hi {
		return false
	}
	return true
}

// Stats reports normalization cache usage and the number of distinct
// rule patterns compiled so far.
func (m *Matcher) Stats() (cache.Stats, int) {
	return m.norm.Stats(), m.regexes.size()
}

// HealthCheck reports the normalization cache health.
func (m *Matcher) HealthCheck() domain.HealthStatus {
	return m.norm.cache.HealthCheck()
}
