package matcher

import "github.com/tazuo/autoloot/internal/domain"

// MatchEntry reports whether item satisfies an auto-loot entry: graphic,
// hue, and the entry regex against the name and tooltip text.
func (m *Matcher) MatchEntry(item domain.ItemSnapshot, entry domain.LootEntry) bool {
	if !entry.MatchesGraphic(item.Graphic) || !entry.MatchesHue(item.Hue) {
		return false
	}
	if entry.Regex == "" {
		return true
	}
	return m.regexes.match(entry.Regex, item.SearchText())
}

// FindEntry returns the first entry item satisfies.
func (m *Matcher) FindEntry(item domain.ItemSnapshot, entries []domain.LootEntry) (domain.LootEntry, bool) {
	for _, e := range entries {
		if m.MatchEntry(item, e) {
			return e, true
		}
	}
	return domain.LootEntry{}, false
}
