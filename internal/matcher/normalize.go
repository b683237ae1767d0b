package matcher

import (
	"strings"
	"unicode"

	"github.com/tazuo/autoloot/internal/cache"
)

type normalized struct {
	text   string
	folded string
}

// Normalizer strips markup from tooltip text. Results are cached because
// the same property lines recur across many items.
type Normalizer struct {
	cache *cache.LRU[normalized]
}

func NewNormalizer(cacheSize int) *Normalizer {
	return &Normalizer{cache: cache.NewLRU[normalized](cacheSize)}
}

// Normalize strips <...> tags and surrounding whitespace.
func (n *Normalizer) Normalize(s string) string {
	return n.lookup(s).text
}

// Fold is Normalize lower-cased, for case-insensitive comparison.
func (n *Normalizer) Fold(s string) string {
	return n.lookup(s).folded
}

func (n *Normalizer) Stats() cache.Stats {
	return n.cache.Stats()
}

func (n *Normalizer) lookup(s string) normalized {
	return n.cache.GetOrCompute(s, func(s string) normalized {
		text := strings.TrimSpace(StripTags(s))
		return normalized{text: text, folded: strings.ToLower(text)}
	})
}

// StripTags removes everything between '<' and '>' inclusive.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inside := false
	for _, r := range s {
		switch {
		case r == '<':
			inside = true
		case r == '>':
			inside = false
		case !inside:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanItemName drops a leading stack amount ("12 gold coins") and
// lower-cases the rest.
func CleanItemName(name string) string {
	name = strings.TrimLeftFunc(name, unicode.IsDigit)
	return strings.ToLower(strings.TrimSpace(name))
}
