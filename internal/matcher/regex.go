package matcher

import (
	"regexp"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
)

// regexCache compiles rule patterns once. A pattern that fails to compile
// is remembered as nil and reported once.
type regexCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func newRegexCache() *regexCache {
	return &regexCache{compiled: make(map[string]*regexp.Regexp)}
}

// match reports whether pattern matches text. Invalid patterns never match.
func (c *regexCache) match(pattern, text string) bool {
	re := c.get(pattern)
	return re != nil && re.MatchString(text)
}

func (c *regexCache) get(pattern string) *regexp.Regexp {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.compiled[pattern]; ok {
		return re
	}
	re, err := domain.CompileRuleRegex(pattern)
	if err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("Invalid rule regex, the rule will not match until it is fixed")
		re = nil
	}
	c.compiled[pattern] = re
	return re
}

func (c *regexCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.compiled)
}
