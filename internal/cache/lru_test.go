package cache

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazuo/autoloot/internal/domain"
)

func TestNewLRU(t *testing.T) {
	c := NewLRU[string](100)
	assert.Equal(t, 100, c.maxSize)
	assert.Equal(t, 0, c.size)
	assert.Equal(t, c.tail, c.head.next)
	assert.Equal(t, c.head, c.tail.prev)

	assert.Equal(t, 4096, NewLRU[string](0).maxSize)
}

func TestLRU_SetAndGet(t *testing.T) {
	c := NewLRU[string](2)

	_, ok := c.Get("Luck 80")
	assert.False(t, ok)

	c.Set("Luck 80", "luck 80")
	v, ok := c.Get("Luck 80")
	require.True(t, ok)
	assert.Equal(t, "luck 80", v)

	c.Set("Luck 80", "replaced")
	v, _ = c.Get("Luck 80")
	assert.Equal(t, "replaced", v)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_GetOrCompute(t *testing.T) {
	c := NewLRU[string](10)
	calls := 0
	compute := func(s string) string {
		calls++
		return s + "!"
	}

	assert.Equal(t, "x!", c.GetOrCompute("x", compute))
	assert.Equal(t, "x!", c.GetOrCompute("x", compute))
	assert.Equal(t, 1, calls)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRatio, 0.001)
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU[string](10)
	c.Set("a", "a")
	c.Get("a")
	c.Clear()

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(0), stats.Hits)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRU_HealthCheck(t *testing.T) {
	c := NewLRU[string](1)
	assert.Equal(t, domain.HealthStatusHealthy, c.HealthCheck().Status)

	for i := 0; i < 2000; i++ {
		c.GetOrCompute(fmt.Sprintf("k%d", i), func(s string) string { return s })
	}
	assert.Equal(t, domain.HealthStatusDegraded, c.HealthCheck().Status)
}

func TestProperty_LRUNeverExceedsCapacity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("size stays within max size for any key sequence", prop.ForAll(
		func(maxSize int, keys []string) bool {
			c := NewLRU[string](maxSize)
			for _, k := range keys {
				c.Set(k, k)
			}
			return c.Stats().Size <= maxSize && len(c.entries) == c.Stats().Size
		},
		gen.IntRange(1, 20),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("the most recently set key is always retrievable", prop.ForAll(
		func(keys []string, last string) bool {
			c := NewLRU[string](3)
			for _, k := range keys {
				c.Set(k, k)
			}
			c.Set(last, "v")
			v, ok := c.Get(last)
			return ok && v == "v"
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
