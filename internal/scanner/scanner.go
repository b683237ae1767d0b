// Package scanner turns world events into highlight evaluations and loot
// candidates. Like the loot queue it runs on the simulation tick only.
package scanner

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/events"
	"github.com/tazuo/autoloot/internal/matcher"
)

const (
	DefaultBatchSize = 3
	// ScavengeRange bounds the ground scan run on player movement.
	ScavengeRange = 3
	// maxCorpseDepth stops corpse-in-corpse recursion.
	maxCorpseDepth = 4
)

// RuleSource is a loaded-aware rule list, satisfied by storage.RuleStore.
type RuleSource[T any] interface {
	All() []T
	Loaded() bool
}

// Looter receives loot candidates, satisfied by lootqueue.Queue.
type Looter interface {
	Enqueue(serial uint32) bool
	IsQueued(serial uint32) bool
}

type Scanner struct {
	world      domain.World
	profile    domain.Profile
	matcher    *matcher.Matcher
	highlights RuleSource[domain.HighlightRule]
	loot       RuleSource[domain.LootEntry]
	queue      Looter
	metrics    domain.LootMetrics
	batchSize  int

	pending     []uint32
	hasPending  bool
	highlighted map[uint32]domain.MatchResult
	closed      atomic.Bool
}

// Option configures a Scanner.
type Option func(*Scanner)

func WithBatchSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithMetrics(m domain.LootMetrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

func New(
	world domain.World,
	profile domain.Profile,
	m *matcher.Matcher,
	highlights RuleSource[domain.HighlightRule],
	loot RuleSource[domain.LootEntry],
	queue Looter,
	opts ...Option,
) *Scanner {
	s := &Scanner{
		world:       world,
		profile:     profile,
		matcher:     m,
		highlights:  highlights,
		loot:        loot,
		queue:       queue,
		batchSize:   DefaultBatchSize,
		highlighted: make(map[uint32]domain.MatchResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receive implements events.Subscriber.
func (s *Scanner) Receive(ev events.Event) {
	switch ev.Type {
	case events.ItemPropertiesReceived:
		s.QueueHighlight(ev.Serial)
		if s.autoLootActive() {
			s.checkCorpseOf(ev.Serial)
		}
	case events.ItemCreated, events.ItemUpdated:
		s.onItemChanged(ev.Serial)
	case events.ContainerOpened:
		if s.autoLootActive() {
			s.checkCorpseOf(ev.Serial)
		}
	case events.PlayerPositionChanged:
		s.Scavenge()
	}
}

// Closed implements events.Subscriber.
func (s *Scanner) Closed() bool {
	return s.closed.Load()
}

// Close stops the scanner from receiving further events.
func (s *Scanner) Close() {
	s.closed.Store(true)
}

func (s *Scanner) autoLootActive() bool {
	return s.loot.Loaded() && s.profile.AutoLootEnabled()
}

// QueueHighlight schedules serial for evaluation on a later Drain.
func (s *Scanner) QueueHighlight(serial uint32) {
	if !s.highlights.Loaded() {
		return
	}
	s.pending = append(s.pending, serial)
	s.hasPending = true
}

// HasPending reports whether Drain has work.
func (s *Scanner) HasPending() bool {
	return s.hasPending
}

// Drain evaluates up to the batch size of pending serials against the
// highlight rules and returns how many were evaluated.
func (s *Scanner) Drain() int {
	if !s.hasPending || !s.highlights.Loaded() {
		return 0
	}

	n := min(s.batchSize, len(s.pending))
	batch := s.pending[:n]
	rules := s.highlights.All()

	evaluated := 0
	for _, serial := range batch {
		item, ok := s.world.Item(serial)
		if !ok {
			continue
		}
		s.evaluate(item, rules)
		evaluated++
	}

	s.pending = s.pending[n:]
	if len(s.pending) == 0 {
		s.pending = nil
		s.hasPending = false
	}
	return evaluated
}

func (s *Scanner) evaluate(item domain.ItemSnapshot, rules []domain.HighlightRule) {
	res, ok := s.matcher.BestMatch(item, rules)
	if s.metrics != nil {
		s.metrics.HighlightMatched(ok)
	}
	if !ok {
		delete(s.highlighted, item.Serial)
		return
	}

	s.highlighted[item.Serial] = res
	log.Debug().
		Uint32("serial", item.Serial).
		Str("rule_id", res.RuleID).
		Int("score", res.Score).
		Msg("Item highlighted")

	if res.Loot {
		s.queue.Enqueue(item.Serial)
	}
}

// Highlight returns the best match recorded for serial.
func (s *Scanner) Highlight(serial uint32) (domain.MatchResult, bool) {
	res, ok := s.highlighted[serial]
	return res, ok
}

// Highlighted is the number of currently highlighted items.
func (s *Scanner) Highlighted() int {
	return len(s.highlighted)
}

// RecheckAll re-queues every item not lying on the ground, typically after
// the highlight rules changed.
func (s *Scanner) RecheckAll() int {
	if !s.highlights.Loaded() {
		return 0
	}
	queued := 0
	for _, serial := range s.world.Items() {
		item, ok := s.world.Item(serial)
		if !ok || item.OnGround {
			continue
		}
		s.QueueHighlight(serial)
		queued++
	}
	return queued
}

func (s *Scanner) onItemChanged(serial uint32) {
	if !s.autoLootActive() {
		return
	}
	item, ok := s.world.Item(serial)
	if !ok {
		return
	}
	s.checkCorpse(item)

	if s.profile.ScavengerEnabled() && s.isScavengeable(item) && item.Distance <= s.profile.AutoOpenRange() {
		s.checkAndLoot(item, 0)
	}
}

func (s *Scanner) checkCorpseOf(serial uint32) {
	if item, ok := s.world.Item(serial); ok {
		s.checkCorpse(item)
	}
}

// checkCorpse handles item when it is a corpse or lies inside one.
func (s *Scanner) checkCorpse(item domain.ItemSnapshot) {
	if item.IsCorpse {
		s.lootCorpse(item, 0)
		return
	}
	if item.RootContainer == 0 || item.RootContainer == item.Serial {
		return
	}
	if root, ok := s.world.Item(item.RootContainer); ok && root.IsCorpse {
		s.lootCorpse(root, 0)
	}
}

// lootCorpse runs the auto-loot check over a corpse's direct contents when
// it is within range. Human corpses also need human looting enabled.
func (s *Scanner) lootCorpse(corpse domain.ItemSnapshot, depth int) {
	if !corpse.IsCorpse || corpse.Distance > s.profile.AutoOpenRange() {
		return
	}
	if corpse.IsHumanCorpse && !s.profile.LootHumanCorpses() {
		return
	}
	if depth >= maxCorpseDepth {
		return
	}
	for _, child := range s.world.Contents(corpse.Serial) {
		if item, ok := s.world.Item(child); ok {
			s.checkAndLoot(item, depth+1)
		}
	}
}

func (s *Scanner) checkAndLoot(item domain.ItemSnapshot, depth int) {
	if !s.loot.Loaded() || s.queue.IsQueued(item.Serial) {
		return
	}
	if item.IsCorpse {
		s.lootCorpse(item, depth)
		return
	}
	if entry, ok := s.matcher.FindEntry(item, s.loot.All()); ok {
		if s.queue.Enqueue(item.Serial) {
			log.Debug().Uint32("serial", item.Serial).Str("rule_id", entry.ID).Msg("Auto-loot entry matched")
		}
	}
}

func (s *Scanner) isScavengeable(item domain.ItemSnapshot) bool {
	return item.OnGround && !item.IsCorpse && !item.IsLocked
}

// Scavenge checks nearby ground items against the auto-loot list.
func (s *Scanner) Scavenge() {
	if !s.loot.Loaded() || !s.profile.ScavengerEnabled() {
		return
	}
	for _, serial := range s.world.Items() {
		item, ok := s.world.Item(serial)
		if !ok || !s.isScavengeable(item) || item.Distance > ScavengeRange {
			continue
		}
		s.checkAndLoot(item, 0)
	}
}

// ForceLootContainer runs the auto-loot check over any container's direct
// contents, corpse or not.
func (s *Scanner) ForceLootContainer(serial uint32) bool {
	if !s.loot.Loaded() {
		return false
	}
	if _, ok := s.world.Item(serial); !ok {
		return false
	}
	for _, child := range s.world.Contents(serial) {
		if item, ok := s.world.Item(child); ok {
			s.checkAndLoot(item, 0)
		}
	}
	return true
}

// Clear drops pending evaluations and highlight marks.
func (s *Scanner) Clear() {
	s.pending = nil
	s.hasPending = false
	clear(s.highlighted)
}
