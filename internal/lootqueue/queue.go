// Package lootqueue holds the deduplicating loot work queue and its throttled
// drain. All methods run on the host's simulation tick and are not safe for
// concurrent use.
package lootqueue

import (
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tazuo/autoloot/internal/domain"
)

// SuppressWindow is how long a queued serial is kept out of the queue.
const SuppressWindow = 5000 * time.Millisecond

// Queue is a FIFO of item serials drained at most once per action delay.
type Queue struct {
	world   domain.World
	mover   domain.Mover
	profile domain.Profile
	journal domain.LootJournal
	metrics domain.LootMetrics
	clock   func() time.Time

	limiter *rate.Limiter
	delay   time.Duration

	entries       []uint32
	queued        map[uint32]struct{}
	recent        map[uint32]struct{}
	suppressUntil time.Time
	total         int
}

// Option configures a Queue.
type Option func(*Queue)

// WithJournal records every drained entry.
func WithJournal(j domain.LootJournal) Option {
	return func(q *Queue) { q.journal = j }
}

// WithMetrics reports enqueue/drain counters.
func WithMetrics(m domain.LootMetrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// WithClock overrides time.Now for the enqueue suppression timer.
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) { q.clock = clock }
}

// New creates an empty queue.
func New(world domain.World, mover domain.Mover, profile domain.Profile, opts ...Option) *Queue {
	q := &Queue{
		world:   world,
		mover:   mover,
		profile: profile,
		clock:   time.Now,
		queued:  make(map[uint32]struct{}),
		recent:  make(map[uint32]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.delay = profile.ActionDelay()
	q.limiter = rate.NewLimiter(limitFor(q.delay), 1)
	return q
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// Enqueue adds serial to the tail unless it is already queued or was queued
// within the suppression window. It reports whether the serial was added.
func (q *Queue) Enqueue(serial uint32) bool {
	if _, ok := q.queued[serial]; ok {
		return false
	}
	if _, ok := q.recent[serial]; ok {
		return false
	}

	q.entries = append(q.entries, serial)
	q.queued[serial] = struct{}{}
	q.recent[serial] = struct{}{}
	q.suppressUntil = q.clock().Add(SuppressWindow)
	q.total++

	if q.metrics != nil {
		q.metrics.LootEnqueued()
		q.metrics.QueueDepth(len(q.entries))
	}
	log.Debug().Uint32("serial", serial).Int("queued", len(q.entries)).Msg("Item queued for loot")
	return true
}

// Tick drains at most one entry. It does nothing while the cursor holds an
// item or the action delay has not elapsed since the previous move.
func (q *Queue) Tick(now time.Time) {
	if q.world.CursorHoldingItem() {
		return
	}

	if len(q.entries) == 0 {
		if len(q.recent) > 0 && !now.Before(q.suppressUntil) {
			clear(q.recent)
		}
		return
	}

	if d := q.profile.ActionDelay(); d != q.delay {
		q.delay = d
		q.limiter.SetLimitAt(now, limitFor(d))
	}
	r := q.limiter.ReserveN(now, 1)
	if !r.OK() || r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		return
	}

	serial := q.entries[0]
	q.entries[0] = 0
	q.entries = q.entries[1:]
	delete(q.queued, serial)
	if len(q.entries) == 0 {
		q.total = 0
	}

	outcome := q.drain(serial)
	if outcome != domain.OutcomeDispatched {
		// Only real moves spend the action delay.
		r.CancelAt(now)
	}

	if q.metrics != nil {
		q.metrics.LootDrained(outcome)
		q.metrics.QueueDepth(len(q.entries))
	}
	if q.journal != nil {
		if err := q.journal.Record(domain.JournalEntry{Serial: serial, Outcome: outcome, At: now}); err != nil {
			log.Warn().Err(err).Uint32("serial", serial).Msg("Failed to record loot journal entry")
		}
	}
}

func (q *Queue) drain(serial uint32) string {
	item, ok := q.world.Item(serial)
	if !ok {
		log.Debug().Uint32("serial", serial).Msg("Queued item no longer exists")
		return domain.OutcomeMissing
	}

	if !q.inRange(item) {
		log.Debug().Uint32("serial", serial).Int("distance", item.Distance).Msg("Queued item out of range, skipping")
		return domain.OutcomeOutOfRange
	}

	q.mover.EnqueueMove(serial)
	return domain.OutcomeDispatched
}

// inRange also accepts a far item whose root container is known and close.
func (q *Queue) inRange(item domain.ItemSnapshot) bool {
	limit := q.profile.AutoOpenRange()
	if item.Distance <= limit {
		return true
	}
	if item.RootContainer == 0 || item.RootContainer == item.Serial {
		return false
	}
	root, ok := q.world.Item(item.RootContainer)
	return ok && root.Distance <= limit
}

// IsQueued reports whether serial is waiting in the queue.
func (q *Queue) IsQueued(serial uint32) bool {
	_, ok := q.queued[serial]
	return ok
}

// Len is the number of waiting entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Progress is 1 - remaining/total for the current batch, 1 when idle.
func (q *Queue) Progress() float64 {
	if q.total == 0 {
		return 1
	}
	return 1 - float64(len(q.entries))/float64(q.total)
}

// Clear drops every entry and membership set.
func (q *Queue) Clear() {
	q.entries = nil
	clear(q.queued)
	clear(q.recent)
	q.total = 0
	q.suppressUntil = time.Time{}
	if q.metrics != nil {
		q.metrics.QueueDepth(0)
	}
}
