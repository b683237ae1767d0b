package domain

import "time"

// World resolves serials to current item state. It is owned by the host
// game-state layer.
type World interface {
	// Item returns false when the serial no longer exists.
	Item(serial uint32) (ItemSnapshot, bool)
	// Contents lists the direct children of a container in order.
	Contents(container uint32) []uint32
	// Items lists every item currently known to the world.
	Items() []uint32
	CursorHoldingItem() bool
}

// Mover issues a fire-and-forget physical item move.
type Mover interface {
	EnqueueMove(serial uint32)
}

// Profile exposes the host's auto-loot configuration as plain getters.
type Profile interface {
	AutoLootEnabled() bool
	ScavengerEnabled() bool
	LootHumanCorpses() bool
	AutoOpenRange() int
	ActionDelay() time.Duration
}

// Loot outcomes recorded for every drained queue entry.
const (
	OutcomeDispatched = "dispatched"
	OutcomeOutOfRange = "out_of_range"
	OutcomeMissing    = "missing"
)

// JournalEntry is one drained loot queue entry.
type JournalEntry struct {
	Serial  uint32    `json:"serial"`
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
}

// LootJournal persists drained loot entries.
type LootJournal interface {
	Record(entry JournalEntry) error
}

// LootMetrics receives loot pipeline counters.
type LootMetrics interface {
	LootEnqueued()
	LootDrained(outcome string)
	QueueDepth(n int)
	HighlightMatched(hit bool)
}
