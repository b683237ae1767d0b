// Package events is the session-scoped bus carrying world events from the
// game-state layer to the scanner.
package events

import (
	"slices"
	"sync"
)

// Type classifies world events.
type Type int

const (
	ItemPropertiesReceived Type = iota
	ItemCreated
	ItemUpdated
	ContainerOpened
	PlayerPositionChanged
)

func (t Type) String() string {
	switch t {
	case ItemPropertiesReceived:
		return "item_properties_received"
	case ItemCreated:
		return "item_created"
	case ItemUpdated:
		return "item_updated"
	case ContainerOpened:
		return "container_opened"
	case PlayerPositionChanged:
		return "player_position_changed"
	default:
		return "unknown"
	}
}

// ParseType is the inverse of Type.String.
func ParseType(name string) (Type, bool) {
	for t := ItemPropertiesReceived; t <= PlayerPositionChanged; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// Event is one world notification. Serial is zero for PlayerPositionChanged.
type Event struct {
	Type   Type
	Serial uint32
}

// Subscriber receives events from the bus.
type Subscriber interface {
	Receive(ev Event)
	Closed() bool
}

// Bus delivers events to subscribers in registration order. Emit delivers
// synchronously on the caller's goroutine; Post parks the event until the
// owner of the simulation tick calls Dispatch.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber

	inboxMu sync.Mutex
	inbox   []Event
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.Index(b.subscribers, sub); i >= 0 {
		b.subscribers = slices.Delete(slices.Clone(b.subscribers), i, i+1)
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Emit sends ev to every open subscriber.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.Closed() {
			s.Receive(ev)
		}
	}
}

// Post queues ev for the next Dispatch. Safe from any goroutine.
func (b *Bus) Post(ev Event) {
	b.inboxMu.Lock()
	b.inbox = append(b.inbox, ev)
	b.inboxMu.Unlock()
}

// Dispatch emits every posted event in arrival order and returns how many
// were delivered.
func (b *Bus) Dispatch() int {
	b.inboxMu.Lock()
	pending := b.inbox
	b.inbox = nil
	b.inboxMu.Unlock()

	for _, ev := range pending {
		b.Emit(ev)
	}
	return len(pending)
}

// Cleanup removes closed subscribers.
func (b *Bus) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var active []Subscriber
	for _, s := range b.subscribers {
		if !s.Closed() {
			active = append(active, s)
		}
	}
	b.subscribers = active
}
