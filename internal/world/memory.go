// Package world provides an in-memory item world and mover. lootctl serve
// drives it over HTTP; tests drive it directly.
package world

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
)

// Memory is a thread-safe domain.World backed by a map.
type Memory struct {
	mu       sync.RWMutex
	items    map[uint32]domain.ItemSnapshot
	order    []uint32
	children map[uint32][]uint32
	holding  bool
}

func NewMemory() *Memory {
	return &Memory{
		items:    make(map[uint32]domain.ItemSnapshot),
		children: make(map[uint32][]uint32),
	}
}

// Put adds or replaces an item, keeping container contents in insertion order.
func (w *Memory) Put(item domain.ItemSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.items[item.Serial]; ok {
		if old.Container != item.Container {
			w.children[old.Container] = remove(w.children[old.Container], item.Serial)
			w.children[item.Container] = append(w.children[item.Container], item.Serial)
		}
	} else {
		w.order = append(w.order, item.Serial)
		w.children[item.Container] = append(w.children[item.Container], item.Serial)
	}
	w.items[item.Serial] = item
}

// Remove deletes an item. Its children stay but become unreachable by
// Contents of the removed serial.
func (w *Memory) Remove(serial uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old, ok := w.items[serial]
	if !ok {
		return
	}
	delete(w.items, serial)
	delete(w.children, serial)
	w.order = remove(w.order, serial)
	w.children[old.Container] = remove(w.children[old.Container], serial)
}

func (w *Memory) SetCursorHolding(holding bool) {
	w.mu.Lock()
	w.holding = holding
	w.mu.Unlock()
}

func (w *Memory) Item(serial uint32) (domain.ItemSnapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	item, ok := w.items[serial]
	return item, ok
}

func (w *Memory) Contents(container uint32) []uint32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.children[container])
}

func (w *Memory) Items() []uint32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.order)
}

func (w *Memory) CursorHoldingItem() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.holding
}

func remove(s []uint32, v uint32) []uint32 {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// RecordingMover logs and remembers every move request.
type RecordingMover struct {
	mu    sync.Mutex
	moves []uint32
}

func (m *RecordingMover) EnqueueMove(serial uint32) {
	m.mu.Lock()
	m.moves = append(m.moves, serial)
	m.mu.Unlock()
	log.Debug().Uint32("serial", serial).Msg("Move requested")
}

// Moves returns the requested serials in order.
func (m *RecordingMover) Moves() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.moves)
}

// Take returns the requested serials in order and forgets them.
func (m *RecordingMover) Take() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	moves := m.moves
	m.moves = nil
	return moves
}
