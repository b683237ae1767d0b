package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazuo/autoloot/internal/domain"
)

func TestMemory_PutAndContents(t *testing.T) {
	w := NewMemory()
	w.Put(domain.ItemSnapshot{Serial: 1, IsCorpse: true})
	w.Put(domain.ItemSnapshot{Serial: 3, Container: 1})
	w.Put(domain.ItemSnapshot{Serial: 2, Container: 1})

	assert.Equal(t, []uint32{3, 2}, w.Contents(1), "insertion order is kept")
	assert.Equal(t, []uint32{1, 3, 2}, w.Items())

	item, ok := w.Item(3)
	require.True(t, ok)
	assert.Equal(t, uint32(1), item.Container)

	w.Put(domain.ItemSnapshot{Serial: 3, Container: 0, OnGround: true})
	assert.Equal(t, []uint32{2}, w.Contents(1), "moved out of the corpse")
	assert.Equal(t, []uint32{1, 3}, w.Contents(0))
}

func TestMemory_Remove(t *testing.T) {
	w := NewMemory()
	w.Put(domain.ItemSnapshot{Serial: 1})
	w.Put(domain.ItemSnapshot{Serial: 2, Container: 1})
	w.Remove(1)
	w.Remove(99)

	_, ok := w.Item(1)
	assert.False(t, ok)
	assert.Empty(t, w.Contents(1))
	assert.Equal(t, []uint32{2}, w.Items())
}

func TestMemory_CursorAndMover(t *testing.T) {
	w := NewMemory()
	assert.False(t, w.CursorHoldingItem())
	w.SetCursorHolding(true)
	assert.True(t, w.CursorHoldingItem())

	var m RecordingMover
	m.EnqueueMove(5)
	m.EnqueueMove(6)
	assert.Equal(t, []uint32{5, 6}, m.Moves())

	assert.Equal(t, []uint32{5, 6}, m.Take())
	assert.Empty(t, m.Moves())
	assert.Empty(t, m.Take())
}
