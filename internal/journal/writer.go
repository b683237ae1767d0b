package journal

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
)

// DefaultBuffer is the number of entries a Writer holds before dropping.
const DefaultBuffer = 256

var (
	ErrWriterFull   = errors.New("journal: writer buffer full")
	ErrWriterClosed = errors.New("journal: writer closed")
)

// Writer records entries on its own goroutine so the loot tick never waits
// on a bbolt commit. Record never blocks; when the buffer is full the entry
// is dropped and counted.
type Writer struct {
	j       *Journal
	entries chan domain.JournalEntry
	done    chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewWriter starts a writer for j. A buffer of zero or less uses
// DefaultBuffer.
func NewWriter(j *Journal, buffer int) *Writer {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	w := &Writer{
		j:       j,
		entries: make(chan domain.JournalEntry, buffer),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for entry := range w.entries {
		if err := w.j.Record(entry); err != nil {
			log.Warn().Err(err).Uint32("serial", entry.Serial).Str("outcome", entry.Outcome).Msg("Failed to record loot journal entry")
		}
	}
}

// Record queues entry for the writer goroutine.
func (w *Writer) Record(entry domain.JournalEntry) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}
	select {
	case w.entries <- entry:
		return nil
	default:
		w.dropped.Add(1)
		return ErrWriterFull
	}
}

// Dropped is the number of entries lost to a full buffer.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Close stops accepting entries and waits until every queued entry is
// written. It does not close the journal.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entries)
	}
	w.mu.Unlock()
	<-w.done
}
