// Package journal persists drained loot queue entries in a bbolt file so
// the outcome of past moves survives restarts.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/tazuo/autoloot/internal/domain"
)

// DefaultMaxEntries caps the journal; the oldest entries are pruned first.
const DefaultMaxEntries = 5000

var bucketEntries = []byte("entries")

// Journal is an append-only, bounded log of loot outcomes.
type Journal struct {
	bolt       *bbolt.DB
	maxEntries int

	mu    sync.Mutex
	count int
}

// Open opens or creates the journal at path. A maxEntries of zero or less
// uses DefaultMaxEntries.
func Open(path string, maxEntries int) (*Journal, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	j := &Journal{bolt: db, maxEntries: maxEntries}
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketEntries)
		if err != nil {
			return err
		}
		j.count = b.Stats().KeyN
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create buckets: %w", err)
	}
	return j, nil
}

// Record appends entry, pruning the oldest entries past the cap.
func (j *Journal) Record(entry domain.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: encode entry %d: %w", entry.Serial, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	count := j.count
	err = j.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(seqToKey(seq), data); err != nil {
			return err
		}
		count = j.count + 1

		c := b.Cursor()
		for k, _ := c.First(); k != nil && count > j.maxEntries; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			count--
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal: record entry %d: %w", entry.Serial, err)
	}
	j.count = count
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (j *Journal) Recent(n int) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	err := j.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(entries) >= n {
				break
			}
			var entry domain.JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return entries, nil
}

// Len is the number of stored entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Path returns the filesystem path of the bbolt file.
func (j *Journal) Path() string {
	return j.bolt.Path()
}

func (j *Journal) Close() error {
	return j.bolt.Close()
}

func seqToKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
