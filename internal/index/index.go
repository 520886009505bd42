// Package index provides the in-memory keydir: an ordered mapping from
// user key to the on-disk location of its latest live record. Backends are
// pluggable behind the Indexer interface; all of them support concurrent
// reads with serialized writes and snapshot-based iteration.
package index

import (
	"bytes"
	"sort"

	"github.com/emberdb/emberdb/internal/data"
)

// IndexType selects a keydir backend.
type IndexType = byte

const (
	// BTree is the default backend, a balanced tree ordered by key.
	BTree IndexType = iota + 1
	// ART is an adaptive-radix-tree backend.
	ART
)

// Indexer is the capability set the engine needs from a keydir backend.
type Indexer interface {
	// Put inserts or overwrites the location for key and reports success.
	Put(key []byte, pos *data.LogRecordPos) bool

	// Get returns the location for key, or nil if the key is absent.
	Get(key []byte) *data.LogRecordPos

	// Delete removes key and reports whether it was present.
	Delete(key []byte) bool

	// Size reports the number of live keys.
	Size() int

	// ListKeys returns a snapshot of all keys in ascending key order.
	ListKeys() [][]byte

	// Iterator returns a snapshot-backed iterator. Keys not matching
	// prefix are skipped; reverse yields descending key order.
	Iterator(reverse bool, prefix []byte) IndexIterator
}

// IndexIterator walks a point-in-time snapshot of the keydir. It holds no
// locks, so iteration never blocks writers and never observes
// mid-iteration mutations.
type IndexIterator interface {
	// Rewind resets the iterator to its first element.
	Rewind()

	// Seek positions the iterator at the first key >= key
	// (<= key under reverse).
	Seek(key []byte)

	// Next returns the current entry and advances, or nil when exhausted.
	Next() ([]byte, *data.LogRecordPos)
}

// New constructs the backend selected by typ.
func New(typ IndexType) Indexer {
	switch typ {
	case BTree:
		return newBTree()
	case ART:
		return newART()
	default:
		panic("index: unsupported index type")
	}
}

// entry is one materialized (key, location) pair of an iterator snapshot.
type entry struct {
	key []byte
	pos *data.LogRecordPos
}

// snapshotIterator implements IndexIterator over an owned slice of entries,
// materialized in iteration order at construction time.
type snapshotIterator struct {
	items     []entry
	currIndex int
	reverse   bool
	prefix    []byte
}

func (it *snapshotIterator) Rewind() {
	it.currIndex = 0
}

func (it *snapshotIterator) Seek(key []byte) {
	it.currIndex = sort.Search(len(it.items), func(i int) bool {
		if it.reverse {
			return bytes.Compare(it.items[i].key, key) <= 0
		}
		return bytes.Compare(it.items[i].key, key) >= 0
	})
}

func (it *snapshotIterator) Next() ([]byte, *data.LogRecordPos) {
	for it.currIndex < len(it.items) {
		item := it.items[it.currIndex]
		it.currIndex++
		if len(it.prefix) == 0 || bytes.HasPrefix(item.key, it.prefix) {
			return item.key, item.pos
		}
	}
	return nil, nil
}
