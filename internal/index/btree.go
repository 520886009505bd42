package index

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/emberdb/emberdb/internal/data"
)

// btreeDegree matches the fan-out google/btree recommends for in-memory use.
const btreeDegree = 32

// BTreeIndex is the default keydir backend, an ordered tree guarded by a
// read/write lock. google/btree is not safe for concurrent mutation, so
// writes take the exclusive lock.
type BTreeIndex struct {
	tree *btree.BTreeG[*entry]
	lock sync.RWMutex
}

func newBTree() *BTreeIndex {
	return &BTreeIndex{
		tree: btree.NewG(btreeDegree, func(a, b *entry) bool {
			return bytes.Compare(a.key, b.key) < 0
		}),
	}
}

func (bt *BTreeIndex) Put(key []byte, pos *data.LogRecordPos) bool {
	bt.lock.Lock()
	defer bt.lock.Unlock()
	bt.tree.ReplaceOrInsert(&entry{key: key, pos: pos})
	return true
}

func (bt *BTreeIndex) Get(key []byte) *data.LogRecordPos {
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	item, ok := bt.tree.Get(&entry{key: key})
	if !ok {
		return nil
	}
	return item.pos
}

func (bt *BTreeIndex) Delete(key []byte) bool {
	bt.lock.Lock()
	defer bt.lock.Unlock()
	_, ok := bt.tree.Delete(&entry{key: key})
	return ok
}

func (bt *BTreeIndex) Size() int {
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	return bt.tree.Len()
}

func (bt *BTreeIndex) ListKeys() [][]byte {
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	keys := make([][]byte, 0, bt.tree.Len())
	bt.tree.Ascend(func(item *entry) bool {
		keys = append(keys, item.key)
		return true
	})
	return keys
}

func (bt *BTreeIndex) Iterator(reverse bool, prefix []byte) IndexIterator {
	bt.lock.RLock()
	defer bt.lock.RUnlock()

	items := make([]entry, 0, bt.tree.Len())
	collect := func(item *entry) bool {
		items = append(items, *item)
		return true
	}
	if reverse {
		bt.tree.Descend(collect)
	} else {
		bt.tree.Ascend(collect)
	}
	return &snapshotIterator{items: items, reverse: reverse, prefix: prefix}
}
