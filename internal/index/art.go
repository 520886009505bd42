package index

import (
	"sync"

	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/emberdb/emberdb/internal/data"
)

// ARTIndex is an adaptive-radix-tree keydir backend. Radix trees trade the
// BTree's cache friendliness for cheaper lookups on long shared-prefix key
// spaces. The tree itself is unsynchronized, so a read/write lock guards it.
type ARTIndex struct {
	tree art.Tree
	lock sync.RWMutex
}

func newART() *ARTIndex {
	return &ARTIndex{tree: art.New()}
}

func (at *ARTIndex) Put(key []byte, pos *data.LogRecordPos) bool {
	at.lock.Lock()
	defer at.lock.Unlock()
	at.tree.Insert(key, pos)
	return true
}

func (at *ARTIndex) Get(key []byte) *data.LogRecordPos {
	at.lock.RLock()
	defer at.lock.RUnlock()
	value, found := at.tree.Search(key)
	if !found {
		return nil
	}
	return value.(*data.LogRecordPos)
}

func (at *ARTIndex) Delete(key []byte) bool {
	at.lock.Lock()
	defer at.lock.Unlock()
	_, deleted := at.tree.Delete(key)
	return deleted
}

func (at *ARTIndex) Size() int {
	at.lock.RLock()
	defer at.lock.RUnlock()
	return at.tree.Size()
}

func (at *ARTIndex) ListKeys() [][]byte {
	at.lock.RLock()
	defer at.lock.RUnlock()
	keys := make([][]byte, 0, at.tree.Size())
	at.tree.ForEach(func(node art.Node) bool {
		keys = append(keys, node.Key())
		return true
	})
	return keys
}

func (at *ARTIndex) Iterator(reverse bool, prefix []byte) IndexIterator {
	at.lock.RLock()
	defer at.lock.RUnlock()

	items := make([]entry, 0, at.tree.Size())
	at.tree.ForEach(func(node art.Node) bool {
		items = append(items, entry{key: node.Key(), pos: node.Value().(*data.LogRecordPos)})
		return true
	})
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return &snapshotIterator{items: items, reverse: reverse, prefix: prefix}
}
