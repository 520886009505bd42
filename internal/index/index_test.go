package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberdb/emberdb/internal/data"
)

// Every backend must satisfy the same contract, so the suite runs against
// all of them.
func backends(t *testing.T) map[string]Indexer {
	t.Helper()
	return map[string]Indexer{
		"btree": New(BTree),
		"art":   New(ART),
	}
}

func TestIndexer_PutGet(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok := idx.Put([]byte("a"), &data.LogRecordPos{Fid: 1, Offset: 10})
			assert.True(t, ok)

			pos := idx.Get([]byte("a"))
			require.NotNil(t, pos)
			assert.Equal(t, uint32(1), pos.Fid)
			assert.Equal(t, int64(10), pos.Offset)

			// Overwrite wins.
			idx.Put([]byte("a"), &data.LogRecordPos{Fid: 2, Offset: 20})
			pos = idx.Get([]byte("a"))
			require.NotNil(t, pos)
			assert.Equal(t, uint32(2), pos.Fid)

			assert.Nil(t, idx.Get([]byte("missing")))
		})
	}
}

func TestIndexer_Delete(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			idx.Put([]byte("a"), &data.LogRecordPos{Fid: 1, Offset: 0})

			assert.True(t, idx.Delete([]byte("a")))
			assert.Nil(t, idx.Get([]byte("a")))
			assert.False(t, idx.Delete([]byte("a")))
			assert.False(t, idx.Delete([]byte("never-existed")))
		})
	}
}

func TestIndexer_ListKeys(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, idx.ListKeys())

			for _, k := range []string{"banana", "apple", "cherry"} {
				idx.Put([]byte(k), &data.LogRecordPos{Fid: 0, Offset: 0})
			}

			keys := idx.ListKeys()
			require.Len(t, keys, 3)
			assert.Equal(t, []byte("apple"), keys[0])
			assert.Equal(t, []byte("banana"), keys[1])
			assert.Equal(t, []byte("cherry"), keys[2])
			assert.Equal(t, 3, idx.Size())
		})
	}
}

func TestIndexer_Iterator(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 5; i++ {
				key := fmt.Sprintf("key-%d", i)
				idx.Put([]byte(key), &data.LogRecordPos{Fid: 0, Offset: int64(i)})
			}

			it := idx.Iterator(false, nil)
			var got []string
			for key, pos := it.Next(); key != nil; key, pos = it.Next() {
				require.NotNil(t, pos)
				got = append(got, string(key))
			}
			assert.Equal(t, []string{"key-1", "key-2", "key-3", "key-4", "key-5"}, got)

			it = idx.Iterator(true, nil)
			got = got[:0]
			for key, _ := it.Next(); key != nil; key, _ = it.Next() {
				got = append(got, string(key))
			}
			assert.Equal(t, []string{"key-5", "key-4", "key-3", "key-2", "key-1"}, got)
		})
	}
}

func TestIndexer_IteratorPrefix(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"apple", "apricot", "banana"} {
				idx.Put([]byte(k), &data.LogRecordPos{Fid: 0, Offset: 0})
			}

			it := idx.Iterator(false, []byte("ap"))
			var got []string
			for key, _ := it.Next(); key != nil; key, _ = it.Next() {
				got = append(got, string(key))
			}
			assert.Equal(t, []string{"apple", "apricot"}, got)
		})
	}
}

func TestIndexer_IteratorSeekAndRewind(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"a", "c", "e"} {
				idx.Put([]byte(k), &data.LogRecordPos{Fid: 0, Offset: 0})
			}

			it := idx.Iterator(false, nil)
			it.Seek([]byte("b"))
			key, _ := it.Next()
			assert.Equal(t, []byte("c"), key)

			it.Rewind()
			key, _ = it.Next()
			assert.Equal(t, []byte("a"), key)

			rev := idx.Iterator(true, nil)
			rev.Seek([]byte("d"))
			key, _ = rev.Next()
			assert.Equal(t, []byte("c"), key)

			// Seeking past the last element exhausts the iterator.
			it.Seek([]byte("f"))
			key, _ = it.Next()
			assert.Nil(t, key)
		})
	}
}

func TestIndexer_IteratorSnapshot(t *testing.T) {
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			idx.Put([]byte("a"), &data.LogRecordPos{Fid: 0, Offset: 0})
			it := idx.Iterator(false, nil)

			// Mutations after construction are invisible to the snapshot.
			idx.Put([]byte("b"), &data.LogRecordPos{Fid: 0, Offset: 1})
			idx.Delete([]byte("a"))

			key, _ := it.Next()
			assert.Equal(t, []byte("a"), key)
			key, _ = it.Next()
			assert.Nil(t, key)
		})
	}
}
