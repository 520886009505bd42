package emberdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ListKeys(t *testing.T) {
	e, err := Open(testOptions(t))
	require.NoError(t, err)
	defer e.Close()

	assert.Empty(t, e.ListKeys())

	for _, k := range []string{"xia", "sang", "shi", "wo"} {
		require.NoError(t, e.Put([]byte(k), []byte("v")))
	}

	keys := e.ListKeys()
	require.Len(t, keys, 4)
	assert.Equal(t, []byte("sang"), keys[0])
	assert.Equal(t, []byte("shi"), keys[1])
	assert.Equal(t, []byte("wo"), keys[2])
	assert.Equal(t, []byte("xia"), keys[3])
}

func TestEngine_Iterator(t *testing.T) {
	e, err := Open(testOptions(t))
	require.NoError(t, err)
	defer e.Close()

	it := e.Iterator(DefaultIteratorOptions())
	key, _, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, key)

	require.NoError(t, e.Put([]byte("b"), []byte("2")))
	require.NoError(t, e.Put([]byte("a"), []byte("1")))
	require.NoError(t, e.Put([]byte("c"), []byte("3")))

	it = e.Iterator(DefaultIteratorOptions())
	var keys, values []string
	for {
		key, value, err := it.Next()
		require.NoError(t, err)
		if key == nil {
			break
		}
		keys = append(keys, string(key))
		values = append(values, string(value))
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []string{"1", "2", "3"}, values)
}

func TestEngine_IteratorReverse(t *testing.T) {
	e, err := Open(testOptions(t))
	require.NoError(t, err)
	defer e.Close()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, e.Put([]byte(k), []byte(k)))
	}

	it := e.Iterator(IteratorOptions{Reverse: true})
	var keys []string
	for {
		key, _, err := it.Next()
		require.NoError(t, err)
		if key == nil {
			break
		}
		keys = append(keys, string(key))
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}

func TestEngine_IteratorPrefix(t *testing.T) {
	e, err := Open(testOptions(t))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Put([]byte("apple"), []byte("1")))
	require.NoError(t, e.Put([]byte("apricot"), []byte("2")))
	require.NoError(t, e.Put([]byte("banana"), []byte("3")))

	it := e.Iterator(IteratorOptions{Prefix: []byte("ap")})

	key, value, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("apple"), key)
	assert.Equal(t, []byte("1"), value)

	key, value, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("apricot"), key)
	assert.Equal(t, []byte("2"), value)

	key, _, err = it.Next()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestEngine_IteratorSeekAndRewind(t *testing.T) {
	e, err := Open(testOptions(t))
	require.NoError(t, err)
	defer e.Close()

	for _, k := range []string{"1", "2", "3", "4"} {
		require.NoError(t, e.Put([]byte(k), []byte(k)))
	}

	it := e.Iterator(DefaultIteratorOptions())
	it.Seek([]byte("3"))
	key, _, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), key)

	it.Rewind()
	key, _, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), key)
}

func TestEngine_Fold(t *testing.T) {
	e, err := Open(testOptions(t))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Put([]byte("a"), []byte("1")))
	require.NoError(t, e.Put([]byte("b"), []byte("2")))
	require.NoError(t, e.Put([]byte("c"), []byte("3")))

	var visited []string
	require.NoError(t, e.Fold(func(key, value []byte) bool {
		visited = append(visited, string(key)+"="+string(value))
		return true
	}))
	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, visited)

	// Returning false stops the fold early.
	visited = visited[:0]
	require.NoError(t, e.Fold(func(key, value []byte) bool {
		visited = append(visited, string(key))
		return false
	}))
	assert.Equal(t, []string{"a"}, visited)
}
