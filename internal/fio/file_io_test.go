package fio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIO_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "000000001.data")
	f, err := NewFileIOManager(path)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte(" world"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	buf := make([]byte, 5)
	n, err = f.Read(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), buf)

	buf = make([]byte, 6)
	_, err = f.Read(buf, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte(" world"), buf)
}

func TestFileIO_Size(t *testing.T) {
	path := filepath.Join(t.TempDir(), "size.data")
	f, err := NewFileIOManager(path)
	require.NoError(t, err)
	defer f.Close()

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)

	size, err = f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}

func TestFileIO_Sync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.data")
	f, err := NewFileIOManager(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("durable"))
	require.NoError(t, err)
	assert.NoError(t, f.Sync())
}
