package emberdb

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/emberdb/emberdb/internal/index"
)

// IndexerType selects the in-memory keydir backend.
type IndexerType = index.IndexType

const (
	// BTree is the default ordered-tree keydir.
	BTree IndexerType = index.BTree
	// ART keeps the keydir in an adaptive radix tree.
	ART IndexerType = index.ART
)

// Options configures an engine instance.
type Options struct {
	// DirPath is the directory segment files live in.
	DirPath string

	// DataFileSize is the soft per-segment size limit in bytes; the active
	// segment rotates when the next append would exceed it.
	DataFileSize int64

	// SyncWrites fsyncs after every append, including each record of a
	// batch and its finish marker.
	SyncWrites bool

	// IndexType picks the keydir backend.
	IndexType IndexerType

	// Logger receives engine events. Nil means a default production
	// logger.
	Logger *zap.Logger
}

// WriteBatchOptions configures a write batch.
type WriteBatchOptions struct {
	// MaxBatchNum caps the number of buffered operations per commit.
	MaxBatchNum uint

	// SyncWrites fsyncs once at the end of commit.
	SyncWrites bool
}

// IteratorOptions configures engine iteration.
type IteratorOptions struct {
	// Prefix restricts iteration to keys with this prefix; empty means no
	// filter.
	Prefix []byte

	// Reverse iterates in descending key order.
	Reverse bool
}

// DefaultOptions returns a usable engine configuration.
func DefaultOptions() Options {
	return Options{
		DirPath:      filepath.Join(os.TempDir(), "emberdb"),
		DataFileSize: 256 * 1024 * 1024,
		SyncWrites:   false,
		IndexType:    BTree,
	}
}

// DefaultWriteBatchOptions returns the default batch configuration.
func DefaultWriteBatchOptions() WriteBatchOptions {
	return WriteBatchOptions{
		MaxBatchNum: 10000,
		SyncWrites:  true,
	}
}

// DefaultIteratorOptions iterates every key in ascending order.
func DefaultIteratorOptions() IteratorOptions {
	return IteratorOptions{}
}
