package emberdb

import (
	"errors"

	"github.com/emberdb/emberdb/internal/data"
)

var (
	// ErrKeyIsEmpty rejects the empty key on any single-key operation.
	ErrKeyIsEmpty = errors.New("emberdb: key is empty")

	// ErrKeyNotFound reports a get on a key the keydir does not hold.
	ErrKeyNotFound = errors.New("emberdb: key not found")

	// ErrIndexUpdateFailed reports a keydir mutation the backend rejected.
	ErrIndexUpdateFailed = errors.New("emberdb: failed to update index")

	// ErrDataFileNotFound reports a keydir location referencing a segment
	// the engine never opened; it indicates corruption or a bug.
	ErrDataFileNotFound = errors.New("emberdb: data file not found")

	// ErrDirPathIsEmpty rejects options without a database directory.
	ErrDirPathIsEmpty = errors.New("emberdb: database dir path is empty")

	// ErrDataFileSizeTooSmall rejects a non-positive segment size limit.
	ErrDataFileSizeTooSmall = errors.New("emberdb: database data file size must be greater than 0")

	// ErrDataDirectoryCorrupted reports a ".data" file whose name does not
	// parse as a file id.
	ErrDataDirectoryCorrupted = errors.New("emberdb: the database directory may be corrupted")

	// ErrExceedMaxBatchNum reports a batch holding more pending operations
	// than its options allow.
	ErrExceedMaxBatchNum = errors.New("emberdb: exceed the max batch num")

	// ErrDatabaseIsUsing reports that another process holds the database
	// directory's file lock.
	ErrDatabaseIsUsing = errors.New("emberdb: the database directory is used by another process")

	// ErrInvalidLogRecordCRC reports a record whose stored checksum does
	// not match its contents.
	ErrInvalidLogRecordCRC = data.ErrInvalidLogRecordCRC
)
