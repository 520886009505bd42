// Package emberdb is an embedded, persistent key-value storage engine
// following the Bitcask model: an append-only log of numbered segment
// files on disk combined with a fully in-memory keydir index. All write
// operations follow the pattern: encode -> append to the active segment ->
// update the keydir.
package emberdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	natomic "github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/emberdb/emberdb/internal/data"
	"github.com/emberdb/emberdb/internal/index"
	"github.com/emberdb/emberdb/internal/logger"
)

// fileLockName is the lock file guarding the directory against a second
// process opening the same database.
const fileLockName = "FLOCK"

// Engine is an opened database instance. It is safe for concurrent use by
// multiple goroutines.
type Engine struct {
	options Options
	log     *zap.Logger

	// mu guards the active segment: exclusive for the whole of an append
	// (including rotation), shared for reads that resolve a location.
	mu         sync.RWMutex
	activeFile *data.DataFile

	// olderMu guards the map of rotated, read-only segments.
	olderMu    sync.RWMutex
	olderFiles map[uint32]*data.DataFile

	index index.Indexer

	// batchMu serializes batch commits so at most one batch is in its
	// append phase at a time.
	batchMu sync.Mutex

	// seqNo holds the next sequence number a batch commit will be stamped
	// with. 1 on a fresh database, max observed + 1 after recovery.
	seqNo atomic.Uint64

	fileLock *flock.Flock

	totalReads  atomic.Int64
	totalWrites atomic.Int64
}

// Stat holds engine statistics.
type Stat struct {
	KeyNum      int
	DataFileNum int
	DiskSize    int64
	TotalReads  int64
	TotalWrites int64
}

// Open validates options, locks the database directory, loads the segment
// files, and replays them to rebuild the keydir before returning a ready
// engine.
func Open(options Options) (*Engine, error) {
	if err := checkOptions(&options); err != nil {
		return nil, err
	}

	log := options.Logger
	if log == nil {
		log = logger.New("emberdb")
	}

	if _, err := os.Stat(options.DirPath); os.IsNotExist(err) {
		if err := os.MkdirAll(options.DirPath, 0755); err != nil {
			return nil, fmt.Errorf("emberdb: failed to create database dir: %w", err)
		}
	}

	fileLock := flock.New(filepath.Join(options.DirPath, fileLockName))
	hold, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("emberdb: failed to lock database dir: %w", err)
	}
	if !hold {
		return nil, ErrDatabaseIsUsing
	}

	e := &Engine{
		options:    options,
		log:        log,
		olderFiles: make(map[uint32]*data.DataFile),
		index:      index.New(options.IndexType),
		fileLock:   fileLock,
	}

	start := time.Now()
	fileIDs, err := e.loadDataFiles()
	if err != nil {
		_ = fileLock.Unlock()
		return nil, err
	}

	maxSeqNo, err := e.loadIndexFromDataFiles(fileIDs)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, err
	}
	e.seqNo.Store(maxSeqNo + 1)

	log.Info("database opened",
		zap.String("dir", options.DirPath),
		zap.Int("segments", len(fileIDs)),
		zap.Int("keys", e.index.Size()),
		zap.Uint64("next_seq_no", e.seqNo.Load()),
		zap.Duration("took", time.Since(start)),
	)
	return e, nil
}

func checkOptions(options *Options) error {
	if options.DirPath == "" {
		return ErrDirPathIsEmpty
	}
	if options.DataFileSize <= 0 {
		return ErrDataFileSizeTooSmall
	}
	if options.IndexType == 0 {
		options.IndexType = BTree
	}
	return nil
}

// loadDataFiles enumerates the ".data" files in the database directory,
// sorts them by file id, and opens them. The highest id becomes the active
// segment; the rest become older segments. An empty directory starts a
// fresh segment with file id 0.
func (e *Engine) loadDataFiles() ([]int, error) {
	entries, err := os.ReadDir(e.options.DirPath)
	if err != nil {
		return nil, fmt.Errorf("emberdb: failed to read database dir: %w", err)
	}

	var fileIDs []int
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), data.DataFileNameSuffix) {
			continue
		}
		fileID, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), data.DataFileNameSuffix))
		if err != nil {
			return nil, ErrDataDirectoryCorrupted
		}
		fileIDs = append(fileIDs, fileID)
	}
	sort.Ints(fileIDs)

	for i, fid := range fileIDs {
		dataFile, err := data.OpenDataFile(e.options.DirPath, uint32(fid))
		if err != nil {
			return nil, fmt.Errorf("emberdb: failed to open data file: %w", err)
		}
		if i == len(fileIDs)-1 {
			e.activeFile = dataFile
		} else {
			e.olderFiles[uint32(fid)] = dataFile
		}
	}

	if e.activeFile == nil {
		dataFile, err := data.OpenDataFile(e.options.DirPath, 0)
		if err != nil {
			return nil, fmt.Errorf("emberdb: failed to open data file: %w", err)
		}
		e.activeFile = dataFile
	}
	return fileIDs, nil
}

// loadIndexFromDataFiles replays every segment in ascending file-id order,
// applying non-transactional records directly and buffering transactional
// ones until their finish marker. It returns the highest sequence number
// seen; batches whose finish marker never appears are dropped.
func (e *Engine) loadIndexFromDataFiles(fileIDs []int) (uint64, error) {
	updateIndex := func(key []byte, typ data.LogRecordType, pos *data.LogRecordPos) error {
		if typ == data.LogRecordDeleted {
			e.index.Delete(key)
			return nil
		}
		if !e.index.Put(key, pos) {
			return ErrIndexUpdateFailed
		}
		return nil
	}

	transactionRecords := make(map[uint64][]*data.TransactionRecord)
	var maxSeqNo uint64

	for i, fid := range fileIDs {
		fileID := uint32(fid)
		dataFile := e.activeFile
		if fileID != e.activeFile.FileID {
			dataFile = e.olderFiles[fileID]
		}

		var offset int64
		for {
			readRecord, err := dataFile.ReadLogRecord(offset)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return 0, err
			}
			record := readRecord.Record
			pos := &data.LogRecordPos{Fid: fileID, Offset: offset}

			realKey, seqNo := data.ParseLogRecordKey(record.Key)
			if seqNo == data.NonTransactionSeqNo {
				if err := updateIndex(realKey, record.Type, pos); err != nil {
					return 0, err
				}
			} else if record.Type == data.LogRecordTxnFinished {
				// The finish marker is the commit point: apply the
				// buffered batch in log order.
				for _, txnRecord := range transactionRecords[seqNo] {
					if err := updateIndex(txnRecord.Record.Key, txnRecord.Record.Type, txnRecord.Pos); err != nil {
						return 0, err
					}
				}
				delete(transactionRecords, seqNo)
			} else {
				record.Key = realKey
				transactionRecords[seqNo] = append(transactionRecords[seqNo], &data.TransactionRecord{
					Record: record,
					Pos:    pos,
				})
			}

			if seqNo > maxSeqNo {
				maxSeqNo = seqNo
			}
			offset += readRecord.Size
		}

		if i == len(fileIDs)-1 {
			e.activeFile.SetWriteOff(offset)
		}
	}

	if len(transactionRecords) > 0 {
		e.log.Warn("dropped unfinished transactions during replay",
			zap.Int("count", len(transactionRecords)))
	}
	return maxSeqNo, nil
}

// Put stores a key-value pair, overwriting any previous value.
func (e *Engine) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	record := &data.LogRecord{
		Key:   data.LogRecordKeyWithSeq(key, data.NonTransactionSeqNo),
		Value: value,
		Type:  data.LogRecordNormal,
	}
	pos, err := e.appendLogRecordWithLock(record)
	if err != nil {
		return err
	}

	if !e.index.Put(key, pos) {
		return ErrIndexUpdateFailed
	}
	e.totalWrites.Add(1)
	return nil
}

// Get retrieves the value stored under key.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrKeyIsEmpty
	}
	e.totalReads.Add(1)

	pos := e.index.Get(key)
	if pos == nil {
		return nil, ErrKeyNotFound
	}
	return e.getValueByPosition(pos)
}

// Delete removes key. Deleting an absent key succeeds without writing a
// tombstone.
func (e *Engine) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}
	if pos := e.index.Get(key); pos == nil {
		return nil
	}

	record := &data.LogRecord{
		Key:  data.LogRecordKeyWithSeq(key, data.NonTransactionSeqNo),
		Type: data.LogRecordDeleted,
	}
	if _, err := e.appendLogRecordWithLock(record); err != nil {
		return err
	}

	if !e.index.Delete(key) {
		return ErrIndexUpdateFailed
	}
	e.totalWrites.Add(1)
	return nil
}

// getValueByPosition reads the record a keydir location points at and
// returns its value.
func (e *Engine) getValueByPosition(pos *data.LogRecordPos) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	dataFile := e.activeFile
	if e.activeFile.FileID != pos.Fid {
		e.olderMu.RLock()
		dataFile = e.olderFiles[pos.Fid]
		e.olderMu.RUnlock()
	}
	if dataFile == nil {
		return nil, ErrDataFileNotFound
	}

	readRecord, err := dataFile.ReadLogRecord(pos.Offset)
	if err != nil {
		return nil, err
	}
	// Tombstones are never indexed; the check is defensive.
	if readRecord.Record.Type == data.LogRecordDeleted {
		return nil, ErrKeyNotFound
	}
	return readRecord.Record.Value, nil
}

// appendLogRecordWithLock appends a record under the active-segment lock.
func (e *Engine) appendLogRecordWithLock(record *data.LogRecord) (*data.LogRecordPos, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.appendLogRecord(record)
}

// appendLogRecord encodes and appends a record to the active segment,
// rotating first if the projected size would exceed the limit. The caller
// must hold the active-segment lock.
func (e *Engine) appendLogRecord(record *data.LogRecord) (*data.LogRecordPos, error) {
	encoded, size := data.EncodeLogRecord(record)

	if e.activeFile.WriteOff+size > e.options.DataFileSize {
		if err := e.activeFile.Sync(); err != nil {
			return nil, err
		}

		currentFid := e.activeFile.FileID
		e.olderMu.Lock()
		e.olderFiles[currentFid] = e.activeFile
		e.olderMu.Unlock()

		newFile, err := data.OpenDataFile(e.options.DirPath, currentFid+1)
		if err != nil {
			return nil, fmt.Errorf("emberdb: failed to open data file: %w", err)
		}
		e.activeFile = newFile
		e.log.Debug("rotated active segment",
			zap.Uint32("old_fid", currentFid),
			zap.Uint32("new_fid", newFile.FileID))
	}

	writeOff := e.activeFile.WriteOff
	if _, err := e.activeFile.Write(encoded); err != nil {
		return nil, err
	}
	if e.options.SyncWrites {
		if err := e.activeFile.Sync(); err != nil {
			return nil, err
		}
	}

	return &data.LogRecordPos{Fid: e.activeFile.FileID, Offset: writeOff}, nil
}

// Sync flushes the active segment to durable storage.
func (e *Engine) Sync() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeFile.Sync()
}

// Close syncs and closes every segment file and releases the directory
// lock.
func (e *Engine) Close() error {
	defer func() {
		_ = e.fileLock.Unlock()
		_ = e.log.Sync()
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeFile.Sync(); err != nil {
		return err
	}
	if err := e.activeFile.Close(); err != nil {
		return fmt.Errorf("emberdb: failed to close data file: %w", err)
	}

	e.olderMu.Lock()
	defer e.olderMu.Unlock()
	for _, dataFile := range e.olderFiles {
		if err := dataFile.Close(); err != nil {
			return fmt.Errorf("emberdb: failed to close data file: %w", err)
		}
	}

	e.log.Info("database closed", zap.String("dir", e.options.DirPath))
	return nil
}

// ListKeys returns a snapshot of every live key in ascending key order.
func (e *Engine) ListKeys() [][]byte {
	return e.index.ListKeys()
}

// Fold calls fn for every key-value pair until fn returns false.
func (e *Engine) Fold(fn func(key, value []byte) bool) error {
	it := e.Iterator(DefaultIteratorOptions())
	for {
		key, value, err := it.Next()
		if err != nil {
			return err
		}
		if key == nil {
			return nil
		}
		if !fn(key, value) {
			return nil
		}
	}
}

// Backup copies every segment file into dir, atomically per file. Appends
// are blocked for the duration, so the copy is a consistent prefix of the
// log and the backup directory is itself openable as a database.
func (e *Engine) Backup(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activeFile.Sync(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("emberdb: failed to create backup dir: %w", err)
	}

	e.olderMu.RLock()
	fileIDs := make([]uint32, 0, len(e.olderFiles)+1)
	for fid := range e.olderFiles {
		fileIDs = append(fileIDs, fid)
	}
	e.olderMu.RUnlock()
	fileIDs = append(fileIDs, e.activeFile.FileID)

	for _, fid := range fileIDs {
		if err := copyDataFile(e.options.DirPath, dir, fid); err != nil {
			return err
		}
	}

	e.log.Info("backup complete",
		zap.String("dir", dir),
		zap.Int("segments", len(fileIDs)))
	return nil
}

func copyDataFile(srcDir, destDir string, fileID uint32) error {
	src, err := os.Open(data.GetDataFileName(srcDir, fileID))
	if err != nil {
		return fmt.Errorf("emberdb: failed to open data file: %w", err)
	}
	defer src.Close()

	if err := natomic.WriteFile(data.GetDataFileName(destDir, fileID), src); err != nil {
		return fmt.Errorf("emberdb: failed to copy data file: %w", err)
	}
	return nil
}

// Stat reports statistics about the opened engine.
func (e *Engine) Stat() Stat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.olderMu.RLock()
	defer e.olderMu.RUnlock()

	var diskSize int64
	if entries, err := os.ReadDir(e.options.DirPath); err == nil {
		for _, entry := range entries {
			if !strings.HasSuffix(entry.Name(), data.DataFileNameSuffix) {
				continue
			}
			if info, err := entry.Info(); err == nil {
				diskSize += info.Size()
			}
		}
	}

	return Stat{
		KeyNum:      e.index.Size(),
		DataFileNum: len(e.olderFiles) + 1,
		DiskSize:    diskSize,
		TotalReads:  e.totalReads.Load(),
		TotalWrites: e.totalWrites.Load(),
	}
}
