package emberdb

import (
	"fmt"
	"sync"

	"github.com/emberdb/emberdb/internal/data"
)

// txnFinKey is the key of the transaction-finish marker record.
var txnFinKey = []byte("txn-fin")

// WriteBatch buffers put and delete operations and commits them
// atomically: all records of a batch share one sequence number, and a
// trailing finish marker is the commit point recovery honors.
type WriteBatch struct {
	options WriteBatchOptions
	mu      sync.Mutex
	engine  *Engine

	// pendingWrites maps user key to its latest buffered operation;
	// repeats within a batch collapse, last write wins.
	pendingWrites map[string]*data.LogRecord
}

// NewWriteBatch returns an empty batch bound to the engine.
func (e *Engine) NewWriteBatch(options WriteBatchOptions) *WriteBatch {
	return &WriteBatch{
		options:       options,
		engine:        e,
		pendingWrites: make(map[string]*data.LogRecord),
	}
}

// Put buffers a write. Nothing reaches the log or the keydir until Commit.
func (wb *WriteBatch) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.pendingWrites[string(key)] = &data.LogRecord{
		Key:   key,
		Value: value,
		Type:  data.LogRecordNormal,
	}
	return nil
}

// Delete buffers a deletion. A delete of a key that exists neither in the
// keydir nor on disk cancels any pending put for it; the tombstone is
// still buffered so deletes of previously committed keys are durable.
func (wb *WriteBatch) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()

	if wb.engine.index.Get(key) == nil {
		delete(wb.pendingWrites, string(key))
	}
	wb.pendingWrites[string(key)] = &data.LogRecord{
		Key:  key,
		Type: data.LogRecordDeleted,
	}
	return nil
}

// Commit writes every buffered operation to the log under a single
// sequence number, appends the finish marker, optionally syncs, and then
// applies the batch to the keydir. An empty batch is a no-op.
func (wb *WriteBatch) Commit() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if len(wb.pendingWrites) == 0 {
		return nil
	}
	if uint(len(wb.pendingWrites)) > wb.options.MaxBatchNum {
		return ErrExceedMaxBatchNum
	}

	e := wb.engine
	e.batchMu.Lock()
	defer e.batchMu.Unlock()

	seqNo := e.seqNo.Add(1) - 1

	// Holding the active-segment lock across the whole append phase keeps
	// the batch contiguous in the log.
	positions := make(map[string]*data.LogRecordPos)
	if err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		for key, record := range wb.pendingWrites {
			pos, err := e.appendLogRecord(&data.LogRecord{
				Key:   data.LogRecordKeyWithSeq(record.Key, seqNo),
				Value: record.Value,
				Type:  record.Type,
			})
			if err != nil {
				return err
			}
			positions[key] = pos
		}

		finishRecord := &data.LogRecord{
			Key:  data.LogRecordKeyWithSeq(txnFinKey, seqNo),
			Type: data.LogRecordTxnFinished,
		}
		if _, err := e.appendLogRecord(finishRecord); err != nil {
			return err
		}

		if wb.options.SyncWrites {
			if err := e.activeFile.Sync(); err != nil {
				return fmt.Errorf("emberdb: failed to sync data file: %w", err)
			}
		}
		return nil
	}(); err != nil {
		return err
	}

	for key, record := range wb.pendingWrites {
		if record.Type == data.LogRecordDeleted {
			e.index.Delete(record.Key)
			continue
		}
		if !e.index.Put(record.Key, positions[key]) {
			return ErrIndexUpdateFailed
		}
	}
	e.totalWrites.Add(int64(len(wb.pendingWrites)))

	wb.pendingWrites = make(map[string]*data.LogRecord)
	return nil
}
