package data

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/emberdb/emberdb/internal/fio"
)

// DataFileNameSuffix is the extension of every segment file.
const DataFileNameSuffix = ".data"

// ErrInvalidLogRecordCRC indicates a CRC32 mismatch on a decoded record.
var ErrInvalidLogRecordCRC = errors.New("data: invalid log record crc")

// DataFile is one numbered append-only segment of the engine's log.
// WriteOff is the authoritative in-memory length; it only advances on a
// successful append. Access to WriteOff is serialized by the engine's
// active-segment lock.
type DataFile struct {
	FileID    uint32
	WriteOff  int64
	IoManager fio.IOManager
}

// OpenDataFile opens (creating if needed) the segment with the given file
// id inside dirPath.
func OpenDataFile(dirPath string, fileID uint32) (*DataFile, error) {
	fileName := GetDataFileName(dirPath, fileID)
	ioManager, err := fio.NewIOManager(fileName)
	if err != nil {
		return nil, err
	}
	return &DataFile{
		FileID:    fileID,
		IoManager: ioManager,
	}, nil
}

// GetDataFileName returns the on-disk path of a segment: a nine-digit
// zero-padded file id followed by the ".data" suffix.
func GetDataFileName(dirPath string, fileID uint32) string {
	return filepath.Join(dirPath, fmt.Sprintf("%09d%s", fileID, DataFileNameSuffix))
}

// ReadLogRecord decodes the record at the given offset. It returns io.EOF
// when offset is at or past the logical end of the segment, and
// ErrInvalidLogRecordCRC when the stored checksum does not match.
func (df *DataFile) ReadLogRecord(offset int64) (*ReadLogRecord, error) {
	fileSize, err := df.IoManager.Size()
	if err != nil {
		return nil, fmt.Errorf("data: failed to stat data file: %w", err)
	}
	if offset >= fileSize {
		return nil, io.EOF
	}

	// The header is speculative: read up to its maximum size, clipped at
	// the end of the file.
	headerBytes := int64(MaxLogRecordHeaderSize)
	if offset+headerBytes > fileSize {
		headerBytes = fileSize - offset
	}
	headerBuf := make([]byte, headerBytes)
	if _, err := df.IoManager.Read(headerBuf, offset); err != nil {
		return nil, fmt.Errorf("data: failed to read from data file: %w", err)
	}

	header, headerSize := decodeLogRecordHeader(headerBuf)
	if header == nil {
		return nil, io.EOF
	}
	// A zero-length record is never written; hitting one means the scan
	// reached the end of the segment's data.
	if header.keySize == 0 && header.valueSize == 0 {
		return nil, io.EOF
	}

	keySize, valueSize := int64(header.keySize), int64(header.valueSize)
	kvBuf := make([]byte, keySize+valueSize+4)
	if _, err := df.IoManager.Read(kvBuf, offset+headerSize); err != nil {
		return nil, fmt.Errorf("data: failed to read from data file: %w", err)
	}

	record := &LogRecord{
		Key:   kvBuf[:keySize],
		Value: kvBuf[keySize : keySize+valueSize],
		Type:  header.recordType,
	}

	storedCRC := binary.LittleEndian.Uint32(kvBuf[keySize+valueSize:])
	if storedCRC != getLogRecordCRC(headerBuf[:headerSize], record.Key, record.Value) {
		return nil, ErrInvalidLogRecordCRC
	}

	return &ReadLogRecord{
		Record: record,
		Size:   headerSize + keySize + valueSize + 4,
	}, nil
}

// Write appends buf to the segment and advances the write offset by the
// number of bytes written.
func (df *DataFile) Write(buf []byte) (int, error) {
	n, err := df.IoManager.Write(buf)
	if err != nil {
		return 0, fmt.Errorf("data: failed to write to data file: %w", err)
	}
	df.WriteOff += int64(n)
	return n, nil
}

// Sync flushes the segment to durable storage.
func (df *DataFile) Sync() error {
	if err := df.IoManager.Sync(); err != nil {
		return fmt.Errorf("data: failed to sync data file: %w", err)
	}
	return nil
}

// Close releases the segment's file handle.
func (df *DataFile) Close() error {
	return df.IoManager.Close()
}

// SetWriteOff repositions the write offset; recovery uses it after
// replaying the active segment.
func (df *DataFile) SetWriteOff(offset int64) {
	df.WriteOff = offset
}
