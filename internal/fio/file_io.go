package fio

import (
	"fmt"
	"os"
)

// FileIO implements IOManager on top of a plain *os.File opened in
// append mode. Positional reads and appending writes may run concurrently;
// callers serialize writes themselves.
type FileIO struct {
	fd *os.File
}

// NewFileIOManager opens (creating if needed) the file at fileName.
func NewFileIOManager(fileName string) (*FileIO, error) {
	fd, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR|os.O_APPEND, DataFilePerm)
	if err != nil {
		return nil, fmt.Errorf("fio: failed to open %s: %w", fileName, err)
	}
	return &FileIO{fd: fd}, nil
}

// Read fills buf from the given offset. A read that runs past the end of
// the file returns the bytes that were available together with io.EOF.
func (f *FileIO) Read(buf []byte, offset int64) (int, error) {
	return f.fd.ReadAt(buf, offset)
}

// Write appends buf to the file.
func (f *FileIO) Write(buf []byte) (int, error) {
	return f.fd.Write(buf)
}

// Sync flushes the file to durable storage.
func (f *FileIO) Sync() error {
	return f.fd.Sync()
}

// Close closes the underlying file.
func (f *FileIO) Close() error {
	return f.fd.Close()
}

// Size reports the current file size.
func (f *FileIO) Size() (int64, error) {
	stat, err := f.fd.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}
