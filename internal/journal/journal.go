/*
Package journal is the append-only replay log.

A journal file is the plain concatenation of fixed-size records, each a
4-byte call tag followed by the 40-byte order entry image. There is no
header, length prefix or checksum: a reader has to know the layout, and a
book is rebuilt by feeding the records back through the rpc table.
*/
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"market/internal/codec"
	"market/internal/model"
	"market/internal/model/enum"
	"market/pkg/exception"
)

// Journal appends records to one file. It is not safe for concurrent use;
// the publisher goroutine owns it.
type Journal struct {
	path    string
	file    *os.File
	w       io.Writer
	buf     *bufio.Writer
	scratch [codec.RecordSize]byte
	records uint64
	closed  bool
}

// Open creates a new, uniquely named journal file in cfg.Dir. The name is
// derived from the current time.
func Open(cfg Config) (*Journal, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	ts := time.Now().UnixNano()
	for seq := 0; ; seq++ {
		name := fmt.Sprintf("%s_%d.bin", cfg.FilePrefix, ts)
		if seq > 0 {
			name = fmt.Sprintf("%s_%d-%d.bin", cfg.FilePrefix, ts, seq)
		}
		path := filepath.Join(cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, err
		}
		return newJournal(path, file, cfg.BufferSize), nil
	}
}

// Create truncates or creates the journal at path.
func Create(path string, bufferSize int) (*Journal, error) {
	if path == "" {
		return nil, exception.ErrJournalEmptyPath
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return newJournal(path, file, bufferSize), nil
}

func newJournal(path string, file *os.File, bufferSize int) *Journal {
	j := &Journal{path: path, file: file, w: file}
	if bufferSize > 0 {
		j.buf = bufio.NewWriterSize(file, bufferSize)
		j.w = j.buf
	}
	return j
}

// Path returns the file the journal writes to.
func (j *Journal) Path() string {
	return j.path
}

// Records returns the number of records appended so far.
func (j *Journal) Records() uint64 {
	return j.records
}

// Append writes one record.
func (j *Journal) Append(call enum.Call, e model.OrderEntry) error {
	if j.closed {
		return exception.ErrJournalClosed
	}
	rec := codec.EncodeRecord(j.scratch[:0], call, e)
	if _, err := j.w.Write(rec); err != nil {
		return err
	}
	j.records++
	return nil
}

// Flush pushes buffered records to the file.
func (j *Journal) Flush() error {
	if j.closed || j.buf == nil {
		return nil
	}
	return j.buf.Flush()
}

// Close flushes, syncs and closes the file.
func (j *Journal) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	if j.buf != nil {
		if err := j.buf.Flush(); err != nil {
			_ = j.file.Close()
			return err
		}
	}
	if err := j.file.Sync(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
