package process

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarl005/stripansi"
)

// LogFile is an io.Writer that stores process output on disk without ANSI
// escape sequences. Output is written line by line so that an escape sequence
// split across two writes is still removed; a trailing partial line is flushed
// on Close.
type LogFile struct {
	mu      sync.Mutex
	file    *os.File
	pending []byte
	closed  bool
}

// OpenLogFile creates (or truncates) the file at path, creating parent directories.
func OpenLogFile(path string) (*LogFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", path, err)
	}
	return &LogFile{file: file}, nil
}

// Write implements io.Writer.
func (l *LogFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, fmt.Errorf("log file %s is closed", l.file.Name())
	}

	l.pending = append(l.pending, p...)
	idx := bytes.LastIndexByte(l.pending, '\n')
	if idx < 0 {
		return len(p), nil
	}

	if err := l.writeStripped(l.pending[:idx+1]); err != nil {
		return 0, err
	}
	l.pending = append(l.pending[:0], l.pending[idx+1:]...)
	return len(p), nil
}

// Close flushes any partial line and closes the file. Close is idempotent.
func (l *LogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var flushErr error
	if len(l.pending) > 0 {
		flushErr = l.writeStripped(l.pending)
		l.pending = nil
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	return flushErr
}

func (l *LogFile) writeStripped(b []byte) error {
	_, err := l.file.WriteString(stripansi.Strip(string(b)))
	return err
}
