// Package queue discovers test programs in a directory and hands them out in order.
package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"itrun/pkg/logging"
)

// ErrDirectoryNotFound is wrapped when the test directory is missing or is not a directory.
var ErrDirectoryNotFound = errors.New("test directory not found")

// TestEntry is one discovered test program.
type TestEntry struct {
	// Name is the file name, e.g. "insert.js".
	Name string `json:"name"`
	// Kind is the recognized suffix without its leading dot, e.g. "js".
	Kind string `json:"kind"`
	// Path is the test directory joined with Name.
	Path string `json:"path"`
}

// Queue is an ordered, single-consumer sequence of test entries.
// The cursor only moves forward, through Next.
type Queue struct {
	entries []TestEntry
	cursor  int
}

// Build enumerates dir once and keeps the files whose name ends in suffix,
// in the order the directory listing returns them. Other entries, including
// subdirectories, are skipped silently.
func Build(dir, suffix string) (*Queue, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list test directory %s: %w", dir, err)
	}

	kind := strings.TrimPrefix(suffix, ".")
	entries := make([]TestEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if !matches(name, suffix) {
			continue
		}
		path := filepath.Join(dir, name)
		if isDir(de, path) {
			continue
		}
		entries = append(entries, TestEntry{
			Name: name,
			Kind: kind,
			Path: path,
		})
	}

	logging.Debug("Queue", "Discovered %d test(s) with suffix %q in %s", len(entries), suffix, dir)

	return &Queue{entries: entries}, nil
}

// CheckDir returns an error wrapping ErrDirectoryNotFound unless dir exists
// and is a directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryNotFound, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}
	return nil
}

// New returns a queue over the given entries, in order.
func New(entries ...TestEntry) *Queue {
	return &Queue{entries: append([]TestEntry(nil), entries...)}
}

func matches(name, suffix string) bool {
	return len(name) > len(suffix) && strings.HasSuffix(name, suffix)
}

// isDir follows symlinks so that a link to a test file is still a test.
func isDir(de os.DirEntry, path string) bool {
	if de.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return de.IsDir()
}

// Next returns the next entry and advances the cursor.
// Once the queue is exhausted it returns false on every call.
func (q *Queue) Next() (TestEntry, bool) {
	if q.cursor >= len(q.entries) {
		return TestEntry{}, false
	}
	entry := q.entries[q.cursor]
	q.cursor++
	return entry, true
}

// Len returns the total number of entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Remaining returns the number of entries Next has not yet returned.
func (q *Queue) Remaining() int {
	return len(q.entries) - q.cursor
}

// Entries returns a copy of all entries in queue order.
func (q *Queue) Entries() []TestEntry {
	return append([]TestEntry(nil), q.entries...)
}
