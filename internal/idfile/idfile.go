// internal/idfile/idfile.go
package idfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Open when another process owns the file.
var ErrLocked = errors.New("idfile: already in use by another process")

// Store is a single decimal uint8 persisted in a flat text file.
// The owning process holds an exclusive lock for the lifetime of the Store;
// no other writer is assumed.
type Store struct {
	path string
	lock *flock.Flock
}

// Open takes ownership of path. The parent directory is created if missing.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("idfile: path required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("idfile: create dir: %w", err)
	}

	lk := flock.New(path + ".lock")
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("idfile: lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	return &Store{path: path, lock: lk}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the stored value. A missing file reads as 0.
func (s *Store) Load() (uint8, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("idfile: read: %w", err)
	}

	text := strings.TrimSpace(string(b))
	if text == "" {
		return 0, nil
	}

	v, err := strconv.ParseUint(text, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("idfile: %s holds %q: %w", s.path, text, err)
	}
	return uint8(v), nil
}

// Store durably replaces the value: temp file, fsync, rename, fsync dir.
// When it returns nil the value survives a crash.
func (s *Store) Store(v uint8) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("idfile: create temp: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(strconv.FormatUint(uint64(v), 10)); err != nil {
		cleanup()
		return fmt.Errorf("idfile: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("idfile: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("idfile: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("idfile: rename: %w", err)
	}

	return syncDir(dir)
}

// Close releases the ownership lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("idfile: open dir: %w", err)
	}
	defer d.Close()

	// Directories cannot be fsync'd on every platform; a failed sync here
	// does not undo the rename.
	_ = d.Sync()
	return nil
}
