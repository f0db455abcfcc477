package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// CompletionStore is the source of truth for which (genome, step)
// pairs are Done. The executor depends only on this interface so the
// file-backed store can be swapped without touching the scheduler.
type CompletionStore interface {
	// IsDone reports whether the pair has a completion record
	IsDone(unit, step string) bool

	// MarkDone records the pair as complete. Must be atomic: a
	// concurrent reader never observes a half-written record
	MarkDone(unit, step string) error
}

// FileStore tracks completion with zero-content sentinel files, one
// per (genome, step) pair. Existence is the whole contract: contents
// are never inspected.
type FileStore struct {
	// Dir holds the sentinel files
	Dir string
}

// NewFileStore creates the sentinel directory if needed and returns a
// store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sentinel dir %s: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

// Path returns the sentinel path for a (genome, step) pair.
func (s *FileStore) Path(unit, step string) string {
	return filepath.Join(s.Dir, step+"-"+unit+".done")
}

// IsDone reports whether the pair's sentinel exists.
func (s *FileStore) IsDone(unit, step string) bool {
	_, err := os.Stat(s.Path(unit, step))
	return err == nil
}

// MarkDone creates the pair's sentinel. The file is written to a
// temporary name first and renamed into place so the sentinel appears
// atomically.
func (s *FileStore) MarkDone(unit, step string) error {
	tmp, err := os.CreateTemp(s.Dir, "."+step+"-"+unit+".*")
	if err != nil {
		return fmt.Errorf("failed to create sentinel for %s/%s: %w", step, unit, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.Path(unit, step)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write sentinel for %s/%s: %w", step, unit, err)
	}
	return nil
}

// Clear removes every sentinel in the store. Used only by the cleanup
// command.
func (s *FileStore) Clear() (removed int, err error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*.done"))
	if err != nil {
		return 0, err
	}

	for _, sentinel := range matches {
		if err := os.Remove(sentinel); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
