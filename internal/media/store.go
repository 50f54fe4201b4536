package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store abstracts where asset bytes live. The database row is the source of
// truth for metadata; the store only holds content.
type Store interface {
	Save(key string, r io.Reader) error
	Delete(key string) error
	Exists(key string) (bool, error)
}

// DiskStore keeps assets as files under a base directory. Keys are UUIDs
// generated by this package, so no path traversal can come in through them,
// but Clean plus a separator check guards the invariant anyway.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the base directory if needed.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", baseDir, err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean != key || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid media key: %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *DiskStore) Save(key string, r io.Reader) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}

func (s *DiskStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

func (s *DiskStore) Exists(key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
