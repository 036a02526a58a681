package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalStore keeps blobs as plain files under a root directory, sharded by
// the first two characters of the hash.
type LocalStore struct {
	root     string
	capacity int64
}

// NewLocalStore opens (and creates if needed) a blob directory. A zero
// capacity means unbounded.
func NewLocalStore(root string, capacity int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root, capacity: capacity}, nil
}

func (s *LocalStore) Path(hash string) string {
	shard := hash
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(s.root, shard, hash)
}

func (s *LocalStore) Has(hash string) bool {
	info, err := os.Stat(s.Path(hash))
	return err == nil && !info.IsDir()
}

func (s *LocalStore) Add(hash string, r io.Reader) error {
	path := s.Path(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create shard dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp blob: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to place blob: %w", err)
	}
	return nil
}

func (s *LocalStore) AddFile(hash, srcPath string) error {
	path := s.Path(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create shard dir: %w", err)
	}
	if err := os.Rename(srcPath, path); err == nil {
		return nil
	}

	// cross-device move falls back to a copy
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()
	defer os.Remove(srcPath)
	return s.Add(hash, src)
}

func (s *LocalStore) Remove(hash string) error {
	err := os.Remove(s.Path(hash))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

func (s *LocalStore) ModTime(hash string) (time.Time, error) {
	info, err := os.Stat(s.Path(hash))
	if os.IsNotExist(err) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s *LocalStore) Touch(hash string) error {
	now := time.Now()
	return os.Chtimes(s.Path(hash), now, now)
}

func (s *LocalStore) Iterate(fn func(hash, path string) error) error {
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) == ".tmp" {
			return nil
		}
		return fn(d.Name(), path)
	})
}

func (s *LocalStore) Free() (int64, error) {
	if s.capacity <= 0 {
		return int64(^uint64(0) >> 1), nil
	}

	var used int64
	err := s.Iterate(func(_, path string) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		used += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}

	free := s.capacity - used
	if free < 0 {
		free = 0
	}
	return free, nil
}
