package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Compile-time interface check.
var _ ObjectStore = (*FSStore)(nil)

// FSStore implements ObjectStore over a local directory tree. Keys map to
// file paths relative to Root, always using forward slashes.
type FSStore struct {
	Root string
}

// NewFSStore creates an FSStore rooted at the given directory.
func NewFSStore(root string) *FSStore {
	return &FSStore{Root: root}
}

// List walks the root directory and returns all keys with the given prefix,
// sorted ascending. A missing root yields an empty listing, not an error.
func (s *FSStore) List(prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Read returns the file contents for key, or ErrNotFound.
func (s *FSStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write stores data under key, creating parent directories as needed.
func (s *FSStore) Write(key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}
