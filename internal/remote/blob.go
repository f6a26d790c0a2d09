package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirBlobStore stores attachment blobs as files under a root directory.
// Paths are slash-separated keys like "<task-id>/<uuid>.png".
type DirBlobStore struct {
	root string
}

// NewDirBlobStore creates the root directory if needed.
func NewDirBlobStore(root string) (*DirBlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &DirBlobStore{root: root}, nil
}

func (s *DirBlobStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes a blob, creating parent directories.
func (s *DirBlobStore) Put(ctx context.Context, path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// Remove deletes a blob. Removing a missing blob is not an error.
func (s *DirBlobStore) Remove(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// URL returns a file URL for the blob.
func (s *DirBlobStore) URL(path string) string {
	full, err := s.resolve(path)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(full)
}
