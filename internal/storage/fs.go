package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore stores images on local disk under a base directory. Files are
// served statically under /uploads by the HTTP router.
type FSStore struct {
	base string
}

// NewFSStore creates the base directory if needed.
func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./uploads"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FSStore{base: base}, nil
}

// Save writes data under key, creating parent directories as needed.
func (s *FSStore) Save(_ context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	dst := filepath.Join(s.base, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return "/uploads/" + strings.TrimPrefix(filepath.ToSlash(key), "/"), nil
}

// DeletePrefix removes the directory tree rooted at prefix.
func (s *FSStore) DeletePrefix(_ context.Context, prefix string) error {
	if prefix == "" || prefix == "." {
		return errors.New("refusing to delete empty prefix")
	}
	return os.RemoveAll(filepath.Join(s.base, filepath.Clean(prefix)))
}
