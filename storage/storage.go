package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded images by key and serves back a retrievable path.
type ImageStore interface {
	Store(filename string, r io.Reader) (string, error)
	Delete(key string) error
	URL(key string) string
}

// DiskStore keeps images under a local directory, one subdirectory per kind.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "posts"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

// Store writes the uploaded file under a fresh key and returns the key.
// The original filename only contributes its extension.
func (s *DiskStore) Store(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := filepath.Join("posts", uuid.New().String()+ext)

	f, err := os.Create(filepath.Join(s.baseDir, key))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return key, nil
}

// Delete removes a stored image. A missing file is not an error: the key
// may point at an image already replaced.
func (s *DiskStore) Delete(key string) error {
	err := os.Remove(filepath.Join(s.baseDir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// URL returns the public path the stored key is served from.
func (s *DiskStore) URL(key string) string {
	return "/" + filepath.ToSlash(filepath.Join("uploads", key))
}
