package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs on the local filesystem under a base directory.
// The router serves that directory under /media/.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) *FSStore {
	return &FSStore{baseDir: baseDir}
}

func (s *FSStore) Save(_ context.Context, key, _ string, r io.Reader) error {
	full, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("media mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("media create: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("media write: %w", err)
	}
	return nil
}

func (s *FSStore) Remove(_ context.Context, key string) error {
	full, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media remove: %w", err)
	}
	return nil
}

func (s *FSStore) URL(key string) string {
	return "/media/" + key
}

// Dir exposes the base directory for static serving.
func (s *FSStore) Dir() string { return s.baseDir }

// pathFor rejects keys escaping the base directory.
func (s *FSStore) pathFor(key string) (string, error) {
	if strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", fmt.Errorf("media: bad key %q", key)
	}
	return filepath.Join(s.baseDir, filepath.Clean(key)), nil
}
