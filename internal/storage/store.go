// Package storage is the local blob store for uploaded documents and
// covers. Refs are paths relative to the store root; the core treats the
// store as opaque (open, exists, save) and never inspects blob contents.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a ref does not resolve to a stored blob.
var ErrNotFound = errors.New("blob not found")

// Store is a filesystem-backed blob store rooted at a single directory.
type Store struct {
	root string
}

// NewStore creates a blob store at the given root directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Save writes a blob under ref atomically (temp file + rename) and
// returns the ref back.
func (s *Store) Save(ref string, r io.Reader) (string, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload_*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	return ref, nil
}

// Open returns a reader over the blob at ref, or ErrNotFound.
func (s *Store) Open(ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Exists reports whether a blob is present at ref.
func (s *Store) Exists(ref string) bool {
	path, err := s.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Path returns the absolute filesystem path for ref. Callers that hand the
// blob to external tooling (PDF parsing, file serving) need the real path.
func (s *Store) Path(ref string) (string, error) {
	return s.resolve(ref)
}

// Remove deletes the blob at ref. Missing blobs are not an error.
func (s *Store) Remove(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// resolve maps a ref onto the root, rejecting refs that would escape it.
func (s *Store) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty blob ref")
	}
	cleaned := filepath.Clean("/" + ref)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid blob ref %q", ref)
	}
	return filepath.Join(s.root, cleaned), nil
}
