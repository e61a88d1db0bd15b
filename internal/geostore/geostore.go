// Package geostore reads geometry files referenced by layer mappings. It never
// writes.
package geostore

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

var ErrNotFound = errors.New("geostore: file not found")

type Store struct {
	fs afero.Fs
}

// New serves files below root on the local disk, read-only.
func New(root string) *Store {
	base := afero.NewBasePathFs(afero.NewOsFs(), root)
	return &Store{fs: afero.NewReadOnlyFs(base)}
}

// NewWithFs wraps any afero filesystem, e.g. afero.NewMemMapFs in tests.
func NewWithFs(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// Read returns the content of the file at rel. Paths are cleaned and may not
// leave the store root.
func (s *Store) Read(rel string) ([]byte, error) {
	if s == nil || s.fs == nil {
		return nil, ErrNotFound
	}
	clean, err := cleanPath(rel)
	if err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(s.fs, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) Exists(rel string) bool {
	if s == nil || s.fs == nil {
		return false
	}
	clean, err := cleanPath(rel)
	if err != nil {
		return false
	}
	info, err := s.fs.Stat(clean)
	return err == nil && !info.IsDir()
}

func cleanPath(rel string) (string, error) {
	rel = strings.TrimSpace(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}
	return clean, nil
}
