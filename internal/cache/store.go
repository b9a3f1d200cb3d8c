// Package cache manages the local working directory the pipeline downloads
// tracks into before sorting and re-uploading them.
package cache

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store is a flat directory of cached tracks. Object keys map to stable local
// filenames so repeated downloads of the same key overwrite rather than pile up.
type Store struct {
	fs         afero.Fs
	dir        string
	persistent bool
}

// NewStore creates a Store rooted at dir, creating the directory if absent.
func NewStore(filesystem afero.Fs, dir string, persistent bool) (*Store, error) {
	if err := filesystem.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w\nCheck the [cache] directory setting and its permissions", dir, err)
	}

	return &Store{
		fs:         filesystem,
		dir:        dir,
		persistent: persistent,
	}, nil
}

// Dir returns the cache directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Persistent reports whether the cache should survive between runs.
func (s *Store) Persistent() bool {
	return s.persistent
}

// LocalName derives the cache filename for an object key. Names are
// uuid5(OID, key) so they are stable across runs and safe regardless of any
// directory structure in the key.
func (s *Store) LocalName(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String() + ".mp3"
}

// Create opens a cache file for the given object key, truncating any
// previous download of the same key.
func (s *Store) Create(key string) (afero.File, error) {
	name := filepath.Join(s.dir, s.LocalName(key))
	file, err := s.fs.Create(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache file %q: %w", name, err)
	}
	return file, nil
}

// Open opens a cached track by its filename within the cache directory.
func (s *Store) Open(name string) (afero.File, error) {
	path := filepath.Join(s.dir, name)
	file, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cached track %q: %w", path, err)
	}
	return file, nil
}

// List walks the cache directory and returns the filenames of all cached
// tracks, relative to the cache root.
func (s *Store) List() ([]string, error) {
	var names []string
	err := afero.Walk(s.fs, s.dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(info.Name(), ".mp3") {
			names = append(names, info.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk cache directory %q: %w", s.dir, err)
	}
	return names, nil
}

// Wipe removes the cache directory and everything in it. Callers decide
// whether to wipe based on Persistent.
func (s *Store) Wipe() error {
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to erase cache directory %q: %w", s.dir, err)
	}
	return nil
}
