package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

// FileStore reads CSV exports from configured paths and writes whole files.
// Writes are not locked; concurrent writers to one path can race.
type FileStore struct {
	paths map[ring.DataType]string
	dir   string
}

// NewFileStore maps data type names (any accepted spelling) to file paths.
// Relative output names passed to Create are resolved against dir.
func NewFileStore(paths map[string]string, dir string) (*FileStore, error) {
	s := &FileStore{paths: make(map[ring.DataType]string, len(paths)), dir: dir}
	for name, path := range paths {
		schema, err := ring.LookupSchema(name)
		if err != nil {
			return nil, err
		}
		s.paths[schema.DataType] = path
	}
	return s, nil
}

// Path returns the configured export path for a data type.
func (s *FileStore) Path(dt ring.DataType) (string, bool) {
	p, ok := s.paths[dt]
	return p, ok
}

// Open implements ring.Loader.
func (s *FileStore) Open(dt ring.DataType) (io.ReadCloser, error) {
	path, ok := s.paths[dt]
	if !ok {
		return nil, fmt.Errorf("%w: no local path configured for %s", ring.ErrFileNotFound, dt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	return f, nil
}

// Create implements ring.Saver. Parent directories are created as needed and
// an existing file is truncated.
func (s *FileStore) Create(name string) (io.WriteCloser, error) {
	path := name
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fileError(dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	return f, nil
}

func fileError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ring.ErrFileNotFound, path)
	}
	return fmt.Errorf("%w: %s: %v", ring.ErrFileAccess, path, err)
}
