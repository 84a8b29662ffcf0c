package store

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

// ExportName is the file name a data type is exported under.
func ExportName(dataType string) string {
	if schema, err := ring.LookupSchema(dataType); err == nil {
		dataType = string(schema.DataType)
	}
	return dataType + ".csv"
}

// Fallback tries each loader in order and returns the first document found.
// Errors other than ring.ErrFileNotFound stop the search.
type Fallback []ring.Loader

func (f Fallback) Open(dt ring.DataType) (io.ReadCloser, error) {
	err := fmt.Errorf("%w: no loader configured for %s", ring.ErrFileNotFound, dt)
	for _, l := range f {
		rc, openErr := l.Open(dt)
		if openErr == nil {
			return rc, nil
		}
		if !errors.Is(openErr, ring.ErrFileNotFound) {
			return nil, openErr
		}
		err = openErr
	}
	return nil, err
}

// DirPaths maps each data type to its export file inside dir.
func DirPaths(dir string, dataTypes []string) map[string]string {
	paths := make(map[string]string, len(dataTypes))
	for _, dt := range dataTypes {
		paths[dt] = filepath.Join(dir, ExportName(dt))
	}
	return paths
}
