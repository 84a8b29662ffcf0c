package ring

import (
	"context"
	"fmt"
	"io"
)

// Source selects where a table comes from.
type Source string

const (
	SourceAPI Source = "api"
	SourceCSV Source = "csv"
)

// ParseSource accepts "api" or "csv".
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceAPI, SourceCSV:
		return src, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// Fetcher abstracts the remote usercollection API.
type Fetcher interface {
	Fetch(ctx context.Context, schema *Schema, w Window) ([]RawRecord, error)
}

// Loader opens the local CSV export for a data type.
type Loader interface {
	Open(dataType DataType) (io.ReadCloser, error)
}

// Saver creates (or truncates) a named CSV output.
type Saver interface {
	Create(name string) (io.WriteCloser, error)
}
