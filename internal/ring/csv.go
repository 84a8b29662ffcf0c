package ring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FromCSV normalizes a CSV export with a header row. Extra columns are ignored,
// absent columns become missing, and rows of any length are accepted.
func (n Normalizer) FromCSV(dataType string, r io.Reader) (*Table, error) {
	schema, err := LookupSchema(dataType)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Schema: schema}, nil
		}
		return nil, fmt.Errorf("%w: failed to read csv header: %v", ErrFileAccess, err)
	}
	for i, h := range headers {
		h = strings.TrimPrefix(h, "\ufeff")
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var (
		records []RawRecord
		bad     int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// An unterminated quote consumes every line up to the error.
				if errors.Is(perr.Err, csv.ErrQuote) && perr.Line > perr.StartLine {
					bad += perr.Line - perr.StartLine + 1
				} else {
					bad++
				}
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrFileAccess, err)
		}
		rec := make(RawRecord, len(headers))
		for i, cell := range row {
			if i >= len(headers) {
				break
			}
			if cell != "" {
				rec[headers[i]] = cell
			}
		}
		records = append(records, rec)
	}

	t, err := n.build(schema, records)
	if err != nil {
		return nil, err
	}
	t.Dropped += bad
	return t, nil
}

// WriteCSV writes the full canonical column set, date first, in schema order,
// followed by any auxiliary columns.
func WriteCSV(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for _, r := range t.Rows {
		record[0] = formatDate(t.Schema, r.Date)
		for i, c := range cols[1:] {
			record[i+1] = r.Get(c.Name).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
