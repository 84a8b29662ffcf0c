package ring

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the type of a canonical column.
type Kind int

const (
	KindNumber Kind = iota
	KindText
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// RawRecord is one untyped record as decoded from the API or read from a CSV row.
type RawRecord map[string]any

// Value is a typed table cell. The zero Value is the missing sentinel.
type Value struct {
	kind  Kind
	valid bool
	num   float64
	text  string
	ts    time.Time
}

// Missing returns the missing sentinel.
func Missing() Value { return Value{} }

func Number(f float64) Value { return Value{kind: KindNumber, valid: true, num: f} }

func Text(s string) Value { return Value{kind: KindText, valid: true, text: s} }

func Timestamp(t time.Time) Value { return Value{kind: KindTime, valid: true, ts: t} }

// IsMissing reports whether v is the missing sentinel.
func (v Value) IsMissing() bool { return !v.valid }

func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric value; ok is false for missing or non-numeric cells.
func (v Value) Float() (float64, bool) {
	if !v.valid || v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the instant held by a time cell.
func (v Value) Time() (time.Time, bool) {
	if !v.valid || v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// String renders the cell the way it is written to CSV. Missing renders as "".
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.ts.Format(time.RFC3339Nano)
	default:
		return v.text
	}
}

// Interface returns the cell as a plain Go value for encoders; nil when missing.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindNumber:
		return v.num
	case KindTime:
		return v.ts.Format(time.RFC3339Nano)
	default:
		return v.text
	}
}

// Equal compares kind and content. Instants compare with time.Time.Equal.
func (v Value) Equal(o Value) bool {
	if v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindTime:
		return v.ts.Equal(o.ts)
	default:
		return v.text == o.text
	}
}

// Row is one observation. Date holds the designated date column.
type Row struct {
	Date   time.Time
	Values map[string]Value
}

// Get returns the named cell, or the missing sentinel when absent.
func (r Row) Get(column string) Value {
	if v, ok := r.Values[column]; ok {
		return v
	}
	return Missing()
}

// Table is the canonical, date-ordered representation of one data type.
type Table struct {
	Schema *Schema
	Rows   []Row

	// Dropped counts input rows discarded because their date was missing or unparseable.
	Dropped int
	// Duplicates lists dates that appeared more than once in the input.
	Duplicates []time.Time
	// Extra lists auxiliary columns appended after the schema columns.
	Extra []Column
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Columns returns the full ordered column set: date column, schema columns, extras.
func (t *Table) Columns() []Column {
	cols := make([]Column, 0, len(t.Schema.Columns)+len(t.Extra)+1)
	cols = append(cols, t.Schema.dateColumn())
	cols = append(cols, t.Schema.Columns...)
	return append(cols, t.Extra...)
}

// Column looks up a column by name, including auxiliary columns.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns() {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Series is a numeric column extracted from a table, with missing cells skipped.
type Series struct {
	Column string
	Dates  []time.Time
	Values []float64
	// Rows maps each series position back to its table row.
	Rows []int
}

func (s Series) Len() int { return len(s.Values) }

// Series extracts the named numeric column.
func (t *Table) Series(column string) (Series, error) {
	c, ok := t.Column(column)
	if !ok {
		return Series{}, fmt.Errorf("%w: column %q not in %s", ErrSchemaMismatch, column, t.Schema.DataType)
	}
	if c.Kind != KindNumber {
		return Series{}, fmt.Errorf("%w: column %q is %s, not numeric", ErrInvalidParameter, column, c.Kind)
	}

	s := Series{Column: column}
	for i, r := range t.Rows {
		f, ok := r.Get(column).Float()
		if !ok {
			continue
		}
		s.Dates = append(s.Dates, r.Date)
		s.Values = append(s.Values, f)
		s.Rows = append(s.Rows, i)
	}
	return s, nil
}

// Where returns a copy of t holding only the rows for which keep is true.
func (t *Table) Where(keep func(Row) bool) *Table {
	out := t.shallowCopy()
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

func (t *Table) shallowCopy() *Table {
	out := &Table{
		Schema:  t.Schema,
		Dropped: t.Dropped,
	}
	out.Duplicates = append(out.Duplicates, t.Duplicates...)
	out.Extra = append(out.Extra, t.Extra...)
	return out
}

// Records renders each row as a column name to plain value map, with the date
// in its canonical text form. Missing cells are nil.
func (t *Table) Records() []map[string]any {
	cols := t.Columns()
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]any, len(cols))
		m[cols[0].Name] = formatDate(t.Schema, r.Date)
		for _, c := range cols[1:] {
			m[c.Name] = r.Get(c.Name).Interface()
		}
		out = append(out, m)
	}
	return out
}
