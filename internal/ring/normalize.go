package ring

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DuplicatePolicy decides what happens when two input rows share a date.
type DuplicatePolicy string

const (
	// DuplicateDrop keeps the first row for a date and reports the date.
	DuplicateDrop DuplicatePolicy = "drop"
	// DuplicateKeepLast keeps the last row for a date and reports the date.
	DuplicateKeepLast DuplicatePolicy = "keep_last"
	// DuplicateReject fails normalization on the first duplicate date.
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy maps a config string to a policy; "" means DuplicateDrop.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateDrop, nil
	case DuplicateDrop, DuplicateKeepLast, DuplicateReject:
		return p, nil
	default:
		return "", fmt.Errorf("%w: duplicate policy %q", ErrInvalidParameter, s)
	}
}

// Normalizer converts raw API records and CSV exports into canonical tables.
type Normalizer struct {
	Duplicates DuplicatePolicy
}

// FromAPI normalizes decoded API records. Nested objects are flattened to
// parent_child field names before columns are matched.
func (n Normalizer) FromAPI(dataType string, records []RawRecord) (*Table, error) {
	schema, err := LookupSchema(dataType)
	if err != nil {
		return nil, err
	}
	flat := make([]RawRecord, 0, len(records))
	for _, r := range records {
		out := RawRecord{}
		flatten("", r, out)
		flat = append(flat, out)
	}
	return n.build(schema, flat)
}

func (n Normalizer) build(schema *Schema, records []RawRecord) (*Table, error) {
	t := &Table{Schema: schema}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		date, ok := parseDateCell(schema, rec[schema.DateColumn])
		if !ok {
			t.Dropped++
			continue
		}
		row := Row{Date: date, Values: make(map[string]Value, len(schema.Columns))}
		for _, c := range schema.Columns {
			row.Values[c.Name] = coerce(c.Kind, lookup(rec, c))
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	policy := n.Duplicates
	if policy == "" {
		policy = DuplicateDrop
	}
	t.Rows = make([]Row, 0, len(rows))
	for _, r := range rows {
		last := len(t.Rows) - 1
		if last < 0 || !t.Rows[last].Date.Equal(r.Date) {
			t.Rows = append(t.Rows, r)
			continue
		}
		if policy == DuplicateReject {
			return nil, fmt.Errorf("%w: %s appears more than once in %s",
				ErrDuplicateDate, formatDate(schema, r.Date), schema.DataType)
		}
		if len(t.Duplicates) == 0 || !t.Duplicates[len(t.Duplicates)-1].Equal(r.Date) {
			t.Duplicates = append(t.Duplicates, r.Date)
		}
		if policy == DuplicateKeepLast {
			t.Rows[last] = r
		}
	}
	return t, nil
}

// Filter keeps rows with w.Start <= date < w.End. The input table is not modified.
func Filter(t *Table, w Window) *Table {
	return t.Where(func(r Row) bool { return w.Contains(wallClock(r.Date)) })
}

// wallClock reinterprets t's local date and time as UTC, so an instant is
// matched against day windows by the date it was recorded on.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func flatten(prefix string, in map[string]any, out RawRecord) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "_" + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flatten(key, nested, out)
		case RawRecord:
			flatten(key, nested, out)
		default:
			out[key] = v
		}
	}
}

func lookup(rec RawRecord, c Column) any {
	if v, ok := rec[c.Name]; ok && v != nil {
		return v
	}
	for _, a := range c.Aliases {
		if v, ok := rec[a]; ok && v != nil {
			return v
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseDateCell(schema *Schema, v any) (time.Time, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case time.Time:
		if schema.Instant {
			return x, true
		}
		return Day(x), true
	default:
		return time.Time{}, false
	}
	if schema.Instant {
		return parseTime(s)
	}
	d, err := ParseDate(s)
	return d, err == nil
}

func formatDate(schema *Schema, d time.Time) string {
	if schema.Instant {
		return d.Format(time.RFC3339Nano)
	}
	return d.Format(DateLayout)
}

// coerce maps a raw scalar to the column kind. Anything that does not fit is missing.
func coerce(kind Kind, v any) Value {
	if v == nil {
		return Missing()
	}
	switch kind {
	case KindNumber:
		switch x := v.(type) {
		case float64:
			return Number(x)
		case int:
			return Number(float64(x))
		case int64:
			return Number(float64(x))
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return Number(f)
			}
		case bool:
			if x {
				return Number(1)
			}
			return Number(0)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return Number(f)
			}
		}
	case KindTime:
		switch x := v.(type) {
		case time.Time:
			return Timestamp(x)
		case string:
			if ts, ok := parseTime(x); ok {
				return Timestamp(ts)
			}
		}
	case KindText:
		switch x := v.(type) {
		case string:
			if x != "" {
				return Text(x)
			}
		case json.Number:
			return Text(x.String())
		case float64:
			return Text(strconv.FormatFloat(x, 'f', -1, 64))
		case bool:
			return Text(strconv.FormatBool(x))
		}
	}
	return Missing()
}
