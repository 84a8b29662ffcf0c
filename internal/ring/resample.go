package ring

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Bucket is the mean of a series over [Start, Start+Days).
type Bucket struct {
	Start time.Time
	Days  int
	Mean  float64
	Count int
}

// Label renders the bucket as "YYYY-MM-DD to YYYY-MM-DD" (inclusive end day).
func (b Bucket) Label() string {
	end := b.Start.AddDate(0, 0, b.Days-1)
	return fmt.Sprintf("%s to %s", b.Start.Format(DateLayout), end.Format(DateLayout))
}

// Resample averages s into consecutive buckets of days calendar days, anchored
// at the first date. Buckets without values are omitted.
func Resample(s Series, days int) ([]Bucket, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: resample period must be at least one day, got %d", ErrInvalidParameter, days)
	}
	if s.Len() == 0 {
		return nil, nil
	}

	origin := Day(s.Dates[0])
	var (
		out     []Bucket
		current []float64
		start   time.Time
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, Bucket{Start: start, Days: days, Mean: stat.Mean(current, nil), Count: len(current)})
		}
		current = current[:0]
	}
	for i, d := range s.Dates {
		offset := int(Day(d).Sub(origin).Hours()/24) / days
		bStart := origin.AddDate(0, 0, offset*days)
		if !bStart.Equal(start) {
			flush()
			start = bStart
		}
		current = append(current, s.Values[i])
	}
	flush()
	return out, nil
}
