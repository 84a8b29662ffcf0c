package ring

import (
	"errors"
	"testing"
)

func TestResample(t *testing.T) {
	s := Series{
		Column: "score",
		Dates:  dates("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05", "2024-01-08"),
		Values: []float64{60, 70, 80, 90, 10},
	}
	buckets, err := Resample(s, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Mean != 70 || buckets[0].Count != 3 {
		t.Fatalf("unexpected first bucket %+v", buckets[0])
	}
	if buckets[1].Label() != "2024-01-04 to 2024-01-06" || buckets[1].Mean != 90 {
		t.Fatalf("unexpected second bucket %s %+v", buckets[1].Label(), buckets[1])
	}
	if !buckets[2].Start.Equal(date("2024-01-07")) {
		t.Fatalf("expected third bucket anchored on 2024-01-07, got %s", buckets[2].Start)
	}
}

func TestResampleInvalidPeriod(t *testing.T) {
	if _, err := Resample(Series{}, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	buckets, err := Resample(Series{}, 7)
	if err != nil || buckets != nil {
		t.Fatalf("expected no buckets for an empty series, got %v, %v", buckets, err)
	}
}
