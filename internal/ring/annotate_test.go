package ring

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDetectChangepoints(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1, 9, 9, 9, 9, 9, 4, 4, 4, 4}
	cps, err := DetectChangepoints(values, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{5, 10, 14}
	if len(cps) != len(want) {
		t.Fatalf("expected %v, got %v", want, cps)
	}
	for i := range want {
		if cps[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cps)
		}
	}
	if got := cps.Interior(); len(got) != 2 || got[0] != 5 {
		t.Fatalf("unexpected interior %v", got)
	}
}

func TestDetectChangepointsBounds(t *testing.T) {
	if _, err := DetectChangepoints([]float64{1, 2, 3}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := DetectChangepoints([]float64{1, 2, 3}, -1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	cps, err := DetectChangepoints([]float64{1, 2, 3}, 0)
	if err != nil || len(cps) != 1 || cps[0] != 3 {
		t.Fatalf("expected only the terminal index, got %v, %v", cps, err)
	}
	// A flat series has nothing to split.
	cps, _ = DetectChangepoints([]float64{5, 5, 5, 5, 5, 5}, 2)
	if len(cps.Interior()) != 0 {
		t.Fatalf("expected no breakpoints on a flat series, got %v", cps)
	}
}

func TestDetectChangepointsPenalized(t *testing.T) {
	values := []float64{10, 11, 10, 11, 10, 30, 31, 30, 31, 30}
	cps, err := DetectChangepointsPenalized(values, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cps) != 2 || cps[0] != 5 || cps[1] != 10 {
		t.Fatalf("expected [5 10], got %v", cps)
	}
	if _, err := DetectChangepointsPenalized(nil, 0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

// TestDetectAnomaliesWindowBoundary verifies that positions before the
// rolling window fills are never flagged, however extreme.
func TestDetectAnomaliesWindowBoundary(t *testing.T) {
	values := []float64{1000, -1000, 1000, 50, 51, 49, 50, 51, 50, 5}
	out, err := DetectAnomalies(values, 4, 1.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if out[i].Defined || out[i].Anomalous {
			t.Fatalf("position %d must be undefined, got %+v", i, out[i])
		}
	}
	for i := 3; i < len(values); i++ {
		if !out[i].Defined {
			t.Fatalf("position %d must be defined", i)
		}
	}
	if !out[len(values)-1].Anomalous {
		t.Fatalf("expected final drop flagged, got %+v", out[len(values)-1])
	}
	if out[7].Anomalous {
		t.Fatalf("steady value flagged: %+v", out[7])
	}
}

func TestDetectAnomaliesSampleStdDev(t *testing.T) {
	// window [1 2 3]: mean 2, sample std 1, so z for 3 is exactly 1.
	out, err := DetectAnomalies([]float64{1, 2, 3}, 3, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out[2].ZScore-1) > 1e-12 || !out[2].Anomalous {
		t.Fatalf("expected z=1 flagged at 0.5, got %+v", out[2])
	}

	out, _ = DetectAnomalies([]float64{4, 4, 4, 4}, 2, 1)
	for i, a := range out[1:] {
		if a.Anomalous || a.ZScore != 0 {
			t.Fatalf("constant window must not flag, position %d: %+v", i+1, a)
		}
	}
}

func TestDetectAnomaliesParameters(t *testing.T) {
	if _, err := DetectAnomalies([]float64{1, 2}, 1, 2); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for window 1, got %v", err)
	}
	if _, err := DetectAnomalies([]float64{1, 2}, 2, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for threshold 0, got %v", err)
	}
	out, err := DetectAnomalies([]float64{1, 2}, 5, 2)
	if err != nil || len(out) != 2 || out[0].Defined || out[1].Defined {
		t.Fatalf("short series must be all undefined, got %+v, %v", out, err)
	}
}

func TestAnnotate(t *testing.T) {
	in := "day,score\n" +
		"2024-01-01,70\n" +
		"2024-01-02,\n" +
		"2024-01-03,72\n" +
		"2024-01-04,71\n" +
		"2024-01-05,20\n"
	tbl, err := Normalizer{}.FromCSV("daily_readiness", strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, anomalies, err := Annotate(tbl, "score", 3, 1.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 4 {
		t.Fatalf("expected one result per non-missing value, got %d", len(anomalies))
	}
	if _, ok := tbl.Column("score_zscore"); ok {
		t.Fatal("Annotate must not modify its input")
	}
	if _, ok := out.Column("score_anomaly"); !ok {
		t.Fatal("expected score_anomaly column")
	}
	if !out.Rows[1].Get("score_zscore").IsMissing() {
		t.Fatal("row with a missing score must stay unannotated")
	}
	if !out.Rows[2].Get("score_zscore").IsMissing() {
		t.Fatal("row before the window fills must have no z-score")
	}
	if f, _ := out.Rows[4].Get("score_anomaly").Float(); f != 1 {
		t.Fatalf("expected final row flagged, got %v", out.Rows[4].Get("score_anomaly"))
	}

	if _, _, err := Annotate(tbl, "nope", 3, 2); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
