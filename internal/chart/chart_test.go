package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

func smallRenderer() *Renderer {
	return &Renderer{Width: 4 * vg.Inch, Height: 2 * vg.Inch}
}

func readiness(t *testing.T, csv string) *ring.Table {
	t.Helper()
	tbl, err := ring.Normalizer{}.FromCSV("daily_readiness", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tbl
}

const readinessCSV = "day,score,temperature_deviation\n" +
	"2024-01-01,80,0.1\n" +
	"2024-01-02,81,0.2\n" +
	"2024-01-03,79,0.1\n" +
	"2024-01-04,82,0.0\n" +
	"2024-01-05,80,-0.1\n" +
	"2024-01-06,81,0.1\n" +
	"2024-01-07,40,0.9\n" +
	"2024-01-08,60,0.8\n" +
	"2024-01-09,61,0.7\n" +
	"2024-01-10,59,0.8\n"

func TestPlotDataEmptyWritesNothing(t *testing.T) {
	r := smallRenderer()
	empty := readiness(t, "day,score\n")
	out := filepath.Join(t.TempDir(), "empty.png")

	c, err := r.PlotData(empty, LineOptions{})
	if !errors.Is(err, ring.ErrEmptySeries) || c != nil {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("no file may be created for an empty table")
	}

	noScores := readiness(t, "day,score\n2024-01-01,\n")
	if _, err := r.PlotData(noScores, LineOptions{}); !errors.Is(err, ring.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries for a column without values, got %v", err)
	}
}

func TestPlotDataOverlays(t *testing.T) {
	r := smallRenderer()
	tbl := readiness(t, readinessCSV)

	c, err := r.PlotData(tbl, LineOptions{
		Column2:          "temperature_deviation",
		Caption:          "January",
		Trends:           true,
		NBreakpoints:     1,
		Anomalies:        true,
		AnomalyWindow:    5,
		AnomalyThreshold: 1.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.ChangePoints) != 1 || c.ChangePoints[0].Format(ring.DateLayout) != "2024-01-07" {
		t.Fatalf("expected one change point on 2024-01-07, got %v", c.ChangePoints)
	}
	if len(c.Anomalies) == 0 || c.Anomalies[0].Format(ring.DateLayout) != "2024-01-07" {
		t.Fatalf("expected the drop on 2024-01-07 flagged, got %v", c.Anomalies)
	}
	if c.Caption != "January" {
		t.Fatalf("expected caption to be kept, got %q", c.Caption)
	}

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf, "png"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("expected PNG output")
	}
}

func TestPlotDataRejectsBadOverlay(t *testing.T) {
	r := smallRenderer()
	tbl := readiness(t, "day,score\n2024-01-01,80\n2024-01-02,81\n")

	if _, err := r.PlotData(tbl, LineOptions{Trends: true, NBreakpoints: 5}); !errors.Is(err, ring.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := r.PlotData(tbl, LineOptions{Anomalies: true, AnomalyWindow: 1}); !errors.Is(err, ring.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestPlotDataResampledSave(t *testing.T) {
	r := smallRenderer()
	tbl := readiness(t, readinessCSV)

	c, err := r.PlotData(tbl, LineOptions{Days: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := filepath.Join(t.TempDir(), "weekly.svg")
	if err := c.Save(out); err != nil {
		t.Fatalf("save: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("expected a non-empty file, got %v", err)
	}
	if err := c.Save(filepath.Join(t.TempDir(), "noext")); !errors.Is(err, ring.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for a path without extension, got %v", err)
	}
}

func TestPhaseColor(t *testing.T) {
	if PhaseColor(ring.PhaseREM) != PhaseColors[ring.PhaseREM] {
		t.Fatal("known phase must use the table color")
	}
	if PhaseColor(ring.SleepPhase(7)) != UnknownPhaseColor || PhaseColor(ring.PhaseUnknown) != UnknownPhaseColor {
		t.Fatal("codes outside the table must use the reserved color")
	}
	for p, c := range PhaseColors {
		if c == UnknownPhaseColor {
			t.Fatalf("phase %s reuses the reserved color", p)
		}
	}
}

func sleepTable(t *testing.T) *ring.Table {
	t.Helper()
	tbl, err := ring.Normalizer{}.FromAPI("sleep", []ring.RawRecord{
		{
			"day":               "2024-03-02",
			"bedtime_start":     "2024-03-01T23:30:00+00:00",
			"bedtime_end":       "2024-03-02T07:10:00+00:00",
			"sleep_phase_5_min": "442211223344221130",
		},
		{"day": "2024-03-03", "bedtime_start": "2024-03-03T00:45:00+00:00"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tbl
}

func TestPlotSleepPhases(t *testing.T) {
	r := smallRenderer()
	tbl := sleepTable(t)

	c, err := r.PlotSleepPhases(tbl, tbl.Rows[0].Date, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf, "png"); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := r.PlotSleepPhases(tbl, tbl.Rows[1].Date, ""); !errors.Is(err, ring.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries for a night without phases, got %v", err)
	}
}

func TestPlotBedtime(t *testing.T) {
	r := smallRenderer()
	tbl := sleepTable(t)

	if _, err := r.PlotBedtime(tbl, BedtimeStart, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.PlotBedtime(tbl, BedtimeEnd, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.PlotBedtime(tbl, "middle", ""); !errors.Is(err, ring.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestPlotHeartRate(t *testing.T) {
	r := smallRenderer()
	tbl, err := ring.Normalizer{}.FromAPI("heartrate", []ring.RawRecord{
		{"timestamp": "2024-03-01T01:00:00Z", "bpm": json.Number("52"), "source": "rest"},
		{"timestamp": "2024-03-01T09:30:00Z", "bpm": json.Number("75"), "source": "awake"},
		{"timestamp": "2024-03-01T10:00:00Z", "bpm": json.Number("80"), "source": "awake"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, f := range []HeartRateFilter{HeartRateBoth, HeartRateRest, HeartRateAwake} {
		if _, err := r.PlotHeartRate(tbl, f, ""); err != nil {
			t.Fatalf("%s: unexpected error: %v", f, err)
		}
	}
	if _, err := r.PlotHeartRate(tbl, "workout", ""); !errors.Is(err, ring.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}

	restOnly, _ := ring.Normalizer{}.FromAPI("heartrate", []ring.RawRecord{
		{"timestamp": "2024-03-01T01:00:00Z", "bpm": json.Number("52"), "source": "rest"},
	})
	if _, err := r.PlotHeartRate(restOnly, HeartRateAwake, ""); !errors.Is(err, ring.ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}
