package ring

import (
	"errors"
	"testing"
	"time"
)

func sleepTable(t *testing.T, records ...RawRecord) *Table {
	t.Helper()
	tbl, err := Normalizer{}.FromAPI("sleep", records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tbl
}

func TestSleepPhases(t *testing.T) {
	tbl := sleepTable(t,
		RawRecord{"day": "2024-03-02", "bedtime_start": "2024-03-01T23:30:00+00:00", "sleep_phase_5_min": "4219x3"},
		RawRecord{"day": "2024-03-03", "bedtime_start": "2024-03-02T22:00:00+00:00", "sleep_phase_5_min": "44"},
	)

	ps, err := SleepPhases(tbl, date("2024-03-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SleepPhase{PhaseAwake, PhaseLight, PhaseDeep, PhaseUnknown, PhaseUnknown, PhaseREM}
	if len(ps.Phases) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(ps.Phases))
	}
	for i := range want {
		if ps.Phases[i] != want[i] {
			t.Fatalf("bucket %d: expected %s, got %s", i, want[i], ps.Phases[i])
		}
	}
	if got := ps.At(2).UTC().Format(time.RFC3339); got != "2024-03-01T23:40:00Z" {
		t.Fatalf("expected third bucket at 23:40, got %s", got)
	}
}

func TestSleepPhasesErrors(t *testing.T) {
	tbl := sleepTable(t,
		RawRecord{"day": "2024-03-02", "sleep_phase_5_min": "4421"},
		RawRecord{"day": "2024-03-03", "bedtime_start": "2024-03-02T22:00:00+00:00"},
	)
	for _, day := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		if _, err := SleepPhases(tbl, date(day)); !errors.Is(err, ErrEmptySeries) {
			t.Fatalf("%s: expected ErrEmptySeries, got %v", day, err)
		}
	}

	other, _ := Normalizer{}.FromAPI("daily_sleep", nil)
	if _, err := SleepPhases(other, date("2024-03-02")); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestPhaseNames(t *testing.T) {
	if PhaseREM.String() != "REM" || SleepPhase(9).String() != "Unknown" {
		t.Fatalf("unexpected names %q %q", PhaseREM, SleepPhase(9))
	}
	if ParsePhase('0') != PhaseUnknown || ParsePhase('1') != PhaseDeep {
		t.Fatal("unexpected phase codes")
	}
}
