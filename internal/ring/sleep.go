package ring

import (
	"fmt"
	"time"
)

// PhaseBucket is the fixed device resolution of the hypnogram.
const PhaseBucket = 5 * time.Minute

// SleepPhase is one hypnogram code as reported by the ring.
type SleepPhase int

const (
	PhaseUnknown SleepPhase = 0
	PhaseDeep    SleepPhase = 1
	PhaseLight   SleepPhase = 2
	PhaseREM     SleepPhase = 3
	PhaseAwake   SleepPhase = 4
)

var phaseNames = map[SleepPhase]string{
	PhaseDeep:    "Deep Sleep",
	PhaseLight:   "Light Sleep",
	PhaseREM:     "REM",
	PhaseAwake:   "Awake",
	PhaseUnknown: "Unknown",
}

// KnownPhases lists the defined codes in hypnogram order, lowest first.
var KnownPhases = []SleepPhase{PhaseDeep, PhaseLight, PhaseREM, PhaseAwake}

func (p SleepPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return phaseNames[PhaseUnknown]
}

// ParsePhase maps a code digit to a phase; unrecognized input is PhaseUnknown.
func ParsePhase(r rune) SleepPhase {
	p := SleepPhase(r - '0')
	if _, ok := phaseNames[p]; ok {
		return p
	}
	return PhaseUnknown
}

// PhaseSeries is a hypnogram: one phase per PhaseBucket starting at Start.
type PhaseSeries struct {
	Day    time.Time
	Start  time.Time
	Phases []SleepPhase
}

// At returns the start instant of bucket i.
func (p PhaseSeries) At(i int) time.Time {
	return p.Start.Add(time.Duration(i) * PhaseBucket)
}

// SleepPhases extracts the hypnogram recorded for day from a sleep table.
// When several sleep periods share the day, the first one is used.
func SleepPhases(t *Table, day time.Time) (PhaseSeries, error) {
	if t.Schema.DataType != DataSleep {
		return PhaseSeries{}, fmt.Errorf("%w: sleep phases need %s data, got %s", ErrSchemaMismatch, DataSleep, t.Schema.DataType)
	}
	day = Day(day)
	for _, r := range t.Rows {
		if !r.Date.Equal(day) {
			continue
		}
		start, ok := r.Get("bedtime_start").Time()
		if !ok {
			return PhaseSeries{}, fmt.Errorf("%w: no bedtime_start on %s", ErrEmptySeries, day.Format(DateLayout))
		}
		codes := r.Get("sleep_phase_5_min").String()
		ps := PhaseSeries{Day: day, Start: start, Phases: make([]SleepPhase, 0, len(codes))}
		for _, c := range codes {
			ps.Phases = append(ps.Phases, ParsePhase(c))
		}
		if len(ps.Phases) == 0 {
			return PhaseSeries{}, fmt.Errorf("%w: no sleep phases on %s", ErrEmptySeries, day.Format(DateLayout))
		}
		return ps, nil
	}
	return PhaseSeries{}, fmt.Errorf("%w: no sleep record on %s", ErrEmptySeries, day.Format(DateLayout))
}
