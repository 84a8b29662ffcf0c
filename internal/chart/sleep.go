package chart

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

// PhaseColors is the fixed phase-to-color table. Adding a phase is a data change here.
var PhaseColors = map[ring.SleepPhase]color.RGBA{
	ring.PhaseAwake: {R: 220, A: 255},
	ring.PhaseREM:   {B: 220, A: 255},
	ring.PhaseLight: {G: 160, A: 255},
	ring.PhaseDeep:  {R: 128, B: 128, A: 255},
}

// UnknownPhaseColor is reserved for codes outside the table.
var UnknownPhaseColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}

// PhaseColor looks up the color for a phase, falling back to UnknownPhaseColor.
func PhaseColor(p ring.SleepPhase) color.RGBA {
	if c, ok := PhaseColors[p]; ok {
		return c
	}
	return UnknownPhaseColor
}

// tickEvery is the spacing of time labels on the hypnogram, in buckets.
const tickEvery = 6

// PlotSleepPhases draws the hypnogram of day as one colored segment per
// five-minute bucket.
func (r *Renderer) PlotSleepPhases(t *ring.Table, day time.Time, caption string) (*Chart, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: no sleep data", ring.ErrEmptySeries)
	}
	ps, err := ring.SleepPhases(t, day)
	if err != nil {
		return nil, err
	}

	c := r.newChart(
		fmt.Sprintf("Sleep Phases on %s", ps.Day.Format(ring.DateLayout)),
		"Time (5-minute intervals)", "Sleep Phase", caption)

	seen := make(map[ring.SleepPhase]bool)
	for i, phase := range ps.Phases {
		y := float64(phase)
		l, err := plotter.NewLine(plotter.XYs{{X: float64(i), Y: y}, {X: float64(i + 1), Y: y}})
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = PhaseColor(phase)
		l.LineStyle.Width = vg.Points(10)
		c.Plot.Add(l)
		if !seen[phase] {
			seen[phase] = true
			c.Plot.Legend.Add(phase.String(), l)
		}
	}

	var xticks []plot.Tick
	for i := 0; i <= len(ps.Phases); i += tickEvery {
		xticks = append(xticks, plot.Tick{Value: float64(i), Label: ps.At(i).Format("15:04")})
	}
	c.Plot.X.Tick.Marker = plot.ConstantTicks(xticks)
	c.Plot.X.Tick.Label.Rotation = math.Pi / 4

	yticks := []plot.Tick{{Value: float64(ring.PhaseUnknown), Label: ring.PhaseUnknown.String()}}
	for _, p := range ring.KnownPhases {
		yticks = append(yticks, plot.Tick{Value: float64(p), Label: p.String()})
	}
	c.Plot.Y.Tick.Marker = plot.ConstantTicks(yticks)
	c.Plot.Y.Min, c.Plot.Y.Max = -0.5, float64(ring.PhaseAwake)+0.5
	return c, nil
}
