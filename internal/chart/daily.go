package chart

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

// BedtimeEdge selects which end of the sleep period PlotBedtime shows.
type BedtimeEdge string

const (
	BedtimeStart BedtimeEdge = "start"
	BedtimeEnd   BedtimeEdge = "end"
)

// HeartRateFilter restricts PlotHeartRate to one measurement source.
type HeartRateFilter string

const (
	HeartRateBoth  HeartRateFilter = "both"
	HeartRateRest  HeartRateFilter = "rest"
	HeartRateAwake HeartRateFilter = "awake"
)

func hourOfDay(h, m int) float64 {
	return float64(h) + float64(m)/60
}

// PlotBedtime draws a stem per night at the hour the sleep period started or ended.
func (r *Renderer) PlotBedtime(t *ring.Table, edge BedtimeEdge, caption string) (*Chart, error) {
	var (
		column, title, label string
		clr                  color.Color
	)
	switch edge {
	case BedtimeStart:
		column, title, label, clr = "bedtime_start", "Bedtime Start", "Start Time", colorMean
	case BedtimeEnd:
		column, title, label, clr = "bedtime_end", "Bedtime End", "End Time", colorSecondary
	default:
		return nil, fmt.Errorf("%w: bedtime edge %q", ring.ErrInvalidParameter, edge)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: no sleep data", ring.ErrEmptySeries)
	}

	var heads plotter.XYs
	for _, row := range t.Rows {
		ts, ok := row.Get(column).Time()
		if !ok {
			continue
		}
		heads = append(heads, plotter.XY{X: unix(row.Date), Y: hourOfDay(ts.Hour(), ts.Minute())})
	}
	if len(heads) == 0 {
		return nil, fmt.Errorf("%w: no %s values", ring.ErrEmptySeries, column)
	}

	c := r.newChart(title, "Day", "Time (Hours)", caption)
	c.Plot.X.Tick.Marker = plot.TimeTicks{Format: ring.DateLayout}
	for _, h := range heads {
		if err := addLine(c, plotter.XYs{{X: h.X, Y: 0}, h}, clr, vg.Points(1.5), false, ""); err != nil {
			return nil, err
		}
	}
	sc, err := plotter.NewScatter(heads)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = clr
	sc.GlyphStyle.Radius = vg.Points(4)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	c.Plot.Add(sc)
	c.Plot.Legend.Add(label, sc)
	c.Plot.Y.Min, c.Plot.Y.Max = 0, 24
	return c, nil
}

// PlotHeartRate draws bpm against the hour of day with a mean line.
func (r *Renderer) PlotHeartRate(t *ring.Table, filter HeartRateFilter, caption string) (*Chart, error) {
	switch filter {
	case "", HeartRateBoth, HeartRateRest, HeartRateAwake:
	default:
		return nil, fmt.Errorf("%w: heart rate source %q", ring.ErrInvalidParameter, filter)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: no heart rate data", ring.ErrEmptySeries)
	}

	var (
		xys plotter.XYs
		bpm []float64
	)
	for _, row := range t.Rows {
		if filter == HeartRateRest || filter == HeartRateAwake {
			if row.Get("source").String() != string(filter) {
				continue
			}
		}
		v, ok := row.Get("bpm").Float()
		if !ok {
			continue
		}
		xys = append(xys, plotter.XY{X: hourOfDay(row.Date.Hour(), row.Date.Minute()), Y: v})
		bpm = append(bpm, v)
	}
	if len(xys) == 0 {
		return nil, fmt.Errorf("%w: no heart rate samples for source %q", ring.ErrEmptySeries, filter)
	}

	c := r.newChart("Heart Rate Over Time", "Time (Hours)", "Heart Rate (BPM)", caption)
	if err := addLine(c, xys, colorPrimary, vg.Points(2), false, "Heart Rate"); err != nil {
		return nil, err
	}
	m := stat.Mean(bpm, nil)
	addMean(c, m, colorMean, fmt.Sprintf("Mean Heart Rate = %.2f", m))
	return c, nil
}
