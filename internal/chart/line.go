package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

const (
	DefaultAnomalyWindow    = 7
	DefaultAnomalyThreshold = 2.0
)

// LineOptions configures PlotData.
type LineOptions struct {
	Column  string
	Column2 string
	YLabel  string
	Title   string
	Caption string

	// Trends draws change points. NBreakpoints > 0 bounds binary segmentation;
	// otherwise PELT with a log(n) penalty picks the count.
	Trends       bool
	NBreakpoints int

	Anomalies        bool
	AnomalyWindow    int
	AnomalyThreshold float64

	// Days > 1 averages the line over consecutive periods of that many days.
	Days int
}

func (o LineOptions) withDefaults() LineOptions {
	if o.Column == "" {
		o.Column = "score"
	}
	if o.YLabel == "" {
		o.YLabel = "Score"
	}
	if o.Title == "" {
		o.Title = "Data Plot"
	}
	if o.AnomalyWindow == 0 {
		o.AnomalyWindow = DefaultAnomalyWindow
	}
	if o.AnomalyThreshold == 0 {
		o.AnomalyThreshold = DefaultAnomalyThreshold
	}
	return o
}

// PlotData draws one numeric column over the date axis with its mean line and
// optional change point and anomaly overlays.
func (r *Renderer) PlotData(t *ring.Table, opts LineOptions) (*Chart, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing to plot", ring.ErrEmptySeries)
	}
	opts = opts.withDefaults()

	s, err := t.Series(opts.Column)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: column %q has no values", ring.ErrEmptySeries, opts.Column)
	}

	var s2 ring.Series
	if opts.Column2 != "" {
		if s2, err = t.Series(opts.Column2); err != nil {
			return nil, err
		}
	}

	// Overlays are computed before anything is drawn so a bad parameter never
	// yields a half-built chart.
	var cps ring.ChangePointSet
	if opts.Trends {
		if opts.NBreakpoints > 0 {
			cps, err = ring.DetectChangepoints(s.Values, opts.NBreakpoints)
		} else {
			cps, err = ring.DetectChangepointsPenalized(s.Values, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	var anomalies []ring.Anomaly
	if opts.Anomalies {
		if anomalies, err = ring.DetectAnomalies(s.Values, opts.AnomalyWindow, opts.AnomalyThreshold); err != nil {
			return nil, err
		}
	}

	c := r.newChart(opts.Title, "Day", opts.YLabel, opts.Caption)
	c.Plot.X.Tick.Marker = plot.TimeTicks{Format: ring.DateLayout}
	c.Plot.X.Tick.Label.Rotation = math.Pi / 4
	c.Plot.X.Tick.Label.XAlign = draw.XRight

	if opts.Days > 1 {
		if err := r.drawResampled(c, s, opts); err != nil {
			return nil, err
		}
	} else if err := addLine(c, seriesXYs(s), colorPrimary, vg.Points(2), false, "Daily "+opts.Column); err != nil {
		return nil, err
	}
	m := stat.Mean(s.Values, nil)
	addMean(c, m, colorMean, fmt.Sprintf("Mean %s = %.2f", opts.Column, m))

	if s2.Len() > 0 {
		if err := addLine(c, seriesXYs(s2), colorSecondary, vg.Points(2), false, "Daily "+opts.Column2); err != nil {
			return nil, err
		}
		m2 := stat.Mean(s2.Values, nil)
		addMean(c, m2, colorMean2, fmt.Sprintf("Mean %s = %.2f", opts.Column2, m2))
	}

	lo, hi := bounds(s.Values, s2.Values)
	for _, cp := range cps.Interior() {
		at := s.Dates[cp]
		label := ""
		if len(c.ChangePoints) == 0 {
			label = "Change Point"
		}
		xys := plotter.XYs{{X: unix(at), Y: lo}, {X: unix(at), Y: hi}}
		if err := addLine(c, xys, colorMarker, vg.Points(1.5), true, label); err != nil {
			return nil, err
		}
		c.ChangePoints = append(c.ChangePoints, at)
	}

	var points plotter.XYs
	for i, a := range anomalies {
		if a.Anomalous {
			points = append(points, plotter.XY{X: unix(s.Dates[i]), Y: s.Values[i]})
			c.Anomalies = append(c.Anomalies, s.Dates[i])
		}
	}
	if len(points) > 0 {
		sc, err := plotter.NewScatter(points)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = colorMarker
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		c.Plot.Add(sc)
		c.Plot.Legend.Add("Anomalies", sc)
	}
	return c, nil
}

func (r *Renderer) drawResampled(c *Chart, s ring.Series, opts LineOptions) error {
	buckets, err := ring.Resample(s, opts.Days)
	if err != nil {
		return err
	}
	xys := make(plotter.XYs, len(buckets))
	ticks := make([]plot.Tick, len(buckets))
	for i, b := range buckets {
		xys[i] = plotter.XY{X: unix(b.Start), Y: b.Mean}
		ticks[i] = plot.Tick{Value: unix(b.Start), Label: b.Label()}
	}
	c.Plot.X.Tick.Marker = plot.ConstantTicks(ticks)
	return addLine(c, xys, colorPrimary, vg.Points(2), false, fmt.Sprintf("%d-day mean %s", opts.Days, opts.Column))
}

func seriesXYs(s ring.Series) plotter.XYs {
	xys := make(plotter.XYs, s.Len())
	for i := range s.Values {
		xys[i] = plotter.XY{X: unix(s.Dates[i]), Y: s.Values[i]}
	}
	return xys
}
