// Package chart renders canonical tables as line, stem and hypnogram charts.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

var (
	DefaultWidth  = 18 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

var (
	colorPrimary   = color.RGBA{A: 255}
	colorSecondary = color.RGBA{R: 220, A: 255}
	colorMean      = color.RGBA{B: 220, A: 255}
	colorMean2     = color.RGBA{G: 160, A: 255}
	colorMarker    = color.RGBA{R: 220, A: 255}
	dashes         = []vg.Length{vg.Points(6), vg.Points(4)}
)

// Chart is a rendered figure held in memory until it is saved or written.
type Chart struct {
	Plot    *plot.Plot
	Caption string
	Width   vg.Length
	Height  vg.Length

	// ChangePoints and Anomalies record the overlay positions drawn on the chart.
	ChangePoints []time.Time
	Anomalies    []time.Time
}

// Save writes the chart to path; the format follows the extension
// (png, jpg, svg, pdf, eps, tif).
func (c *Chart) Save(path string) error {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		return fmt.Errorf("%w: chart path %q has no extension", ring.ErrInvalidParameter, path)
	}
	return c.Plot.Save(c.Width, c.Height, path)
}

// WriteTo encodes the chart in the given format.
func (c *Chart) WriteTo(w io.Writer, format string) (int64, error) {
	wt, err := c.Plot.WriterTo(c.Width, c.Height, format)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ring.ErrInvalidParameter, err)
	}
	return wt.WriteTo(w)
}

// Renderer draws charts at a fixed size.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer using the default 18x6 inch canvas.
func NewRenderer() *Renderer {
	return &Renderer{Width: DefaultWidth, Height: DefaultHeight}
}

func (r *Renderer) newChart(title, xLabel, yLabel, caption string) *Chart {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return &Chart{Plot: p, Caption: caption, Width: w, Height: h}
}

func unix(t time.Time) float64 {
	return float64(t.Unix())
}

func addLine(c *Chart, xys plotter.XYs, clr color.Color, width vg.Length, dashed bool, label string) error {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	l.LineStyle.Color = clr
	l.LineStyle.Width = width
	if dashed {
		l.LineStyle.Dashes = dashes
	}
	c.Plot.Add(l)
	if label != "" {
		c.Plot.Legend.Add(label, l)
	}
	return nil
}

func addMean(c *Chart, mean float64, clr color.Color, label string) {
	f := plotter.NewFunction(func(float64) float64 { return mean })
	f.Color = clr
	f.Width = vg.Points(2)
	f.Dashes = dashes
	c.Plot.Add(f)
	c.Plot.Legend.Add(label, f)
}

func bounds(values ...[]float64) (lo, hi float64) {
	first := true
	for _, vs := range values {
		for _, v := range vs {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}
