package handler

import (
	"context"
	"fmt"

	"github.com/i474232898/oura-data-handler/internal/chart"
	"github.com/i474232898/oura-data-handler/internal/common"
	"github.com/i474232898/oura-data-handler/internal/ring"
)

// DailyOptions configures PlotDaily.
type DailyOptions struct {
	Caption string
	// Days > 1 averages the line over consecutive periods of that many days.
	Days int

	Trends       bool
	NBreakpoints int

	Anomalies        bool
	AnomalyWindow    int
	AnomalyThreshold float64
}

// DailyColumn is the column PlotDaily draws for a data type.
func DailyColumn(dt ring.DataType) string {
	if dt == ring.DataDailySpO2 {
		return "spo2_percentage"
	}
	return "score"
}

// PlotData renders an already obtained table.
func (h *DataHandler) PlotData(t *ring.Table, opts chart.LineOptions) (*chart.Chart, error) {
	c, err := h.renderer.PlotData(t, opts)
	return h.observeChart("line", c, err)
}

// PlotDaily draws the daily score (SpO2 percentage for daily_spo2) of a data type.
func (h *DataHandler) PlotDaily(ctx context.Context, source string, req Request, opts DailyOptions) (*chart.Chart, error) {
	t, err := h.Get(ctx, source, req)
	if err != nil {
		return nil, err
	}
	name := common.Humanize(string(t.Schema.DataType))
	column := DailyColumn(t.Schema.DataType)
	yLabel := name + " Score"
	if opts.Days > 1 {
		yLabel = name + " " + column
	}
	return h.PlotData(t, chart.LineOptions{
		Column:           column,
		YLabel:           yLabel,
		Title:            "Daily " + name,
		Caption:          opts.Caption,
		Trends:           opts.Trends,
		NBreakpoints:     opts.NBreakpoints,
		Anomalies:        opts.Anomalies,
		AnomalyWindow:    opts.AnomalyWindow,
		AnomalyThreshold: opts.AnomalyThreshold,
		Days:             opts.Days,
	})
}

// PlotDeepSleep draws the deep sleep contributor of daily_sleep.
func (h *DataHandler) PlotDeepSleep(ctx context.Context, source string, req Request, caption string) (*chart.Chart, error) {
	req.DataType = string(ring.DataDailySleep)
	t, err := h.Get(ctx, source, req)
	if err != nil {
		return nil, err
	}
	return h.PlotData(t, chart.LineOptions{
		Column:  "contributors_deep_sleep",
		YLabel:  "Deep Sleep Duration",
		Title:   "Deep Sleep Duration Over Time",
		Caption: caption,
	})
}

// PlotSleepPhases draws the hypnogram for one night.
func (h *DataHandler) PlotSleepPhases(ctx context.Context, source, date, caption string) (*chart.Chart, error) {
	req := dayRequest(string(ring.DataSleep), date)
	w, err := req.Window()
	if err != nil {
		return nil, err
	}
	t, err := h.Get(ctx, source, req)
	if err != nil {
		return nil, err
	}
	c, err := h.renderer.PlotSleepPhases(t, w.Start, caption)
	return h.observeChart("sleep_phases", c, err)
}

// PlotBedtime draws bedtime start or end hours over the requested range.
func (h *DataHandler) PlotBedtime(ctx context.Context, source string, req Request, edge chart.BedtimeEdge, caption string) (*chart.Chart, error) {
	if edge != chart.BedtimeStart && edge != chart.BedtimeEnd {
		return nil, fmt.Errorf("%w: bedtime edge %q", ring.ErrInvalidParameter, edge)
	}
	req.DataType = string(ring.DataSleep)
	t, err := h.Get(ctx, source, req)
	if err != nil {
		return nil, err
	}
	c, err := h.renderer.PlotBedtime(t, edge, caption)
	return h.observeChart("bedtime", c, err)
}

// PlotHeartRate draws one day of heart rate samples.
func (h *DataHandler) PlotHeartRate(ctx context.Context, source, date string, filter chart.HeartRateFilter, caption string) (*chart.Chart, error) {
	t, err := h.Get(ctx, source, dayRequest(string(ring.DataHeartRate), date))
	if err != nil {
		return nil, err
	}
	c, err := h.renderer.PlotHeartRate(t, filter, caption)
	return h.observeChart("heart_rate", c, err)
}
