package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/oura-data-handler/internal/chart"
	"github.com/i474232898/oura-data-handler/internal/handler"
	"github.com/i474232898/oura-data-handler/internal/ring"
	"github.com/i474232898/oura-data-handler/internal/store"
)

// rangeFlags are shared by every command that covers a date range.
type rangeFlags struct {
	dataType string
	source   string
	start    string
	unit     string
	end      string
	trailing bool
}

func (f *rangeFlags) register(cmd *cobra.Command, withType bool) {
	if withType {
		cmd.Flags().StringVar(&f.dataType, "type", "daily_sleep", "data type, e.g. daily_sleep, daily_readiness, heartrate")
	}
	cmd.Flags().StringVar(&f.source, "source", string(ring.SourceAPI), "data source: api or csv")
	cmd.Flags().StringVar(&f.start, "start", "", "first date of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.unit, "unit", string(ring.UnitDay), "range length: day, week, month or year")
	cmd.Flags().StringVar(&f.end, "end", "", "exclusive end date (YYYY-MM-DD); overrides --unit")
	cmd.Flags().BoolVar(&f.trailing, "trailing", false, "cover the unit ending on --start instead of starting on it")
	_ = cmd.MarkFlagRequired("start")
}

func (f rangeFlags) request() handler.Request {
	return handler.Request{
		DataType: f.dataType,
		Start:    f.start,
		Unit:     f.unit,
		End:      f.end,
		Trailing: f.trailing,
	}
}

var (
	fetchFlags rangeFlags
	fetchOut   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a date range from the API and export it as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHandler(nil)
		if err != nil {
			return err
		}
		out := fetchOut
		if out == "" {
			out = store.ExportName(fetchFlags.dataType)
		}
		t, err := h.FetchAndSave(cmd.Context(), fetchFlags.request(), out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", t.Len(), out)
		return nil
	},
}

var (
	loadFlags rangeFlags
	loadOut   string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Read a date range and print or export the canonical CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHandler(nil)
		if err != nil {
			return err
		}
		t, err := h.Get(cmd.Context(), loadFlags.source, loadFlags.request())
		if err != nil {
			return err
		}
		if loadOut != "" {
			return h.Save(t, loadOut)
		}
		return ring.WriteCSV(t, cmd.OutOrStdout())
	},
}

var (
	plotFlags     rangeFlags
	plotOpts      handler.DailyOptions
	plotColumn    string
	plotColumn2   string
	plotDeepSleep bool
	plotOut       string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Chart a numeric column over a date range",
	Long: `Chart a numeric column over a date range with its mean line.

Without --column the daily score is drawn (SpO2 percentage for daily_spo2).
--trends overlays change points, --anomalies marks rolling z-score outliers
and --days averages the line over consecutive N-day periods.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHandler(nil)
		if err != nil {
			return err
		}
		var c *chart.Chart
		switch {
		case plotDeepSleep:
			c, err = h.PlotDeepSleep(cmd.Context(), plotFlags.source, plotFlags.request(), plotOpts.Caption)
		case plotColumn != "":
			var t *ring.Table
			if t, err = h.Get(cmd.Context(), plotFlags.source, plotFlags.request()); err != nil {
				return err
			}
			c, err = h.PlotData(t, chart.LineOptions{
				Column:           plotColumn,
				Column2:          plotColumn2,
				YLabel:           plotColumn,
				Title:            plotColumn + " over time",
				Caption:          plotOpts.Caption,
				Trends:           plotOpts.Trends,
				NBreakpoints:     plotOpts.NBreakpoints,
				Anomalies:        plotOpts.Anomalies,
				AnomalyWindow:    plotOpts.AnomalyWindow,
				AnomalyThreshold: plotOpts.AnomalyThreshold,
				Days:             plotOpts.Days,
			})
		default:
			c, err = h.PlotDaily(cmd.Context(), plotFlags.source, plotFlags.request(), plotOpts)
		}
		if err != nil {
			return err
		}
		return saveChart(cmd, c, plotOut)
	},
}

var (
	phasesSource  string
	phasesDate    string
	phasesCaption string
	phasesOut     string
)

var sleepPhasesCmd = &cobra.Command{
	Use:   "sleep-phases",
	Short: "Chart one night's sleep phases in 5-minute steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHandler(nil)
		if err != nil {
			return err
		}
		c, err := h.PlotSleepPhases(cmd.Context(), phasesSource, phasesDate, phasesCaption)
		if err != nil {
			return err
		}
		return saveChart(cmd, c, phasesOut)
	},
}

var (
	bedtimeFlags   rangeFlags
	bedtimeEdge    string
	bedtimeCaption string
	bedtimeOut     string
)

var bedtimeCmd = &cobra.Command{
	Use:   "bedtime",
	Short: "Chart the hour of day sleep started or ended",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHandler(nil)
		if err != nil {
			return err
		}
		c, err := h.PlotBedtime(cmd.Context(), bedtimeFlags.source, bedtimeFlags.request(), chart.BedtimeEdge(bedtimeEdge), bedtimeCaption)
		if err != nil {
			return err
		}
		return saveChart(cmd, c, bedtimeOut)
	},
}

var (
	hrSource  string
	hrDate    string
	hrFilter  string
	hrCaption string
	hrOut     string
)

var heartRateCmd = &cobra.Command{
	Use:   "heartrate",
	Short: "Chart one day of heart rate samples",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := newHandler(nil)
		if err != nil {
			return err
		}
		c, err := h.PlotHeartRate(cmd.Context(), hrSource, hrDate, chart.HeartRateFilter(hrFilter), hrCaption)
		if err != nil {
			return err
		}
		return saveChart(cmd, c, hrOut)
	},
}

func saveChart(cmd *cobra.Command, c *chart.Chart, out string) error {
	if out == "-" {
		_, err := c.WriteTo(os.Stdout, "png")
		return err
	}
	if err := c.Save(out); err != nil {
		return fmt.Errorf("%w: save chart: %v", ring.ErrFileAccess, err)
	}
	log.Printf("INFO: saved chart to %s", out)
	if c.Caption != "" {
		fmt.Fprintln(cmd.OutOrStdout(), c.Caption)
	}
	return nil
}

func init() {
	fetchFlags.register(fetchCmd, true)
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "output CSV path (default <type>.csv)")

	loadFlags.register(loadCmd, true)
	loadCmd.Flags().StringVar(&loadOut, "out", "", "output CSV path (default stdout)")

	plotFlags.register(plotCmd, true)
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "numeric column to draw instead of the daily score")
	plotCmd.Flags().StringVar(&plotColumn2, "column2", "", "second numeric column to draw on the same axes")
	plotCmd.Flags().BoolVar(&plotDeepSleep, "deep-sleep", false, "draw the daily_sleep deep sleep contributor")
	plotCmd.Flags().StringVar(&plotOpts.Caption, "caption", "", "caption printed after saving")
	plotCmd.Flags().IntVar(&plotOpts.Days, "days", 0, "average over consecutive periods of this many days")
	plotCmd.Flags().BoolVar(&plotOpts.Trends, "trends", false, "overlay change points")
	plotCmd.Flags().IntVar(&plotOpts.NBreakpoints, "n-breakpoints", 0, "number of change points; 0 lets a penalized search decide")
	plotCmd.Flags().BoolVar(&plotOpts.Anomalies, "anomalies", false, "mark rolling z-score anomalies")
	plotCmd.Flags().IntVar(&plotOpts.AnomalyWindow, "window", chart.DefaultAnomalyWindow, "rolling window for anomalies")
	plotCmd.Flags().Float64Var(&plotOpts.AnomalyThreshold, "threshold", chart.DefaultAnomalyThreshold, "z-score threshold for anomalies")
	plotCmd.Flags().StringVar(&plotOut, "out", "plot.png", "output image path; - writes PNG to stdout")

	sleepPhasesCmd.Flags().StringVar(&phasesSource, "source", string(ring.SourceAPI), "data source: api or csv")
	sleepPhasesCmd.Flags().StringVar(&phasesDate, "date", "", "night to draw (YYYY-MM-DD)")
	sleepPhasesCmd.Flags().StringVar(&phasesCaption, "caption", "", "caption printed after saving")
	sleepPhasesCmd.Flags().StringVar(&phasesOut, "out", "sleep_phases.png", "output image path; - writes PNG to stdout")
	_ = sleepPhasesCmd.MarkFlagRequired("date")

	bedtimeFlags.register(bedtimeCmd, false)
	bedtimeCmd.Flags().StringVar(&bedtimeEdge, "edge", string(chart.BedtimeStart), "start or end")
	bedtimeCmd.Flags().StringVar(&bedtimeCaption, "caption", "", "caption printed after saving")
	bedtimeCmd.Flags().StringVar(&bedtimeOut, "out", "bedtime.png", "output image path; - writes PNG to stdout")

	heartRateCmd.Flags().StringVar(&hrSource, "source", string(ring.SourceAPI), "data source: api or csv")
	heartRateCmd.Flags().StringVar(&hrDate, "date", "", "day to draw (YYYY-MM-DD)")
	heartRateCmd.Flags().StringVar(&hrFilter, "filter", string(chart.HeartRateBoth), "both, rest or awake")
	heartRateCmd.Flags().StringVar(&hrCaption, "caption", "", "caption printed after saving")
	heartRateCmd.Flags().StringVar(&hrOut, "out", "heartrate.png", "output image path; - writes PNG to stdout")
	_ = heartRateCmd.MarkFlagRequired("date")
}
