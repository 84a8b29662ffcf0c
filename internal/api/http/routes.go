package httpapi

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/oura-data-handler/internal/chart"
	"github.com/i474232898/oura-data-handler/internal/handler"
	"github.com/i474232898/oura-data-handler/internal/ring"
)

var validate = validator.New()

// Config holds route level defaults.
type Config struct {
	// AnomalyWindow is used when a request names no window.
	AnomalyWindow int
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *handler.DataHandler, cfg Config) {
	if cfg.AnomalyWindow < 2 {
		cfg.AnomalyWindow = chart.DefaultAnomalyWindow
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/data/:type", func(c *fiber.Ctx) error {
		var q tableQuery
		if err := q.bind(c); err != nil {
			return err
		}
		t, err := h.Get(c.UserContext(), q.Source, q.request(c.Params("type")))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(tableResponse(t))
	})

	v1.Get("/plot/:type", func(c *fiber.Ctx) error {
		var q plotQuery
		if err := q.bind(c); err != nil {
			return err
		}
		opts := handler.DailyOptions{
			Caption:          q.Caption,
			Days:             q.Days,
			Trends:           q.Trends,
			NBreakpoints:     q.NBreakpoints,
			Anomalies:        q.Anomalies,
			AnomalyWindow:    q.Window,
			AnomalyThreshold: q.Threshold,
		}
		if opts.AnomalyWindow == 0 {
			opts.AnomalyWindow = cfg.AnomalyWindow
		}
		ch, err := h.PlotDaily(c.UserContext(), q.Source, q.request(c.Params("type")), opts)
		if err != nil {
			return toFiberError(err)
		}
		return sendChart(c, ch)
	})

	v1.Get("/anomalies/:type", func(c *fiber.Ctx) error {
		var q anomalyQuery
		if err := q.bind(c); err != nil {
			return err
		}
		if q.Window == 0 {
			q.Window = cfg.AnomalyWindow
		}
		if q.Threshold == 0 {
			q.Threshold = chart.DefaultAnomalyThreshold
		}
		t, anomalies, err := h.Annotate(c.UserContext(), q.Source, q.request(c.Params("type")), q.Column, q.Window, q.Threshold)
		if err != nil {
			return toFiberError(err)
		}
		flagged := 0
		for _, a := range anomalies {
			if a.Anomalous {
				flagged++
			}
		}
		resp := tableResponse(t)
		resp["window"] = q.Window
		resp["threshold"] = q.Threshold
		resp["anomalies"] = flagged
		return c.JSON(resp)
	})

	v1.Get("/changepoints/:type", func(c *fiber.Ctx) error {
		var q changepointQuery
		if err := q.bind(c); err != nil {
			return err
		}
		s, cps, err := h.Changepoints(c.UserContext(), q.Source, q.request(c.Params("type")), q.Column, q.NBreakpoints)
		if err != nil {
			return toFiberError(err)
		}
		dates := make([]string, 0, len(cps))
		for _, i := range cps.Interior() {
			dates = append(dates, s.Dates[i].Format(ring.DateLayout))
		}
		return c.JSON(fiber.Map{
			"column":        s.Column,
			"length":        s.Len(),
			"breakpoints":   []int(cps),
			"segmentStarts": dates,
		})
	})

	v1.Get("/sleep/phases", func(c *fiber.Ctx) error {
		var q dayQuery
		if err := q.bind(c); err != nil {
			return err
		}
		ch, err := h.PlotSleepPhases(c.UserContext(), q.Source, q.Date, q.Caption)
		if err != nil {
			return toFiberError(err)
		}
		return sendChart(c, ch)
	})

	v1.Get("/bedtime", func(c *fiber.Ctx) error {
		var q bedtimeQuery
		if err := q.bind(c); err != nil {
			return err
		}
		ch, err := h.PlotBedtime(c.UserContext(), q.Source, q.request(""), chart.BedtimeEdge(q.Edge), q.Caption)
		if err != nil {
			return toFiberError(err)
		}
		return sendChart(c, ch)
	})

	v1.Get("/heartrate", func(c *fiber.Ctx) error {
		var q heartRateQuery
		if err := q.bind(c); err != nil {
			return err
		}
		ch, err := h.PlotHeartRate(c.UserContext(), q.Source, q.Date, chart.HeartRateFilter(q.Filter), q.Caption)
		if err != nil {
			return toFiberError(err)
		}
		return sendChart(c, ch)
	})
}

func tableResponse(t *ring.Table) fiber.Map {
	cols := t.Columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return fiber.Map{
		"dataType": t.Schema.DataType,
		"columns":  names,
		"rows":     t.Records(),
		"count":    t.Len(),
	}
}

func sendChart(c *fiber.Ctx, ch *chart.Chart) error {
	var buf bytes.Buffer
	if _, err := ch.WriteTo(&buf, "png"); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
	}
	if ch.Caption != "" {
		c.Set("X-Chart-Caption", ch.Caption)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// toFiberError maps domain errors onto HTTP status codes.
func toFiberError(err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ring.ErrInvalidDate),
		errors.Is(err, ring.ErrInvalidUnit),
		errors.Is(err, ring.ErrInvalidParameter),
		errors.Is(err, ring.ErrInvalidSource),
		errors.Is(err, ring.ErrSchemaMismatch):
		code = fiber.StatusBadRequest
	case errors.Is(err, ring.ErrFileNotFound),
		errors.Is(err, ring.ErrEmptySeries):
		code = fiber.StatusNotFound
	case errors.Is(err, ring.ErrDuplicateDate):
		code = fiber.StatusConflict
	case errors.Is(err, ring.ErrInsufficientData):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, ring.ErrMissingToken):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, ring.ErrNetwork),
		errors.Is(err, ring.ErrMalformedResponse):
		code = fiber.StatusBadGateway
	}
	return fiber.NewError(code, err.Error())
}
