package httpapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/oura-data-handler/internal/handler"
	"github.com/i474232898/oura-data-handler/internal/ring"
)

// tableQuery holds the parameters shared by every range endpoint.
type tableQuery struct {
	Source   string `validate:"oneof=api csv"`
	Start    string `validate:"required"`
	Unit     string `validate:"omitempty,oneof=day week month year"`
	End      string
	Trailing bool
}

func (q *tableQuery) bind(c *fiber.Ctx) error {
	q.Source = c.Query("source", string(ring.SourceAPI))
	q.Start = c.Query("start")
	q.Unit = strings.ToLower(strings.TrimSpace(c.Query("unit", string(ring.UnitDay))))
	q.End = c.Query("end")

	trailing, err := queryBool(c, "trailing")
	if err != nil {
		return err
	}
	q.Trailing = trailing

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func (q tableQuery) request(dataType string) handler.Request {
	return handler.Request{
		DataType: dataType,
		Start:    q.Start,
		Unit:     q.Unit,
		End:      q.End,
		Trailing: q.Trailing,
	}
}

// plotQuery holds the parameters of the daily chart endpoint.
type plotQuery struct {
	tableQuery
	Caption      string
	Days         int `validate:"gte=0"`
	Trends       bool
	NBreakpoints int `validate:"gte=0"`
	Anomalies    bool
	Window       int     `validate:"omitempty,gte=2"`
	Threshold    float64 `validate:"gte=0"`
}

func (q *plotQuery) bind(c *fiber.Ctx) error {
	if err := q.tableQuery.bind(c); err != nil {
		return err
	}
	q.Caption = c.Query("caption")

	var err error
	if q.Days, err = queryInt(c, "days"); err != nil {
		return err
	}
	if q.Trends, err = queryBool(c, "trends"); err != nil {
		return err
	}
	if q.NBreakpoints, err = queryInt(c, "n_breakpoints"); err != nil {
		return err
	}
	if q.Anomalies, err = queryBool(c, "anomalies"); err != nil {
		return err
	}
	if q.Window, err = queryInt(c, "window"); err != nil {
		return err
	}
	if q.Threshold, err = queryFloat(c, "threshold"); err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// anomalyQuery holds the parameters of the rolling z-score endpoint.
type anomalyQuery struct {
	tableQuery
	Column    string  `validate:"required"`
	Window    int     `validate:"omitempty,gte=2"`
	Threshold float64 `validate:"gte=0"`
}

func (q *anomalyQuery) bind(c *fiber.Ctx) error {
	if err := q.tableQuery.bind(c); err != nil {
		return err
	}
	q.Column = c.Query("column", "score")

	var err error
	if q.Window, err = queryInt(c, "window"); err != nil {
		return err
	}
	if q.Threshold, err = queryFloat(c, "threshold"); err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// changepointQuery holds the parameters of the segmentation endpoint.
type changepointQuery struct {
	tableQuery
	Column string `validate:"required"`
	// NBreakpoints of 0 lets the penalized search pick the count.
	NBreakpoints int `validate:"gte=0"`
}

func (q *changepointQuery) bind(c *fiber.Ctx) error {
	if err := q.tableQuery.bind(c); err != nil {
		return err
	}
	q.Column = c.Query("column", "score")

	var err error
	if q.NBreakpoints, err = queryInt(c, "n_breakpoints"); err != nil {
		return err
	}

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// dayQuery holds the parameters of single-day chart endpoints.
type dayQuery struct {
	Source  string `validate:"oneof=api csv"`
	Date    string `validate:"required"`
	Caption string
}

func (q *dayQuery) bind(c *fiber.Ctx) error {
	q.Source = c.Query("source", string(ring.SourceAPI))
	q.Date = c.Query("date")
	q.Caption = c.Query("caption")

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

type bedtimeQuery struct {
	tableQuery
	Edge    string `validate:"oneof=start end"`
	Caption string
}

func (q *bedtimeQuery) bind(c *fiber.Ctx) error {
	if err := q.tableQuery.bind(c); err != nil {
		return err
	}
	q.Edge = c.Query("edge", "start")
	q.Caption = c.Query("caption")

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

type heartRateQuery struct {
	dayQuery
	Filter string `validate:"oneof=both rest awake"`
}

func (q *heartRateQuery) bind(c *fiber.Ctx) error {
	if err := q.dayQuery.bind(c); err != nil {
		return err
	}
	q.Filter = c.Query("filter", "both")

	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be an integer", key))
	}
	return n, nil
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be a number", key))
	}
	return f, nil
}

func queryBool(c *fiber.Ctx, key string) (bool, error) {
	s := c.Query(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be a boolean", key))
	}
	return b, nil
}
