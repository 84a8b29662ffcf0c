package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/oura-data-handler/internal/chart"
	"github.com/i474232898/oura-data-handler/internal/ring"
	"github.com/i474232898/oura-data-handler/internal/ring/providers"
	"github.com/i474232898/oura-data-handler/internal/store"
)

var validate = validator.New()

// Options is the construction-time configuration of a DataHandler.
type Options struct {
	APIAddress  string `validate:"required,url"`
	AccessToken string
	// DataPaths maps data type names to local CSV exports.
	DataPaths map[string]string
	// OutputDir resolves relative Save names; empty means the working directory.
	OutputDir  string
	Duplicates ring.DuplicatePolicy
}

// Recorder receives outcome counts; observability.Metrics implements it.
type Recorder interface {
	ObserveTable(dataType, source string, dropped, duplicates int, err error)
	ObserveChart(kind string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTable(string, string, int, int, error) {}
func (nopRecorder) ObserveChart(string, error)                   {}

// Collaborators are the boundaries a DataHandler composes. Tests substitute fakes.
type Collaborators struct {
	Fetcher  ring.Fetcher
	Loader   ring.Loader
	Saver    ring.Saver
	Renderer *chart.Renderer
	Recorder Recorder
}

// DataHandler resolves windows, obtains tables from the API or CSV exports and
// hands them to the annotator, the CSV writer or the renderer.
type DataHandler struct {
	fetcher    ring.Fetcher
	loader     ring.Loader
	saver      ring.Saver
	renderer   *chart.Renderer
	recorder   Recorder
	normalizer ring.Normalizer
}

// New composes a DataHandler from explicit collaborators.
func New(c Collaborators, duplicates ring.DuplicatePolicy) *DataHandler {
	if duplicates == "" {
		duplicates = ring.DuplicateDrop
	}
	h := &DataHandler{
		fetcher:    c.Fetcher,
		loader:     c.Loader,
		saver:      c.Saver,
		renderer:   c.Renderer,
		recorder:   c.Recorder,
		normalizer: ring.Normalizer{Duplicates: duplicates},
	}
	if h.renderer == nil {
		h.renderer = chart.NewRenderer()
	}
	if h.recorder == nil {
		h.recorder = nopRecorder{}
	}
	return h
}

// NewFromOptions wires the Oura API provider and the file store.
func NewFromOptions(opts Options, client *http.Client, rec Recorder) (*DataHandler, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ring.ErrInvalidParameter, err)
	}
	files, err := store.NewFileStore(opts.DataPaths, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	return New(Collaborators{
		Fetcher:  providers.NewOuraProvider(client, opts.APIAddress, opts.AccessToken),
		Loader:   files,
		Saver:    files,
		Recorder: rec,
	}, opts.Duplicates), nil
}

// Request names a data type and the date range to cover.
type Request struct {
	DataType string
	// Start is a YYYY-MM-DD date.
	Start string
	// Unit is day, week, month or year; empty means day.
	Unit string
	// End, when set, is an exclusive YYYY-MM-DD bound and Unit is ignored.
	End string
	// Trailing makes the window reach back one Unit and end on Start inclusive.
	Trailing bool
}

// Window resolves the request's date range.
func (r Request) Window() (ring.Window, error) {
	start, err := ring.ParseDate(r.Start)
	if err != nil {
		return ring.Window{}, err
	}
	if r.End != "" {
		end, err := ring.ParseDate(r.End)
		if err != nil {
			return ring.Window{}, err
		}
		return ring.NewWindow(start, end)
	}
	unit := ring.UnitDay
	if r.Unit != "" {
		if unit, err = ring.ParseUnit(r.Unit); err != nil {
			return ring.Window{}, err
		}
	}
	if r.Trailing {
		return ring.ResolveTrailing(start, unit)
	}
	return ring.Resolve(start, unit)
}

func (r Request) resolve() (*ring.Schema, ring.Window, error) {
	schema, err := ring.LookupSchema(r.DataType)
	if err != nil {
		return nil, ring.Window{}, err
	}
	w, err := r.Window()
	if err != nil {
		return nil, ring.Window{}, err
	}
	return schema, w, nil
}

// Fetch requests the window from the API and returns the filtered table.
func (h *DataHandler) Fetch(ctx context.Context, req Request) (*ring.Table, error) {
	schema, w, err := req.resolve()
	if err != nil {
		return nil, err
	}
	if h.fetcher == nil {
		return nil, fmt.Errorf("%w: no api fetcher configured", ring.ErrInvalidSource)
	}

	records, err := h.fetcher.Fetch(ctx, schema, w)
	if err != nil {
		h.recorder.ObserveTable(string(schema.DataType), string(ring.SourceAPI), 0, 0, err)
		return nil, fmt.Errorf("fetch %s: %w", schema.DataType, err)
	}
	t, err := h.normalizer.FromAPI(string(schema.DataType), records)
	return h.finish(t, w, ring.SourceAPI, schema, err)
}

// Load reads the local export for the data type and returns the filtered table.
func (h *DataHandler) Load(req Request) (*ring.Table, error) {
	schema, w, err := req.resolve()
	if err != nil {
		return nil, err
	}
	if h.loader == nil {
		return nil, fmt.Errorf("%w: no csv loader configured", ring.ErrInvalidSource)
	}

	rc, err := h.loader.Open(schema.DataType)
	if err != nil {
		h.recorder.ObserveTable(string(schema.DataType), string(ring.SourceCSV), 0, 0, err)
		return nil, fmt.Errorf("load %s: %w", schema.DataType, err)
	}
	defer rc.Close()

	t, err := h.normalizer.FromCSV(string(schema.DataType), rc)
	return h.finish(t, w, ring.SourceCSV, schema, err)
}

func (h *DataHandler) finish(t *ring.Table, w ring.Window, src ring.Source, schema *ring.Schema, err error) (*ring.Table, error) {
	if err != nil {
		h.recorder.ObserveTable(string(schema.DataType), string(src), 0, 0, err)
		return nil, fmt.Errorf("normalize %s: %w", schema.DataType, err)
	}
	if t.Dropped > 0 || len(t.Duplicates) > 0 {
		log.Printf("INFO: %s from %s: dropped %d rows without a valid date, %d duplicate dates (%s)",
			schema.DataType, src, t.Dropped, len(t.Duplicates), h.normalizer.Duplicates)
	}
	h.recorder.ObserveTable(string(schema.DataType), string(src), t.Dropped, len(t.Duplicates), nil)

	filtered := ring.Filter(t, w)
	log.Printf("DEBUG: %s from %s: %d of %d rows in %s", schema.DataType, src, filtered.Len(), t.Len(), w)
	return filtered, nil
}

// Get dispatches to Fetch or Load by source name.
func (h *DataHandler) Get(ctx context.Context, source string, req Request) (*ring.Table, error) {
	src, err := ring.ParseSource(source)
	if err != nil {
		return nil, err
	}
	if src == ring.SourceAPI {
		return h.Fetch(ctx, req)
	}
	return h.Load(req)
}

// Save overwrites name with the table's canonical CSV.
func (h *DataHandler) Save(t *ring.Table, name string) error {
	if t.Len() == 0 {
		return fmt.Errorf("%w: no data available to save", ring.ErrEmptySeries)
	}
	if h.saver == nil {
		return fmt.Errorf("%w: no output configured", ring.ErrFileAccess)
	}

	w, err := h.saver.Create(name)
	if err != nil {
		return err
	}
	if err := ring.WriteCSV(t, w); err != nil {
		w.Close()
		return fmt.Errorf("%w: write %s: %v", ring.ErrFileAccess, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ring.ErrFileAccess, name, err)
	}
	log.Printf("INFO: saved %d %s rows to %s", t.Len(), t.Schema.DataType, name)
	return nil
}

// FetchAndSave fetches the request from the API and writes it to name.
func (h *DataHandler) FetchAndSave(ctx context.Context, req Request, name string) (*ring.Table, error) {
	t, err := h.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := h.Save(t, name); err != nil {
		return nil, err
	}
	return t, nil
}

// Annotate returns the table with rolling z-score columns for column.
func (h *DataHandler) Annotate(ctx context.Context, source string, req Request, column string, window int, threshold float64) (*ring.Table, []ring.Anomaly, error) {
	t, err := h.Get(ctx, source, req)
	if err != nil {
		return nil, nil, err
	}
	return ring.Annotate(t, column, window, threshold)
}

// Changepoints segments column of the requested table. nBreakpoints <= 0
// switches to the penalized search.
func (h *DataHandler) Changepoints(ctx context.Context, source string, req Request, column string, nBreakpoints int) (ring.Series, ring.ChangePointSet, error) {
	t, err := h.Get(ctx, source, req)
	if err != nil {
		return ring.Series{}, nil, err
	}
	s, err := t.Series(column)
	if err != nil {
		return ring.Series{}, nil, err
	}
	var cps ring.ChangePointSet
	if nBreakpoints > 0 {
		cps, err = ring.DetectChangepoints(s.Values, nBreakpoints)
	} else {
		cps, err = ring.DetectChangepointsPenalized(s.Values, 0)
	}
	if err != nil {
		return ring.Series{}, nil, err
	}
	return s, cps, nil
}

// dayRequest is a one-day window on date.
func dayRequest(dataType, date string) Request {
	return Request{DataType: dataType, Start: date, Unit: string(ring.UnitDay)}
}

func (h *DataHandler) observeChart(kind string, c *chart.Chart, err error) (*chart.Chart, error) {
	h.recorder.ObserveChart(kind, err)
	if err != nil {
		return nil, err
	}
	return c, nil
}
