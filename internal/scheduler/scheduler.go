package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/oura-data-handler/internal/handler"
	"github.com/i474232898/oura-data-handler/internal/ring"
	"github.com/i474232898/oura-data-handler/internal/store"
)

// Syncer fetches one request and writes it under name.
type Syncer interface {
	FetchAndSave(ctx context.Context, req handler.Request, name string) (*ring.Table, error)
}

// Scheduler periodically exports recent API data for configured data types.
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
	dataTypes []string
	interval  time.Duration
	lookback  ring.Unit
	timeout   time.Duration
	now       func() time.Time
}

// New creates a new Scheduler.
func New(dataTypes []string, interval time.Duration, lookback ring.Unit, syncer Syncer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		syncer:    syncer,
		dataTypes: dataTypes,
		interval:  interval,
		lookback:  lookback,
		timeout:   30 * time.Second,
		now:       time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.dataTypes) == 0 || s.interval <= 0 {
		log.Println("scheduler: sync disabled; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() { s.RunOnce() })
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce exports every configured data type once, one after another, and
// returns how many succeeded.
func (s *Scheduler) RunOnce() int {
	runID := uuid.NewString()
	today := ring.Day(s.now().UTC())
	log.Printf("scheduler: run %s: syncing %d data types", runID, len(s.dataTypes))

	ok := 0
	for _, dt := range s.dataTypes {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		req := handler.Request{
			DataType: dt,
			Start:    today.Format(ring.DateLayout),
			Unit:     string(s.lookback),
			Trailing: true,
		}
		t, err := s.syncer.FetchAndSave(ctx, req, store.ExportName(dt))
		cancel()
		if err != nil {
			log.Printf("scheduler: run %s: sync failed for %s: %v", runID, dt, err)
			continue
		}
		ok++
		log.Printf("scheduler: run %s: synced %d %s rows", runID, t.Len(), dt)
	}
	log.Printf("scheduler: run %s: completed, %d of %d succeeded", runID, ok, len(s.dataTypes))
	return ok
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
