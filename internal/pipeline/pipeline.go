package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
	"github.com/couchcryptid/cloud-obs-etl/internal/observability"
)

// CandidateLister lists the canonical file names available for an instrument.
type CandidateLister interface {
	List(ctx context.Context, instrument domain.Instrument) ([]string, error)
}

// Hydrator reads one stored instrument file into a record.
type Hydrator interface {
	Hydrate(ctx context.Context, name string, instrument domain.Instrument) (domain.InstrumentRecord, error)
}

// RecordStore persists one fused day record.
type RecordStore interface {
	SaveDayRecord(ctx context.Context, day time.Time, rec domain.InstrumentRecord) error
}

// LayerPublisher delivers per-day layer events downstream.
type LayerPublisher interface {
	PublishLayers(ctx context.Context, event domain.LayerEvent) error
}

// Pipeline walks every day of one observatory-month: select, hydrate, merge,
// fuse, extract, persist, publish. Day failures are isolated; the month loop
// always runs to completion.
type Pipeline struct {
	processor *DayProcessor
	store     RecordStore
	publisher LayerPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	observatory string
	year        int
	month       time.Month
}

// New creates a Pipeline over the given stages.
func New(processor *DayProcessor, store RecordStore, publisher LayerPublisher,
	logger *slog.Logger, metrics *observability.Metrics,
	observatory string, year int, month time.Month) *Pipeline {
	return &Pipeline{
		processor:   processor,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
		observatory: observatory,
		year:        year,
		month:       month,
	}
}

// CheckReadiness returns nil once at least one day has been fully processed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no day has been processed yet")
	}
	return nil
}

// Run processes every day of the configured month and returns when the month
// is exhausted or the context is cancelled. Only listing failures abort the
// run; per-day errors are counted and skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"observatory", p.observatory, "year", p.year, "month", int(p.month))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	candidates, err := p.processor.ListCandidates(ctx)
	if err != nil {
		return err
	}

	for _, day := range monthDays(p.year, p.month) {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}
		p.runDay(ctx, day, candidates)
	}

	p.logger.Info("month complete")
	return nil
}

func (p *Pipeline) runDay(ctx context.Context, day time.Time, candidates Candidates) {
	logger := p.logger.With("day", day.Format(time.DateOnly))

	fused, layers, err := p.processor.ProcessDay(ctx, day, candidates)
	switch {
	case errors.Is(err, domain.ErrNoDataForDay):
		p.metrics.DaysNoData.Inc()
		logger.Info("no data for day")
		return
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		p.metrics.DayFailures.Inc()
		logger.Error("day processing failed", "error", err)
		return
	}

	if err := p.store.SaveDayRecord(ctx, day, fused); err != nil {
		p.metrics.DayFailures.Inc()
		logger.Error("save day record failed", "error", err)
		return
	}

	event := domain.NewLayerEvent(p.observatory, day, layers)
	if err := p.publisher.PublishLayers(ctx, event); err != nil {
		p.metrics.DayFailures.Inc()
		logger.Error("publish layer event failed", "error", err)
		return
	}
	p.metrics.LayerEventsPublished.Inc()

	p.metrics.DaysProcessed.Inc()
	p.ready.Store(true)
	logger.Info("day processed",
		"rows", len(layers), "transitions", event.TransitionCount())
}

// monthDays returns UTC midnight for every day of the month.
func monthDays(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var days []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
