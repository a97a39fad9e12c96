package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
	"github.com/couchcryptid/cloud-obs-etl/internal/observability"
)

// Candidates holds the sorted canonical file names per fusion role, listed
// once per run and reused across the month's days.
type Candidates map[domain.Role][]string

// DayProcessor turns one calendar day's candidate files into a fused day
// record and its vertical layer transitions.
type DayProcessor struct {
	lister   CandidateLister
	hydrator Hydrator
	sources  map[domain.Role]domain.Instrument
	policy   domain.FusionPolicy
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDayProcessor wires a processor over one lidar-class and one radar-class
// instrument.
func NewDayProcessor(lister CandidateLister, hydrator Hydrator,
	sources map[domain.Role]domain.Instrument, policy domain.FusionPolicy,
	logger *slog.Logger, metrics *observability.Metrics) (*DayProcessor, error) {
	for _, role := range domain.FusionOrder {
		if _, ok := sources[role]; !ok {
			return nil, fmt.Errorf("day processor: no %s instrument configured", role)
		}
	}
	return &DayProcessor{
		lister:   lister,
		hydrator: hydrator,
		sources:  sources,
		policy:   policy,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// ListCandidates lists every role's candidate names up front.
func (d *DayProcessor) ListCandidates(ctx context.Context) (Candidates, error) {
	out := make(Candidates, len(d.sources))
	for role, inst := range d.sources {
		names, err := d.lister.List(ctx, inst)
		if err != nil {
			return nil, fmt.Errorf("list %s files: %w", inst, err)
		}
		out[role] = names
	}
	return out, nil
}

// ProcessDay builds the merged day record for each role, fuses the grids, and
// extracts the vertical transitions. Returns domain.ErrNoDataForDay when any
// role has no sample inside the day.
func (d *DayProcessor) ProcessDay(ctx context.Context, day time.Time, candidates Candidates) (domain.InstrumentRecord, []domain.VerticalLayers, error) {
	buildStart := time.Now()

	merged := make(map[domain.Role]domain.InstrumentRecord, len(d.sources))
	for _, role := range domain.FusionOrder {
		rec, err := d.buildRoleDay(ctx, day, role, candidates[role])
		if err != nil {
			return domain.InstrumentRecord{}, nil, err
		}
		merged[role] = rec
	}
	d.metrics.DayBuildDuration.Observe(time.Since(buildStart).Seconds())

	fuseStart := time.Now()
	fused, err := domain.FuseGrids(day, merged, d.policy)
	if err != nil {
		return domain.InstrumentRecord{}, nil, fmt.Errorf("fuse grids: %w", err)
	}
	d.metrics.FuseDuration.Observe(time.Since(fuseStart).Seconds())

	layers, err := domain.ExtractLayers(fused, day, d.policy)
	if err != nil {
		return domain.InstrumentRecord{}, nil, fmt.Errorf("extract layers: %w", err)
	}
	return fused, layers, nil
}

// buildRoleDay selects the day window out of one instrument's candidates,
// hydrates the selected files, and merges them into a single day record.
func (d *DayProcessor) buildRoleDay(ctx context.Context, day time.Time, role domain.Role, names []string) (domain.InstrumentRecord, error) {
	inst := d.sources[role]

	window, err := domain.SelectWindow(day, names)
	if err != nil {
		return domain.InstrumentRecord{}, fmt.Errorf("select %s window: %w", inst, err)
	}
	if len(window) == 0 {
		return domain.InstrumentRecord{}, domain.ErrNoDataForDay
	}

	records := make([]domain.InstrumentRecord, 0, len(window))
	for _, name := range window {
		if err := ctx.Err(); err != nil {
			return domain.InstrumentRecord{}, err
		}
		rec, err := d.hydrator.Hydrate(ctx, name, inst)
		if err != nil {
			return domain.InstrumentRecord{}, fmt.Errorf("hydrate %s: %w", name, err)
		}
		records = append(records, rec)
	}
	d.metrics.FilesHydrated.WithLabelValues(string(inst)).Add(float64(len(records)))
	d.logger.Debug("role day hydrated", "instrument", inst, "files", len(records))

	merged, err := domain.BuildDayRecord(day, records)
	if err != nil {
		if errors.Is(err, domain.ErrNoDataForDay) {
			return domain.InstrumentRecord{}, err
		}
		return domain.InstrumentRecord{}, fmt.Errorf("merge %s day: %w", inst, err)
	}
	return merged, nil
}
