package domain

import "time"

// LayerEvent is the per-day message published downstream: every vertical
// transition found in the day's fused grid, plus enough identity to key and
// trace it.
type LayerEvent struct {
	Observatory string           `json:"observatory"`
	Day         time.Time        `json:"day"`
	Layers      []VerticalLayers `json:"layers"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// NewLayerEvent stamps a layer event for the given observatory and day.
func NewLayerEvent(observatory string, day time.Time, layers []VerticalLayers) LayerEvent {
	return LayerEvent{
		Observatory: observatory,
		Day:         DayStart(day),
		Layers:      layers,
		ProcessedAt: clock.Now(),
	}
}

// Key returns the partition key for the event: observatory plus canonical day.
func (e LayerEvent) Key() string {
	return e.Observatory + "/" + DayStart(e.Day).Format(dateLayout)
}

// TransitionCount returns the total number of bases and tops across all rows.
func (e LayerEvent) TransitionCount() int {
	n := 0
	for _, l := range e.Layers {
		n += len(l.Bases) + len(l.Tops)
	}
	return n
}
