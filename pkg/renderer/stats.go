package renderer

import (
	"sync/atomic"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	TotalPixels int           `json:"totalPixels"` // Total number of pixels rendered
	Workers     int           `json:"workers"`
	Elapsed     time.Duration `json:"elapsed"`
	Events      EventCounts   `json:"events"`
}

// EventCounts tallies trace events seen during a render
type EventCounts struct {
	Hits                     int64 `json:"hits"`
	Misses                   int64 `json:"misses"`
	RecursionLimits          int64 `json:"recursionLimits"`
	Reflections              int64 `json:"reflections"`
	Refractions              int64 `json:"refractions"`
	TotalInternalReflections int64 `json:"totalInternalReflections"`
}

// CountingHook counts trace events. It is safe for concurrent use.
type CountingHook struct {
	hits                     atomic.Int64
	misses                   atomic.Int64
	recursionLimits          atomic.Int64
	reflections              atomic.Int64
	refractions              atomic.Int64
	totalInternalReflections atomic.Int64
}

// OnTraceEvent increments the counter for the event's kind
func (h *CountingHook) OnTraceEvent(event core.TraceEvent) {
	switch event.Kind {
	case core.EventHit:
		h.hits.Add(1)
	case core.EventMiss:
		h.misses.Add(1)
	case core.EventRecursionLimit:
		h.recursionLimits.Add(1)
	case core.EventReflect:
		h.reflections.Add(1)
	case core.EventRefract:
		h.refractions.Add(1)
	case core.EventTotalReflection:
		h.totalInternalReflections.Add(1)
	}
}

// Snapshot returns the current counts
func (h *CountingHook) Snapshot() EventCounts {
	return EventCounts{
		Hits:                     h.hits.Load(),
		Misses:                   h.misses.Load(),
		RecursionLimits:          h.recursionLimits.Load(),
		Reflections:              h.reflections.Load(),
		Refractions:              h.refractions.Load(),
		TotalInternalReflections: h.totalInternalReflections.Load(),
	}
}

// Reset zeroes every counter
func (h *CountingHook) Reset() {
	h.hits.Store(0)
	h.misses.Store(0)
	h.recursionLimits.Store(0)
	h.reflections.Store(0)
	h.refractions.Store(0)
	h.totalInternalReflections.Store(0)
}
