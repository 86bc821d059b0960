package renderer

import (
	"fmt"
	"sync"

	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// ProbeResult describes how a single pixel's color came about
type ProbeResult struct {
	X         int               `json:"x"`
	Y         int               `json:"y"`
	Direction core.Vec3         `json:"direction"`
	Color     core.Vec3         `json:"color"`
	Events    []core.TraceEvent `json:"events"`
}

// RecordingHook stores every event it sees, in order
type RecordingHook struct {
	mu     sync.Mutex
	events []core.TraceEvent
}

// OnTraceEvent appends the event
func (h *RecordingHook) OnTraceEvent(event core.TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

// Events returns a copy of the recorded events
func (h *RecordingHook) Events() []core.TraceEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]core.TraceEvent, len(h.events))
	copy(events, h.events)
	return events
}

// ProbePixel traces pixel (x, y) with an event recorder attached and returns the
// full recursion trail. The render's own hooks, including the extra hook from
// RenderOptions, also see the probe's events.
func (rt *Raytracer) ProbePixel(x, y int) (ProbeResult, error) {
	width, height := rt.ImageSize()
	if x < 0 || x >= width || y < 0 || y >= height {
		return ProbeResult{}, fmt.Errorf("%w: (%d, %d) outside %dx%d", ErrPixelOutOfBounds, x, y, width, height)
	}

	recorder := &RecordingHook{}
	hooks := core.MultiHook{recorder}
	if rt.options.Hook != nil {
		hooks = append(hooks, rt.options.Hook)
	}

	color := rt.tracePixel(rt.scene.WithTraceHook(hooks), x, y)
	return ProbeResult{
		X:         x,
		Y:         y,
		Direction: rt.camera.DirectionAt(x, y),
		Color:     color,
		Events:    recorder.Events(),
	}, nil
}
