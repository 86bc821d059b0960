package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// EventKind identifies a step taken while resolving a ray
type EventKind string

const (
	EventHit             EventKind = "hit"
	EventMiss            EventKind = "miss"
	EventRecursionLimit  EventKind = "recursion-limit"
	EventReflect         EventKind = "reflect"
	EventRefract         EventKind = "refract"
	EventTotalReflection EventKind = "total-internal-reflection"
	EventAmbient         EventKind = "ambient"
	EventDiffuse         EventKind = "diffuse"
	EventShadow          EventKind = "shadow"
)

// TraceEvent describes one step of a ray's recursive resolution
type TraceEvent struct {
	Kind      EventKind `json:"kind"`
	Depth     int       `json:"depth"`
	Primitive string    `json:"primitive,omitempty"`
	Point     Vec3      `json:"point"`
	Direction Vec3      `json:"direction"`
	Distance  float64   `json:"distance,omitempty"`
	Angle     float64   `json:"angle,omitempty"` // incidence angle in radians for refraction
	Value     float64   `json:"value,omitempty"` // shadow factor, absorption factor, ...
}

// TraceHook receives trace events. Implementations must be safe for concurrent use
// because rendering workers share one hook.
type TraceHook interface {
	OnTraceEvent(event TraceEvent)
}

// TraceHookFunc adapts a function to the TraceHook interface
type TraceHookFunc func(event TraceEvent)

// OnTraceEvent calls f(event)
func (f TraceHookFunc) OnTraceEvent(event TraceEvent) {
	f(event)
}

// MultiHook fans each event out to every non-nil hook in order
type MultiHook []TraceHook

// OnTraceEvent forwards the event to each hook
func (m MultiHook) OnTraceEvent(event TraceEvent) {
	for _, hook := range m {
		if hook != nil {
			hook.OnTraceEvent(event)
		}
	}
}
